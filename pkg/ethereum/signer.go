package ethereum

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrUserRejected = errors.New("user rejected the transaction signature")

type Signer interface {
	Address() common.Address
	SignTx(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error)
}

type LocalSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

func NewLocalSigner(privateKeyHex string) (*LocalSigner, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if clean == "" {
		return nil, errors.New("private key is required")
	}

	pk, err := crypto.HexToECDSA(clean)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &LocalSigner{privateKey: pk, address: crypto.PubkeyToAddress(pk.PublicKey)}, nil
}

func (s *LocalSigner) Address() common.Address {
	return s.address
}

func (s *LocalSigner) SignTx(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	if s == nil || s.privateKey == nil {
		return nil, errors.New("local signer is not initialized")
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.privateKey)
}

// ApprovalFunc asks the wallet owner to approve a transaction before it is
// signed. Returning false rejects it.
type ApprovalFunc func(tx *types.Transaction) (bool, error)

// PromptSigner gates another signer behind an explicit approval.
type PromptSigner struct {
	inner   Signer
	approve ApprovalFunc
}

func NewPromptSigner(inner Signer, approve ApprovalFunc) *PromptSigner {
	return &PromptSigner{inner: inner, approve: approve}
}

func (s *PromptSigner) Address() common.Address {
	return s.inner.Address()
}

func (s *PromptSigner) SignTx(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	ok, err := s.approve(tx)
	if err != nil {
		return nil, fmt.Errorf("signature prompt: %w", err)
	}
	if !ok {
		return nil, ErrUserRejected
	}
	return s.inner.SignTx(chainID, tx)
}

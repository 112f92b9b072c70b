package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

var (
	ErrTxReverted     = errors.New("transaction reverted on-chain")
	ErrReceiptTimeout = errors.New("timed out waiting for receipt")
	ErrInvalidTxHash  = errors.New("invalid transaction hash")
)

// RevertError carries the decoded reason of a failed simulation or call.
type RevertError struct {
	Reason string
	Err    error
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("execution reverted: %v", e.Err)
	}
	return "execution reverted: " + e.Reason
}

func (e *RevertError) Unwrap() error { return e.Err }

type ExecuteOptions struct {
	PollInterval   time.Duration
	ReceiptTimeout time.Duration
	GasMultiplier  float64
}

func DefaultExecuteOptions() ExecuteOptions {
	return ExecuteOptions{
		PollInterval:   2 * time.Second,
		ReceiptTimeout: 2 * time.Minute,
		GasMultiplier:  1.2,
	}
}

// TransferExecutor submits ERC-20 transfers signed by a single wallet and
// tracks them until they are mined.
type TransferExecutor struct {
	backend Backend
	token   common.Address
	signer  Signer
	opts    ExecuteOptions
	log     *logrus.Logger
}

func NewTransferExecutor(backend Backend, tokenAddress string, signer Signer, opts ExecuteOptions, log *logrus.Logger) (*TransferExecutor, error) {
	if !common.IsHexAddress(tokenAddress) {
		return nil, fmt.Errorf("token contract: %w", ErrInvalidAddress)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultExecuteOptions().PollInterval
	}
	if opts.GasMultiplier < 1 {
		opts.GasMultiplier = 1
	}

	return &TransferExecutor{
		backend: backend,
		token:   common.HexToAddress(tokenAddress),
		signer:  signer,
		opts:    opts,
		log:     log,
	}, nil
}

func (e *TransferExecutor) Address() string {
	return e.signer.Address().Hex()
}

// Submit signs and broadcasts transfer(to, amount) and returns the tx hash.
// A failed eth_call simulation is returned as *RevertError before anything
// is signed.
func (e *TransferExecutor) Submit(ctx context.Context, to string, amount *big.Int) (string, error) {
	if !common.IsHexAddress(to) {
		return "", fmt.Errorf("recipient: %w", ErrInvalidAddress)
	}
	if amount == nil || amount.Sign() <= 0 {
		return "", errors.New("transfer amount must be positive")
	}

	data, err := erc20ABI.Pack("transfer", common.HexToAddress(to), amount)
	if err != nil {
		return "", fmt.Errorf("pack transfer call: %w", err)
	}

	from := e.signer.Address()
	msg := ethereum.CallMsg{From: from, To: &e.token, Data: data}

	chainID, err := e.backend.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("read chain id: %w", err)
	}

	if _, err := e.backend.CallContract(ctx, msg, nil); err != nil {
		return "", &RevertError{Reason: RevertReason(err), Err: err}
	}

	gasLimit, err := e.backend.EstimateGas(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("estimate gas: %w", err)
	}
	gasLimit = gasLimit * uint64(math.Round(e.opts.GasMultiplier*100)) / 100

	tipCap, err := e.backend.SuggestGasTipCap(ctx)
	if err != nil {
		tipCap = big.NewInt(2_000_000_000)
	}
	header, err := e.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("fetch latest header: %w", err)
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = big.NewInt(1_000_000_000)
	}
	feeCap := new(big.Int).Mul(baseFee, big.NewInt(2))
	feeCap.Add(feeCap, tipCap)

	nonce, err := e.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &e.token,
		Value:     big.NewInt(0),
		Data:      data,
	})

	signed, err := e.signer.SignTx(chainID, tx)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("broadcast transaction: %w", err)
	}

	hash := signed.Hash().Hex()
	e.log.WithFields(logrus.Fields{
		"tx_hash": hash,
		"to":      to,
		"amount":  amount.String(),
		"nonce":   nonce,
	}).Info("[TransferExecutor.Submit] transaction broadcast")

	return hash, nil
}

// WaitForReceipt polls until the transaction is mined. It returns nil on
// success and ErrTxReverted when the receipt reports failure. Transient RPC
// errors are ignored until the timeout.
func (e *TransferExecutor) WaitForReceipt(ctx context.Context, txHash string) error {
	raw := common.FromHex(txHash)
	if len(raw) != common.HashLength {
		return ErrInvalidTxHash
	}
	hash := common.BytesToHash(raw)

	waitCtx := ctx
	if e.opts.ReceiptTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, e.opts.ReceiptTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := e.backend.TransactionReceipt(waitCtx, hash)
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusSuccessful {
				return nil
			}
			return fmt.Errorf("%w (tx %s, block %s)", ErrTxReverted, txHash, receipt.BlockNumber)
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			e.log.WithFields(logrus.Fields{
				"tx_hash": txHash,
				"error":   err.Error(),
			}).Debug("[TransferExecutor.WaitForReceipt] receipt poll failed")
		}

		select {
		case <-waitCtx.Done():
			if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return fmt.Errorf("%w: %s", ErrReceiptTimeout, txHash)
			}
			return waitCtx.Err()
		case <-ticker.C:
		}
	}
}

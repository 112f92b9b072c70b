package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalidAddress = errors.New("invalid wallet address")

// BalanceOracle reads ERC-20 balances in base units. It never writes.
type BalanceOracle struct {
	backend Backend
	token   common.Address
}

func NewBalanceOracle(backend Backend, tokenAddress string) (*BalanceOracle, error) {
	if !common.IsHexAddress(tokenAddress) {
		return nil, fmt.Errorf("token contract: %w", ErrInvalidAddress)
	}
	return &BalanceOracle{backend: backend, token: common.HexToAddress(tokenAddress)}, nil
}

func (o *BalanceOracle) BalanceOf(ctx context.Context, owner string) (*big.Int, error) {
	if !common.IsHexAddress(owner) {
		return nil, ErrInvalidAddress
	}

	data, err := erc20ABI.Pack("balanceOf", common.HexToAddress(owner))
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf call: %w", err)
	}

	out, err := o.backend.CallContract(ctx, ethereum.CallMsg{To: &o.token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}

	values, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	if len(values) == 0 {
		return nil, errors.New("decode balance: empty result")
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("decode balance: unexpected type %T", values[0])
	}

	return balance, nil
}

func (o *BalanceOracle) Decimals(ctx context.Context) (uint8, error) {
	data, err := erc20ABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("pack decimals call: %w", err)
	}

	out, err := o.backend.CallContract(ctx, ethereum.CallMsg{To: &o.token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("read decimals: %w", err)
	}

	values, err := erc20ABI.Unpack("decimals", out)
	if err != nil {
		return 0, fmt.Errorf("decode decimals: %w", err)
	}
	if len(values) == 0 {
		return 0, errors.New("decode decimals: empty result")
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decode decimals: unexpected type %T", values[0])
	}

	return decimals, nil
}

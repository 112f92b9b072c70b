package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logPkg "VoicePay/pkg/log"
)

const (
	tokenAddress  = "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"
	walletAddress = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0"
)

type fakeBackend struct {
	mu sync.Mutex

	callOut  []byte
	callErr  error
	sendErr  error
	sent     []*types.Transaction
	calls    []ethereum.CallMsg
	receipts []*types.Receipt
	polls    int
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(11155111), nil }

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	return f.callOut, f.callErr
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 50_000, nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: big.NewInt(3_000_000_000)}, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 7, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.polls
	f.polls++
	if i < len(f.receipts) && f.receipts[i] != nil {
		return f.receipts[i], nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeBackend) Close() {}

type rpcDataError struct {
	msg  string
	data interface{}
}

func (e rpcDataError) Error() string          { return e.msg }
func (e rpcDataError) ErrorCode() int         { return 3 }
func (e rpcDataError) ErrorData() interface{} { return e.data }

func encodeErrorString(t *testing.T, reason string) []byte {
	t.Helper()
	stringTy, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	encoded, err := abi.Arguments{{Type: stringTy}}.Pack(reason)
	require.NoError(t, err)
	return append(common.FromHex("0x08c379a0"), encoded...)
}

func newTestSigner(t *testing.T) *LocalSigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &LocalSigner{privateKey: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

func TestBalanceOracle_BalanceOf(t *testing.T) {
	out, err := erc20ABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(10_000_000))
	require.NoError(t, err)
	backend := &fakeBackend{callOut: out}

	oracle, err := NewBalanceOracle(backend, tokenAddress)
	require.NoError(t, err)

	got, err := oracle.BalanceOf(context.Background(), walletAddress)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10_000_000), got)

	require.Len(t, backend.calls, 1)
	assert.Equal(t, common.HexToAddress(tokenAddress), *backend.calls[0].To)
	assert.Equal(t, erc20ABI.Methods["balanceOf"].ID, backend.calls[0].Data[:4])
}

func TestBalanceOracle_InvalidOwner(t *testing.T) {
	oracle, err := NewBalanceOracle(&fakeBackend{}, tokenAddress)
	require.NoError(t, err)

	_, err = oracle.BalanceOf(context.Background(), "vitalik.eth")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestBalanceOracle_Decimals(t *testing.T) {
	out, err := erc20ABI.Methods["decimals"].Outputs.Pack(uint8(6))
	require.NoError(t, err)

	oracle, err := NewBalanceOracle(&fakeBackend{callOut: out}, tokenAddress)
	require.NoError(t, err)

	got, err := oracle.Decimals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(6), got)
}

func TestTransferExecutor_Submit(t *testing.T) {
	backend := &fakeBackend{}
	signer := newTestSigner(t)
	exec, err := NewTransferExecutor(backend, tokenAddress, signer, DefaultExecuteOptions(), logPkg.NewTestLogger())
	require.NoError(t, err)

	hash, err := exec.Submit(context.Background(), walletAddress, big.NewInt(50_000_000))
	require.NoError(t, err)

	require.Len(t, backend.sent, 1)
	tx := backend.sent[0]
	assert.Equal(t, tx.Hash().Hex(), hash)
	assert.Equal(t, common.HexToAddress(tokenAddress), *tx.To())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(60_000), tx.Gas())
	assert.Equal(t, big.NewInt(7_000_000_000), tx.GasFeeCap())

	args, err := erc20ABI.Methods["transfer"].Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(walletAddress), args[0])
	assert.Equal(t, big.NewInt(50_000_000), args[1])

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(11155111)), tx)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), from)
}

func TestTransferExecutor_SubmitSimulationRevert(t *testing.T) {
	backend := &fakeBackend{callErr: rpcDataError{
		msg:  "execution reverted",
		data: "0x" + common.Bytes2Hex(encodeErrorString(t, "ERC20: transfer amount exceeds balance")),
	}}
	exec, err := NewTransferExecutor(backend, tokenAddress, newTestSigner(t), DefaultExecuteOptions(), logPkg.NewTestLogger())
	require.NoError(t, err)

	_, err = exec.Submit(context.Background(), walletAddress, big.NewInt(1))

	var revert *RevertError
	require.ErrorAs(t, err, &revert)
	assert.Equal(t, "ERC20: transfer amount exceeds balance", revert.Reason)
	assert.Empty(t, backend.sent)
}

func TestTransferExecutor_SubmitRejectedSignature(t *testing.T) {
	backend := &fakeBackend{}
	signer := NewPromptSigner(newTestSigner(t), func(*types.Transaction) (bool, error) { return false, nil })
	exec, err := NewTransferExecutor(backend, tokenAddress, signer, DefaultExecuteOptions(), logPkg.NewTestLogger())
	require.NoError(t, err)

	_, err = exec.Submit(context.Background(), walletAddress, big.NewInt(1))
	assert.ErrorIs(t, err, ErrUserRejected)
	assert.Empty(t, backend.sent)
}

func TestTransferExecutor_WaitForReceipt(t *testing.T) {
	hash := "0x" + common.Bytes2Hex(make([]byte, 32))
	opts := ExecuteOptions{PollInterval: time.Millisecond, ReceiptTimeout: time.Second}

	t.Run("confirmed after pending polls", func(t *testing.T) {
		backend := &fakeBackend{receipts: []*types.Receipt{nil, nil, {Status: types.ReceiptStatusSuccessful}}}
		exec, err := NewTransferExecutor(backend, tokenAddress, newTestSigner(t), opts, logPkg.NewTestLogger())
		require.NoError(t, err)

		require.NoError(t, exec.WaitForReceipt(context.Background(), hash))
		assert.Equal(t, 3, backend.polls)
	})

	t.Run("reverted", func(t *testing.T) {
		backend := &fakeBackend{receipts: []*types.Receipt{{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(5)}}}
		exec, err := NewTransferExecutor(backend, tokenAddress, newTestSigner(t), opts, logPkg.NewTestLogger())
		require.NoError(t, err)

		assert.ErrorIs(t, exec.WaitForReceipt(context.Background(), hash), ErrTxReverted)
	})

	t.Run("timeout", func(t *testing.T) {
		short := ExecuteOptions{PollInterval: time.Millisecond, ReceiptTimeout: 20 * time.Millisecond}
		exec, err := NewTransferExecutor(&fakeBackend{}, tokenAddress, newTestSigner(t), short, logPkg.NewTestLogger())
		require.NoError(t, err)

		assert.ErrorIs(t, exec.WaitForReceipt(context.Background(), hash), ErrReceiptTimeout)
	})

	t.Run("invalid hash", func(t *testing.T) {
		exec, err := NewTransferExecutor(&fakeBackend{}, tokenAddress, newTestSigner(t), opts, logPkg.NewTestLogger())
		require.NoError(t, err)

		assert.ErrorIs(t, exec.WaitForReceipt(context.Background(), "0x1234"), ErrInvalidTxHash)
	})
}

func TestRevertReason(t *testing.T) {
	assert.Equal(t, "slippage", RevertReason(rpcDataError{
		msg:  "execution reverted",
		data: "0x" + common.Bytes2Hex(encodeErrorString(t, "slippage")),
	}))
	assert.Equal(t, "custom error 0x12345678", RevertReason(rpcDataError{msg: "execution reverted", data: "0x12345678"}))
	assert.Equal(t, "Ownable: caller is not the owner", RevertReason(errors.New("execution reverted: Ownable: caller is not the owner")))
	assert.Equal(t, "", RevertReason(errors.New("connection refused")))
	assert.Equal(t, "", RevertReason(nil))
}

func TestNewLocalSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := "0x" + common.Bytes2Hex(crypto.FromECDSA(key))

	s, err := NewLocalSigner(hexKey)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), s.Address())

	_, err = NewLocalSigner("")
	assert.Error(t, err)
	_, err = NewLocalSigner("zz")
	assert.Error(t, err)
}

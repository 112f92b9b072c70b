package transfer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VoicePay/pkg/ethereum"
)

func TestClassifyTxError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   FailureKind
		reason string
	}{
		{"prompt declined", fmt.Errorf("sign transfer: %w", ethereum.ErrUserRejected), FailureUserRejected, ""},
		{"wallet provider rejection", errors.New("MetaMask Tx Signature: User denied transaction signature."), FailureUserRejected, ""},
		{"no gas funds", errors.New("insufficient funds for gas * price + value"), FailureInsufficientGas, ""},
		{"intrinsic gas", errors.New("intrinsic gas too low"), FailureInsufficientGas, ""},
		{"simulation revert", &ethereum.RevertError{Reason: "ERC20: transfer amount exceeds balance", Err: errors.New("call failed")}, FailureReverted, "ERC20: transfer amount exceeds balance"},
		{"receipt revert", fmt.Errorf("%w (tx 0xabc, block 12)", ethereum.ErrTxReverted), FailureReverted, ""},
		{"rpc revert text", errors.New("execution reverted: Pausable: paused"), FailureReverted, "Pausable: paused"},
		{"revert reason mentions funds", &ethereum.RevertError{Reason: "Vault: insufficient funds", Err: errors.New("call failed")}, FailureReverted, "Vault: insufficient funds"},
		{"rpc revert text mentions funds", errors.New("execution reverted: insufficient funds in pool"), FailureReverted, "insufficient funds in pool"},
		{"connection refused", errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"), FailureNetwork, ""},
		{"timeout", context.DeadlineExceeded, FailureNetwork, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failure := ClassifyTxError(tt.err)
			require.NotNil(t, failure)
			assert.Equal(t, tt.kind, failure.Kind)
			assert.Equal(t, tt.reason, failure.Reason)
			assert.NotEmpty(t, failure.Message)
			assert.ErrorIs(t, failure, tt.err)
		})
	}
}

func TestClassifyTxError_DistinctMessages(t *testing.T) {
	messages := map[string]FailureKind{}
	for _, err := range []error{
		ethereum.ErrUserRejected,
		errors.New("insufficient funds for gas"),
		ethereum.ErrTxReverted,
		errors.New("connection reset by peer"),
	} {
		f := ClassifyTxError(err)
		messages[f.Message] = f.Kind
	}
	assert.Len(t, messages, 4)
}

func TestClassifyTxError_RevertReasonInMessage(t *testing.T) {
	f := ClassifyTxError(errors.New("execution reverted: Pausable: paused"))
	assert.Equal(t, "Transaction was reverted: Pausable: paused", f.Message)

	assert.Nil(t, ClassifyTxError(nil))
}

package transfer

import (
	"context"
	"errors"
	"strings"

	"VoicePay/pkg/ethereum"
)

type FailureKind string

const (
	FailureUserRejected    FailureKind = "user-rejected-signature"
	FailureInsufficientGas FailureKind = "insufficient-gas"
	FailureReverted        FailureKind = "contract-reverted"
	FailureNetwork         FailureKind = "network"
)

// TxFailure is a classified on-chain failure. Message is meant for the user.
type TxFailure struct {
	Kind    FailureKind
	Reason  string
	Message string
	Err     error
}

func (f *TxFailure) Error() string { return f.Message }
func (f *TxFailure) Unwrap() error { return f.Err }

var (
	rejectedMarkers = []string{"user rejected", "user denied", "rejected the request", "request rejected"}
	gasMarkers      = []string{"insufficient funds", "intrinsic gas too low", "gas required exceeds", "out of gas"}
)

// ClassifyTxError sorts a signing, submission or receipt error into one of
// the failure kinds. Typed errors win over text markers. Unknown errors are
// treated as network failures.
func ClassifyTxError(err error) *TxFailure {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	if errors.Is(err, ethereum.ErrUserRejected) {
		return rejectedFailure(err)
	}

	var revertErr *ethereum.RevertError
	if errors.As(err, &revertErr) || errors.Is(err, ethereum.ErrTxReverted) {
		return revertedFailure(err, revertErr)
	}

	switch {
	case containsAny(msg, rejectedMarkers):
		return rejectedFailure(err)
	case strings.Contains(msg, "execution reverted"):
		return revertedFailure(err, nil)
	case containsAny(msg, gasMarkers):
		return &TxFailure{
			Kind:    FailureInsufficientGas,
			Message: "Not enough ETH to pay for gas. Top up your wallet and try again.",
			Err:     err,
		}
	}

	message := "Network error while processing the transaction. Check your connection and try again."
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ethereum.ErrReceiptTimeout) {
		message = "Timed out waiting for the network. Check the transaction in your wallet before retrying."
	}
	return &TxFailure{
		Kind:    FailureNetwork,
		Message: message,
		Err:     err,
	}
}

func rejectedFailure(err error) *TxFailure {
	return &TxFailure{
		Kind:    FailureUserRejected,
		Message: "Transaction was rejected in your wallet. Nothing was sent.",
		Err:     err,
	}
}

func revertedFailure(err error, revertErr *ethereum.RevertError) *TxFailure {
	reason := ethereum.RevertReason(err)
	if revertErr != nil && revertErr.Reason != "" {
		reason = revertErr.Reason
	}

	message := "Transaction was reverted by the token contract."
	if reason != "" {
		message = "Transaction was reverted: " + reason
	}
	return &TxFailure{
		Kind:    FailureReverted,
		Reason:  reason,
		Message: message,
		Err:     err,
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

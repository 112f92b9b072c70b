package transfer

import (
	"math/big"

	"VoicePay/internal/entity"
)

// State is an immutable snapshot of a session. Command is set from
// PhaseConfirming onward and TxRef once a transaction has been submitted.
// CanConfirm and BalanceError are recomputed for every snapshot from the
// command and the known balance.
type State struct {
	Phase   Phase
	Command *entity.ParsedCommand
	TxRef   string
	Error   string
	Failure *TxFailure
	Wallet  string
	Balance *big.Int

	CanConfirm   bool
	BalanceError string
}

func (s State) IsIdle() bool      { return s.Phase == PhaseIdle }
func (s State) IsRecording() bool { return s.Phase == PhaseRecording }

// IsProcessing is true while the recording is being turned into a command.
func (s State) IsProcessing() bool {
	return s.Phase == PhaseTranscribing || s.Phase == PhaseParsing
}

func (s State) IsAwaitingConfirmation() bool { return s.Phase == PhaseConfirming }

// IsSubmitting is true once the user has confirmed and the transaction is
// being signed or mined. The flow cannot be cancelled from here.
func (s State) IsSubmitting() bool {
	return s.Phase == PhaseExecuting || s.Phase == PhasePending
}

func (s State) IsConfirmed() bool { return s.Phase == PhaseConfirmed }
func (s State) IsFailed() bool    { return s.Phase == PhaseFailed }
func (s State) HasError() bool    { return s.Error != "" }

// CanRecord reports whether a new recording may start.
func (s State) CanRecord() bool {
	return s.Phase == PhaseIdle && s.Wallet != ""
}

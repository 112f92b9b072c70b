package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"VoicePay/internal/entity"
	"VoicePay/pkg/recipient"
)

var (
	ErrBusy                = errors.New("a voice transfer is already in progress")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrWalletNotConnected  = errors.New("wallet not connected")
	ErrInvalidWallet       = errors.New("invalid wallet address")
	ErrRecordingTooShort   = errors.New("recording is too short")
	ErrRecordingTooSmall   = errors.New("recording is too small")
	ErrNoSpeech            = errors.New("no speech detected")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAmountTooSmall      = errors.New("amount is below the token's smallest unit")
	ErrBalanceUnavailable  = errors.New("balance source not configured")
	ErrSessionReset        = errors.New("session was reset")
)

const (
	MinRecordingDuration         = time.Second
	MinRecordingBytes            = 1000
	DefaultConfirmedDisplayDelay = 3 * time.Second

	msgWalletDisconnected = "Wallet disconnected. Reconnect your wallet to continue."
)

// Timeouts bound each suspension point of the flow. Zero disables the bound.
type Timeouts struct {
	Transcribe time.Duration
	Parse      time.Duration
	Submit     time.Duration
	Confirm    time.Duration
	Balance    time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Transcribe: 30 * time.Second,
		Parse:      30 * time.Second,
		Submit:     2 * time.Minute,
		Confirm:    5 * time.Minute,
		Balance:    15 * time.Second,
	}
}

type Deps struct {
	Transcriber Transcriber
	Parser      Parser
	Executor    Executor
	Balances    Balances
	Token       Token
	Wallet      string
	Timeouts    Timeouts

	// ConfirmedDisplayDelay is how long a confirmed transfer stays visible
	// before the session resets to idle.
	ConfirmedDisplayDelay time.Duration
	Log                   *logrus.Logger
}

type observer struct {
	id int
	fn func(State)
}

// Session is a single voice transfer flow. Methods are safe to call from
// multiple goroutines, but only one flow may be active at a time.
//
// Disconnect may be called at any point. It bumps a generation counter and
// cancels the step in flight; results that arrive for an older generation
// are discarded.
type Session struct {
	deps Deps
	log  *logrus.Logger

	mu         sync.Mutex
	state      State
	gen        uint64
	cancel     context.CancelFunc
	resetTimer *time.Timer
	observers  []observer
	nextID     int
}

func NewSession(deps Deps) *Session {
	if deps.ConfirmedDisplayDelay <= 0 {
		deps.ConfirmedDisplayDelay = DefaultConfirmedDisplayDelay
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}

	return &Session{
		deps:  deps,
		log:   deps.Log,
		state: State{Phase: PhaseIdle, Wallet: deps.Wallet},
	}
}

// Subscribe registers fn to receive a snapshot after every transition. The
// returned function removes the subscription.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observer{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) BalanceCheck() BalanceCheck {
	s.mu.Lock()
	defer s.mu.Unlock()
	return checkBalance(s.state.Command, s.state.Balance, s.deps.Token)
}

func (s *Session) CanConfirm() bool {
	return s.State().CanConfirm
}

// Connect attaches a wallet. The known balance is cleared.
func (s *Session) Connect(address string) error {
	if !recipient.IsAddress(address) {
		return ErrInvalidWallet
	}

	s.mu.Lock()
	s.state.Wallet = address
	s.state.Balance = nil
	if s.state.Error == msgWalletDisconnected {
		s.state.Error = ""
	}
	notify := s.emitLocked()
	s.mu.Unlock()

	notify()
	return nil
}

// Disconnect handles loss of the wallet. Whatever the phase, the session
// returns to idle at once and forgets the command. A transaction that was
// already broadcast is not retracted; only local tracking stops.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}

	if s.state.TxRef != "" && s.state.Phase == PhasePending {
		s.log.WithFields(logrus.Fields{
			"tx_ref": s.state.TxRef,
		}).Warn("[Session.Disconnect] wallet lost while transaction pending, tracking stopped")
	}

	s.state = State{Phase: PhaseIdle, Error: msgWalletDisconnected}
	notify := s.emitLocked()
	s.mu.Unlock()

	notify()
}

func (s *Session) StartRecording() error {
	s.mu.Lock()
	if s.state.Wallet == "" {
		s.mu.Unlock()
		return ErrWalletNotConnected
	}
	if s.state.Phase != PhaseIdle {
		s.mu.Unlock()
		return ErrBusy
	}

	s.state.Phase = PhaseRecording
	s.state.Error = ""
	s.state.Failure = nil
	notify := s.emitLocked()
	s.mu.Unlock()

	notify()
	return nil
}

// StopRecording validates the recording and runs it through transcription
// and parsing. It returns once the session reaches PhaseConfirming or falls
// back to PhaseIdle.
func (s *Session) StopRecording(ctx context.Context, rec Recording) error {
	s.mu.Lock()
	if s.state.Phase != PhaseRecording {
		defer s.mu.Unlock()
		return s.invalidLocked("stop recording")
	}

	if err := validateRecording(rec); err != nil {
		notify := s.failToIdleLocked(recordingMessage(err))
		s.mu.Unlock()
		notify()
		return err
	}

	s.state.Phase = PhaseTranscribing
	stepCtx, gen := s.beginLocked(ctx, s.deps.Timeouts.Transcribe)
	notify := s.emitLocked()
	s.mu.Unlock()
	notify()

	text, err := s.deps.Transcriber.Transcribe(stepCtx, rec)

	s.mu.Lock()
	if stale := s.endLocked(gen); stale {
		s.mu.Unlock()
		return ErrSessionReset
	}
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrNoSpeech
	}
	if err != nil {
		msg := "Could not transcribe audio: " + err.Error()
		if errors.Is(err, ErrNoSpeech) {
			msg = "No speech detected. Please try again."
		}
		notify := s.failToIdleLocked(msg)
		s.mu.Unlock()
		notify()
		return fmt.Errorf("transcribe: %w", err)
	}

	s.state.Phase = PhaseParsing
	stepCtx, gen = s.beginLocked(ctx, s.deps.Timeouts.Parse)
	notify = s.emitLocked()
	s.mu.Unlock()
	notify()

	cmd, err := s.deps.Parser.Parse(stepCtx, text)

	s.mu.Lock()
	if stale := s.endLocked(gen); stale {
		s.mu.Unlock()
		return ErrSessionReset
	}
	if err == nil && cmd == nil {
		err = errors.New("parser returned no command")
	}
	if err != nil {
		msg := "Could not understand the command: " + err.Error()
		var parseErr *entity.ParseError
		if errors.As(err, &parseErr) {
			msg = parseErr.Message
		}
		notify := s.failToIdleLocked(msg)
		s.mu.Unlock()
		notify()
		return err
	}

	s.state.Phase = PhaseConfirming
	s.state.Command = cmd
	needBalance := s.state.Balance == nil && s.deps.Balances != nil
	notify = s.emitLocked()
	s.mu.Unlock()
	notify()

	if needBalance {
		if err := s.RefreshBalance(ctx); err != nil {
			s.log.WithFields(logrus.Fields{
				"error": err.Error(),
			}).Warn("[Session.StopRecording] balance refresh failed")
		}
	}
	return nil
}

// Confirm signs and submits the confirmed command. The balance gate is
// checked first and the executor is never called when it fails. Signing
// and submission failures return the session to PhaseConfirming with the
// same command; they are never retried.
func (s *Session) Confirm(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Phase != PhaseConfirming {
		defer s.mu.Unlock()
		return s.invalidLocked("confirm")
	}

	gate := checkBalance(s.state.Command, s.state.Balance, s.deps.Token)
	if !gate.Sufficient {
		s.state.Error = gate.Message
		notify := s.emitLocked()
		s.mu.Unlock()
		notify()
		return fmt.Errorf("%w: %s", gate.Err, gate.Message)
	}

	to := s.state.Command.Recipient()
	s.state.Phase = PhaseExecuting
	s.state.Error = ""
	s.state.Failure = nil
	stepCtx, gen := s.beginLocked(ctx, s.deps.Timeouts.Submit)
	notify := s.emitLocked()
	s.mu.Unlock()
	notify()

	ref, err := s.deps.Executor.Submit(stepCtx, to, gate.Required)

	s.mu.Lock()
	if stale := s.endLocked(gen); stale {
		s.mu.Unlock()
		if ref != "" {
			s.log.WithFields(logrus.Fields{
				"tx_ref": ref,
			}).Warn("[Session.Confirm] transaction submitted after session reset")
		}
		return ErrSessionReset
	}
	if err != nil {
		failure := ClassifyTxError(err)
		s.state.Phase = PhaseConfirming
		s.state.Failure = failure
		s.state.Error = failure.Message
		notify := s.emitLocked()
		s.mu.Unlock()
		notify()
		return failure
	}

	s.state.Phase = PhasePending
	s.state.TxRef = ref
	notify = s.emitLocked()
	s.mu.Unlock()
	notify()

	return nil
}

// AwaitConfirmation waits for the submitted transaction to be mined. On
// success the session schedules its own reset to idle.
func (s *Session) AwaitConfirmation(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Phase != PhasePending {
		defer s.mu.Unlock()
		return s.invalidLocked("await confirmation")
	}

	ref := s.state.TxRef
	stepCtx, gen := s.beginLocked(ctx, s.deps.Timeouts.Confirm)
	s.mu.Unlock()

	err := s.deps.Executor.WaitForReceipt(stepCtx, ref)

	s.mu.Lock()
	if stale := s.endLocked(gen); stale {
		s.mu.Unlock()
		return ErrSessionReset
	}
	if err != nil {
		failure := ClassifyTxError(err)
		s.state.Phase = PhaseFailed
		s.state.Failure = failure
		s.state.Error = failure.Message
		notify := s.emitLocked()
		s.mu.Unlock()
		notify()
		return failure
	}

	s.state.Phase = PhaseConfirmed
	s.resetTimer = time.AfterFunc(s.deps.ConfirmedDisplayDelay, func() { s.finish(gen) })
	notify := s.emitLocked()
	s.mu.Unlock()
	notify()

	return nil
}

// Reject discards the command awaiting confirmation.
func (s *Session) Reject() error {
	return s.resetFrom(PhaseConfirming, "reject")
}

// Acknowledge clears a failed transfer.
func (s *Session) Acknowledge() error {
	return s.resetFrom(PhaseFailed, "acknowledge")
}

func (s *Session) SetBalance(balance *big.Int) {
	s.mu.Lock()
	if balance == nil {
		s.state.Balance = nil
	} else {
		s.state.Balance = new(big.Int).Set(balance)
	}
	notify := s.emitLocked()
	s.mu.Unlock()

	notify()
}

// RefreshBalance reads the wallet balance from the configured source.
func (s *Session) RefreshBalance(ctx context.Context) error {
	s.mu.Lock()
	wallet, gen := s.state.Wallet, s.gen
	s.mu.Unlock()

	if s.deps.Balances == nil {
		return ErrBalanceUnavailable
	}
	if wallet == "" {
		return ErrWalletNotConnected
	}

	if s.deps.Timeouts.Balance > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.Timeouts.Balance)
		defer cancel()
	}

	balance, err := s.deps.Balances.BalanceOf(ctx, wallet)
	if err != nil {
		return fmt.Errorf("refresh balance: %w", err)
	}

	s.mu.Lock()
	if gen != s.gen || wallet != s.state.Wallet {
		s.mu.Unlock()
		return ErrSessionReset
	}
	s.state.Balance = new(big.Int).Set(balance)
	notify := s.emitLocked()
	s.mu.Unlock()

	notify()
	return nil
}

func (s *Session) finish(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state.Phase != PhaseConfirmed {
		s.mu.Unlock()
		return
	}
	s.resetTimer = nil
	s.resetLocked()
	notify := s.emitLocked()
	s.mu.Unlock()
	notify()

	if s.deps.Balances == nil {
		return
	}
	if err := s.RefreshBalance(context.Background()); err != nil {
		s.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("[Session.finish] balance refresh failed")
	}
}

func (s *Session) resetFrom(phase Phase, op string) error {
	s.mu.Lock()
	if s.state.Phase != phase {
		defer s.mu.Unlock()
		return s.invalidLocked(op)
	}
	s.resetLocked()
	notify := s.emitLocked()
	s.mu.Unlock()

	notify()
	return nil
}

func (s *Session) resetLocked() {
	s.state.Phase = PhaseIdle
	s.state.Command = nil
	s.state.TxRef = ""
	s.state.Error = ""
	s.state.Failure = nil
}

func (s *Session) failToIdleLocked(msg string) func() {
	s.resetLocked()
	s.state.Error = msg
	return s.emitLocked()
}

func (s *Session) invalidLocked(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, s.state.Phase)
}

// beginLocked derives the context for a suspension point. Disconnect
// cancels it.
func (s *Session) beginLocked(parent context.Context, timeout time.Duration) (context.Context, uint64) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	s.cancel = cancel
	return ctx, s.gen
}

// endLocked releases the step context and reports whether the session was
// reset while the step ran.
func (s *Session) endLocked(gen uint64) bool {
	if gen != s.gen {
		return true
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return false
}

func (s *Session) snapshotLocked() State {
	snap := s.state
	if s.state.Balance != nil {
		snap.Balance = new(big.Int).Set(s.state.Balance)
	}
	if snap.Phase == PhaseConfirming {
		gate := checkBalance(snap.Command, snap.Balance, s.deps.Token)
		snap.CanConfirm = gate.Sufficient
		if !gate.Sufficient {
			snap.BalanceError = gate.Message
		}
	}
	return snap
}

// emitLocked captures the current snapshot and observers. The returned
// function delivers it and must be called without the lock held.
func (s *Session) emitLocked() func() {
	snap := s.snapshotLocked()
	fns := make([]func(State), len(s.observers))
	for i, o := range s.observers {
		fns[i] = o.fn
	}

	return func() {
		for _, fn := range fns {
			fn(snap)
		}
	}
}

func validateRecording(rec Recording) error {
	if rec.Duration < MinRecordingDuration {
		return ErrRecordingTooShort
	}
	if len(rec.Data) < MinRecordingBytes {
		return ErrRecordingTooSmall
	}
	return nil
}

func recordingMessage(err error) string {
	if errors.Is(err, ErrRecordingTooShort) {
		return "Recording is too short. Speak for at least one second."
	}
	return "Recording is too small to transcribe. Please try again."
}

package main

import (
	"bytes"
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VoicePay/internal/entity"
	"VoicePay/internal/transfer"
	"VoicePay/pkg/ethereum"
	"VoicePay/pkg/log"
)

const (
	testWallet    = "0x1111111111111111111111111111111111111111"
	testRecipient = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0"
)

func TestParseCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"action":"transfer","amount":50,"recipient":"` + testRecipient + `","confidence":95,"rawText":"send 50","timestamp":"2025-03-14T09:30:00.000Z"}`))
	}))
	defer srv.Close()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := newRunner(strings.NewReader(""), stdout, stderr).run([]string{"parse", "--server", srv.URL, "send", "50"})

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), testRecipient)
	assert.Contains(t, stdout.String(), "transfer")
}

func TestParseCommand_ParseErrorExitsNonZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"MISSING_PARAMETERS","message":"Unable to parse command. Missing or invalid: amount (must be positive number)"},"rawText":"send","timestamp":"2025-03-14T09:30:00.000Z"}`))
	}))
	defer srv.Close()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := newRunner(strings.NewReader(""), stdout, stderr).run([]string{"parse", "--server", srv.URL, "send"})

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "MISSING_PARAMETERS")
	assert.Empty(t, stderr.String())
}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(context.Context, transfer.Recording) (string, error) {
	return "send 50 USDC to " + testRecipient, nil
}

type stubParser struct{}

func (stubParser) Parse(_ context.Context, text string) (*entity.ParsedCommand, error) {
	return entity.NewParsedCommand(entity.ActionTransfer, 50, testRecipient, 95, text, time.Now())
}

type stubExecutor struct {
	submitErr error
	submits   int
}

func (e *stubExecutor) Submit(context.Context, string, *big.Int) (string, error) {
	e.submits++
	if e.submitErr != nil {
		return "", e.submitErr
	}
	return "0xfeed", nil
}

func (e *stubExecutor) WaitForReceipt(context.Context, string) error { return nil }

type stubBalances struct{ balance *big.Int }

func (b stubBalances) BalanceOf(context.Context, string) (*big.Int, error) {
	return b.balance, nil
}

func driveWith(t *testing.T, input string, balance int64, executor *stubExecutor) (string, error) {
	t.Helper()

	stdout := &bytes.Buffer{}
	r := newRunner(strings.NewReader(input), stdout, &bytes.Buffer{})
	r.env = cliEnv{Symbol: "USDC", Decimals: 6}
	r.log = log.NewTestLogger()

	session := transfer.NewSession(transfer.Deps{
		Transcriber: stubTranscriber{},
		Parser:      stubParser{},
		Executor:    executor,
		Balances:    stubBalances{balance: new(big.Int).Mul(big.NewInt(balance), big.NewInt(1_000_000))},
		Token:       transfer.Token{Symbol: "USDC", Decimals: 6},
		Wallet:      testWallet,
		Log:         r.log,
	})

	rec := transfer.Recording{Data: make([]byte, 4096), Duration: 2 * time.Second}
	err := r.drive(context.Background(), session, rec, newPrompter(r.stdin, stdout))
	return stdout.String(), err
}

func TestDrive_Confirmed(t *testing.T) {
	executor := &stubExecutor{}
	out, err := driveWith(t, "y\n", 100, executor)

	require.NoError(t, err)
	assert.Equal(t, 1, executor.submits)
	assert.Contains(t, out, "Send 50 USDC to "+testRecipient)
	assert.Contains(t, out, "Wallet balance: 100 USDC")
	assert.Contains(t, out, "Submitted 0xfeed")
	assert.Contains(t, out, "Transfer confirmed.")
}

func TestDrive_InsufficientBalance(t *testing.T) {
	executor := &stubExecutor{}
	out, err := driveWith(t, "y\n", 10, executor)

	assert.ErrorIs(t, err, transfer.ErrInsufficientBalance)
	assert.Zero(t, executor.submits)
	assert.Contains(t, out, "short by 40 USDC")
}

func TestDrive_Declined(t *testing.T) {
	executor := &stubExecutor{}
	out, err := driveWith(t, "n\n", 100, executor)

	assert.ErrorIs(t, err, errCancelled)
	assert.Zero(t, executor.submits)
	assert.Contains(t, out, "Cancelled.")
}

func TestDrive_SignatureRejected(t *testing.T) {
	executor := &stubExecutor{submitErr: ethereum.ErrUserRejected}
	out, err := driveWith(t, "y\n", 100, executor)

	var failure *transfer.TxFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, transfer.FailureUserRejected, failure.Kind)
	assert.Contains(t, out, "rejected in your wallet")
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("", 8000)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)

	d, err = parseDuration("1500ms", 10)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	_, err = parseDuration("soon", 10)
	assert.Error(t, err)
}

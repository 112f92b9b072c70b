package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"VoicePay/internal/transfer"
	"VoicePay/pkg/ethereum"
	"VoicePay/pkg/units"
)

var errCancelled = errors.New("transfer cancelled")

func (r *runner) newSendCommand() *cobra.Command {
	var rec recordingFlags

	cmd := &cobra.Command{
		Use:   "send <audio-file>",
		Short: "Run a voice transfer end to end",
		Long: "Transcribes and parses the recording on the server, checks the wallet balance, " +
			"asks for confirmation and then signs and submits the token transfer.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recording, err := rec.load(args[0])
			if err != nil {
				return err
			}
			return r.send(cmd.Context(), recording)
		},
	}
	rec.register(cmd)
	return cmd
}

func (r *runner) send(ctx context.Context, recording transfer.Recording) error {
	if r.env.RPCURL == "" || r.env.Token == "" || r.env.PrivateKey == "" {
		return errors.New("ETH_RPC_URL, TOKEN_CONTRACT_ADDRESS and VOICECTL_PRIVATE_KEY must be set")
	}

	backend, err := ethereum.Dial(ctx, r.env.RPCURL)
	if err != nil {
		return err
	}
	defer backend.Close()

	local, err := ethereum.NewLocalSigner(r.env.PrivateKey)
	if err != nil {
		return err
	}

	prompt := newPrompter(r.stdin, r.stdout)
	signer := ethereum.NewPromptSigner(local, func(tx *types.Transaction) (bool, error) {
		return prompt.confirm(fmt.Sprintf("Sign transaction (nonce %d, gas limit %d)?", tx.Nonce(), tx.Gas()))
	})

	executor, err := ethereum.NewTransferExecutor(backend, r.env.Token, signer, ethereum.DefaultExecuteOptions(), r.log)
	if err != nil {
		return err
	}
	oracle, err := ethereum.NewBalanceOracle(backend, r.env.Token)
	if err != nil {
		return err
	}

	client := r.client()
	session := transfer.NewSession(transfer.Deps{
		Transcriber: client,
		Parser:      client,
		Executor:    executor,
		Balances:    oracle,
		Token:       transfer.Token{Symbol: r.env.Symbol, Decimals: r.env.Decimals},
		Wallet:      local.Address().Hex(),
		Timeouts:    transfer.DefaultTimeouts(),
		Log:         r.log,
	})
	session.Subscribe(func(st transfer.State) {
		r.log.WithField("phase", st.Phase.String()).Debug("session transition")
	})

	go func() {
		<-ctx.Done()
		session.Disconnect()
	}()

	return r.drive(ctx, session, recording, prompt)
}

// drive walks a session from recording to a terminal state, asking the user
// before anything is signed.
func (r *runner) drive(ctx context.Context, session *transfer.Session, recording transfer.Recording, prompt *prompter) error {
	if err := session.RefreshBalance(ctx); err != nil {
		r.log.WithField("error", err.Error()).Warn("could not read wallet balance")
	}

	if err := session.StartRecording(); err != nil {
		return err
	}
	if err := session.StopRecording(ctx, recording); err != nil {
		if msg := session.State().Error; msg != "" {
			fmt.Fprintln(r.stdout, msg)
		}
		return err
	}

	st := session.State()
	fmt.Fprintf(r.stdout, "Send %s %s to %s (confidence %d%%)\n",
		units.FromFloat(st.Command.Amount()), r.env.Symbol, st.Command.Recipient(), st.Command.Confidence())
	if st.Balance != nil {
		fmt.Fprintf(r.stdout, "Wallet balance: %s %s\n", units.ToHumanUnits(st.Balance, r.env.Decimals), r.env.Symbol)
	}

	if !st.CanConfirm {
		fmt.Fprintln(r.stdout, st.BalanceError)
		gate := session.BalanceCheck()
		_ = session.Reject()
		return gate.Err
	}

	ok, err := prompt.confirm("Confirm transfer?")
	if err != nil {
		return err
	}
	if !ok {
		_ = session.Reject()
		fmt.Fprintln(r.stdout, "Cancelled.")
		return errCancelled
	}

	if err := session.Confirm(ctx); err != nil {
		fmt.Fprintln(r.stdout, session.State().Error)
		_ = session.Reject()
		return err
	}
	fmt.Fprintf(r.stdout, "Submitted %s, waiting for confirmation...\n", session.State().TxRef)

	if err := session.AwaitConfirmation(ctx); err != nil {
		fmt.Fprintln(r.stdout, session.State().Error)
		_ = session.Acknowledge()
		return err
	}

	fmt.Fprintln(r.stdout, "Transfer confirmed.")
	return nil
}

type prompter struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	out     io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{scanner: bufio.NewScanner(in), out: out}
}

func (p *prompter) confirm(question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return false, err
		}
		return false, nil
	}

	switch strings.ToLower(strings.TrimSpace(p.scanner.Text())) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func parseDuration(flag string, size int) (time.Duration, error) {
	if flag != "" {
		d, err := time.ParseDuration(flag)
		if err != nil {
			return 0, fmt.Errorf("invalid --duration: %w", err)
		}
		return d, nil
	}
	return time.Duration(size) * time.Second / bytesPerSecond, nil
}

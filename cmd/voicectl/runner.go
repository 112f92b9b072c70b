package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"VoicePay/internal/entity"
	"VoicePay/internal/voiceclient"
	"VoicePay/pkg/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type cliEnv struct {
	ServerURL  string        `envconfig:"VOICEPAY_SERVER_URL" default:"http://localhost:3000"`
	Timeout    time.Duration `envconfig:"VOICECTL_TIMEOUT" default:"45s"`
	RPCURL     string        `envconfig:"ETH_RPC_URL"`
	Token      string        `envconfig:"TOKEN_CONTRACT_ADDRESS"`
	Decimals   int           `envconfig:"TOKEN_DECIMALS" default:"6"`
	Symbol     string        `envconfig:"TOKEN_SYMBOL" default:"USDC"`
	PrivateKey string        `envconfig:"VOICECTL_PRIVATE_KEY"`
}

type runner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	env     cliEnv
	verbose bool
	log     *logrus.Logger
}

func newRunner(stdin io.Reader, stdout, stderr io.Writer) *runner {
	return &runner{stdin: stdin, stdout: stdout, stderr: stderr}
}

func (r *runner) run(args []string) int {
	root := r.newRootCommand()
	root.SetArgs(args)
	root.SetIn(r.stdin)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		var parseErr *entity.ParseError
		if !errors.As(err, &parseErr) {
			fmt.Fprintf(r.stderr, "error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (r *runner) newRootCommand() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "voicectl",
		Short: "Voice payment client",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if err := envconfig.Process("", &r.env); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if serverURL != "" {
				r.env.ServerURL = serverURL
			}

			level := logrus.WarnLevel
			if r.verbose {
				level = logrus.DebugLevel
			}
			r.log = log.NewConsoleLogger(r.stderr, level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL (default $VOICEPAY_SERVER_URL)")
	cmd.PersistentFlags().BoolVarP(&r.verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(
		r.newParseCommand(),
		r.newTranscribeCommand(),
		r.newBalanceCommand(),
		r.newSendCommand(),
	)
	return cmd
}

func (r *runner) client() *voiceclient.Client {
	return voiceclient.New(r.env.ServerURL, r.env.Timeout)
}

func (r *runner) printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.stdout, string(out))
	return err
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"VoicePay/internal/entity"
	"VoicePay/internal/transfer"
)

func (r *runner) newParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Parse a spoken transfer command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := r.client().Parse(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				var parseErr *entity.ParseError
				if errors.As(err, &parseErr) {
					if printErr := r.printJSON(parseErr); printErr != nil {
						return printErr
					}
				}
				return err
			}
			return r.printJSON(parsed)
		},
	}
}

func (r *runner) newTranscribeCommand() *cobra.Command {
	var rec recordingFlags

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe a recorded command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recording, err := rec.load(args[0])
			if err != nil {
				return err
			}
			res, err := r.client().TranscribeAudio(cmd.Context(), recording)
			if err != nil {
				return err
			}
			return r.printJSON(res)
		},
	}
	rec.register(cmd)
	return cmd
}

func (r *runner) newBalanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Show the token balance of a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := r.client().Balance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return r.printJSON(res)
		},
	}
}

// bytesPerSecond approximates a 32 kbps compressed voice stream and is only
// used when --duration is not given.
const bytesPerSecond = 4000

type recordingFlags struct {
	encoding   string
	language   string
	sampleRate int
	duration   string
}

func (f *recordingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "audio encoding (WEBM_OPUS, OGG_OPUS, LINEAR16, MP3, FLAC, MP4)")
	cmd.Flags().StringVar(&f.language, "language", "en-US", "BCP-47 language code")
	cmd.Flags().IntVar(&f.sampleRate, "sample-rate", 0, "sample rate in hertz")
	cmd.Flags().StringVar(&f.duration, "duration", "", "recording length, e.g. 3s (estimated from size when empty)")
}

func (f *recordingFlags) load(path string) (transfer.Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return transfer.Recording{}, fmt.Errorf("read audio: %w", err)
	}

	duration, err := parseDuration(f.duration, len(data))
	if err != nil {
		return transfer.Recording{}, err
	}

	return transfer.Recording{
		Data:            data,
		Duration:        duration,
		Filename:        filepath.Base(path),
		Encoding:        f.encoding,
		SampleRateHertz: f.sampleRate,
		LanguageCode:    f.language,
	}, nil
}

package transfer

import (
	"context"
	"math/big"
	"time"

	"VoicePay/internal/entity"
)

type Recording struct {
	Data            []byte
	Duration        time.Duration
	Filename        string
	Encoding        string
	SampleRateHertz int
	LanguageCode    string
}

// Transcriber turns a recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, rec Recording) (string, error)
}

// Parser turns text into a validated command. A typed failure is returned
// as *entity.ParseError.
type Parser interface {
	Parse(ctx context.Context, text string) (*entity.ParsedCommand, error)
}

// Executor submits a token transfer and later reports its outcome. Amounts
// are in base units.
type Executor interface {
	Submit(ctx context.Context, to string, amount *big.Int) (string, error)
	WaitForReceipt(ctx context.Context, txRef string) error
}

type Balances interface {
	BalanceOf(ctx context.Context, owner string) (*big.Int, error)
}

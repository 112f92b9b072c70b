package entity

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"VoicePay/pkg/recipient"
)

const (
	ActionTransfer = "transfer"

	// MinConfidence is the lowest extractor confidence accepted without
	// asking the user for clarification.
	MinConfidence = 50

	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrInvalidParsedCommand = errors.New("invalid parsed command")

// ParsedCommand is a validated transfer instruction. The zero value is not
// usable; build one with NewParsedCommand.
type ParsedCommand struct {
	action     string
	amount     float64
	recipient  string
	confidence int
	rawText    string
	timestamp  time.Time
}

func NewParsedCommand(action string, amount float64, to string, confidence int, rawText string, ts time.Time) (*ParsedCommand, error) {
	var violations []string
	if action != ActionTransfer {
		violations = append(violations, "action")
	}
	if !(amount > 0) || math.IsInf(amount, 0) {
		violations = append(violations, "amount")
	}
	if !recipient.IsAddress(to) {
		violations = append(violations, "recipient")
	}
	if confidence < MinConfidence || confidence > 100 {
		violations = append(violations, "confidence")
	}
	if len(violations) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidParsedCommand, strings.Join(violations, ", "))
	}

	return &ParsedCommand{
		action:     action,
		amount:     amount,
		recipient:  to,
		confidence: confidence,
		rawText:    rawText,
		timestamp:  ts.UTC(),
	}, nil
}

func (p *ParsedCommand) Action() string       { return p.action }
func (p *ParsedCommand) Amount() float64      { return p.amount }
func (p *ParsedCommand) Recipient() string    { return p.recipient }
func (p *ParsedCommand) Confidence() int      { return p.confidence }
func (p *ParsedCommand) RawText() string      { return p.rawText }
func (p *ParsedCommand) Timestamp() time.Time { return p.timestamp }

type parsedCommandJSON struct {
	Action     string  `json:"action"`
	Amount     float64 `json:"amount"`
	Recipient  string  `json:"recipient"`
	Confidence int     `json:"confidence"`
	RawText    string  `json:"rawText"`
	Timestamp  string  `json:"timestamp"`
}

func (p ParsedCommand) MarshalJSON() ([]byte, error) {
	return json.Marshal(parsedCommandJSON{
		Action:     p.action,
		Amount:     p.amount,
		Recipient:  p.recipient,
		Confidence: p.confidence,
		RawText:    p.rawText,
		Timestamp:  p.timestamp.UTC().Format(TimestampLayout),
	})
}

// UnmarshalJSON re-validates the decoded fields.
func (p *ParsedCommand) UnmarshalJSON(data []byte) error {
	var raw parsedCommandJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, err := time.Parse(time.RFC3339Nano, raw.Timestamp)
	if err != nil {
		return fmt.Errorf("%w: timestamp: %v", ErrInvalidParsedCommand, err)
	}

	cmd, err := NewParsedCommand(raw.Action, raw.Amount, raw.Recipient, raw.Confidence, raw.RawText, ts)
	if err != nil {
		return err
	}
	*p = *cmd
	return nil
}

type ParseErrorCode string

const (
	ParseErrMissingParameters ParseErrorCode = "MISSING_PARAMETERS"
	ParseErrAmbiguousCommand  ParseErrorCode = "AMBIGUOUS_COMMAND"
	ParseErrParsingFailed     ParseErrorCode = "PARSING_FAILED"
)

// ParseError is the typed failure outcome of parsing a voice command.
type ParseError struct {
	Code                ParseErrorCode
	Message             string
	Details             string
	RawText             string
	Timestamp           time.Time
	ClarificationNeeded bool
}

func (e *ParseError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type parseErrorDetail struct {
	Code    ParseErrorCode `json:"code"`
	Message string         `json:"message"`
	Details string         `json:"details,omitempty"`
}

type parseErrorJSON struct {
	Error               parseErrorDetail `json:"error"`
	RawText             string           `json:"rawText"`
	Timestamp           string           `json:"timestamp"`
	ClarificationNeeded bool             `json:"clarificationNeeded,omitempty"`
}

func (e ParseError) MarshalJSON() ([]byte, error) {
	return json.Marshal(parseErrorJSON{
		Error: parseErrorDetail{
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		},
		RawText:             e.RawText,
		Timestamp:           e.Timestamp.UTC().Format(TimestampLayout),
		ClarificationNeeded: e.ClarificationNeeded,
	})
}

func (e *ParseError) UnmarshalJSON(data []byte) error {
	var raw parseErrorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, err := time.Parse(time.RFC3339Nano, raw.Timestamp)
	if err != nil && raw.Timestamp != "" {
		return fmt.Errorf("parse error timestamp: %w", err)
	}

	*e = ParseError{
		Code:                raw.Error.Code,
		Message:             raw.Error.Message,
		Details:             raw.Error.Details,
		RawText:             raw.RawText,
		Timestamp:           ts,
		ClarificationNeeded: raw.ClarificationNeeded,
	}
	return nil
}

const (
	OutcomeParsed      = "PARSED"
	OutcomeTranscribed = "TRANSCRIBED"
)

// VoiceCommand is the audit record of one parse attempt or transcription.
// AudioKey points at the archived recording, when there is one.
type VoiceCommand struct {
	ID         string          `db:"id"`
	RequestID  string          `db:"request_id"`
	RawText    string          `db:"raw_text"`
	Outcome    string          `db:"outcome"`
	Action     sql.NullString  `db:"action"`
	Amount     sql.NullFloat64 `db:"amount"`
	Recipient  sql.NullString  `db:"recipient"`
	Confidence sql.NullInt32   `db:"confidence"`
	Details    sql.NullString  `db:"details"`
	AudioKey   sql.NullString  `db:"audio_key"`
	CreatedAt  time.Time       `db:"created_at"`
}

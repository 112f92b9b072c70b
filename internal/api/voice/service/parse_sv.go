package voiceService

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"VoicePay/internal/entity"
	contextPkg "VoicePay/pkg/context"
	"VoicePay/pkg/recipient"
)

const (
	msgParsingFailed    = "Failed to parse voice command. Please try again."
	msgMissingParams    = "Unable to parse command. Missing or invalid: "
	msgAmbiguousCommand = "Command is unclear. Please try again with more specific details."

	violationAction    = `action (must be "transfer")`
	violationAmount    = "amount (must be positive number)"
	violationRecipient = "recipient (must be valid Ethereum address)"
)

// ParseVoiceCommand turns transcribed text into a validated transfer
// instruction or a typed parse error. Structural validation always runs
// before the confidence gate.
func (s *voiceService) ParseVoiceCommand(ctx context.Context, text string) (*entity.ParsedCommand, *entity.ParseError) {
	start := time.Now()

	cmd, perr, recipientCode := s.parse(ctx, text)

	outcome := entity.OutcomeParsed
	if perr != nil {
		outcome = string(perr.Code)
	}
	s.metrics.RecordParseOutcome(outcome, time.Since(start).Seconds())
	s.recordOutcome(ctx, text, cmd, perr, recipientCode)

	return cmd, perr
}

// parse also reports the recipient validation code when the recipient was
// rejected, for the audit trail.
func (s *voiceService) parse(ctx context.Context, text string) (*entity.ParsedCommand, *entity.ParseError, string) {
	requestID := contextPkg.GetRequestID(ctx)

	if strings.TrimSpace(text) == "" {
		return nil, s.parseError(entity.ParseErrParsingFailed, msgParsingFailed, "text must not be empty", text), ""
	}

	candidate, err := s.extractor.Extract(ctx, text)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("[voiceService.ParseVoiceCommand] command extraction failed")
		return nil, s.parseError(entity.ParseErrParsingFailed, msgParsingFailed, err.Error(), text), ""
	}

	var recipientCode string
	var violations []string
	if candidate.Action != entity.ActionTransfer {
		violations = append(violations, violationAction)
	}
	if !(candidate.Amount > 0) {
		violations = append(violations, violationAmount)
	}
	to := recipient.Validate(candidate.Recipient)
	if !to.Valid {
		recipientCode = to.Error.Code
		violations = append(violations, violationRecipient)
	}
	if len(violations) > 0 {
		s.log.WithFields(logrus.Fields{
			"request_id":     requestID,
			"violations":     violations,
			"recipient_code": recipientCode,
		}).Info("[voiceService.ParseVoiceCommand] command is missing parameters")
		return nil, s.parseError(entity.ParseErrMissingParameters, msgMissingParams+strings.Join(violations, ", "), candidate.Reasoning, text), recipientCode
	}

	if candidate.Confidence < entity.MinConfidence {
		perr := s.parseError(entity.ParseErrAmbiguousCommand, msgAmbiguousCommand, candidate.Reasoning, text)
		perr.ClarificationNeeded = true
		return nil, perr, ""
	}

	cmd, err := entity.NewParsedCommand(
		candidate.Action,
		candidate.Amount,
		to.Address,
		int(math.Round(candidate.Confidence)),
		text,
		s.now(),
	)
	if err != nil {
		return nil, s.parseError(entity.ParseErrParsingFailed, msgParsingFailed, err.Error(), text), ""
	}

	return cmd, nil, ""
}

func (s *voiceService) parseError(code entity.ParseErrorCode, message, details, rawText string) *entity.ParseError {
	return &entity.ParseError{
		Code:      code,
		Message:   message,
		Details:   details,
		RawText:   rawText,
		Timestamp: s.now().UTC(),
	}
}

// recordOutcome writes the audit row. Failures are logged and swallowed.
func (s *voiceService) recordOutcome(ctx context.Context, text string, cmd *entity.ParsedCommand, perr *entity.ParseError, recipientCode string) {
	if s.voiceRepo == nil {
		return
	}
	requestID := contextPkg.GetRequestID(ctx)

	id, err := s.utils.NewULIDFromTimestamp(s.now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("[voiceService.recordOutcome] failed to generate id")
		return
	}

	row := entity.VoiceCommand{
		ID:        id,
		RequestID: requestID,
		RawText:   text,
		CreatedAt: s.now().UTC(),
	}
	if cmd != nil {
		row.Outcome = entity.OutcomeParsed
		row.Action = sql.NullString{String: cmd.Action(), Valid: true}
		row.Amount = sql.NullFloat64{Float64: cmd.Amount(), Valid: true}
		row.Recipient = sql.NullString{String: cmd.Recipient(), Valid: true}
		row.Confidence = sql.NullInt32{Int32: int32(cmd.Confidence()), Valid: true}
	} else {
		row.Outcome = string(perr.Code)
		details := perr.Message + ": " + perr.Details
		if recipientCode != "" {
			details += " (recipient " + recipientCode + ")"
		}
		row.Details = sql.NullString{String: details, Valid: true}
	}

	s.storeVoiceCommand(ctx, row)
}

// storeVoiceCommand writes an audit row and reports whether it was stored.
func (s *voiceService) storeVoiceCommand(ctx context.Context, row entity.VoiceCommand) bool {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("[voiceService.storeVoiceCommand] failed to create repository client")
		return false
	}

	if err := repo.VoiceCommands.CreateVoiceCommand(ctx, row); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"outcome":    row.Outcome,
			"error":      err.Error(),
		}).Warn("[voiceService.storeVoiceCommand] failed to store voice command")
		return false
	}
	return true
}

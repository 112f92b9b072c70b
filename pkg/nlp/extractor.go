package nlp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"VoicePay/pkg/gemini"
	"VoicePay/pkg/metrics"
	"VoicePay/pkg/retry"
)

var ErrEmptyText = errors.New("text must not be empty")

// DefaultPolicy makes three attempts, waiting 1s then 2s.
func DefaultPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		Backoff:     retry.Linear(time.Second),
	}
}

type CommandExtractor struct {
	model   gemini.IGemini
	policy  retry.Policy
	log     *logrus.Logger
	metrics *metrics.Metrics
}

func NewCommandExtractor(model gemini.IGemini, policy retry.Policy, log *logrus.Logger, m *metrics.Metrics) *CommandExtractor {
	return &CommandExtractor{
		model:   model,
		policy:  policy,
		log:     log,
		metrics: m,
	}
}

func (e *CommandExtractor) Extract(ctx context.Context, text string) (*Candidate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	policy := e.policy
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		e.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		}).Warn("[CommandExtractor.Extract] attempt failed, retrying")
	}

	var candidate *Candidate
	err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		raw, err := e.model.GenerateText(ctx, commandSystemPrompt, commandPrompt(text))
		if err != nil {
			e.metrics.RecordExtractorAttempt("error")
			return err
		}

		c, err := decodeCandidate(raw)
		if err != nil {
			e.metrics.RecordExtractorAttempt("unparseable")
			return err
		}

		e.metrics.RecordExtractorAttempt("success")
		candidate = c
		return nil
	})
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			return nil, fmt.Errorf("failed to extract command after %d attempts: %w", exhausted.Attempts, exhausted.Last)
		}
		return nil, fmt.Errorf("failed to extract command: %w", err)
	}

	return candidate, nil
}

func decodeCandidate(raw string) (*Candidate, error) {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(obj, &fields); err != nil {
		return nil, fmt.Errorf("decoding model response: %w", err)
	}

	return &Candidate{
		Action:     asString(fields["action"]),
		Amount:     asNumber(fields["amount"]),
		Recipient:  asString(fields["recipient"]),
		Confidence: clamp(asNumber(fields["confidence"]), 0, 100),
		Reasoning:  asString(fields["reasoning"]),
	}, nil
}

func asString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// asNumber accepts JSON numbers and numeric strings. Anything else is 0.
func asNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrNoSpeechDetected    = errors.New("no speech detected in audio")
	ErrInsufficientQuality = errors.New("audio quality insufficient for transcription")
)

const (
	noSpeechThreshold = 0.6
	minAverageLogProb = -1.0
	defaultAudioName  = "recording.webm"
)

// Audio is a recorded clip to transcribe. Filename only carries the format
// hint the API infers the codec from.
type Audio struct {
	Data     []byte
	Filename string
	Language string
}

type Transcript struct {
	Text     string
	Language string
	Duration float64
}

type ITranscriber interface {
	Transcribe(ctx context.Context, audio Audio) (*Transcript, error)
}

type whisperAPI interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

type TranscriptionService struct {
	client whisperAPI
}

func NewTranscriptionService(apiKey string) *TranscriptionService {
	return &TranscriptionService{client: openai.NewClient(apiKey)}
}

func (t *TranscriptionService) Transcribe(ctx context.Context, audio Audio) (*Transcript, error) {
	name := audio.Filename
	if name == "" {
		name = defaultAudioName
	}

	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audio.Data),
		FilePath: name,
		Language: audio.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	resp, err := t.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription via Whisper API: %w", err)
	}

	if err := classify(resp); err != nil {
		return nil, err
	}

	return &Transcript{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}

// classify rejects transcripts Whisper itself flags as silence or noise.
func classify(resp openai.AudioResponse) error {
	if strings.TrimSpace(resp.Text) == "" {
		return ErrNoSpeechDetected
	}
	if len(resp.Segments) == 0 {
		return nil
	}

	silent := 0
	var logProb float64
	for _, seg := range resp.Segments {
		if seg.NoSpeechProb > noSpeechThreshold {
			silent++
		}
		logProb += seg.AvgLogprob
	}

	if silent == len(resp.Segments) {
		return ErrNoSpeechDetected
	}
	if logProb/float64(len(resp.Segments)) < minAverageLogProb {
		return ErrInsufficientQuality
	}
	return nil
}

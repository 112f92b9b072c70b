package voiceService

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"VoicePay/internal/api/voice"
	"VoicePay/internal/entity"
	"VoicePay/pkg/audio"
	contextPkg "VoicePay/pkg/context"
)

var encodingExtensions = map[string]string{
	"WEBM_OPUS": ".webm",
	"OGG_OPUS":  ".ogg",
	"LINEAR16":  ".wav",
	"MP3":       ".mp3",
	"FLAC":      ".flac",
	"MP4":       ".mp4",
}

// Transcribe converts a recorded clip into text. When an S3 client is
// configured the clip is archived first, and when history is configured the
// transcript is recorded with the archive key. Neither failure fails the
// transcription.
func (s *voiceService) Transcribe(ctx context.Context, in voice.TranscribeInput) (*voice.TranscribeResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if s.transcriber == nil {
		return nil, voice.ErrTranscriptionUnavailable
	}
	if len(in.Audio) == 0 {
		return nil, voice.ErrInvalidAudio.WithMessage("audio file is empty")
	}

	filename := audioFilename(in.Filename, in.Encoding)
	out := &voice.TranscribeResponse{}

	id, idErr := s.utils.NewULIDFromTimestamp(s.now())
	if idErr != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      idErr.Error(),
		}).Warn("[voiceService.Transcribe] failed to generate id")
	}

	if s.s3Client != nil && idErr == nil {
		key, err := s.s3Client.UploadAudio(ctx, id, filename, in.ContentType, in.Audio)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("[voiceService.Transcribe] failed to archive audio")
		}
		out.AudioKey = key
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio.Audio{
		Data:     in.Audio,
		Filename: filename,
		Language: languageOf(in.LanguageCode),
	})
	if err != nil {
		s.metrics.RecordTranscription(transcriptionResult(err))
		switch {
		case errors.Is(err, audio.ErrNoSpeechDetected):
			return nil, voice.ErrNoSpeechDetected
		case errors.Is(err, audio.ErrInsufficientQuality):
			return nil, voice.ErrAudioQualityInsufficient
		}

		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("[voiceService.Transcribe] transcription failed")
		return nil, voice.ErrTranscriptionFailed
	}
	s.metrics.RecordTranscription("success")

	out.Text = transcript.Text
	out.Language = transcript.Language
	out.Duration = transcript.Duration

	if s.voiceRepo != nil && idErr == nil {
		row := entity.VoiceCommand{
			ID:        id,
			RequestID: requestID,
			RawText:   out.Text,
			Outcome:   entity.OutcomeTranscribed,
			AudioKey:  sql.NullString{String: out.AudioKey, Valid: out.AudioKey != ""},
			CreatedAt: s.now().UTC(),
		}
		if s.storeVoiceCommand(ctx, row) {
			out.ID = id
		}
	}

	return out, nil
}

func transcriptionResult(err error) string {
	switch {
	case errors.Is(err, audio.ErrNoSpeechDetected):
		return "no_speech"
	case errors.Is(err, audio.ErrInsufficientQuality):
		return "low_quality"
	default:
		return "error"
	}
}

// audioFilename makes sure the upload name carries an extension the
// transcription backend can sniff the container from.
func audioFilename(name, encoding string) string {
	if name == "" {
		name = "recording"
	}
	if filepath.Ext(name) != "" {
		return name
	}
	if ext, ok := encodingExtensions[encoding]; ok {
		return name + ext
	}
	return name + ".webm"
}

// languageOf reduces a BCP-47 tag such as en-US to its primary subtag.
func languageOf(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return strings.ToLower(code)
}

package voice

import "VoicePay/pkg/response"

var (
	ErrInvalidRequest           = response.NewError(400, "INVALID_REQUEST", "request body must be a JSON object with a text field")
	ErrInvalidText              = response.NewError(400, "INVALID_TEXT", "text must be a non-empty string")
	ErrInvalidAudio             = response.NewError(400, "INVALID_AUDIO", "invalid audio file")
	ErrNoSpeechDetected         = response.NewError(422, "NO_SPEECH_DETECTED", "no speech detected in the recording")
	ErrAudioQualityInsufficient = response.NewError(422, "AUDIO_QUALITY_INSUFFICIENT", "audio quality is too low to transcribe")
	ErrTranscriptionFailed      = response.NewError(500, "TRANSCRIPTION_FAILED", "failed to transcribe audio")
	ErrTranscriptionUnavailable = response.NewError(503, "TRANSCRIPTION_UNAVAILABLE", "transcription is not configured")
	ErrVoiceCommandNotFound     = response.NewError(404, "VOICE_COMMAND_NOT_FOUND", "voice command not found")
	ErrHistoryUnavailable       = response.NewError(503, "HISTORY_UNAVAILABLE", "voice command history is not configured")
)

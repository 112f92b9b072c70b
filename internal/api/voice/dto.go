package voice

import (
	"time"

	"VoicePay/internal/entity"
)

// ParseRequest keeps Text untyped so a non-string value can be told apart
// from a missing one.
type ParseRequest struct {
	Text any `json:"text"`
}

type TranscribeRequest struct {
	Encoding        string `form:"encoding" validate:"omitempty,oneof=WEBM_OPUS OGG_OPUS LINEAR16 MP3 FLAC MP4"`
	SampleRateHertz int    `form:"sampleRateHertz" validate:"omitempty,min=8000,max=48000"`
	LanguageCode    string `form:"languageCode" validate:"omitempty,min=2,max=35"`
}

type TranscribeInput struct {
	Audio           []byte
	Filename        string
	ContentType     string
	Encoding        string
	SampleRateHertz int
	LanguageCode    string
}

type TranscribeResponse struct {
	ID       string  `json:"id,omitempty"`
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	AudioKey string  `json:"audioKey,omitempty"`
}

type HistoryQuery struct {
	Limit  int `query:"limit" validate:"min=0,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

type HistoryResponse struct {
	Items  []VoiceCommandResponse `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

type VoiceCommandParams struct {
	ID string `params:"id" validate:"required,len=26,alphanum"`
}

// VoiceCommandDetail adds a short-lived download link for the archived
// recording.
type VoiceCommandDetail struct {
	VoiceCommandResponse
	AudioURL string `json:"audioUrl,omitempty"`
}

type VoiceCommandResponse struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"requestId"`
	RawText    string    `json:"rawText"`
	Outcome    string    `json:"outcome"`
	Action     string    `json:"action,omitempty"`
	Amount     *float64  `json:"amount,omitempty"`
	Recipient  string    `json:"recipient,omitempty"`
	Confidence *int      `json:"confidence,omitempty"`
	Details    string    `json:"details,omitempty"`
	AudioKey   string    `json:"audioKey,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewVoiceCommandResponse(cmd entity.VoiceCommand) VoiceCommandResponse {
	out := VoiceCommandResponse{
		ID:        cmd.ID,
		RequestID: cmd.RequestID,
		RawText:   cmd.RawText,
		Outcome:   cmd.Outcome,
		Action:    cmd.Action.String,
		Recipient: cmd.Recipient.String,
		Details:   cmd.Details.String,
		AudioKey:  cmd.AudioKey.String,
		CreatedAt: cmd.CreatedAt,
	}
	if cmd.Amount.Valid {
		amount := cmd.Amount.Float64
		out.Amount = &amount
	}
	if cmd.Confidence.Valid {
		confidence := int(cmd.Confidence.Int32)
		out.Confidence = &confidence
	}
	return out
}

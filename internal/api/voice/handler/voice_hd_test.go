package voiceHandler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VoicePay/internal/api/voice"
	"VoicePay/internal/entity"
	"VoicePay/internal/middleware"
	"VoicePay/pkg/log"
	"VoicePay/pkg/utils"
)

const testRecipient = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0"

type fakeVoiceService struct {
	cmd        *entity.ParsedCommand
	parseErr   *entity.ParseError
	transcript *voice.TranscribeResponse
	detail     *voice.VoiceCommandDetail
	err        error
	gotID      string
	gotText    string
	gotInput   voice.TranscribeInput
	gotLimit   int
	gotOffset  int
	parseCalls int
}

func (f *fakeVoiceService) ParseVoiceCommand(_ context.Context, text string) (*entity.ParsedCommand, *entity.ParseError) {
	f.parseCalls++
	f.gotText = text
	return f.cmd, f.parseErr
}

func (f *fakeVoiceService) Transcribe(_ context.Context, in voice.TranscribeInput) (*voice.TranscribeResponse, error) {
	f.gotInput = in
	return f.transcript, f.err
}

func (f *fakeVoiceService) GetVoiceHistory(_ context.Context, limit, offset int) (*voice.HistoryResponse, error) {
	f.gotLimit, f.gotOffset = limit, offset
	if f.err != nil {
		return nil, f.err
	}
	return &voice.HistoryResponse{Items: []voice.VoiceCommandResponse{}, Limit: limit, Offset: offset}, nil
}

func (f *fakeVoiceService) GetVoiceCommand(_ context.Context, id string) (*voice.VoiceCommandDetail, error) {
	f.gotID = id
	return f.detail, f.err
}

func newTestApp(svc *fakeVoiceService) *fiber.App {
	logger := log.NewTestLogger()
	m := middleware.New(logger, middleware.Config{RatePerSecond: 1000, Burst: 1000})

	app := fiber.New()
	app.Use(m.NewRequestIDMiddleware())
	New(logger, validator.New(), m, svc, utils.New()).Start(app.Group("/api"))
	return app
}

func postJSON(t *testing.T, app *fiber.App, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, "/api/voice/parse", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestParseVoiceCommand_Success(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	cmd, err := entity.NewParsedCommand("transfer", 10, testRecipient, 95, "send 10 USDC", ts)
	require.NoError(t, err)

	svc := &fakeVoiceService{cmd: cmd}
	status, body := postJSON(t, newTestApp(svc), `{"text":"send 10 USDC"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "send 10 USDC", svc.gotText)
	assert.Equal(t, "transfer", body["action"])
	assert.Equal(t, 10.0, body["amount"])
	assert.Equal(t, testRecipient, body["recipient"])
	assert.Equal(t, 95.0, body["confidence"])
	assert.Equal(t, "2025-03-14T09:30:00.000Z", body["timestamp"])
}

func TestParseVoiceCommand_InvalidRequests(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{"malformed json", `{"text":`, "INVALID_REQUEST"},
		{"missing text", `{}`, "INVALID_REQUEST"},
		{"null text", `{"text":null}`, "INVALID_REQUEST"},
		{"numeric text", `{"text":42}`, "INVALID_TEXT"},
		{"blank text", `{"text":"   "}`, "INVALID_TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeVoiceService{}
			status, body := postJSON(t, newTestApp(svc), tt.body)

			assert.Equal(t, fiber.StatusBadRequest, status)
			errBody, ok := body["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.reason, errBody["code"])
			assert.Zero(t, svc.parseCalls)
		})
	}
}

func TestParseVoiceCommand_ParseErrorStatuses(t *testing.T) {
	tests := []struct {
		code   entity.ParseErrorCode
		status int
	}{
		{entity.ParseErrMissingParameters, fiber.StatusBadRequest},
		{entity.ParseErrAmbiguousCommand, fiber.StatusBadRequest},
		{entity.ParseErrParsingFailed, fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			svc := &fakeVoiceService{parseErr: &entity.ParseError{
				Code:                tt.code,
				Message:             "could not parse",
				RawText:             "send money",
				Timestamp:           time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
				ClarificationNeeded: tt.code == entity.ParseErrAmbiguousCommand,
			}}
			status, body := postJSON(t, newTestApp(svc), `{"text":"send money"}`)

			assert.Equal(t, tt.status, status)
			errBody := body["error"].(map[string]any)
			assert.Equal(t, string(tt.code), errBody["code"])
			assert.Equal(t, "send money", body["rawText"])
			if tt.code == entity.ParseErrAmbiguousCommand {
				assert.Equal(t, true, body["clarificationNeeded"])
			} else {
				assert.NotContains(t, body, "clarificationNeeded")
			}
		})
	}
}

func multipartBody(t *testing.T, filename, contentType string, size int, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="audio"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x1a}, size))
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	return buf, w.FormDataContentType()
}

func TestTranscribeAudio_Success(t *testing.T) {
	svc := &fakeVoiceService{transcript: &voice.TranscribeResponse{Text: "send ten"}}
	body, contentType := multipartBody(t, "clip.webm", "audio/webm", 4096, map[string]string{
		"encoding":     "WEBM_OPUS",
		"languageCode": "en-US",
	})

	req := httptest.NewRequest(fiber.MethodPost, "/api/voice/transcribe", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp, err := newTestApp(svc).Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Len(t, svc.gotInput.Audio, 4096)
	assert.Equal(t, "clip.webm", svc.gotInput.Filename)
	assert.Equal(t, "WEBM_OPUS", svc.gotInput.Encoding)
	assert.Equal(t, "en-US", svc.gotInput.LanguageCode)
}

func TestTranscribeAudio_RejectsBadUploads(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int
		fields      map[string]string
		reason      string
	}{
		{"too small", "clip.webm", "audio/webm", 10, nil, "INVALID_AUDIO"},
		{"not audio", "notes.txt", "text/plain", 4096, nil, "INVALID_AUDIO"},
		{"unknown encoding", "clip.webm", "audio/webm", 4096, map[string]string{"encoding": "AMR"}, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeVoiceService{}
			body, contentType := multipartBody(t, tt.filename, tt.contentType, tt.size, tt.fields)

			req := httptest.NewRequest(fiber.MethodPost, "/api/voice/transcribe", body)
			req.Header.Set(fiber.HeaderContentType, contentType)

			resp, err := newTestApp(svc).Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			var out map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.Equal(t, tt.reason, out["error"].(map[string]any)["code"])
			assert.Nil(t, svc.gotInput.Audio)
		})
	}
}

func TestTranscribeAudio_ServiceError(t *testing.T) {
	svc := &fakeVoiceService{err: voice.ErrNoSpeechDetected}
	body, contentType := multipartBody(t, "clip.webm", "audio/webm", 4096, nil)

	req := httptest.NewRequest(fiber.MethodPost, "/api/voice/transcribe", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp, err := newTestApp(svc).Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGetVoiceHistory(t *testing.T) {
	svc := &fakeVoiceService{}
	app := newTestApp(svc)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/voice/history?limit=5&offset=10", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, svc.gotLimit)
	assert.Equal(t, 10, svc.gotOffset)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/voice/history?limit=500", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetVoiceHistory_Unavailable(t *testing.T) {
	svc := &fakeVoiceService{err: voice.ErrHistoryUnavailable}

	resp, err := newTestApp(svc).Test(httptest.NewRequest(fiber.MethodGet, "/api/voice/history", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestGetVoiceCommand(t *testing.T) {
	const id = "01HV5Z3J8Y4Q2N6W9K0M7R1T3E"
	svc := &fakeVoiceService{detail: &voice.VoiceCommandDetail{
		VoiceCommandResponse: voice.VoiceCommandResponse{ID: id, Outcome: entity.OutcomeTranscribed, AudioKey: "voice-audio/2025/03/14/" + id + ".webm"},
		AudioURL:             "https://bucket.example.test/voice-audio/2025/03/14/" + id + ".webm?X-Amz-Signature=abc",
	}}

	resp, err := newTestApp(svc).Test(httptest.NewRequest(fiber.MethodGet, "/api/voice/history/"+id, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, id, svc.gotID)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, id, body["id"])
	assert.Equal(t, "TRANSCRIBED", body["outcome"])
	assert.Contains(t, body["audioUrl"], "X-Amz-Signature")
}

func TestGetVoiceCommand_Errors(t *testing.T) {
	svc := &fakeVoiceService{}
	resp, err := newTestApp(svc).Test(httptest.NewRequest(fiber.MethodGet, "/api/voice/history/not-a-ulid", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, svc.gotID)

	svc = &fakeVoiceService{err: voice.ErrVoiceCommandNotFound}
	resp, err = newTestApp(svc).Test(httptest.NewRequest(fiber.MethodGet, "/api/voice/history/01HV5Z3J8Y4Q2N6W9K0M7R1T3E", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "VOICE_COMMAND_NOT_FOUND", body["error"]["code"])
}

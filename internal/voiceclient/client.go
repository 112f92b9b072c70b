// Package voiceclient talks to the voice payment HTTP API. Its methods
// satisfy the transfer.Transcriber, transfer.Parser and transfer.Balances
// ports so a CLI session can run against a remote server.
package voiceclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/big"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"VoicePay/internal/api/voice"
	"VoicePay/internal/api/wallet"
	"VoicePay/internal/entity"
	"VoicePay/internal/transfer"
	"VoicePay/pkg/response"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DefaultTimeout = 45 * time.Second

// APIError is a non-2xx response in the standard error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.Status)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "voicectl/1.0",
	}
}

// Parse sends text to the command parser. Typed parse failures are returned
// as *entity.ParseError.
func (c *Client) Parse(ctx context.Context, text string) (*entity.ParsedCommand, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	status, raw, err := c.do(ctx, http.MethodPost, "/api/voice/parse", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}

	if status == http.StatusOK {
		var cmd entity.ParsedCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			return nil, fmt.Errorf("decode parsed command: %w", err)
		}
		return &cmd, nil
	}

	if parseErr := decodeParseError(raw); parseErr != nil {
		return nil, parseErr
	}
	return nil, decodeAPIError(status, raw)
}

// Transcribe uploads a recording and returns its text.
func (c *Client) Transcribe(ctx context.Context, rec transfer.Recording) (string, error) {
	res, err := c.TranscribeAudio(ctx, rec)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (c *Client) TranscribeAudio(ctx context.Context, rec transfer.Recording) (*voice.TranscribeResponse, error) {
	filename := rec.Filename
	if filename == "" {
		filename = "recording.webm"
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, filepath.Base(filename)))
	header.Set("Content-Type", audioContentType(filename))
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(rec.Data); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"encoding":     rec.Encoding,
		"languageCode": rec.LanguageCode,
	}
	if rec.SampleRateHertz > 0 {
		fields["sampleRateHertz"] = strconv.Itoa(rec.SampleRateHertz)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	status, raw, err := c.do(ctx, http.MethodPost, "/api/voice/transcribe", buf, w.FormDataContentType())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, decodeAPIError(status, raw)
	}

	var res voice.TranscribeResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode transcription: %w", err)
	}
	return &res, nil
}

func (c *Client) Balance(ctx context.Context, address string) (*wallet.BalanceResponse, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "/api/wallet/"+url.PathEscape(address)+"/balance", nil, "")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, decodeAPIError(status, raw)
	}

	var res wallet.BalanceResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	return &res, nil
}

// BalanceOf returns the wallet balance in base units.
func (c *Client) BalanceOf(ctx context.Context, owner string) (*big.Int, error) {
	res, err := c.Balance(ctx, owner)
	if err != nil {
		return nil, err
	}
	balance, ok := new(big.Int).SetString(res.Balance, 10)
	if !ok {
		return nil, fmt.Errorf("invalid balance %q", res.Balance)
	}
	return balance, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func decodeParseError(raw []byte) *entity.ParseError {
	var parseErr entity.ParseError
	if err := json.Unmarshal(raw, &parseErr); err != nil {
		return nil
	}
	switch parseErr.Code {
	case entity.ParseErrMissingParameters, entity.ParseErrAmbiguousCommand, entity.ParseErrParsingFailed:
		return &parseErr
	default:
		return nil
	}
}

func decodeAPIError(status int, raw []byte) error {
	var body response.Body
	if err := json.Unmarshal(raw, &body); err != nil || body.Error.Code == "" {
		return &APIError{Status: status}
	}
	return &APIError{Status: status, Code: body.Error.Code, Message: body.Error.Message}
}

func audioContentType(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); strings.HasPrefix(ct, "audio/") {
		return ct
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".webm":
		return "audio/webm"
	case ".ogg":
		return "audio/ogg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}

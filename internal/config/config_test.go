package config

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VoicePay/internal/middleware"
	"VoicePay/pkg/gemini"
	"VoicePay/pkg/log"
	"VoicePay/pkg/response"
)

const testAddress = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0"

type stubModel struct {
	reply string
}

func (m *stubModel) GenerateText(context.Context, string, string) (string, error) {
	return m.reply, nil
}

func (m *stubModel) Close() error { return nil }

func withModel(model gemini.IGemini) ServerOption {
	return func(s *Server) error {
		s.gemini = model
		return nil
	}
}

func newTestServer(t *testing.T, reply string) *Server {
	t.Helper()

	logger := log.NewTestLogger()
	env := &Env{
		AppPort:            "0",
		RateLimitPerSecond: 100,
		RateLimitBurst:     100,
		TokenDecimals:      6,
		TokenSymbol:        "USDC",
	}

	srv, err := NewServer(
		WithFiber(NewFiber(logger)),
		WithLogger(logger),
		WithEnv(env),
		WithValidator(NewValidator()),
		WithMetrics(),
		WithDatabase(),
		WithRedisServer(),
		WithS3Client(),
		withModel(&stubModel{reply: reply}),
		WithTranscriber(),
		WithChain(),
		WithMiddleware(),
		WithUtils(),
	)
	require.NoError(t, err)
	require.NoError(t, srv.RegisterHandler())
	srv.mountRoutes()
	return srv
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	logger := log.NewTestLogger()

	_, err := NewServer(WithLogger(logger), WithEnv(&Env{}))
	assert.ErrorContains(t, err, "fiber app is required")

	_, err = NewServer(WithFiber(NewFiber(logger)), WithLogger(logger), WithEnv(&Env{}))
	assert.ErrorContains(t, err, "gemini client is required")
}

func TestServer_ParseRoute(t *testing.T) {
	srv := newTestServer(t, `{"action":"transfer","amount":50,"recipient":"`+testAddress+`","confidence":95,"reasoning":"clear"}`)

	req := httptest.NewRequest(fiber.MethodPost, "/api/voice/parse", strings.NewReader(`{"text":"send 50 USDC to `+testAddress+`"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := srv.engine.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDKey))

	var body struct {
		Action     string  `json:"action"`
		Amount     float64 `json:"amount"`
		Recipient  string  `json:"recipient"`
		Confidence int     `json:"confidence"`
	}
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "transfer", body.Action)
	assert.Equal(t, 50.0, body.Amount)
	assert.Equal(t, testAddress, body.Recipient)
	assert.Equal(t, 95, body.Confidence)
}

func TestServer_OptionalBackendsUnavailable(t *testing.T) {
	srv := newTestServer(t, "{}")

	tests := []struct {
		name   string
		path   string
		reason string
	}{
		{name: "history without database", path: "/api/voice/history", reason: "HISTORY_UNAVAILABLE"},
		{name: "history entry without database", path: "/api/voice/history/01HV5Z3J8Y4Q2N6W9K0M7R1T3E", reason: "HISTORY_UNAVAILABLE"},
		{name: "balance without chain", path: "/api/wallet/" + testAddress + "/balance", reason: "CHAIN_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := srv.engine.Test(httptest.NewRequest(fiber.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

			var body response.Body
			require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.reason, body.Error.Code)
		})
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, "{}")

	resp, err := srv.engine.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = srv.engine.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "go_goroutines")
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	srv := newTestServer(t, "{}")

	resp, err := srv.engine.Test(httptest.NewRequest(fiber.MethodGet, "/api/nope", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body response.Body
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "HTTP_NOT_FOUND", body.Error.Code)
}

func TestValidator_EvmAddress(t *testing.T) {
	type payload struct {
		To string `json:"to" validate:"required,evm_address"`
	}

	v := NewValidator()
	assert.NoError(t, v.Struct(payload{To: testAddress}))
	assert.Error(t, v.Struct(payload{To: "vitalik.eth"}))
	assert.Error(t, v.Struct(payload{To: "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb"}))
}

func TestEnv_Toggles(t *testing.T) {
	env := &Env{}
	assert.False(t, env.DatabaseEnabled())
	assert.False(t, env.RedisEnabled())
	assert.False(t, env.S3Enabled())
	assert.False(t, env.ChainEnabled())

	env = &Env{
		DatabaseURL:          "postgres://localhost/voicepay",
		RedisAddress:         "localhost:6379",
		AWSRegion:            "us-east-1",
		AWSBucketName:        "voice",
		EthRPCURL:            "http://localhost:8545",
		TokenContractAddress: testAddress,
	}
	assert.True(t, env.DatabaseEnabled())
	assert.True(t, env.RedisEnabled())
	assert.True(t, env.S3Enabled())
	assert.True(t, env.ChainEnabled())
}

func TestLoadEnv_ReadsOverrides(t *testing.T) {
	t.Setenv("TOKEN_DECIMALS", "18")
	t.Setenv("TOKEN_SYMBOL", "DAI")
	t.Setenv("BALANCE_CACHE_TTL", "30s")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, 18, env.TokenDecimals)
	assert.Equal(t, "DAI", env.TokenSymbol)
	assert.Equal(t, "30s", env.BalanceTTL.String())
}

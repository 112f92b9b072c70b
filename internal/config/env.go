package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Env is the process configuration read from the environment (and .env).
type Env struct {
	AppEnv  string `envconfig:"APP_ENV" default:"development"`
	AppPort string `envconfig:"APP_PORT" default:"3000"`

	RateLimitPerSecond float64 `envconfig:"RATE_LIMIT_PER_SECOND" default:"10"`
	RateLimitBurst     int     `envconfig:"RATE_LIMIT_BURST" default:"20"`

	GeminiAPIKey    string  `envconfig:"GEMINI_API_KEY"`
	GeminiModelName string  `envconfig:"GEMINI_MODEL_NAME" default:"gemini-1.5-flash"`
	GeminiTemp      float32 `envconfig:"GEMINI_TEMPERATURE" default:"0.1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	RedisAddress  string        `envconfig:"REDIS_ADDRESS"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	BalanceTTL    time.Duration `envconfig:"BALANCE_CACHE_TTL" default:"15s"`

	AWSRegion      string `envconfig:"AWS_REGION"`
	AWSAccessKeyID string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	AWSBucketName  string `envconfig:"AWS_BUCKET_NAME"`

	EthRPCURL            string `envconfig:"ETH_RPC_URL"`
	TokenContractAddress string `envconfig:"TOKEN_CONTRACT_ADDRESS"`
	TokenDecimals        int    `envconfig:"TOKEN_DECIMALS" default:"6"`
	TokenSymbol          string `envconfig:"TOKEN_SYMBOL" default:"USDC"`
}

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return &env, nil
}

func (e *Env) DatabaseEnabled() bool { return e.DatabaseURL != "" }
func (e *Env) RedisEnabled() bool    { return e.RedisAddress != "" }
func (e *Env) S3Enabled() bool       { return e.AWSBucketName != "" && e.AWSRegion != "" }
func (e *Env) ChainEnabled() bool    { return e.EthRPCURL != "" && e.TokenContractAddress != "" }

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"VoicePay/database/postgres"
	voiceHandler "VoicePay/internal/api/voice/handler"
	voiceRepository "VoicePay/internal/api/voice/repository"
	voiceService "VoicePay/internal/api/voice/service"
	"VoicePay/internal/api/wallet"
	walletHandler "VoicePay/internal/api/wallet/handler"
	walletService "VoicePay/internal/api/wallet/service"
	"VoicePay/internal/middleware"
	"VoicePay/pkg/audio"
	"VoicePay/pkg/ethereum"
	"VoicePay/pkg/gemini"
	"VoicePay/pkg/metrics"
	"VoicePay/pkg/nlp"
	"VoicePay/pkg/redis"
	"VoicePay/pkg/s3"
	"VoicePay/pkg/utils"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	env         *Env
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	redisServer redis.IRedis
	s3Client    s3.ItfS3
	gemini      gemini.IGemini
	transcriber audio.ITranscriber
	chain       ethereum.Backend
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.env == nil {
		return nil, fmt.Errorf("environment is required")
	}
	if server.gemini == nil {
		return nil, fmt.Errorf("gemini client is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithEnv(env *Env) ServerOption {
	return func(s *Server) error {
		s.env = env
		return nil
	}
}

// WithMetrics registers the application collectors together with the Go
// runtime and process collectors on a dedicated registry.
func WithMetrics() ServerOption {
	return func(s *Server) error {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		s.metrics = metrics.NewMetrics(s.registry)
		return nil
	}
}

// WithDatabase connects to Postgres and applies migrations. Without
// DATABASE_URL the audit trail is disabled.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		if !s.env.DatabaseEnabled() {
			s.log.Warn("DATABASE_URL not set, voice command history disabled")
			return nil
		}

		db, err := postgres.New(postgres.Config{DSN: s.env.DatabaseURL})
		if err != nil {
			s.log.Errorf("Failed to connect to database: %v", err)
			return fmt.Errorf("failed to create database connection: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := postgres.Migrate(ctx, db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		s.db = db
		return nil
	}
}

func WithRedisServer() ServerOption {
	return func(s *Server) error {
		if !s.env.RedisEnabled() {
			return nil
		}
		s.redisServer = redis.New(redis.Config{
			Address:  s.env.RedisAddress,
			Password: s.env.RedisPassword,
			DB:       s.env.RedisDB,
		}, s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		if !s.env.S3Enabled() {
			return nil
		}

		client, err := s3.New(s3.Config{
			Region:          s.env.AWSRegion,
			AccessKeyID:     s.env.AWSAccessKeyID,
			SecretAccessKey: s.env.AWSSecretKey,
			BucketName:      s.env.AWSBucketName,
		})
		if err != nil {
			s.log.Errorf("Failed to initialize S3 client: %v", err)
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithGeminiClient() ServerOption {
	return func(s *Server) error {
		client, err := gemini.NewGeminiClient(context.Background(), gemini.Config{
			APIKey:      s.env.GeminiAPIKey,
			ModelName:   s.env.GeminiModelName,
			Temperature: s.env.GeminiTemp,
		})
		if err != nil {
			s.log.Errorf("Failed to create Gemini client: %v", err)
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.gemini = client
		return nil
	}
}

func WithTranscriber() ServerOption {
	return func(s *Server) error {
		if s.env.OpenAIAPIKey == "" {
			s.log.Warn("OPENAI_API_KEY not set, transcription disabled")
			return nil
		}
		s.transcriber = audio.NewTranscriptionService(s.env.OpenAIAPIKey)
		return nil
	}
}

func WithChain() ServerOption {
	return func(s *Server) error {
		if !s.env.ChainEnabled() {
			s.log.Warn("ETH_RPC_URL or TOKEN_CONTRACT_ADDRESS not set, balance lookups disabled")
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		backend, err := ethereum.Dial(ctx, s.env.EthRPCURL)
		if err != nil {
			return err
		}
		s.chain = backend
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, middleware.Config{
			RatePerSecond: s.env.RateLimitPerSecond,
			Burst:         s.env.RateLimitBurst,
			Metrics:       s.metrics,
		})
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() error {
	// Voice Domain
	var voiceRepo voiceRepository.Repository
	if s.db != nil {
		voiceRepo = voiceRepository.New(s.db, s.log)
	}
	extractor := nlp.NewCommandExtractor(s.gemini, nlp.DefaultPolicy(), s.log, s.metrics)
	voiceServices := voiceService.NewVoiceService(s.log, voiceService.Deps{
		VoiceRepo:   voiceRepo,
		Extractor:   extractor,
		Transcriber: s.transcriber,
		S3Client:    s.s3Client,
		Utils:       s.utils,
		Metrics:     s.metrics,
	})
	voiceHandlers := voiceHandler.New(s.log, s.validator, s.middleware, voiceServices, s.utils)

	// Wallet Domain
	var oracle walletService.BalanceReader
	if s.chain != nil {
		balanceOracle, err := ethereum.NewBalanceOracle(s.chain, s.env.TokenContractAddress)
		if err != nil {
			return fmt.Errorf("failed to create balance oracle: %w", err)
		}
		oracle = balanceOracle
	}
	walletServices := walletService.NewWalletService(s.log, oracle, s.redisServer, wallet.Token{
		Address:  s.env.TokenContractAddress,
		Symbol:   s.env.TokenSymbol,
		Decimals: s.env.TokenDecimals,
	}, s.env.BalanceTTL, s.metrics)
	walletHandlers := walletHandler.New(s.log, s.middleware, walletServices)

	s.setupHealthCheck()
	s.setupMetrics()
	s.handlers = append(s.handlers, voiceHandlers, walletHandlers)
	return nil
}

func (s *Server) Run() error {
	s.mountRoutes()
	return s.engine.Listen(fmt.Sprintf(":%s", s.env.AppPort))
}

func (s *Server) mountRoutes() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware)
	s.engine.Use(s.middleware.NewMetricsMiddleware)

	router := s.engine.Group("/api")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

// Shutdown stops accepting requests and releases external clients.
func (s *Server) Shutdown() error {
	err := s.engine.ShutdownWithTimeout(10 * time.Second)

	if s.gemini != nil {
		_ = s.gemini.Close()
	}
	if s.redisServer != nil {
		_ = s.redisServer.Close()
	}
	if s.chain != nil {
		s.chain.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}

func (s *Server) setupMetrics() {
	if s.registry == nil {
		return
	}
	s.engine.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}

package walletService

import (
	"context"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"VoicePay/internal/api/wallet"
	"VoicePay/pkg/metrics"
	"VoicePay/pkg/redis"
	"VoicePay/pkg/retry"
)

const DefaultBalanceTTL = 15 * time.Second

// DefaultOraclePolicy retries transient RPC failures of a balance read.
func DefaultOraclePolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		Backoff:     retry.Exponential(200*time.Millisecond, 2*time.Second),
	}
}

type IWalletService interface {
	GetBalance(ctx context.Context, address string) (*wallet.BalanceResponse, error)
}

// BalanceReader is satisfied by ethereum.BalanceOracle.
type BalanceReader interface {
	BalanceOf(ctx context.Context, owner string) (*big.Int, error)
}

type walletService struct {
	log     *logrus.Logger
	oracle  BalanceReader
	cache   redis.IRedis
	token   wallet.Token
	ttl     time.Duration
	metrics *metrics.Metrics

	oraclePolicy retry.Policy
}

// NewWalletService builds the balance service. oracle and cache may be nil;
// without an oracle every lookup fails with ErrChainUnavailable.
func NewWalletService(
	log *logrus.Logger,
	oracle BalanceReader,
	cache redis.IRedis,
	token wallet.Token,
	ttl time.Duration,
	m *metrics.Metrics,
) IWalletService {
	if ttl <= 0 {
		ttl = DefaultBalanceTTL
	}

	return &walletService{
		log:     log,
		oracle:  oracle,
		cache:   cache,
		token:   token,
		ttl:     ttl,
		metrics: m,

		oraclePolicy: DefaultOraclePolicy(),
	}
}

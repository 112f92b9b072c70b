package walletService

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"VoicePay/internal/api/wallet"
	contextPkg "VoicePay/pkg/context"
	"VoicePay/pkg/recipient"
	"VoicePay/pkg/redis"
	"VoicePay/pkg/retry"
	"VoicePay/pkg/units"
)

func (s *walletService) GetBalance(ctx context.Context, address string) (*wallet.BalanceResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	v := recipient.Validate(address)
	if !v.Valid {
		return nil, wallet.AddressError(v)
	}
	if s.oracle == nil {
		return nil, wallet.ErrChainUnavailable
	}

	if balance, ok := s.cachedBalance(ctx, v.Address); ok {
		s.metrics.RecordBalanceLookup("cache")
		return s.balanceResponse(v.Address, balance, true), nil
	}

	policy := s.oraclePolicy
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"attempt":    attempt,
			"wait":       wait.String(),
			"error":      err.Error(),
		}).Warn("[walletService.GetBalance] balance read failed, retrying")
	}

	var balance *big.Int
	err := retry.Do(ctx, policy, func(ctx context.Context, _ int) error {
		var err error
		balance, err = s.oracle.BalanceOf(ctx, v.Address)
		return err
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"address":    v.Address,
			"error":      err.Error(),
		}).Error("[walletService.GetBalance] failed to read balance")
		return nil, wallet.ErrBalanceLookupFailed
	}
	s.metrics.RecordBalanceLookup("chain")

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(v.Address), balance.String(), s.ttl); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("[walletService.GetBalance] failed to cache balance")
		}
	}

	return s.balanceResponse(v.Address, balance, false), nil
}

func (s *walletService) cachedBalance(ctx context.Context, address string) (*big.Int, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, cacheKey(address))
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"error":      err.Error(),
			}).Warn("[walletService.cachedBalance] cache read failed")
		}
		return nil, false
	}

	balance, ok := new(big.Int).SetString(raw, 10)
	if !ok || balance.Sign() < 0 {
		return nil, false
	}
	return balance, true
}

func (s *walletService) balanceResponse(address string, balance *big.Int, cached bool) *wallet.BalanceResponse {
	return &wallet.BalanceResponse{
		Address:   address,
		Token:     s.token.Address,
		Symbol:    s.token.Symbol,
		Decimals:  s.token.Decimals,
		Balance:   balance.String(),
		Formatted: units.ToHumanUnits(balance, s.token.Decimals),
		Cached:    cached,
	}
}

func cacheKey(address string) string {
	return "wallet:balance:" + strings.ToLower(address)
}

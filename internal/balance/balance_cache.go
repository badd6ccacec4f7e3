package balance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const LedgerCacheKeyPrefix = "balances:ledger:"

func LedgerCacheKey(employeeID string, year int) string {
	return fmt.Sprintf("%s%s:%d", LedgerCacheKeyPrefix, employeeID, year)
}

// Cache holds read copies of ledgers. Writers invalidate after commit; the
// database stays the only source for balance checks.
type Cache interface {
	Get(ctx context.Context, employeeID string, year int) (LedgerResponse, bool)
	Set(ctx context.Context, resp LedgerResponse)
	Invalidate(ctx context.Context, employeeID string, years ...int)
}

type redisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache returns a redis backed cache, or a cache that never hits when rdb
// is nil.
func NewCache(rdb *redis.Client, ttl time.Duration, logger ...*zap.Logger) Cache {
	if rdb == nil {
		return noopCache{}
	}
	l := zap.L().Named("balance.cache")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.cache")
	}
	return &redisCache{rdb: rdb, ttl: ttl, logger: l}
}

func (c *redisCache) Get(ctx context.Context, employeeID string, year int) (LedgerResponse, bool) {
	cached, err := c.rdb.Get(ctx, LedgerCacheKey(employeeID, year)).Result()
	if err != nil {
		return LedgerResponse{}, false
	}
	var resp LedgerResponse
	if err := json.Unmarshal([]byte(cached), &resp); err != nil {
		return LedgerResponse{}, false
	}
	return resp, true
}

func (c *redisCache) Set(ctx context.Context, resp LedgerResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	key := LedgerCacheKey(resp.EmployeeID, resp.Year)
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("cache ledger failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *redisCache) Invalidate(ctx context.Context, employeeID string, years ...int) {
	if len(years) == 0 {
		return
	}
	keys := make([]string, 0, len(years))
	for _, y := range years {
		keys = append(keys, LedgerCacheKey(employeeID, y))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("failed to invalidate balance cache",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, int) (LedgerResponse, bool) { return LedgerResponse{}, false }
func (noopCache) Set(context.Context, LedgerResponse)                      {}
func (noopCache) Invalidate(context.Context, string, ...int)               {}

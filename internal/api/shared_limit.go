package api

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// SharedLimiter counts requests across processes. It is consulted for the
// faucet and claim endpoints before the in-process limiter.
type SharedLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RedisLimiter is a GCRA limiter stored in redis
type RedisLimiter struct {
	limiter   *redis_rate.Limiter
	limit     redis_rate.Limit
	namespace string
}

func NewRedisLimiter(client redis.UniversalClient, namespace string, perMinute int) *RedisLimiter {
	if perMinute <= 0 {
		perMinute = 6
	}
	limit := redis_rate.PerMinute(perMinute)
	limit.Burst = 1
	return &RedisLimiter{
		limiter:   redis_rate.NewLimiter(client),
		limit:     limit,
		namespace: namespace,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.namespace != "" {
		key = l.namespace + ":ratelimit:" + key
	}
	res, err := l.limiter.Allow(ctx, key, l.limit)
	if err != nil {
		return false, 0, fmt.Errorf("redis rate limit: %w", err)
	}
	return res.Allowed > 0, res.RetryAfter, nil
}

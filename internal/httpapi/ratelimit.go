package httpapi

import (
	"context"
	"time"

	"portfolio-cms/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts one hit against key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (utils.RateLimitResult, error)
}

// RedisRateLimiter is a fixed-window limiter shared across replicas.
type RedisRateLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (utils.RateLimitResult, error) {
	return utils.AllowFixedWindow(ctx, l.rdb, l.prefix+":rl:"+key, l.limit, l.window)
}

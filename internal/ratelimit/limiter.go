package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store is the subset of *redis.Client the limiter needs.
type Store interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// FixedWindow allows up to limit hits per key per window, counted in redis.
// When redis is unreachable it lets the request through.
type FixedWindow struct {
	store  Store
	limit  int64
	window time.Duration
	prefix string
	logger zerolog.Logger
	now    func() time.Time
}

func NewFixedWindow(store Store, limit int, window time.Duration, logger zerolog.Logger) *FixedWindow {
	return &FixedWindow{
		store:  store,
		limit:  int64(limit),
		window: window,
		prefix: "ratelimit:",
		logger: logger,
		now:    time.Now,
	}
}

func (l *FixedWindow) Allow(ctx context.Context, key string) bool {
	if l.limit <= 0 {
		return true
	}

	bucket := l.now().UnixNano() / int64(l.window)
	k := fmt.Sprintf("%s%s:%d", l.prefix, key, bucket)

	n, err := l.store.Incr(ctx, k).Result()
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("rate limit store unavailable, allowing request")
		return true
	}
	if n == 1 {
		if err := l.store.Expire(ctx, k, l.window).Err(); err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("rate limit expire failed")
		}
	}
	return n <= l.limit
}

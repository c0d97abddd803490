package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	connectInitialInterval = 500 * time.Millisecond
	connectMaxInterval     = 5 * time.Second
	connectMaxTries        = 4
)

// ConnectRedis pings the external cache with capped exponential backoff
// and returns it once reachable. Selection happens once at startup: if
// every attempt fails, the caller falls back to the in-process cache for
// the process lifetime.
func ConnectRedis(ctx context.Context, c *RedisCache) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = connectInitialInterval
	b.MaxInterval = connectMaxInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := c.Ping(ctx); err != nil {
			slog.Warn("cache connection attempt failed", "backend", c.Name(), "error", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(connectMaxTries))
	return err
}

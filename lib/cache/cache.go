package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a key/TTL store. All implementations share the same
// semantics so the engine never needs to know which one is active:
// entries expire after their TTL, Delete is idempotent, and Get on an
// absent or expired key returns ErrMiss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	// Name identifies the backend in logs and the healthcheck.
	Name() string
}

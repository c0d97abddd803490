package cache

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/peterbourgon/diskv"
)

func flatTransform(s string) []string { return []string{} }

// diskEnvelope wraps a stored value with its expiry instant, since the
// filesystem has no native TTL.
type diskEnvelope struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DiskCache persists entries under a local directory. It exists for
// development setups without Redis; expiry is enforced on read.
type DiskCache struct {
	d *diskv.Diskv
}

// NewDiskCache creates a disk cache rooted at basePath.
func NewDiskCache(basePath string) *DiskCache {
	return &DiskCache{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			Transform:    flatTransform,
			CacheSizeMax: 1024 * 1024,
		}),
	}
}

func (c *DiskCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.d.Read(key)
	if err != nil {
		return nil, ErrMiss
	}

	var envelope diskEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		// Unreadable entry, treat as a miss and reclaim the key.
		_ = c.d.Erase(key)
		return nil, ErrMiss
	}
	if !envelope.ExpiresAt.IsZero() && time.Now().After(envelope.ExpiresAt) {
		_ = c.d.Erase(key)
		return nil, ErrMiss
	}
	return envelope.Value, nil
}

func (c *DiskCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	envelope := diskEnvelope{Value: value}
	if ttl > 0 {
		envelope.ExpiresAt = time.Now().Add(ttl)
	}

	raw, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return c.d.Write(key, raw)
}

func (c *DiskCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := c.d.Erase(key); err != nil && c.d.Has(key) {
			return err
		}
	}
	return nil
}

// Ping will check if the connection works right
func (c *DiskCache) Ping(ctx context.Context) error { return nil }

func (c *DiskCache) Name() string { return "disk" }

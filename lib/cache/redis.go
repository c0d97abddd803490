package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a cache backed by a networked Redis instance.
type RedisCache struct {
	client *redis.Client
}

// NewRedisClient creates a redis client from an address and password.
func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

// NewRedisClientWithUrl creates a redis client from a redis:// URL.
func NewRedisClientWithUrl(url string) (*redis.Client, error) {
	option, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(option), nil
}

// NewRedisCache creates a cache on top of an existing client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Ping will check if the connection works right
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Name() string { return "redis" }

// Client exposes the underlying connection so the bus can share it.
func (c *RedisCache) Client() *redis.Client { return c.client }

package bus

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBus publishes through a broker-native pub/sub channel, so every
// engine instance in a horizontally scaled deployment observes every
// publish.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus creates a bus on top of an existing client, usually the
// same one backing the cache.
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string, handler Handler) error {
	sub := b.client.Subscribe(ctx, channel)

	// Force the subscription onto the wire before returning, so a
	// publish immediately after Subscribe is not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	go func() {
		defer func() {
			if err := sub.Close(); err != nil {
				slog.Warn("bus subscription close failed", "channel", channel, "error", err)
			}
		}()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	return nil
}

func (b *RedisBus) Name() string { return "redis" }

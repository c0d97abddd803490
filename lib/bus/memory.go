package bus

import (
	"context"
	"sync"
)

// MemoryBus is the in-process fallback. Handlers run synchronously on
// the publishing goroutine, which is only valid for a single-instance
// deployment: a second process would never see the publishes.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewMemoryBus creates the fallback bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[string][]Handler)}
}

func (b *MemoryBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[channel]))
	copy(handlers, b.handlers[channel])
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(payload)
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, channel string, handler Handler) error {
	b.mu.Lock()
	b.handlers[channel] = append(b.handlers[channel], handler)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBus) Name() string { return "memory" }

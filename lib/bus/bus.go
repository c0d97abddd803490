package bus

import "context"

// Handler consumes one published message.
type Handler func(payload []byte)

// Bus decouples "a write happened" from "who needs to know". Publish is
// fire-and-forget: delivery to subscribers is best-effort and a failed
// publish must never fail the surrounding operation.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe registers a handler for a channel. Delivery continues
	// until ctx is cancelled.
	Subscribe(ctx context.Context, channel string, handler Handler) error
	// Name identifies the backend in logs.
	Name() string
}

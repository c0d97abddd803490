package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Kunaal64/Gocomet/lib/bus"
)

const (
	// DefaultPingInterval is how often idle connections are probed.
	// Unresponsive clients are dropped.
	DefaultPingInterval = 30 * time.Second

	// sendBuffer is the per-client backlog. Delivery is best-effort: a
	// client that cannot drain its queue loses messages rather than
	// stalling the broadcast.
	sendBuffer = 16

	pingTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
)

type client struct {
	send chan []byte
}

// Hub relays every message published on the update channel to all
// currently connected websocket clients, verbatim.
type Hub struct {
	bus          bus.Bus
	channel      string
	pingInterval time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a gateway hub for the given update channel.
func NewHub(b bus.Bus, channel string) *Hub {
	return &Hub{
		bus:          b,
		channel:      channel,
		pingInterval: DefaultPingInterval,
		clients:      make(map[*client]struct{}),
	}
}

// Run subscribes the hub to the update channel. Relaying continues until
// ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	return h.bus.Subscribe(ctx, h.channel, h.broadcast)
}

// ClientCount reports how many clients are currently connected. This is
// a health signal only; nothing in the engine depends on it.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Slow client, drop the message.
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// ServeHTTP upgrades the request to a websocket and serves it until the
// client goes away or stops answering pings.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.CloseNow()

	c := &client{send: make(chan []byte, sendBuffer)}
	h.register(c)
	defer h.unregister(c)

	slog.Info("subscriber connected", "remote", r.RemoteAddr, "clients", h.ClientCount())
	defer func() {
		slog.Info("subscriber disconnected", "remote", r.RemoteAddr)
	}()

	// Clients only listen; CloseRead surfaces disconnects as context
	// cancellation.
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				slog.Warn("dropping unresponsive subscriber", "remote", r.RemoteAddr, "error", err)
				return
			}
		case payload := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

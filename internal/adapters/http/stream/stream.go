// Package stream pushes score events to websocket clients.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

// Defaults for the hub.
const (
	DefaultBuffer       = 64
	DefaultWriteTimeout = 5 * time.Second
)

// Hub fans score events out to connected clients. It implements
// events.Listener and http.Handler.
//
// Each client owns a buffered send channel; a client whose buffer is full
// when an event arrives is disconnected rather than slowing the publisher.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	buffer       int
	writeTimeout time.Duration
	acceptOpts   *websocket.AcceptOptions
	logger       logger.Logger
}

type client struct {
	send      chan []byte
	closeSlow func()
}

// Option configures a Hub.
type Option func(*Hub)

// WithBuffer sets the per-client send buffer.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithWriteTimeout bounds a single websocket write.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithOriginPatterns allows cross-origin clients matching the patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(h *Hub) {
		h.acceptOpts = &websocket.AcceptOptions{OriginPatterns: patterns}
	}
}

// WithLogger sets the hub logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:      map[*client]struct{}{},
		buffer:       DefaultBuffer,
		writeTimeout: DefaultWriteTimeout,
		logger:       logger.NamedOrNop("stream"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// OnScore broadcasts ev to every client without blocking.
func (h *Hub) OnScore(ctx context.Context, ev model.ScoreEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		metrics.RecordErrorByComponent("stream", "marshal")
		h.logger.Error(ctx, "failed to encode score event", logger.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			delete(h.clients, c)
			metrics.RecordStreamDropped()
			go c.closeSlow()
		}
	}
	metrics.UpdateStreamSubscribers(len(h.clients))
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, h.acceptOpts)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket accept failed", logger.Error(err))
		return
	}
	defer conn.CloseNow()

	c := &client{
		send: make(chan []byte, h.buffer),
		closeSlow: func() {
			conn.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with scores")
		},
	}
	if !h.add(c) {
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	defer h.remove(c)

	// Clients only listen; CloseRead discards inbound frames and cancels
	// ctx once the peer goes away.
	ctx := conn.CloseRead(r.Context())
	h.logger.Debug(ctx, "stream client connected", logger.Int("clients", h.Len()))

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "shutting down")
				return
			}
			if err := h.write(ctx, conn, msg); err != nil {
				h.logger.Debug(ctx, "stream client gone", logger.Error(err))
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) write(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.UpdateStreamSubscribers(len(h.clients))
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	metrics.UpdateStreamSubscribers(len(h.clients))
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.UpdateStreamSubscribers(0)
}

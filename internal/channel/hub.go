package channel

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/soyeahso/livehub/internal/live"
	"github.com/soyeahso/livehub/internal/logging"
)

const defaultRetryDelay = time.Second

// Hub is the connection registry: one shared Channel per canonical
// channel id, created on first request and torn down explicitly via
// Shutdown or implicitly when a channel reaches a terminal state.
type Hub struct {
	registry   *live.ScopeRegistry
	transport  Transport
	log        *logging.Logger
	retryDelay time.Duration
	record     func(channelID string, payload json.RawMessage)

	mu       sync.RWMutex
	channels map[string]*Channel
}

// Option configures the hub.
type Option func(*Hub)

// WithRetryDelay overrides the delay between reconnection attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(h *Hub) {
		h.retryDelay = d
	}
}

// WithRecorder sets a callback invoked for every message event, used
// to persist channel history.
func WithRecorder(record func(channelID string, payload json.RawMessage)) Option {
	return func(h *Hub) {
		h.record = record
	}
}

// NewHub creates a hub resolving channel configs from the given scope
// registry and dialing connections over the given transport.
func NewHub(registry *live.ScopeRegistry, t Transport, log *logging.Logger, opts ...Option) *Hub {
	h := &Hub{
		registry:   registry,
		transport:  t,
		log:        log.Sub("hub"),
		retryDelay: defaultRetryDelay,
		channels:   make(map[string]*Channel),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// GetOrCreate returns the shared channel for the given id, creating it
// on first request. Malformed ids fail with ErrInvalidAddress. An id
// whose path matches no registered config yields a channel in the
// terminal invalid state — no connection is ever attempted for it.
// A channel that has already shut down is replaced by a fresh
// instance, since terminal channels never reconnect.
func (h *Hub) GetOrCreate(id string) (*Channel, error) {
	addr, ok := live.ParseChannelAddress(id)
	if !ok {
		return nil, ErrInvalidAddress
	}
	canonical := addr.String()

	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.channels[canonical]; ok && ch.State() != live.StateShutdown {
		return ch, nil
	}

	cfg, found := h.registry.Lookup(addr)
	ch := newChannel(canonical, addr, cfg, found, h.transport, h.log, h.retryDelay, h.record)
	h.channels[canonical] = ch

	if found {
		h.log.Info().Str("channel", canonical).Msg("channel opened")
	} else {
		h.log.Warn().Str("channel", canonical).Msg("no config for channel path, marking invalid")
	}
	return ch, nil
}

// Get returns an existing channel by canonical id.
func (h *Hub) Get(id string) (*Channel, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ch, ok := h.channels[id]
	return ch, ok
}

// Channels returns all channels currently held by the hub.
func (h *Hub) Channels() []*Channel {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Channel, 0, len(h.channels))
	for _, ch := range h.channels {
		out = append(out, ch)
	}
	return out
}

// Statuses returns a snapshot of every hub channel.
func (h *Hub) Statuses() []Status {
	channels := h.Channels()
	statuses := make([]Status, 0, len(channels))
	for _, ch := range channels {
		statuses = append(statuses, ch.Status())
	}
	return statuses
}

// Count returns the number of channels held by the hub.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// Shutdown disconnects every channel and empties the hub.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	channels := h.channels
	h.channels = make(map[string]*Channel)
	h.mu.Unlock()

	for id, ch := range channels {
		h.log.Info().Str("channel", id).Msg("shutting down channel")
		ch.Disconnect()
	}
}

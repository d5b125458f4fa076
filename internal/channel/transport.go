package channel

import (
	"context"
	"encoding/json"

	"github.com/soyeahso/livehub/internal/live"
)

// ConnEvents receives raw connection callbacks from a transport. The
// channel session implements it and translates the callbacks into
// typed events and state transitions.
type ConnEvents interface {
	// HandleMessage delivers a payload received on the connection.
	HandleMessage(payload json.RawMessage)

	// HandleJoin reports a user joining the channel's presence set.
	HandleJoin(user live.User)

	// HandleLeave reports a user leaving the channel's presence set.
	HandleLeave(user live.User)

	// HandleClose reports the connection dropping. A nil error means a
	// clean remote close; either way the session schedules a retry.
	HandleClose(err error)
}

// Conn is an established transport connection for one channel.
type Conn interface {
	// Publish appends a payload to the remote channel.
	Publish(ctx context.Context, payload json.RawMessage) error

	// Presence requests a one-shot snapshot of the channel's current
	// participants from the server side-channel.
	Presence(ctx context.Context) (live.PresenceStatus, error)

	// Close tears the connection down. No callbacks fire after Close
	// returns.
	Close() error
}

// Transport dials channel connections. Dial blocks until the handshake
// completes: a non-nil error means handshake failure (the session
// records it and retries). The returned payload, when non-nil, is an
// initial message delivered with the handshake.
type Transport interface {
	Dial(ctx context.Context, addr live.ChannelAddress, events ConnEvents) (Conn, json.RawMessage, error)
}

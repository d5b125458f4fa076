package channel

import "errors"

var (
	// ErrInvalidAddress means a channel id could not be parsed into
	// scope/namespace/path.
	ErrInvalidAddress = errors.New("invalid channel address")

	// ErrPublishUnsupported means the channel's config does not allow
	// publishing, or the permission check declined the call.
	ErrPublishUnsupported = errors.New("channel does not support publish")

	// ErrPresenceUnsupported means the channel's config does not
	// declare presence.
	ErrPresenceUnsupported = errors.New("channel does not support presence")

	// ErrNotConnected means a one-shot operation was attempted while
	// the channel has no established connection.
	ErrNotConnected = errors.New("channel is not connected")

	// ErrChannelClosed means the channel is in a terminal state.
	ErrChannelClosed = errors.New("channel is closed")
)

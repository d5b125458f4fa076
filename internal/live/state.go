package live

// ConnectionState is the lifecycle state of a channel connection.
type ConnectionState string

const (
	// StatePending means a connection attempt is underway.
	StatePending ConnectionState = "pending"
	// StateConnected means the handshake succeeded and messages flow.
	StateConnected ConnectionState = "connected"
	// StateDisconnected means the connection dropped; a retry is scheduled.
	StateDisconnected ConnectionState = "disconnected"
	// StateShutdown means the channel was explicitly closed. Terminal.
	StateShutdown ConnectionState = "shutdown"
	// StateInvalid means the channel configuration failed validation and
	// no connection was ever attempted. Terminal.
	StateInvalid ConnectionState = "invalid"
)

// IsTerminal reports whether no further state transitions can occur.
func (s ConnectionState) IsTerminal() bool {
	return s == StateShutdown || s == StateInvalid
}

func (s ConnectionState) String() string {
	return string(s)
}

package live

import (
	"encoding/json"
	"time"
)

// EventType discriminates the channel event union. Exactly one type
// tags each event; consumers switch on it rather than on field shape.
const (
	EventStatus  = "status"
	EventJoin    = "join"
	EventLeave   = "leave"
	EventMessage = "message"
)

// User describes a presence participant on a channel.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Event is one entry in a channel's event stream. The Type field
// selects which of the optional payload fields is meaningful:
//
//	status  → State, Message, Error
//	join    → User
//	leave   → User
//	message → Payload
type Event struct {
	Type      string    `json:"type"`
	Channel   string    `json:"channel"`
	Timestamp time.Time `json:"timestamp"`

	// Status fields
	State   ConnectionState `json:"state,omitempty"`
	Message string          `json:"message,omitempty"`
	// Error is the last known problem on the connection. It persists
	// across status events until a message is successfully received.
	Error string `json:"error,omitempty"`

	// Join/Leave field
	User *User `json:"user,omitempty"`

	// Message field
	Payload json.RawMessage `json:"payload,omitempty"`
}

// IsStatus reports whether e is a status event.
func IsStatus(e Event) bool { return e.Type == EventStatus }

// IsJoin reports whether e is a presence join event.
func IsJoin(e Event) bool { return e.Type == EventJoin }

// IsLeave reports whether e is a presence leave event.
func IsLeave(e Event) bool { return e.Type == EventLeave }

// IsMessage reports whether e is a message event.
func IsMessage(e Event) bool { return e.Type == EventMessage }

// NewStatusEvent creates a status event for the given channel id.
func NewStatusEvent(channel string, state ConnectionState, message, errMsg string) Event {
	return Event{
		Type:      EventStatus,
		Channel:   channel,
		Timestamp: time.Now(),
		State:     state,
		Message:   message,
		Error:     errMsg,
	}
}

// NewJoinEvent creates a presence join event.
func NewJoinEvent(channel string, user User) Event {
	return Event{
		Type:      EventJoin,
		Channel:   channel,
		Timestamp: time.Now(),
		User:      &user,
	}
}

// NewLeaveEvent creates a presence leave event.
func NewLeaveEvent(channel string, user User) Event {
	return Event{
		Type:      EventLeave,
		Channel:   channel,
		Timestamp: time.Now(),
		User:      &user,
	}
}

// NewMessageEvent creates a message event carrying a raw payload.
func NewMessageEvent(channel string, payload json.RawMessage) Event {
	return Event{
		Type:      EventMessage,
		Channel:   channel,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// PresenceStatus is a one-shot snapshot of the users currently on a
// channel, independent of the join/leave events on the stream.
type PresenceStatus struct {
	Users []User `json:"users"`
}

// Package transport provides channel transport implementations: an
// in-process transport for hub-owned channels and tests, and a
// websocket transport speaking the gateway frame protocol.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/soyeahso/livehub/internal/channel"
	"github.com/soyeahso/livehub/internal/live"
	"github.com/soyeahso/livehub/internal/logging"
)

// Local is an in-process transport. Every dialed address maps to a
// room; publishing into a room fans the payload out to every connected
// session. It backs hub-scope channels when no upstream is configured
// and doubles as the transport for integration tests, where dial
// failures and connection drops can be scripted per address.
type Local struct {
	log *logging.Logger

	mu       sync.Mutex
	rooms    map[string]*room
	failDial map[string]int
}

type room struct {
	members map[int]*localConn
	users   map[string]live.User
	nextID  int
}

// NewLocal creates an empty local transport.
func NewLocal(log *logging.Logger) *Local {
	return &Local{
		log:      log.Sub("transport"),
		rooms:    make(map[string]*room),
		failDial: make(map[string]int),
	}
}

// Dial joins the room for addr. Fails while scripted failures remain
// for the address.
func (t *Local) Dial(_ context.Context, addr live.ChannelAddress, events channel.ConnEvents) (channel.Conn, json.RawMessage, error) {
	id := addr.String()

	t.mu.Lock()
	defer t.mu.Unlock()

	if n := t.failDial[id]; n > 0 {
		t.failDial[id] = n - 1
		return nil, nil, fmt.Errorf("dial refused for %s", id)
	}

	r, ok := t.rooms[id]
	if !ok {
		r = &room{
			members: make(map[int]*localConn),
			users:   make(map[string]live.User),
		}
		t.rooms[id] = r
	}

	conn := &localConn{t: t, roomID: id, memberID: r.nextID, events: events}
	r.nextID++
	r.members[conn.memberID] = conn
	t.log.Debug().Str("channel", id).Int("members", len(r.members)).Msg("local dial")
	return conn, nil, nil
}

// FailNextDial scripts the next n dials for the address to fail with a
// handshake error.
func (t *Local) FailNextDial(id string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failDial[id] = n
}

// Drop severs every connection in the room, as a transport-level loss.
// Sessions observe it via HandleClose and redial.
func (t *Local) Drop(id string, err error) {
	t.mu.Lock()
	r, ok := t.rooms[id]
	var dropped []*localConn
	if ok {
		for mid, conn := range r.members {
			dropped = append(dropped, conn)
			delete(r.members, mid)
		}
	}
	t.mu.Unlock()

	for _, conn := range dropped {
		conn.markClosed()
		conn.events.HandleClose(err)
	}
}

// Broadcast delivers a payload to every member of the room without
// needing a connection, for server-generated events.
func (t *Local) Broadcast(id string, payload json.RawMessage) {
	for _, conn := range t.roomMembers(id) {
		conn.deliver(func(ev channel.ConnEvents) { ev.HandleMessage(payload) })
	}
}

// Join adds a user to the room's presence set and emits a join event
// to every member.
func (t *Local) Join(id string, user live.User) {
	t.mu.Lock()
	if r, ok := t.rooms[id]; ok {
		r.users[user.ID] = user
	}
	t.mu.Unlock()
	for _, conn := range t.roomMembers(id) {
		conn.deliver(func(ev channel.ConnEvents) { ev.HandleJoin(user) })
	}
}

// Leave removes a user from the room's presence set and emits a leave
// event to every member.
func (t *Local) Leave(id string, user live.User) {
	t.mu.Lock()
	if r, ok := t.rooms[id]; ok {
		delete(r.users, user.ID)
	}
	t.mu.Unlock()
	for _, conn := range t.roomMembers(id) {
		conn.deliver(func(ev channel.ConnEvents) { ev.HandleLeave(user) })
	}
}

func (t *Local) roomMembers(id string) []*localConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rooms[id]
	if !ok {
		return nil
	}
	members := make([]*localConn, 0, len(r.members))
	for _, conn := range r.members {
		members = append(members, conn)
	}
	return members
}

func (t *Local) removeMember(roomID string, memberID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rooms[roomID]
	if !ok {
		return
	}
	delete(r.members, memberID)
	if len(r.members) == 0 {
		delete(t.rooms, roomID)
	}
}

// localConn is one session's membership in a room.
type localConn struct {
	t        *Local
	roomID   string
	memberID int
	events   channel.ConnEvents

	mu     sync.Mutex
	closed bool
}

func (c *localConn) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *localConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// deliver runs a callback against this member unless it has closed.
// Holding the mutex across the callback keeps Close from returning
// while a delivery is in flight.
func (c *localConn) deliver(fn func(channel.ConnEvents)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	fn(c.events)
}

// Publish fans the payload out to every room member, including the
// publishing session itself.
func (c *localConn) Publish(_ context.Context, payload json.RawMessage) error {
	if c.isClosed() {
		return fmt.Errorf("publish on closed connection for %s", c.roomID)
	}
	for _, conn := range c.t.roomMembers(c.roomID) {
		conn.deliver(func(ev channel.ConnEvents) { ev.HandleMessage(payload) })
	}
	return nil
}

// Presence returns the room's current user set.
func (c *localConn) Presence(_ context.Context) (live.PresenceStatus, error) {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	status := live.PresenceStatus{}
	if r, ok := c.t.rooms[c.roomID]; ok {
		for _, u := range r.users {
			status.Users = append(status.Users, u)
		}
	}
	return status, nil
}

// Close leaves the room. No callbacks fire afterwards.
func (c *localConn) Close() error {
	c.markClosed()
	c.t.removeMember(c.roomID, c.memberID)
	return nil
}

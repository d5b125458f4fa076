// Package channel implements live channel sessions: shared,
// addressable server-push subscriptions governed by the
// pending/connected/disconnected/shutdown/invalid state machine, and
// the hub that deduplicates them by canonical channel id.
package channel

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/soyeahso/livehub/internal/live"
	"github.com/soyeahso/livehub/internal/logging"
)

const dialTimeout = 10 * time.Second

// Channel is a live, addressable, open subscription. One instance is
// shared by every subscriber to the same channel id; the underlying
// transport connection exists only while at least one subscriber is
// observing the stream.
type Channel struct {
	id        string
	addr      live.ChannelAddress
	opened    time.Time
	config    live.ChannelConfig
	hasConfig bool

	transport  Transport
	log        *logging.Logger
	retryDelay time.Duration
	record     func(channelID string, payload json.RawMessage)

	mu      sync.Mutex
	state   live.ConnectionState
	lastErr string
	conn    Conn
	subs    map[int]*Subscription
	nextSub int
	dialing bool
	// gen invalidates in-flight dials and stale connection callbacks
	// whenever the connection is released or the channel shuts down.
	gen int
}

func newChannel(
	id string,
	addr live.ChannelAddress,
	cfg live.ChannelConfig,
	hasConfig bool,
	t Transport,
	log *logging.Logger,
	retryDelay time.Duration,
	record func(string, json.RawMessage),
) *Channel {
	state := live.StatePending
	if !hasConfig {
		state = live.StateInvalid
	}
	return &Channel{
		id:         id,
		addr:       addr,
		opened:     time.Now(),
		config:     cfg,
		hasConfig:  hasConfig,
		transport:  t,
		log:        log,
		retryDelay: retryDelay,
		record:     record,
		state:      state,
		subs:       make(map[int]*Subscription),
	}
}

// ID returns the canonical channel id (scope/namespace/path).
func (c *Channel) ID() string { return c.id }

// Addr returns the parsed channel address.
func (c *Channel) Addr() live.ChannelAddress { return c.addr }

// Opened returns when this channel instance was created.
func (c *Channel) Opened() time.Time { return c.opened }

// Config returns the resolved channel config, if the address matched a
// registered path pattern.
func (c *Channel) Config() (live.ChannelConfig, bool) {
	return c.config, c.hasConfig
}

// State returns the current connection state.
func (c *Channel) State() live.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status is a point-in-time snapshot of one channel.
type Status struct {
	ID          string               `json:"id"`
	State       live.ConnectionState `json:"state"`
	Subscribers int                  `json:"subscribers"`
	Opened      time.Time            `json:"opened"`
	LastError   string               `json:"lastError,omitempty"`
}

// Status returns a snapshot of the channel's runtime state.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		ID:          c.id,
		State:       c.state,
		Subscribers: len(c.subs),
		Opened:      c.opened,
		LastError:   c.lastErr,
	}
}

// Subscribe attaches a new observer to the channel's event stream.
// The first subscriber triggers the connection attempt (cold start);
// later subscribers share the same connection and receive the same
// events, starting with a status event reflecting the current state.
// Subscribing to a terminal channel yields that final status and a
// completed stream.
func (c *Channel) Subscribe() *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &Subscription{
		id:      c.nextSub,
		ch:      make(chan live.Event, subscriptionBuffer),
		channel: c,
	}
	c.nextSub++

	if c.state.IsTerminal() {
		sub.ch <- live.NewStatusEvent(c.id, c.state, "", c.lastErr)
		close(sub.ch)
		return sub
	}

	c.subs[sub.id] = sub

	if c.conn == nil && !c.dialing {
		c.state = live.StatePending
		c.emitLocked(live.NewStatusEvent(c.id, live.StatePending, "", c.lastErr))
		c.dialing = true
		go c.connectLoop(c.gen)
		return sub
	}

	// Late subscriber: report the current state so it can render
	// without waiting for the next transition.
	sub.ch <- live.NewStatusEvent(c.id, c.state, "", c.lastErr)
	return sub
}

// unsubscribe detaches an observer. When the last one leaves, the
// underlying connection is released immediately.
func (c *Channel) unsubscribe(id int) {
	c.mu.Lock()
	sub, ok := c.subs[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.subs, id)
	close(sub.ch)

	var conn Conn
	if len(c.subs) == 0 && !c.state.IsTerminal() {
		conn = c.releaseLocked()
	}
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
		c.log.Debug().Str("channel", c.id).Msg("connection released, no subscribers left")
	}
}

// releaseLocked drops the connection and invalidates in-flight dials.
// The channel goes back to pending, ready for the next cold start.
func (c *Channel) releaseLocked() Conn {
	conn := c.conn
	c.conn = nil
	c.dialing = false
	c.gen++
	c.state = live.StatePending
	return conn
}

// connectLoop dials the transport until it succeeds, the generation
// changes, or the channel terminates. Retries are unbounded; backoff
// beyond the fixed delay belongs to the transport.
func (c *Channel) connectLoop(gen int) {
	for {
		c.mu.Lock()
		if c.gen != gen || c.state.IsTerminal() || len(c.subs) == 0 {
			c.mu.Unlock()
			return
		}
		addr := c.addr
		c.mu.Unlock()

		events := &connEvents{channel: c, gen: gen}
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		conn, initial, err := c.transport.Dial(ctx, addr, events)
		cancel()

		c.mu.Lock()
		if c.gen != gen || c.state.IsTerminal() {
			c.mu.Unlock()
			if err == nil {
				conn.Close()
			}
			return
		}

		if err != nil {
			c.lastErr = err.Error()
			c.state = live.StateDisconnected
			c.emitLocked(live.NewStatusEvent(c.id, live.StateDisconnected, "", c.lastErr))
			c.log.Warn().Err(err).Str("channel", c.id).Msg("handshake failed, retrying")
			c.mu.Unlock()
			time.Sleep(c.retryDelay)
			continue
		}

		c.conn = conn
		c.dialing = false
		c.state = live.StateConnected
		// The sticky error rides along until a message clears it.
		c.emitLocked(live.NewStatusEvent(c.id, live.StateConnected, "", c.lastErr))
		if initial != nil {
			c.deliverLocked(initial)
		}
		// Release callbacks the transport delivered during the
		// handshake; they must trail the connected status.
		events.ready = true
		held := events.held
		events.held = nil
		for _, fn := range held {
			fn(c)
		}
		if events.closed {
			// The connection died before the session took it over.
			c.handleCloseLocked(events.closeErr)
			c.mu.Unlock()
			return
		}
		c.log.Info().Str("channel", c.id).Msg("channel connected")
		c.mu.Unlock()
		return
	}
}

// deliverLocked emits a message event and clears the last known error.
func (c *Channel) deliverLocked(payload json.RawMessage) {
	c.lastErr = ""
	c.emitLocked(live.NewMessageEvent(c.id, payload))
	if c.record != nil {
		c.record(c.id, payload)
	}
}

// emitLocked fans an event out to all subscribers. Slow subscribers
// lose events rather than block the producer.
func (c *Channel) emitLocked(e live.Event) {
	for _, sub := range c.subs {
		select {
		case sub.ch <- e:
		default:
			c.log.Warn().Str("channel", c.id).Str("event", e.Type).Msg("subscriber buffer full, dropping event")
		}
	}
}

// Publish appends a payload to the channel. The config's permission
// check runs on every call since permissions may change while the
// channel is open.
func (c *Channel) Publish(ctx context.Context, payload json.RawMessage) error {
	c.mu.Lock()
	if c.state.IsTerminal() {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	conn := c.conn
	c.mu.Unlock()

	if !c.hasConfig || c.config.CanPublish == nil || !c.config.CanPublish() {
		return ErrPublishUnsupported
	}
	if conn == nil {
		return ErrNotConnected
	}
	return conn.Publish(ctx, payload)
}

// Presence requests a one-shot snapshot of the channel's current
// participants. Join/leave events keep flowing on the stream
// independent of this call.
func (c *Channel) Presence(ctx context.Context) (live.PresenceStatus, error) {
	c.mu.Lock()
	if c.state.IsTerminal() {
		c.mu.Unlock()
		return live.PresenceStatus{}, ErrChannelClosed
	}
	conn := c.conn
	c.mu.Unlock()

	if !c.hasConfig || !c.config.HasPresence {
		return live.PresenceStatus{}, ErrPresenceUnsupported
	}
	if conn == nil {
		return live.PresenceStatus{}, ErrNotConnected
	}
	return conn.Presence(ctx)
}

// Disconnect shuts the channel down. Idempotent. Subscribers receive a
// final shutdown status and their streams complete; the channel never
// reconnects afterwards.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.state.IsTerminal() {
		c.mu.Unlock()
		return
	}
	c.gen++
	conn := c.conn
	c.conn = nil
	c.dialing = false
	c.state = live.StateShutdown
	c.emitLocked(live.NewStatusEvent(c.id, live.StateShutdown, "", c.lastErr))
	for id, sub := range c.subs {
		close(sub.ch)
		delete(c.subs, id)
	}
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.log.Info().Str("channel", c.id).Msg("channel shut down")
}

// handleCloseLocked records a dropped connection and schedules a redial
// while subscribers remain.
func (c *Channel) handleCloseLocked(err error) {
	c.conn = nil
	if err != nil {
		c.lastErr = err.Error()
	}
	c.state = live.StateDisconnected
	c.emitLocked(live.NewStatusEvent(c.id, live.StateDisconnected, "", c.lastErr))
	c.log.Warn().Err(err).Str("channel", c.id).Msg("connection dropped, retrying")

	if len(c.subs) > 0 && !c.dialing {
		c.dialing = true
		gen := c.gen
		delay := c.retryDelay
		go func() {
			time.Sleep(delay)
			c.connectLoop(gen)
		}()
	}
}

// connEvents adapts transport callbacks onto one channel generation.
// Callbacks from a superseded connection are ignored. Callbacks that
// arrive before the session has installed the connection are held back,
// so the connected status always precedes anything the new connection
// produced.
type connEvents struct {
	channel *Channel
	gen     int

	// Guarded by channel.mu.
	ready    bool
	held     []func(c *Channel)
	closed   bool
	closeErr error
}

func (e *connEvents) run(fn func(c *Channel)) {
	c := e.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != e.gen || c.state.IsTerminal() {
		return
	}
	if !e.ready {
		if !e.closed {
			e.held = append(e.held, fn)
		}
		return
	}
	fn(c)
}

func (e *connEvents) HandleMessage(payload json.RawMessage) {
	e.run(func(c *Channel) { c.deliverLocked(payload) })
}

func (e *connEvents) HandleJoin(user live.User) {
	e.run(func(c *Channel) { c.emitLocked(live.NewJoinEvent(c.id, user)) })
}

func (e *connEvents) HandleLeave(user live.User) {
	e.run(func(c *Channel) { c.emitLocked(live.NewLeaveEvent(c.id, user)) })
}

func (e *connEvents) HandleClose(err error) {
	c := e.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != e.gen || c.state.IsTerminal() {
		return
	}
	if !e.ready {
		// The connection died during the handshake; the dial
		// goroutine finds this after emitting the connected status.
		e.closed = true
		e.closeErr = err
		e.held = nil
		return
	}
	c.handleCloseLocked(err)
}

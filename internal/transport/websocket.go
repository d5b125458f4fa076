package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/livehub/internal/channel"
	"github.com/soyeahso/livehub/internal/gateway"
	"github.com/soyeahso/livehub/internal/live"
	"github.com/soyeahso/livehub/internal/logging"
	"github.com/soyeahso/livehub/internal/version"
)

const handshakeTimeout = 10 * time.Second

// WebSocket dials channels on a remote hub gateway. Each channel gets
// its own websocket connection: challenge → connect → hello-ok, then a
// sub request for the address. Reconnects are driven by the channel
// session, not here.
type WebSocket struct {
	url      string
	token    string
	clientID string
	log      *logging.Logger
}

// NewWebSocket creates a websocket transport for the given gateway URL
// (e.g. ws://127.0.0.1:18701/ws) authenticating with the given token.
func NewWebSocket(url, token string, log *logging.Logger) *WebSocket {
	return &WebSocket{
		url:      url,
		token:    token,
		clientID: "livehub-transport-" + uuid.New().String()[:8],
		log:      log.Sub("transport"),
	}
}

// Dial connects to the gateway, authenticates, and subscribes to addr.
func (t *WebSocket) Dial(ctx context.Context, addr live.ChannelAddress, events channel.ConnEvents) (channel.Conn, json.RawMessage, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing gateway: %w", err)
	}

	initial, err := t.handshake(ws, addr)
	if err != nil {
		ws.Close()
		return nil, nil, err
	}

	conn := &wsConn{
		ws:      ws,
		log:     t.log,
		channel: addr.String(),
		pending: make(map[string]chan gateway.Frame),
	}
	go conn.readLoop(events)
	return conn, initial, nil
}

// handshake runs the gateway auth exchange and subscribes to the
// channel, returning any initial payload the subscription carried.
func (t *WebSocket) handshake(ws *websocket.Conn, addr live.ChannelAddress) (json.RawMessage, error) {
	ws.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer ws.SetReadDeadline(time.Time{})

	// Challenge arrives first.
	var frame gateway.Frame
	if err := ws.ReadJSON(&frame); err != nil {
		return nil, fmt.Errorf("reading challenge: %w", err)
	}
	if frame.Type != gateway.FrameTypeEvent || frame.Event != "connect.challenge" {
		return nil, fmt.Errorf("expected challenge, got type=%s event=%s", frame.Type, frame.Event)
	}

	connect, err := gateway.NewRequest(uuid.New().String(), "connect", gateway.ConnectParams{
		MinProtocol: gateway.ProtocolVersion,
		MaxProtocol: gateway.ProtocolVersion,
		Client: gateway.ClientInfo{
			ID:       t.clientID,
			Version:  version.Version,
			Platform: runtime.GOOS,
		},
		Auth: &gateway.ConnectAuth{Token: t.token},
	})
	if err != nil {
		return nil, err
	}
	if err := ws.WriteJSON(connect); err != nil {
		return nil, fmt.Errorf("sending connect: %w", err)
	}
	if err := readResponse(ws, connect.ID); err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	sub, err := gateway.NewRequest(uuid.New().String(), "sub", gateway.SubParams{Channel: addr.String()})
	if err != nil {
		return nil, err
	}
	if err := ws.WriteJSON(sub); err != nil {
		return nil, fmt.Errorf("sending sub: %w", err)
	}

	var subResp gateway.Frame
	for {
		if err := ws.ReadJSON(&subResp); err != nil {
			return nil, fmt.Errorf("reading sub response: %w", err)
		}
		if subResp.Type == gateway.FrameTypeResponse && subResp.ID == sub.ID {
			break
		}
	}
	if subResp.Error != nil {
		return nil, fmt.Errorf("sub rejected: %s", subResp.Error.Message)
	}

	var result gateway.SubResult
	if subResp.Payload != nil {
		if err := json.Unmarshal(subResp.Payload, &result); err != nil {
			return nil, fmt.Errorf("parsing sub response: %w", err)
		}
	}
	return result.Initial, nil
}

// readResponse consumes frames until the response for reqID arrives.
func readResponse(ws *websocket.Conn, reqID string) error {
	for {
		var frame gateway.Frame
		if err := ws.ReadJSON(&frame); err != nil {
			return err
		}
		if frame.Type != gateway.FrameTypeResponse || frame.ID != reqID {
			continue
		}
		if frame.Error != nil {
			return fmt.Errorf("%s: %s", frame.Error.Code, frame.Error.Message)
		}
		return nil
	}
}

// wsConn is an established gateway subscription for one channel.
type wsConn struct {
	ws      *websocket.Conn
	log     *logging.Logger
	channel string

	mu      sync.Mutex
	pending map[string]chan gateway.Frame
	closed  bool
}

// readLoop translates incoming frames into connection callbacks and
// routes responses to in-flight requests.
func (c *wsConn) readLoop(events channel.ConnEvents) {
	for {
		var frame gateway.Frame
		if err := c.ws.ReadJSON(&frame); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.closed = true
			c.mu.Unlock()
			if !closed {
				events.HandleClose(err)
			}
			return
		}

		switch frame.Type {
		case gateway.FrameTypeResponse:
			c.mu.Lock()
			ch, ok := c.pending[frame.ID]
			delete(c.pending, frame.ID)
			c.mu.Unlock()
			if ok {
				ch <- frame
			}

		case gateway.FrameTypeEvent:
			if frame.Event != "channel.event" || frame.Payload == nil {
				continue
			}
			var e live.Event
			if err := json.Unmarshal(frame.Payload, &e); err != nil {
				c.log.Warn().Err(err).Str("channel", c.channel).Msg("bad channel event frame")
				continue
			}
			switch {
			case live.IsMessage(e):
				events.HandleMessage(e.Payload)
			case live.IsJoin(e) && e.User != nil:
				events.HandleJoin(*e.User)
			case live.IsLeave(e) && e.User != nil:
				events.HandleLeave(*e.User)
			}
			// Remote status events are informational; the local
			// session derives its own state from this connection.
		}
	}
}

// request sends a request frame and waits for its response.
func (c *wsConn) request(ctx context.Context, method string, params any) (gateway.Frame, error) {
	frame, err := gateway.NewRequest(uuid.New().String(), method, params)
	if err != nil {
		return gateway.Frame{}, err
	}

	respCh := make(chan gateway.Frame, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return gateway.Frame{}, fmt.Errorf("connection closed for %s", c.channel)
	}
	c.pending[frame.ID] = respCh
	err = c.ws.WriteJSON(frame)
	c.mu.Unlock()
	if err != nil {
		c.dropPending(frame.ID)
		return gateway.Frame{}, fmt.Errorf("sending %s: %w", method, err)
	}

	select {
	case resp := <-respCh:
		if resp.Error != nil {
			return gateway.Frame{}, fmt.Errorf("%s: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp, nil
	case <-ctx.Done():
		c.dropPending(frame.ID)
		return gateway.Frame{}, ctx.Err()
	}
}

func (c *wsConn) dropPending(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

// Publish sends the payload through the gateway's pub method.
func (c *wsConn) Publish(ctx context.Context, payload json.RawMessage) error {
	_, err := c.request(ctx, "pub", gateway.PubParams{Channel: c.channel, Payload: payload})
	return err
}

// Presence requests the gateway's presence snapshot for the channel.
func (c *wsConn) Presence(ctx context.Context) (live.PresenceStatus, error) {
	resp, err := c.request(ctx, "presence", gateway.PresenceParams{Channel: c.channel})
	if err != nil {
		return live.PresenceStatus{}, err
	}
	var status live.PresenceStatus
	if resp.Payload != nil {
		if err := json.Unmarshal(resp.Payload, &status); err != nil {
			return live.PresenceStatus{}, fmt.Errorf("parsing presence: %w", err)
		}
	}
	return status, nil
}

// Close tears the websocket down. The read loop suppresses its close
// callback afterwards. The close write happens under the same mutex as
// request writes; gorilla forbids concurrent writers.
func (c *wsConn) Close() error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
	c.mu.Unlock()
	return c.ws.Close()
}

package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/livehub/internal/channel"
	"github.com/soyeahso/livehub/internal/live"
)

// safeConfigPrefixes lists config path prefixes that can be read and
// written via RPC. All other paths are denied by default (allowlist).
var safeConfigPrefixes = []string{
	"gateway.port",
	"gateway.bind",
	"gateway.customBindHost",
	"gateway.allowedOrigins",
	"logging",
	"history",
	"channels",
}

func isAllowedConfigPath(key string) bool {
	for _, prefix := range safeConfigPrefixes {
		if key == prefix || strings.HasPrefix(key, prefix+".") {
			return true
		}
	}
	return false
}

// oneShotTimeout bounds publish and presence calls against the hub.
const oneShotTimeout = 10 * time.Second

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// registerRPCHandlers sets up all JSON-RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("config.get", s.rpcConfigGet)
	s.Handle("config.set", s.rpcConfigSet)
	s.Handle("channels.list", s.rpcChannelsList)
	s.Handle("channels.paths", s.rpcChannelsPaths)
	s.Handle("sub", s.rpcSub)
	s.Handle("unsub", s.rpcUnsub)
	s.Handle("pub", s.rpcPub)
	s.Handle("presence", s.rpcPresence)
	s.Handle("history", s.rpcHistory)
}

// Built-in RPC handlers

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Clients:  s.clients.Count(),
		Channels: s.hub.Count(),
	})
}

type configGetParams struct {
	Key string `json:"key"`
}

func (s *Server) rpcConfigGet(rc *RequestContext) {
	var p configGetParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.Key == "" {
		rc.RespondError("invalid_params", "key is required")
		return
	}
	if !isAllowedConfigPath(p.Key) {
		rc.RespondError("forbidden", "access denied for config path: "+p.Key)
		return
	}

	s.mu.RLock()
	raw := s.configRaw
	s.mu.RUnlock()

	path, err := parseConfigPathForRPC(p.Key)
	if err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}

	val, ok := getValueAtPathRPC(raw, path)
	if !ok {
		rc.RespondError("not_found", "key not found: "+p.Key)
		return
	}
	rc.Respond(map[string]any{"key": p.Key, "value": val})
}

type configSetParams struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (s *Server) rpcConfigSet(rc *RequestContext) {
	var p configSetParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.Key == "" {
		rc.RespondError("invalid_params", "key is required")
		return
	}
	if !isAllowedConfigPath(p.Key) {
		rc.RespondError("forbidden", "cannot modify config path: "+p.Key)
		return
	}

	path, err := parseConfigPathForRPC(p.Key)
	if err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}

	s.mu.Lock()
	setValueAtPathRPC(s.configRaw, path, p.Value)
	s.mu.Unlock()

	rc.Respond(map[string]any{"key": p.Key, "value": p.Value})
}

func (s *Server) rpcChannelsList(rc *RequestContext) {
	rc.Respond(map[string]any{"channels": s.hub.Statuses()})
}

// pathInfo is the wire shape for a channel config; the publish gate is
// reported as a boolean evaluated at listing time.
type pathInfo struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	HasPresence bool   `json:"hasPresence,omitempty"`
	CanPublish  bool   `json:"canPublish,omitempty"`
}

func (s *Server) rpcChannelsPaths(rc *RequestContext) {
	var p PathsParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.Scope == "" || p.Namespace == "" {
		rc.RespondError("invalid_params", "scope and namespace are required")
		return
	}

	configs := s.registry.SupportedPaths(live.Scope(p.Scope), p.Namespace)
	paths := make([]pathInfo, 0, len(configs))
	for _, cfg := range configs {
		paths = append(paths, pathInfo{
			Path:        cfg.Path,
			Description: cfg.Description,
			HasPresence: cfg.HasPresence,
			CanPublish:  cfg.CanPublish != nil && cfg.CanPublish(),
		})
	}
	rc.Respond(map[string]any{"paths": paths})
}

func (s *Server) rpcSub(rc *RequestContext) {
	var p SubParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.Channel == "" {
		rc.RespondError("invalid_params", "channel is required")
		return
	}

	ch, err := s.hub.GetOrCreate(p.Channel)
	if err != nil {
		respondChannelError(rc, err)
		return
	}

	sub := ch.Subscribe()
	rc.Client.AddSubscription(ch.ID(), sub)

	// Respond before the forwarder starts so the ack precedes any
	// event frames for this channel.
	rc.Respond(SubResult{Channel: ch.ID()})
	go s.forwardEvents(rc.Client, ch.ID(), sub)
}

// forwardEvents pumps a subscription's events to one websocket client
// until the stream completes or the client goes away.
func (s *Server) forwardEvents(client *Client, id string, sub *channel.Subscription) {
	for e := range sub.Events() {
		seq := s.eventSeq.Add(1)
		if err := client.SendEvent("channel.event", e, seq); err != nil {
			s.log.Debug().Err(err).Str("connId", client.ConnID).Str("channel", id).Msg("event forward failed, dropping subscription")
			sub.Close()
			break
		}
	}
	client.RemoveSubscriptionIf(id, sub)
}

func (s *Server) rpcUnsub(rc *RequestContext) {
	var p UnsubParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}

	sub, ok := rc.Client.RemoveSubscription(p.Channel)
	if !ok {
		rc.RespondError("not_subscribed", "no subscription for channel: "+p.Channel)
		return
	}
	sub.Close()
	rc.Respond(map[string]any{"channel": p.Channel, "unsubscribed": true})
}

func (s *Server) rpcPub(rc *RequestContext) {
	var p PubParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.Channel == "" {
		rc.RespondError("invalid_params", "channel is required")
		return
	}

	ch, err := s.hub.GetOrCreate(p.Channel)
	if err != nil {
		respondChannelError(rc, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
	defer cancel()

	if err := ch.Publish(ctx, p.Payload); err != nil {
		respondChannelError(rc, err)
		return
	}
	rc.Respond(map[string]any{"channel": ch.ID(), "published": true})
}

func (s *Server) rpcPresence(rc *RequestContext) {
	var p PresenceParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}

	ch, err := s.hub.GetOrCreate(p.Channel)
	if err != nil {
		respondChannelError(rc, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
	defer cancel()

	status, err := ch.Presence(ctx)
	if err != nil {
		respondChannelError(rc, err)
		return
	}
	rc.Respond(status)
}

func (s *Server) rpcHistory(rc *RequestContext) {
	if s.history == nil {
		rc.RespondError("unavailable", "history is not enabled")
		return
	}

	var p HistoryParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.Channel == "" {
		rc.RespondError("invalid_params", "channel is required")
		return
	}
	limit := p.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	messages, err := s.history.Recent(p.Channel, limit)
	if err != nil {
		rc.RespondError("internal", err.Error())
		return
	}
	rc.Respond(map[string]any{"channel": p.Channel, "messages": messages})
}

// respondChannelError maps hub/channel errors onto protocol error codes.
func respondChannelError(rc *RequestContext, err error) {
	switch {
	case errors.Is(err, channel.ErrInvalidAddress):
		rc.RespondError("invalid_address", err.Error())
	case errors.Is(err, channel.ErrPublishUnsupported), errors.Is(err, channel.ErrPresenceUnsupported):
		rc.RespondError("unsupported", err.Error())
	case errors.Is(err, channel.ErrNotConnected):
		rc.RespondError("not_connected", err.Error())
	case errors.Is(err, channel.ErrChannelClosed):
		rc.RespondError("closed", err.Error())
	default:
		rc.RespondError("internal", err.Error())
	}
}

// Helpers that mirror config.ParseConfigPath / GetValueAtPath without importing config
// to avoid circular dependencies — they operate on raw maps only.

func parseConfigPathForRPC(raw string) ([]string, error) {
	if raw == "" {
		return nil, ErrEmptyConfigPath
	}
	var parts []string
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == '.' {
			if i == start {
				return nil, ErrEmptyConfigPath
			}
			parts = append(parts, raw[start:i])
			start = i + 1
		}
	}
	return parts, nil
}

func getValueAtPathRPC(root map[string]any, path []string) (any, bool) {
	current := any(root)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func setValueAtPathRPC(root map[string]any, path []string, value any) {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			next = map[string]any{}
			current[key] = next
		}
		m, ok := next.(map[string]any)
		if !ok {
			m = map[string]any{}
			current[key] = m
		}
		current = m
	}
	current[path[len(path)-1]] = value
}

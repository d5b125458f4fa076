package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	issues := Validate(&cfg)
	assert.Empty(t, issues)
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Defaults()

	cfg.Gateway.Port = -1
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "gateway.port")

	cfg.Gateway.Port = 70000
	issues = Validate(&cfg)
	assert.NotEmpty(t, issues)
}

func TestValidate_InvalidBind(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Bind = "invalid"
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "gateway.bind")
}

func TestValidate_ValidBinds(t *testing.T) {
	for _, bind := range []string{"auto", "lan", "loopback", ""} {
		cfg := Defaults()
		cfg.Gateway.Bind = bind
		assert.Empty(t, Validate(&cfg), "bind %q should be valid", bind)
	}
}

func TestValidate_CustomBindRequiresHost(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Bind = "custom"
	issues := Validate(&cfg)
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "gateway.customBindHost")

	cfg.Gateway.CustomBindHost = "10.0.0.5"
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_InvalidAuthMode(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Auth.Mode = "oauth"
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "gateway.auth.mode")
}

func TestValidate_TLSRequiresPaths(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.TLS.Enabled = true
	issues := Validate(&cfg)
	require.Len(t, issues, 2)

	cfg.Gateway.TLS.CertPath = "/etc/livehub/cert.pem"
	cfg.Gateway.TLS.KeyPath = "/etc/livehub/key.pem"
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_InvalidUpstreamMode(t *testing.T) {
	cfg := Defaults()
	cfg.Upstream.Mode = "grpc"
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "upstream.mode")
}

func TestValidate_WebsocketUpstreamRequiresURL(t *testing.T) {
	cfg := Defaults()
	cfg.Upstream.Mode = "websocket"
	issues := Validate(&cfg)
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "upstream.url")

	cfg.Upstream.URL = "wss://hub.example.com/ws"
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_ChannelEntries(t *testing.T) {
	cfg := Defaults()
	cfg.Channels = []ChannelEntry{
		{Scope: "ds", Namespace: "influx-1", Path: "stream/{id}"},
		{Namespace: "bad/ns"},
	}
	issues := Validate(&cfg)

	var paths []string
	for _, i := range issues {
		paths = append(paths, i.Path)
	}
	assert.Contains(t, paths, "channels[1].scope")
	assert.Contains(t, paths, "channels[1].namespace")
	assert.Contains(t, paths, "channels[1].path")
	assert.NotContains(t, paths, "channels[0].scope")
}

func TestValidate_NegativeRetention(t *testing.T) {
	cfg := Defaults()
	cfg.History.RetentionHours = -1
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "history.retentionHours")
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "verbose"
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "logging.level")
}

func TestValidate_MultipleIssues(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Port = -1
	cfg.Upstream.Mode = "invalid"
	cfg.Logging.Level = "verbose"

	issues := Validate(&cfg)
	assert.GreaterOrEqual(t, len(issues), 3)
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{
		Path:    "gateway.port",
		Message: "port must be 0-65535, got -1",
	}
	assert.Equal(t, "gateway.port: port must be 0-65535, got -1", issue.String())
}

package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathRegistry_ExactMatch(t *testing.T) {
	reg := NewPathRegistry()
	reg.Register(ChannelConfig{Path: "time", Description: "clock ticks"})

	cfg, ok := reg.GetChannelConfig("time")
	require.True(t, ok)
	assert.Equal(t, "clock ticks", cfg.Description)

	_, ok = reg.GetChannelConfig("other")
	assert.False(t, ok)
}

func TestPathRegistry_PlaceholderMatch(t *testing.T) {
	reg := NewPathRegistry()
	reg.Register(ChannelConfig{Path: "stream/{id}", HasPresence: true})

	cfg, ok := reg.GetChannelConfig("stream/cpu")
	require.True(t, ok)
	assert.True(t, cfg.HasPresence)

	_, ok = reg.GetChannelConfig("stream")
	assert.False(t, ok, "placeholder must consume exactly one segment")

	_, ok = reg.GetChannelConfig("stream/cpu/extra")
	assert.False(t, ok, "extra segments must not match")

	_, ok = reg.GetChannelConfig("stream/")
	assert.False(t, ok, "placeholder must not match an empty segment")
}

func TestPathRegistry_FirstRegisteredWins(t *testing.T) {
	reg := NewPathRegistry()
	reg.Register(ChannelConfig{Path: "stream/cpu", Description: "exact"})
	reg.Register(ChannelConfig{Path: "stream/{id}", Description: "wildcard"})

	cfg, ok := reg.GetChannelConfig("stream/cpu")
	require.True(t, ok)
	assert.Equal(t, "exact", cfg.Description)

	cfg, ok = reg.GetChannelConfig("stream/mem")
	require.True(t, ok)
	assert.Equal(t, "wildcard", cfg.Description)
}

func TestPathRegistry_GetSupportedPaths(t *testing.T) {
	reg := NewPathRegistry()
	assert.Empty(t, reg.GetSupportedPaths())

	reg.Register(ChannelConfig{Path: "a"})
	reg.Register(ChannelConfig{Path: "b/{x}"})

	paths := reg.GetSupportedPaths()
	require.Len(t, paths, 2)
	assert.Equal(t, "a", paths[0].Path)
	assert.Equal(t, "b/{x}", paths[1].Path)
}

func TestScopeRegistry_Lookup(t *testing.T) {
	reg := NewScopeRegistry()
	reg.Namespace(ScopeDataSource, "influx-1").Register(ChannelConfig{
		Path:        "stream/{id}",
		Description: "measurement stream",
	})

	addr := ChannelAddress{Scope: ScopeDataSource, Namespace: "influx-1", Path: "stream/cpu"}
	cfg, ok := reg.Lookup(addr)
	require.True(t, ok)
	assert.Equal(t, "measurement stream", cfg.Description)

	// Same path under a different namespace does not resolve.
	_, ok = reg.Lookup(ChannelAddress{Scope: ScopeDataSource, Namespace: "other", Path: "stream/cpu"})
	assert.False(t, ok)

	// Unknown scope does not resolve.
	_, ok = reg.Lookup(ChannelAddress{Scope: "custom", Namespace: "influx-1", Path: "stream/cpu"})
	assert.False(t, ok)
}

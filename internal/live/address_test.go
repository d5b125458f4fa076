package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannelAddress(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want ChannelAddress
		ok   bool
	}{
		{
			name: "datasource stream",
			id:   "ds/influx-1/stream/cpu",
			want: ChannelAddress{Scope: ScopeDataSource, Namespace: "influx-1", Path: "stream/cpu"},
			ok:   true,
		},
		{
			name: "three exact segments",
			id:   "plugin/clock/time",
			want: ChannelAddress{Scope: ScopePlugin, Namespace: "clock", Path: "time"},
			ok:   true,
		},
		{
			name: "deep path keeps internal slashes",
			id:   "hub/broadcast/a/b/c",
			want: ChannelAddress{Scope: ScopeHub, Namespace: "broadcast", Path: "a/b/c"},
			ok:   true,
		},
		{
			name: "unknown scope is kept verbatim",
			id:   "custom/ns/path",
			want: ChannelAddress{Scope: "custom", Namespace: "ns", Path: "path"},
			ok:   true,
		},
		{name: "single word", id: "bad"},
		{name: "two segments", id: "ds/influx-1"},
		{name: "empty string", id: ""},
		{name: "empty scope", id: "/ns/path"},
		{name: "empty namespace", id: "ds//path"},
		{name: "empty path", id: "ds/ns/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseChannelAddress(tt.id)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			} else {
				assert.Equal(t, ChannelAddress{}, got)
			}
		})
	}
}

func TestChannelAddress_IsValid(t *testing.T) {
	assert.True(t, ChannelAddress{Scope: "ds", Namespace: "a", Path: "b"}.IsValid())
	assert.False(t, ChannelAddress{Namespace: "a", Path: "b"}.IsValid())
	assert.False(t, ChannelAddress{Scope: "ds", Path: "b"}.IsValid())
	assert.False(t, ChannelAddress{Scope: "ds", Namespace: "a"}.IsValid())
	assert.False(t, ChannelAddress{}.IsValid())
}

func TestChannelAddress_RoundTrip(t *testing.T) {
	addrs := []ChannelAddress{
		{Scope: ScopeDataSource, Namespace: "influx-1", Path: "stream/cpu"},
		{Scope: ScopePlugin, Namespace: "clock", Path: "time"},
		{Scope: "custom", Namespace: "ns", Path: "deep/nested/path"},
	}
	for _, addr := range addrs {
		got, ok := ParseChannelAddress(addr.String())
		require.True(t, ok, addr.String())
		assert.Equal(t, addr, got)
	}
}

func TestConnectionState_IsTerminal(t *testing.T) {
	assert.False(t, StatePending.IsTerminal())
	assert.False(t, StateConnected.IsTerminal())
	assert.False(t, StateDisconnected.IsTerminal())
	assert.True(t, StateShutdown.IsTerminal())
	assert.True(t, StateInvalid.IsTerminal())
}

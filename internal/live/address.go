// Package live defines the channel addressing scheme, connection state
// model, and typed event contract shared by the hub, transports, and
// the gateway.
package live

import "strings"

// Scope is the top-level namespace category of a channel address.
type Scope string

const (
	// ScopeDataSource addresses channels owned by a datasource instance.
	ScopeDataSource Scope = "ds"
	// ScopePlugin addresses channels owned by a plugin.
	ScopePlugin Scope = "plugin"
	// ScopeHub addresses channels owned by the hub itself.
	ScopeHub Scope = "hub"
)

// ChannelAddress uniquely identifies a channel as scope/namespace/path.
// The path may itself contain slashes; scope and namespace may not.
type ChannelAddress struct {
	Scope     Scope  `json:"scope"`
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
}

// ParseChannelAddress splits a channel id into its address parts.
// The id must have at least three /-separated segments: the first is
// the scope, the second the namespace, and the remainder (rejoined
// with /) the path. The scope string is taken verbatim and is not
// checked against the known Scope constants; callers that care about
// unknown scopes validate separately. Returns false for ids with
// fewer than three segments or any empty part.
func ParseChannelAddress(id string) (ChannelAddress, bool) {
	if id == "" {
		return ChannelAddress{}, false
	}
	parts := strings.SplitN(id, "/", 3)
	if len(parts) < 3 {
		return ChannelAddress{}, false
	}
	addr := ChannelAddress{
		Scope:     Scope(parts[0]),
		Namespace: parts[1],
		Path:      parts[2],
	}
	if !addr.IsValid() {
		return ChannelAddress{}, false
	}
	return addr, true
}

// IsValid reports whether scope, namespace, and path are all non-empty.
func (a ChannelAddress) IsValid() bool {
	return a.Scope != "" && a.Namespace != "" && a.Path != ""
}

// String returns the canonical id form scope/namespace/path. This is
// the wire-level identifier used by transports and the gateway.
func (a ChannelAddress) String() string {
	return string(a.Scope) + "/" + a.Namespace + "/" + a.Path
}

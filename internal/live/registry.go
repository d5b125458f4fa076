package live

import (
	"strings"
	"sync"
)

// ChannelConfig is the static descriptor for a channel path pattern.
// Path segments of the form {var} act as single-segment wildcards, so
// the pattern "stream/{id}" matches the concrete path "stream/cpu".
type ChannelConfig struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	HasPresence bool   `json:"hasPresence,omitempty"`

	// CanPublish gates writes to channels under this pattern. It is
	// consulted on every publish since permissions may change while a
	// channel is open. Nil means publishing is not supported.
	CanPublish func() bool `json:"-"`
}

// PathRegistry resolves channel paths to their configs within one
// scope/namespace. Patterns are tried in registration order and the
// first match wins, so more specific patterns should be registered
// before broader ones.
type PathRegistry struct {
	mu      sync.RWMutex
	configs []ChannelConfig
}

// NewPathRegistry creates an empty path registry.
func NewPathRegistry() *PathRegistry {
	return &PathRegistry{}
}

// Register adds a channel config. Registration order determines match
// precedence.
func (r *PathRegistry) Register(cfg ChannelConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = append(r.configs, cfg)
}

// GetChannelConfig returns the first registered config whose path
// pattern matches the given concrete path.
func (r *PathRegistry) GetChannelConfig(path string) (ChannelConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cfg := range r.configs {
		if matchPath(cfg.Path, path) {
			return cfg, true
		}
	}
	return ChannelConfig{}, false
}

// GetSupportedPaths returns all registered configs in registration order.
func (r *PathRegistry) GetSupportedPaths() []ChannelConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ChannelConfig, len(r.configs))
	copy(out, r.configs)
	return out
}

// matchPath compares a pattern against a concrete path segment by
// segment. A {var} pattern segment matches any single non-empty
// concrete segment; segment counts must be equal.
func matchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}
	pp := strings.Split(pattern, "/")
	cp := strings.Split(path, "/")
	if len(pp) != len(cp) {
		return false
	}
	for i, seg := range pp {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if cp[i] == "" {
				return false
			}
			continue
		}
		if seg != cp[i] {
			return false
		}
	}
	return true
}

// ScopeRegistry maps scope and namespace to the path registry that
// owns that namespace's channels, so each scope registers its own
// channel namespace independently.
type ScopeRegistry struct {
	mu     sync.RWMutex
	scopes map[Scope]map[string]*PathRegistry
}

// NewScopeRegistry creates an empty scope registry.
func NewScopeRegistry() *ScopeRegistry {
	return &ScopeRegistry{scopes: make(map[Scope]map[string]*PathRegistry)}
}

// Namespace returns the path registry for scope/namespace, creating it
// if needed.
func (r *ScopeRegistry) Namespace(scope Scope, namespace string) *PathRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	ns, ok := r.scopes[scope]
	if !ok {
		ns = make(map[string]*PathRegistry)
		r.scopes[scope] = ns
	}
	pr, ok := ns[namespace]
	if !ok {
		pr = NewPathRegistry()
		ns[namespace] = pr
	}
	return pr
}

// SupportedPaths returns the configs registered under scope/namespace
// without creating the namespace.
func (r *ScopeRegistry) SupportedPaths(scope Scope, namespace string) []ChannelConfig {
	r.mu.RLock()
	ns, ok := r.scopes[scope]
	var pr *PathRegistry
	if ok {
		pr = ns[namespace]
	}
	r.mu.RUnlock()
	if pr == nil {
		return nil
	}
	return pr.GetSupportedPaths()
}

// Lookup resolves an address to its channel config. The second result
// is false when the scope/namespace is unknown or no pattern matches
// the address path.
func (r *ScopeRegistry) Lookup(addr ChannelAddress) (ChannelConfig, bool) {
	r.mu.RLock()
	ns, ok := r.scopes[addr.Scope]
	var pr *PathRegistry
	if ok {
		pr, ok = ns[addr.Namespace]
	}
	r.mu.RUnlock()
	if !ok || pr == nil {
		return ChannelConfig{}, false
	}
	return pr.GetChannelConfig(addr.Path)
}

package config

// Config is the root configuration for livehub.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
	Upstream UpstreamConfig `yaml:"upstream,omitempty"`
	Channels []ChannelEntry `yaml:"channels,omitempty"`
	History  HistoryConfig  `yaml:"history,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// GatewayConfig controls the gateway HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "loopback" | "lan" | "auto" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	TLS            GatewayTLS  `yaml:"tls,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "token" | "password"
	Token    string `yaml:"token,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// UpstreamConfig selects the transport channels are dialed over.
// "local" serves channels in-process; "websocket" proxies them to a
// remote hub gateway.
type UpstreamConfig struct {
	Mode  string `yaml:"mode,omitempty"` // "local" | "websocket"
	URL   string `yaml:"url,omitempty"`
	Token string `yaml:"token,omitempty"`
}

// ChannelEntry declares one channel path pattern to register at startup.
type ChannelEntry struct {
	Scope       string `yaml:"scope"`
	Namespace   string `yaml:"namespace"`
	Path        string `yaml:"path"` // may contain {var} placeholder segments
	Description string `yaml:"description,omitempty"`
	Presence    bool   `yaml:"presence,omitempty"`
	Publish     bool   `yaml:"publish,omitempty"`
}

// HistoryConfig controls message history persistence.
type HistoryConfig struct {
	Enabled        bool   `yaml:"enabled,omitempty"`
	Path           string `yaml:"path,omitempty"` // defaults to <data>/history.db
	RetentionHours int    `yaml:"retentionHours,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: 18701,
			Bind: "loopback",
			Auth: GatewayAuth{
				Mode: "token",
			},
		},
		Upstream: UpstreamConfig{
			Mode: "local",
		},
		History: HistoryConfig{
			RetentionHours: 24,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

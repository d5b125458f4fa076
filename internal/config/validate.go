package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"auto", "lan", "loopback", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}

	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.customBindHost",
			Message: "required when bind: custom",
		})
	}

	validAuthModes := []string{"token", "password"}
	if cfg.Gateway.Auth.Mode != "" && !slices.Contains(validAuthModes, cfg.Gateway.Auth.Mode) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.auth.mode",
			Message: fmt.Sprintf("must be one of %v, got %q", validAuthModes, cfg.Gateway.Auth.Mode),
		})
	}

	if cfg.Gateway.TLS.Enabled {
		if cfg.Gateway.TLS.CertPath == "" {
			issues = append(issues, ValidationIssue{
				Path:    "gateway.tls.certPath",
				Message: "required when tls is enabled",
			})
		}
		if cfg.Gateway.TLS.KeyPath == "" {
			issues = append(issues, ValidationIssue{
				Path:    "gateway.tls.keyPath",
				Message: "required when tls is enabled",
			})
		}
	}

	// Upstream validation
	validUpstreamModes := []string{"local", "websocket"}
	if cfg.Upstream.Mode != "" && !slices.Contains(validUpstreamModes, cfg.Upstream.Mode) {
		issues = append(issues, ValidationIssue{
			Path:    "upstream.mode",
			Message: fmt.Sprintf("must be one of %v, got %q", validUpstreamModes, cfg.Upstream.Mode),
		})
	}
	if cfg.Upstream.Mode == "websocket" && cfg.Upstream.URL == "" {
		issues = append(issues, ValidationIssue{
			Path:    "upstream.url",
			Message: "required when mode: websocket",
		})
	}

	// Channel entry validation
	for i, ch := range cfg.Channels {
		prefix := fmt.Sprintf("channels[%d]", i)
		if ch.Scope == "" {
			issues = append(issues, ValidationIssue{
				Path:    prefix + ".scope",
				Message: "scope is required",
			})
		}
		if ch.Namespace == "" {
			issues = append(issues, ValidationIssue{
				Path:    prefix + ".namespace",
				Message: "namespace is required",
			})
		} else if strings.Contains(ch.Namespace, "/") {
			issues = append(issues, ValidationIssue{
				Path:    prefix + ".namespace",
				Message: "namespace must not contain '/'",
			})
		}
		if ch.Path == "" {
			issues = append(issues, ValidationIssue{
				Path:    prefix + ".path",
				Message: "path is required",
			})
		}
	}

	// History validation
	if cfg.History.RetentionHours < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "history.retentionHours",
			Message: fmt.Sprintf("must be >= 0, got %d", cfg.History.RetentionHours),
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/livehub/internal/channel"
	"github.com/soyeahso/livehub/internal/config"
	"github.com/soyeahso/livehub/internal/gateway"
	"github.com/soyeahso/livehub/internal/live"
	"github.com/soyeahso/livehub/internal/store"
	"github.com/soyeahso/livehub/internal/transport"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the livehub gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating directories: %w", err)
			}

			// Load raw config for RPC access
			raw, err := config.LoadRaw(paths.Config)
			if err != nil {
				raw = make(map[string]any)
			}

			registry := buildRegistry(cfg.Channels)

			var t channel.Transport
			switch cfg.Upstream.Mode {
			case "websocket":
				t = transport.NewWebSocket(cfg.Upstream.URL, cfg.Upstream.Token, log)
				log.Info().Str("url", cfg.Upstream.URL).Msg("using websocket upstream")
			default:
				t = transport.NewLocal(log)
				log.Info().Msg("using local in-process upstream")
			}

			opts := []gateway.ServerOption{
				gateway.WithConfigRaw(raw),
			}
			hubOpts := []channel.Option{}

			// Message history (SQLite)
			var history *store.History
			if cfg.History.Enabled {
				dbPath := cfg.History.Path
				if dbPath == "" {
					dbPath = filepath.Join(paths.Data, "history.db")
				}
				db, err := store.Open(dbPath, log)
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				defer db.Close()

				history = store.NewHistory(db)
				opts = append(opts, gateway.WithHistory(history))
				hubOpts = append(hubOpts, channel.WithRecorder(func(channelID string, payload json.RawMessage) {
					if err := history.Append(channelID, payload); err != nil {
						log.Warn().Err(err).Str("channel", channelID).Msg("failed to record message")
					}
				}))
				log.Info().Str("path", dbPath).Msg("message history enabled")
			}

			hub := channel.NewHub(registry, t, log, hubOpts...)
			defer hub.Shutdown()

			srv := gateway.New(cfg, hub, registry, log, opts...)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if history != nil && cfg.History.RetentionHours > 0 {
				go prunePeriodically(ctx, history, time.Duration(cfg.History.RetentionHours)*time.Hour)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")

	return cmd
}

// buildRegistry registers every configured channel path pattern.
func buildRegistry(entries []config.ChannelEntry) *live.ScopeRegistry {
	registry := live.NewScopeRegistry()
	for _, e := range entries {
		entry := e
		cfg := live.ChannelConfig{
			Path:        entry.Path,
			Description: entry.Description,
			HasPresence: entry.Presence,
		}
		if entry.Publish {
			cfg.CanPublish = func() bool { return true }
		}
		registry.Namespace(live.Scope(entry.Scope), entry.Namespace).Register(cfg)
	}
	return registry
}

// prunePeriodically removes expired history rows once an hour.
func prunePeriodically(ctx context.Context, history *store.History, retention time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := history.Prune(retention); err != nil {
				log.Warn().Err(err).Msg("history prune failed")
			}
		}
	}
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soyeahso/livehub/internal/config"
	"github.com/soyeahso/livehub/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show livehub status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Livehub %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			// Load config
			cfg, err := config.Load(paths.Config)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Println("Config:  not found (using defaults)")
				} else {
					fmt.Printf("Config:  error loading: %v\n", err)
				}
				return nil
			}

			fmt.Printf("Gateway: port=%d bind=%s auth=%s\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Mode)

			if cfg.Upstream.Mode == "websocket" {
				fmt.Printf("Upstream: websocket url=%s\n", cfg.Upstream.URL)
			} else {
				fmt.Println("Upstream: local (in-process)")
			}

			if cfg.History.Enabled {
				fmt.Printf("History: enabled retention=%dh\n", cfg.History.RetentionHours)
			} else {
				fmt.Println("History: disabled")
			}

			// Channels
			if len(cfg.Channels) > 0 {
				for _, ch := range cfg.Channels {
					flags := ""
					if ch.Presence {
						flags += " presence"
					}
					if ch.Publish {
						flags += " publish"
					}
					fmt.Printf("Channel: %s/%s/%s%s\n", ch.Scope, ch.Namespace, ch.Path, flags)
				}
			} else {
				fmt.Println("Channel: (none configured)")
			}

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}

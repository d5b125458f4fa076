package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/livehub/internal/live"
	"github.com/soyeahso/livehub/internal/transport"
)

// discardEvents satisfies the transport callback interface for one-shot
// commands that never consume streamed events.
type discardEvents struct{}

func (discardEvents) HandleMessage(json.RawMessage) {}
func (discardEvents) HandleJoin(live.User)          {}
func (discardEvents) HandleLeave(live.User)         {}
func (discardEvents) HandleClose(error)             {}

func newPublishCmd() *cobra.Command {
	var (
		url   string
		token string
	)

	cmd := &cobra.Command{
		Use:   "publish <channel> <payload>",
		Short: "Publish a JSON payload to a channel on a running gateway",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, ok := live.ParseChannelAddress(args[0])
			if !ok {
				return fmt.Errorf("invalid channel address %q (want scope/namespace/path)", args[0])
			}

			payload := json.RawMessage(args[1])
			if !json.Valid(payload) {
				return fmt.Errorf("payload is not valid JSON")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			if token == "" {
				token = os.Getenv("LIVEHUB_GATEWAY_TOKEN")
			}

			ws := transport.NewWebSocket(url, token, log)
			conn, _, err := ws.Dial(ctx, addr, discardEvents{})
			if err != nil {
				return fmt.Errorf("connecting to gateway: %w", err)
			}
			defer conn.Close()

			if err := conn.Publish(ctx, payload); err != nil {
				return fmt.Errorf("publishing: %w", err)
			}

			fmt.Printf("Published to %s\n", addr.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "ws://127.0.0.1:18701/ws", "gateway WebSocket URL")
	cmd.Flags().StringVar(&token, "token", "", "gateway auth token (or LIVEHUB_GATEWAY_TOKEN)")

	return cmd
}

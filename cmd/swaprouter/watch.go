package main

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fd1az/swap-router/business/routing/infra/wsfeed"
	"github.com/fd1az/swap-router/internal/wsconn"
	"github.com/fd1az/swap-router/pkg/ui"
)

const commandTimeout = 3 * time.Second

var (
	watchURL      string
	watchReceiver string
)

var watchCmd = &cobra.Command{
	Use:   "watch [" + swapArgsUsage + "]",
	Short: "Open the live dashboard against a running feed",
	Long: `Watch connects to the WebSocket feed of "swaprouter serve" and renders
the ranked routes and the selected trade as they change.
When a swap is given it is sent as the initial input.`,
	Example: `  swaprouter watch
  swaprouter watch 100 USDC@ETH to USDT@ETH --url ws://router:8080/ws`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchURL, "url", "", "Feed URL (default ws://localhost:<server.ws_port>/ws)")
	watchCmd.Flags().StringVar(&watchReceiver, "receiver", "", "Receiver address on the destination chain")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The dashboard owns the terminal
	log := newLogger(cfg, io.Discard)

	var input *wsfeed.Command
	if len(args) > 0 {
		c, err := inputCommand(args, watchReceiver)
		if err != nil {
			return err
		}
		input = &c
	}

	url := watchURL
	if url == "" {
		url = fmt.Sprintf("ws://localhost:%d/ws", cfg.Server.WSPort)
	}
	wsCfg := wsconn.DefaultConfig(url, "feed")
	wsCfg.Logger = log
	client, err := wsconn.New(wsCfg)
	if err != nil {
		return err
	}
	defer client.Close()

	send := func(c wsfeed.Command) error {
		sendCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		return client.SendJSON(sendCtx, c)
	}

	client.OnMessage(func(_ context.Context, data []byte) {
		msg, err := ui.Decode(data)
		if err != nil {
			ui.Send(ui.LogMsg{Level: "warn", Message: err.Error()})
			return
		}
		ui.Send(msg)
	})
	client.OnStateChange(func(state wsconn.State, err error) {
		ui.Send(ui.ConnectionStatusMsg{
			Name:      ui.ConnFeed,
			Connected: state == wsconn.StateConnected,
			Pending:   state == wsconn.StateConnecting || state == wsconn.StateReconnecting,
		})
		if err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
		}
		if state == wsconn.StateConnected && input != nil {
			go func() {
				if err := send(*input); err != nil {
					ui.Send(ui.ErrorMsg{Error: err})
				}
			}()
		}
	})

	model := ui.New(ui.Handlers{
		Select: func(provider string) error {
			return send(wsfeed.Command{Type: wsfeed.CommandSelect, Provider: provider})
		},
		Refresh: func() error {
			return send(wsfeed.Command{Type: wsfeed.CommandRefresh})
		},
		Requote: func() error {
			return send(wsfeed.Command{Type: wsfeed.CommandSettings})
		},
	})
	ui.Program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Dial failures reach the dashboard through OnStateChange
	go func() { _ = client.Connect(ctx) }()

	if _, err := ui.Program.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// inputCommand converts swap arguments into a feed input command.
// Assets are resolved by the server.
func inputCommand(args []string, receiver string) (wsfeed.Command, error) {
	parts := swapParts(args)
	if len(parts) != 3 {
		return wsfeed.Command{}, fmt.Errorf("expected %s", swapArgsUsage)
	}
	return wsfeed.Command{
		Type:     wsfeed.CommandInput,
		Amount:   parts[0],
		From:     parts[1],
		To:       parts[2],
		Receiver: receiver,
	}, nil
}

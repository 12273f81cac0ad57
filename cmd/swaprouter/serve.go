package main

import (
	"os"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the routing session behind the WebSocket feed",
	Long: `Serve keeps a routing session alive and streams its state to feed clients
on server.ws_port. Clients drive it with input, select and refresh commands.
The health server and Prometheus metrics run alongside when configured.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	sess, err := startSession(ctx, sessionOptions{serve: true, logWriter: os.Stderr})
	if err != nil {
		return err
	}
	defer sess.Close()

	sess.log.Info(ctx, "swap router serving",
		"version", version,
		"feed_port", sess.cfg.Server.WSPort,
		"health_port", sess.cfg.Server.HealthPort,
	)

	<-ctx.Done()
	sess.log.Info(ctx, "shutting down")
	return nil
}

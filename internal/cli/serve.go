package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Chative-support-router/server/internal/server"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API over HTTP",
	Long: `Serve POST /chat, GET /health and GET /metrics. Each request carries its
own thread_id; a missing one starts a new conversation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		app, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		runner, err := app.Runner(ctx)
		if err != nil {
			return fmt.Errorf("build router graph: %w", err)
		}

		pingers := map[string]server.Pinger{"store": app.Store}
		if app.redis != nil {
			pingers["redis"] = redisPinger{app.redis}
		}
		engine := server.NewEngine(server.NewHandlers(runner, pingers), app.Recorder)

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		logx.Info().Str("addr", addr).Str("retrieval", cfg.Retrieval.Backend).Msg("Serving chat API")
		return server.Run(ctx, addr, engine)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides SERVER_ADDR)")
}

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Chative-support-router/server/internal/core"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

var (
	cfgFile string
	cfg     *AppConfig
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "supportbot",
	Short: "Customer-support message router",
	Long: `supportbot classifies each customer message and routes it to a
knowledge-base answer, a tool-calling agent over the order store, a general
chat reply or a polite decline.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logx.Init(logx.LoggerOpts{
			Environment: core.ParseEnvironment(cfg.Env),
			Level:       cfg.LogLevel,
			Output:      cmd.ErrOrStderr(),
		})
		return nil
	},
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (.env, .yaml or .json); defaults to ./.env when present")
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

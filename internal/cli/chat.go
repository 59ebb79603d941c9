package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Chative-support-router/server/internal/agent/graph"
	"github.com/Chative-support-router/server/internal/agent/model"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

var (
	chatVerbose bool
	askThreadID string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive console conversation",
	Long: `Start a console REPL. Every line is one customer message; the whole
session shares one conversation id. Type "exit" or press Ctrl+D to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		if !chatVerbose {
			logx.Disable()
		}
		app, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		runner, err := app.Runner(ctx)
		if err != nil {
			return fmt.Errorf("build router graph: %w", err)
		}
		return runREPL(ctx, runner, cmd.InOrStdin(), cmd.OutOrStdout(), uuid.NewString())
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Answer a single message and exit",
	Args:  cobra.MinimumNArgs(1),
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
		reply, err := runner.Invoke(ctx, model.QueryInput{
			ConversationID: askThreadID,
			Query:          strings.Join(args, " "),
		})
		if err != nil {
			return err
		}
		printReply(cmd.OutOrStdout(), reply, true)
		return nil
	},
}

func runREPL(ctx context.Context, runner graph.Runner, in io.Reader, out io.Writer, conversationID string) error {
	fmt.Fprintf(out, "Support chat started (conversation %s). Type \"exit\" to quit.\n", conversationID)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		reply, err := runner.Invoke(ctx, model.QueryInput{ConversationID: conversationID, Query: line})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		printReply(out, reply, chatVerbose)
	}
}

func printReply(out io.Writer, reply model.Reply, verbose bool) {
	fmt.Fprintln(out, reply.Content)
	if !verbose {
		return
	}
	meta := fmt.Sprintf("[intent=%s branch=%s tool_calls=%d", reply.Intent, reply.Branch, reply.ToolCalls)
	if reply.FallbackKind != "" {
		meta += " fallback=" + reply.FallbackKind
	}
	fmt.Fprintln(out, meta+"]")
}

func init() {
	rootCmd.AddCommand(chatCmd, askCmd)
	chatCmd.Flags().BoolVarP(&chatVerbose, "verbose", "v", false, "show routing details and logs")
	askCmd.Flags().StringVar(&askThreadID, "thread", "", "conversation id to continue")
}

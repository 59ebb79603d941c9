package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Chative-support-router/server/internal/retrieval"
)

var kbTopK int

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect and index the knowledge base",
}

var kbSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a retrieval query against the configured backend",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		k := kbTopK
		if k <= 0 {
			k = cfg.Retrieval.TopK
		}
		passages, err := app.Searcher.Search(ctx, strings.Join(args, " "), k)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(passages) == 0 {
			fmt.Fprintln(out, "no passages")
			return nil
		}
		for i, p := range passages {
			fmt.Fprintf(out, "[%d] %s (score %.3f)\n%s\n\n", i+1, p.SourceID, p.Score, p.Text)
		}
		return nil
	},
}

var kbIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Chunk the bundled articles and import them into Weaviate",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		client, err := retrieval.NewWeaviateClient(cfg.Retrieval.WeaviateURL)
		if err != nil {
			return err
		}
		searcher := retrieval.NewWeaviateSearcher(client, cfg.Retrieval.WeaviateClass)
		if err := searcher.EnsureClass(ctx); err != nil {
			return err
		}
		n, err := searcher.Index(ctx, app.Index.Chunks())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d of %d chunks into %s\n", n, app.Index.Len(), cfg.Retrieval.WeaviateClass)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kbCmd)
	kbCmd.AddCommand(kbSearchCmd, kbIndexCmd)
	kbSearchCmd.Flags().IntVarP(&kbTopK, "top-k", "k", 0, "number of passages (defaults to RETRIEVAL_TOP_K)")
}

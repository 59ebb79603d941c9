package cli

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var seedReset bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo customers and orders into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		seedCfg := *cfg
		seedCfg.Store.Seed = false
		app, err := openApp(ctx, &seedCfg)
		if err != nil {
			return err
		}
		defer app.Close()

		if seedReset {
			if err := app.Store.Reset(ctx); err != nil {
				return fmt.Errorf("reset store: %w", err)
			}
		}
		seeded, err := app.Store.Seed(ctx)
		if err != nil {
			return err
		}
		if seeded {
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s\n", cfg.Store.Path)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already has data; use --reset to reload\n", cfg.Store.Path)
		}
		return nil
	},
}

type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedReset, "reset", false, "drop all tables before seeding")
}

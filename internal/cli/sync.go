package cli

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yourusername/garminsync/internal/garmin"
	"github.com/yourusername/garminsync/internal/sync"
)

// SyncCmd runs one sync pass and prints the summary.
func SyncCmd() *cobra.Command {
	var dryRun bool
	var pruneDeleted bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass against Garmin Connect",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := garmin.NewClient(cfg.Garmin.APIURL)
			service := sync.NewService(client, st, cfg)

			summary, err := service.Run(ctx, sync.Options{
				DryRun:       dryRun,
				PruneDeleted: pruneDeleted || cfg.Sync.PruneDeleted,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if summary.RateLimited {
				color.Yellow(summary.Text())
			} else {
				color.Green(summary.Text())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch without writing records or state")
	cmd.Flags().BoolVar(&pruneDeleted, "prune-deleted", false, "remove local raw activities not returned by Garmin")
	return cmd
}

// Package cli wires the garminsync commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yourusername/garminsync/internal/config"
	"github.com/yourusername/garminsync/internal/store"
)

var configPath string

// RootCmd builds the garminsync command tree.
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "garminsync",
		Short: "Incrementally sync Garmin activity history into a local store",
		Long: `garminsync pulls workout history from Garmin Connect into a local
append-only store. A fast recent-window pass covers the last few days; a
resumable backfill crawls full history down to the configured start date,
surviving rate limits and interruptions across runs.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: $GARMINSYNC_CONFIG or ./config.yaml)")

	rootCmd.AddCommand(SyncCmd())
	rootCmd.AddCommand(DaemonCmd())
	rootCmd.AddCommand(ImportCmd())
	rootCmd.AddCommand(StatusCmd())
	return rootCmd
}

// Execute runs the CLI.
func Execute() {
	if err := RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

func openStore(cfg config.Config) (*store.SQLiteStore, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return store.NewSQLiteStore(cfg.DBPath)
}

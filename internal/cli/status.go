package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/garminsync/internal/store"
)

// StatusCmd prints the last persisted sync summary.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the result of the last sync run",
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

			value, err := st.Load(cmd.Context(), store.KeySummary)
			if err == store.ErrNotFound {
				fmt.Fprintln(cmd.OutOrStdout(), "no sync has completed yet")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(value))

			if text, err := st.Load(cmd.Context(), store.KeySummaryText); err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), string(text))
			}
			return nil
		},
	}
}

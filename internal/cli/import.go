package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yourusername/garminsync/internal/parser"
	"github.com/yourusername/garminsync/internal/store"
)

// ImportCmd ingests exported FIT/TCX/GPX files into the raw store.
func ImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Import exported FIT, TCX, or GPX files into the local store",
		Args:  cobra.MinimumNArgs(1),
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

			raw := store.NewRawActivities(st)
			imported := 0
			skipped := 0
			for _, path := range args {
				metrics, err := parser.ParseFile(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: %v\n", path, err)
					skipped++
					continue
				}

				id := importID(path)
				wrote, err := raw.Write(cmd.Context(), parser.RecordFromMetrics(id, metrics))
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				if wrote {
					imported++
				}
			}

			color.Green("Imported %d of %d file(s), %d skipped", imported, len(args), skipped)
			return nil
		},
	}
}

// importID derives a storage-safe id from the file name. Imported ids carry a
// prefix so they can never collide with provider activity ids.
func importID(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, ".", "-")
	return "import-" + base
}

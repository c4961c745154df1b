package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/feecc/internal/db"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			database, err := db.OpenMigrated(ctx, cfg.Database.Path)
			if err != nil {
				return err
			}
			defer database.Close()

			version, err := db.Version(ctx, database)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Database %s at version %d\n", cfg.Database.Path, version)
			return nil
		},
	}
}

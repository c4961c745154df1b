package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/feecc/internal/db"
)

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load employees, schemas and protocol templates from a YAML file",
		Long: `Load reference data from a YAML file. Records that already exist are
skipped, so the command can be re-run after editing the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := db.LoadFixtures(args[0])
			if err != nil {
				return err
			}

			ctx := actorContext(cmd.Context())
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Seeder.Apply(ctx, fx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Seeded %s\n", args[0])
			fmt.Fprintf(out, "  employees: %d created, %d skipped\n", report.EmployeesCreated, report.EmployeesSkipped)
			fmt.Fprintf(out, "  schemas:   %d created, %d skipped\n", report.SchemasCreated, report.SchemasSkipped)
			fmt.Fprintf(out, "  templates: %d saved\n", report.TemplatesSaved)
			return nil
		},
	}
}

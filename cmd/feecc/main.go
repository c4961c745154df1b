package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/feecc/internal/cli"
	"github.com/example/feecc/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "feecc",
		Short:   "Feecc - production traceability backend",
		Version: version.String(),
		Long: `Feecc records the production history of manufactured units: their
stages, status, revisions and quality-control protocols.`,
		SilenceUsage: true,
	}
	cli.BindGlobalFlags(rootCmd)

	// Server and maintenance
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.SeedCmd())

	// Workflow commands
	rootCmd.AddCommand(cli.PassportCmd())
	rootCmd.AddCommand(cli.ProtocolCmd())
	rootCmd.AddCommand(cli.UserCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

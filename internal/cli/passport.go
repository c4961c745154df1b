package cli

import (
	"github.com/spf13/cobra"
)

// PassportCmd returns the passport command
func PassportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passport",
		Short: "Inspect units and run the revision workflow",
	}
	cmd.AddCommand(passportShowCmd())
	cmd.AddCommand(passportReviseCmd())
	cmd.AddCommand(passportCancelCmd())
	return cmd
}

func passportShowCmd() *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "show <internal-id>",
		Short: "Show a unit and its biography",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			adapter := a.PassportAdapter(cmd.OutOrStdout())
			if _, err := adapter.Show(ctx, args[0]); err != nil {
				return err
			}
			if history {
				return adapter.History(ctx, args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "also print status changes")
	return cmd
}

func passportReviseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revise <internal-id> <stage-id>...",
		Short: "Send stages of a built unit back for rework",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := actorContext(cmd.Context())
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.PassportAdapter(cmd.OutOrStdout()).Revise(ctx, args[0], args[1:])
		},
	}
}

func passportCancelCmd() *cobra.Command {
	var employee string

	cmd := &cobra.Command{
		Use:   "cancel <stage-id>",
		Short: "Cancel a rework stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := actorContext(cmd.Context())
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if employee == "" {
				employee = actor
			}
			return a.PassportAdapter(cmd.OutOrStdout()).Cancel(ctx, args[0], employee)
		},
	}
	cmd.Flags().StringVar(&employee, "employee", "", "who cancels the stage (defaults to --actor)")
	return cmd
}

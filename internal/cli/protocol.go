package cli

import (
	"github.com/spf13/cobra"
)

// ProtocolCmd returns the protocol command
func ProtocolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protocol",
		Short: "Inspect and approve QC protocols",
	}
	cmd.AddCommand(protocolShowCmd())
	cmd.AddCommand(protocolListCmd())
	cmd.AddCommand(protocolApproveCmd())
	cmd.AddCommand(protocolRemoveCmd())
	return cmd
}

func protocolShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <internal-id>",
		Short: "Show a unit's protocol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.ProtocolAdapter(cmd.OutOrStdout()).Show(ctx, args[0])
		},
	}
}

func protocolListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List protocols",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.ProtocolAdapter(cmd.OutOrStdout()).List(ctx, status)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only protocols in this status")
	return cmd
}

func protocolApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <internal-id>",
		Short: "Approve a protocol and finalize its unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := actorContext(cmd.Context())
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.ProtocolAdapter(cmd.OutOrStdout()).Approve(ctx, args[0])
		},
	}
}

func protocolRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <internal-id>",
		Short: "Delete a protocol so QC can restart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := actorContext(cmd.Context())
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.ProtocolAdapter(cmd.OutOrStdout()).Remove(ctx, args[0])
		},
	}
}

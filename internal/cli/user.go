package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/feecc/internal/ports/primary"
)

// UserCmd returns the user command
func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}
	cmd.AddCommand(userCreateCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var (
		password string
		rules    []string
		employee string
	)

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Register an API user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.Auth.CreateUser(ctx, primary.CreateUserRequest{
				Username:           args[0],
				Password:           password,
				RuleSet:            rules,
				AssociatedEmployee: employee,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created user %s [%s]\n", user.Username, strings.Join(user.RuleSet, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (at least 8 characters)")
	cmd.Flags().StringSliceVar(&rules, "rules", []string{"read"}, "capabilities: read, write, approve")
	cmd.Flags().StringVar(&employee, "employee", "", "RFID card id of the associated employee")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/bookhub-dev/bookhub/internal/cli/session"
)

// NewUsersCmd creates the users command
func NewUsersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered users (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Navigate(cmd.Context(), "/UserManagement", func(ctx context.Context) error {
				users, err := app.API.Build().ListUsers(ctx)
				if err != nil {
					return err
				}
				if len(users) == 0 {
					fmt.Fprintln(app.Out, "No users found.")
					return nil
				}

				w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tEMAIL\tROLE")
				fmt.Fprintln(w, "────\t─────\t────")
				for _, u := range users {
					fmt.Fprintf(w, "%s\t%s\t%s\n", u.Name, u.Email, u.Role)
				}
				return w.Flush()
			})
		},
	}
}

// NewSetRoleCmd creates the set-role command
func NewSetRoleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> [role]",
		Short: "Change a user's role (admin)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]

			var role string
			if len(args) == 2 {
				role = args[1]
				if role != session.RoleAdmin && role != session.RoleVisitor {
					return fmt.Errorf("role must be %q or %q", session.RoleAdmin, session.RoleVisitor)
				}
			} else {
				prompt := promptui.Select{
					Label: fmt.Sprintf("Role for %s", email),
					Items: []string{session.RoleVisitor, session.RoleAdmin},
				}
				_, chosen, err := prompt.Run()
				if err != nil {
					return fmt.Errorf("role selection cancelled: %w", err)
				}
				role = chosen
			}
			return app.Navigate(cmd.Context(), "/UserManagement", func(ctx context.Context) error {
				if err := app.API.Build().UpdateRole(ctx, email, role); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Role for %s set to %s.\n", email, role)
				return nil
			})
		},
	}
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSignOutCmd creates the signout command
func NewSignOutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Sessions.Current().IsAuthenticated() {
				fmt.Fprintln(app.Out, "Not signed in.")
				return nil
			}
			if err := app.Sessions.Clear(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			fmt.Fprintln(app.Out, "Signed out.")
			return nil
		},
	}
}

// NewWhoAmICmd creates the whoami command
func NewWhoAmICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app.Sessions.Current()
			if !s.IsAuthenticated() {
				fmt.Fprintln(app.Out, "Not signed in.")
				return nil
			}
			fmt.Fprintf(app.Out, "%s <%s> (%s)\n", s.Name, s.Email, s.Role)
			return nil
		},
	}
}

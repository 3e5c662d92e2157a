package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookhub-dev/bookhub/internal/cli/gateway"
)

// NewSignUpCmd creates the signup command
func NewSignUpCmd(app *App) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a new BookHub account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignUp(cmd, app, name, email, password)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address (or set BOOKHUB_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (will prompt if not provided)")

	return cmd
}

func runSignUp(cmd *cobra.Command, app *App, name, email, password string) error {
	if email == "" {
		email = os.Getenv("BOOKHUB_EMAIL")
	}
	if name == "" {
		return fmt.Errorf("name is required (use --name flag)")
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or BOOKHUB_EMAIL env var)")
	}

	return app.Navigate(cmd.Context(), "/signup", func(ctx context.Context) error {
		pw := password
		if pw == "" {
			read, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			pw = read
		}

		if err := app.Gateway.SignUp(ctx, name, email, pw); err != nil {
			switch gateway.ReasonOf(err) {
			case gateway.ReasonAlreadyExists:
				return fmt.Errorf("an account with this email already exists")
			case gateway.ReasonWeakPassword:
				return fmt.Errorf("password is too weak: it must be at least 8 characters")
			default:
				return fmt.Errorf("signup failed: %w", err)
			}
		}

		fmt.Fprintln(app.Out, "Account created. Check your email for a verification code, then run:")
		fmt.Fprintf(app.Out, "  bookhub verify-email --email %s --code <code>\n", email)
		return nil
	})
}

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookhub-dev/bookhub/internal/cli/gateway"
)

// NewForgotPasswordCmd creates the forgot-password command. The reset
// is two-phase: requesting a code, then redeeming it together with the
// new password. Skipping the first phase always fails the second.
func NewForgotPasswordCmd(app *App) *cobra.Command {
	var email, code, newPassword string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Reset a forgotten password",
		Long: `Reset a forgotten password in two steps.

Without --code, requests a reset code for the given email.
With --code, redeems the code and sets the new password.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForgotPassword(cmd, app, email, code, newPassword)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set BOOKHUB_EMAIL)")
	cmd.Flags().StringVar(&code, "code", "", "Reset code from the first step")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "New password (will prompt if --code is given)")

	return cmd
}

func runForgotPassword(cmd *cobra.Command, app *App, email, code, newPassword string) error {
	if email == "" {
		email = os.Getenv("BOOKHUB_EMAIL")
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or BOOKHUB_EMAIL env var)")
	}

	return app.Navigate(cmd.Context(), "/forgot-password", func(ctx context.Context) error {
		if code == "" {
			if err := app.Gateway.RequestPasswordReset(ctx, email); err != nil {
				if gateway.ReasonOf(err) == gateway.ReasonNotFound {
					return fmt.Errorf("no account exists for that email")
				}
				return fmt.Errorf("failed to request a reset code: %w", err)
			}
			fmt.Fprintln(app.Out, "A reset code has been sent. Complete the reset with:")
			fmt.Fprintf(app.Out, "  bookhub forgot-password --email %s --code <code>\n", email)
			return nil
		}

		pw := newPassword
		if pw == "" {
			read, err := promptPassword("New password: ")
			if err != nil {
				return err
			}
			pw = read
		}

		if err := app.Gateway.ConfirmPasswordReset(ctx, email, code, pw); err != nil {
			switch gateway.ReasonOf(err) {
			case gateway.ReasonCodeInvalid:
				return fmt.Errorf("that reset code is not valid")
			case gateway.ReasonCodeExpired:
				return fmt.Errorf("that reset code has expired; request a new one")
			case gateway.ReasonWeakPassword:
				return fmt.Errorf("password is too weak: it must be at least 8 characters")
			default:
				return fmt.Errorf("password reset failed: %w", err)
			}
		}

		fmt.Fprintln(app.Out, "Password updated. Sign in with 'bookhub signin'.")
		return nil
	})
}

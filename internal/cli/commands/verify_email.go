package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookhub-dev/bookhub/internal/cli/gateway"
)

// NewVerifyEmailCmd creates the verify-email command
func NewVerifyEmailCmd(app *App) *cobra.Command {
	var email, code string

	cmd := &cobra.Command{
		Use:   "verify-email",
		Short: "Confirm a new account with the emailed verification code",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerifyEmail(cmd, app, email, code)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set BOOKHUB_EMAIL)")
	cmd.Flags().StringVar(&code, "code", "", "6-digit verification code")

	return cmd
}

func runVerifyEmail(cmd *cobra.Command, app *App, email, code string) error {
	if email == "" {
		email = os.Getenv("BOOKHUB_EMAIL")
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or BOOKHUB_EMAIL env var)")
	}
	if code == "" {
		return fmt.Errorf("verification code is required (use --code flag)")
	}

	return app.Navigate(cmd.Context(), "/verify-email", func(ctx context.Context) error {
		if err := app.Gateway.ConfirmRegistration(ctx, email, code); err != nil {
			return verificationFailure(err)
		}
		fmt.Fprintln(app.Out, "Email verified. You can now sign in with 'bookhub signin'.")
		return nil
	})
}

func verificationFailure(err error) error {
	switch gateway.ReasonOf(err) {
	case gateway.ReasonCodeInvalid:
		return fmt.Errorf("that verification code is not valid")
	case gateway.ReasonCodeExpired:
		return fmt.Errorf("that verification code has expired; request a new one")
	case gateway.ReasonNotFound:
		return fmt.Errorf("no account exists for that email")
	default:
		return fmt.Errorf("verification failed: %w", err)
	}
}

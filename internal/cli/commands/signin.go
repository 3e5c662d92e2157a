package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bookhub-dev/bookhub/internal/cli/gate"
)

// NewSignInCmd creates the signin command
func NewSignInCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in to BookHub",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignIn(cmd, app, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set BOOKHUB_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set BOOKHUB_PASSWORD, will prompt if not provided)")

	return cmd
}

func runSignIn(cmd *cobra.Command, app *App, email, password string) error {
	// Environment fallbacks for CI use
	if email == "" {
		email = os.Getenv("BOOKHUB_EMAIL")
	}
	if password == "" {
		password = os.Getenv("BOOKHUB_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or BOOKHUB_EMAIL env var)")
	}

	return app.Navigate(cmd.Context(), gate.SignInPath, func(ctx context.Context) error {
		pw := password
		if pw == "" {
			read, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			pw = read
		}
		return app.signIn(ctx, email, pw)
	})
}

func promptPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or BOOKHUB_PASSWORD env var)")
	}
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()
	return string(bytePassword), nil
}

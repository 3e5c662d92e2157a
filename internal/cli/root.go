package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookhub-dev/bookhub/internal/cli/client"
	"github.com/bookhub-dev/bookhub/internal/cli/commands"
	"github.com/bookhub-dev/bookhub/internal/cli/gateway"
	"github.com/bookhub-dev/bookhub/internal/cli/library"
	"github.com/bookhub-dev/bookhub/internal/cli/session"
)

var version = "dev" // Will be set during build

const (
	defaultServerURL = "http://localhost:8080"
	defaultBucket    = "bookhub-library"
	defaultRegion    = "us-east-1"
)

func serverURL() string {
	if url := os.Getenv("BOOKHUB_SERVER"); url != "" {
		return url
	}
	return defaultServerURL
}

func newRootCmd(app *commands.App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bookhub",
		Short:         "BookHub - your community library",
		Long:          "BookHub CLI - browse the catalog, borrow books, and manage digital resource collections.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bookhub version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewSignUpCmd(app))
	rootCmd.AddCommand(commands.NewVerifyEmailCmd(app))
	rootCmd.AddCommand(commands.NewSignInCmd(app))
	rootCmd.AddCommand(commands.NewSignOutCmd(app))
	rootCmd.AddCommand(commands.NewWhoAmICmd(app))
	rootCmd.AddCommand(commands.NewForgotPasswordCmd(app))
	rootCmd.AddCommand(commands.NewBooksCmd(app))
	rootCmd.AddCommand(commands.NewBorrowCmd(app))
	rootCmd.AddCommand(commands.NewReturnCmd(app))
	rootCmd.AddCommand(commands.NewAddBookCmd(app))
	rootCmd.AddCommand(commands.NewDeleteBookCmd(app))
	rootCmd.AddCommand(commands.NewCollectionsCmd(app))
	rootCmd.AddCommand(commands.NewCreateCollectionCmd(app))
	rootCmd.AddCommand(commands.NewAddResourceCmd(app))
	rootCmd.AddCommand(commands.NewDeleteCollectionCmd(app))
	rootCmd.AddCommand(commands.NewDeleteResourceCmd(app))
	rootCmd.AddCommand(commands.NewUsersCmd(app))
	rootCmd.AddCommand(commands.NewSetRoleCmd(app))
	rootCmd.AddCommand(commands.NewLibraryCmd(app))

	return rootCmd
}

// Execute wires the client state and runs the root command
func Execute() error {
	baseURL := serverURL()

	sessions := session.NewStore(session.NewKeyringPersister())
	if err := sessions.Hydrate(); err != nil {
		// A broken keyring should not brick the CLI; start signed out
		fmt.Fprintf(os.Stderr, "Warning: could not restore session: %v\n", err)
	}

	app := &commands.App{
		Sessions: sessions,
		Gateway:  gateway.New(baseURL),
		API:      client.NewFactory(baseURL, sessions),
		OpenLibrary: func(ctx context.Context) (*library.Library, error) {
			bucket := os.Getenv("BOOKHUB_LIBRARY_BUCKET")
			if bucket == "" {
				bucket = defaultBucket
			}
			region := os.Getenv("AWS_REGION")
			if region == "" {
				region = defaultRegion
			}
			return library.New(ctx, bucket, region)
		},
		Out: os.Stdout,
	}

	if err := newRootCmd(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

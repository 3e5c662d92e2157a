package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewLibraryCmd creates the library command group for the digital
// library bucket
func NewLibraryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the digital library",
	}

	cmd.AddCommand(newLibraryListCmd(app))
	cmd.AddCommand(newLibraryUploadCmd(app))
	cmd.AddCommand(newLibraryDeleteCmd(app))

	return cmd
}

func newLibraryListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List stored files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Navigate(cmd.Context(), "/collection", func(ctx context.Context) error {
				lib, err := app.OpenLibrary(ctx)
				if err != nil {
					return err
				}
				objects, err := lib.List(ctx)
				if err != nil {
					return err
				}
				if len(objects) == 0 {
					fmt.Fprintln(app.Out, "The library is empty.")
					return nil
				}

				w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "KEY\tSIZE\tMODIFIED")
				fmt.Fprintln(w, "───\t────\t────────")
				for _, obj := range objects {
					fmt.Fprintf(w, "%s\t%d\t%s\n", obj.Key, obj.Size, obj.LastModified.Format("2006-01-02"))
				}
				return w.Flush()
			})
		},
	}
}

func newLibraryUploadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload files to the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Navigate(cmd.Context(), "/collection", func(ctx context.Context) error {
				lib, err := app.OpenLibrary(ctx)
				if err != nil {
					return err
				}

				// One bad file must not sink the rest of the batch
				failed := 0
				for _, path := range args {
					if err := uploadOne(ctx, lib, path); err != nil {
						fmt.Fprintf(app.Out, "FAILED  %s: %v\n", path, err)
						failed++
						continue
					}
					fmt.Fprintf(app.Out, "uploaded %s\n", filepath.Base(path))
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d uploads failed", failed, len(args))
				}
				return nil
			})
		},
	}
}

type libraryUploader interface {
	Upload(ctx context.Context, key string, body io.Reader) error
}

func uploadOne(ctx context.Context, lib libraryUploader, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return lib.Upload(ctx, filepath.Base(path), f)
}

func newLibraryDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <key>",
		Short: "Delete a file from the library (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Navigate(cmd.Context(), "/DeleteCollectionAndResource", func(ctx context.Context) error {
				lib, err := app.OpenLibrary(ctx)
				if err != nil {
					return err
				}
				if err := lib.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Deleted %s.\n", args[0])
				return nil
			})
		},
	}
}

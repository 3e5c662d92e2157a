package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bookhub-dev/bookhub/internal/cli/client"
)

// NewCollectionsCmd creates the collections command
func NewCollectionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "collections [collection-name]",
		Short: "Browse resource collections",
		Long:  "Without arguments, lists all collections. With a name, lists that collection's resources.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Navigate(cmd.Context(), "/collection", func(ctx context.Context) error {
				if len(args) == 0 {
					return app.renderCollections(ctx)
				}
				return app.renderResources(ctx, args[0])
			})
		},
	}
}

func (a *App) renderCollections(ctx context.Context) error {
	collections, err := a.API.Build().ListCollections(ctx)
	if err != nil {
		return err
	}
	if len(collections) == 0 {
		fmt.Fprintln(a.Out, "No collections found.")
		return nil
	}
	for _, c := range collections {
		fmt.Fprintln(a.Out, c.Name)
	}
	return nil
}

func (a *App) renderResources(ctx context.Context, collection string) error {
	resources, err := a.API.Build().ListResources(ctx, collection)
	if err != nil {
		return err
	}
	if len(resources) == 0 {
		fmt.Fprintf(a.Out, "No resources in %q.\n", collection)
		return nil
	}

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLINK\tDESCRIPTION")
	fmt.Fprintln(w, "────\t────\t───────────")
	for _, r := range resources {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Link, r.Description)
	}
	return w.Flush()
}

// NewCreateCollectionCmd creates the create-collection command
func NewCreateCollectionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create-collection <name>",
		Short: "Create a new resource collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Navigate(cmd.Context(), "/collection", func(ctx context.Context) error {
				if err := app.API.Build().AddCollection(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Created collection %q.\n", args[0])
				return nil
			})
		},
	}
}

// NewAddResourceCmd creates the add-resource command
func NewAddResourceCmd(app *App) *cobra.Command {
	var link, description string

	cmd := &cobra.Command{
		Use:   "add-resource <collection> <resource-name>",
		Short: "Add a resource to a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if link == "" {
				return fmt.Errorf("link is required (use --link flag)")
			}
			return app.Navigate(cmd.Context(), "/collection", func(ctx context.Context) error {
				err := app.API.Build().AddResource(ctx, client.Resource{
					Collection:  args[0],
					Name:        args[1],
					Link:        link,
					Description: description,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Added %q to %q.\n", args[1], args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&link, "link", "", "Resource URL")
	cmd.Flags().StringVar(&description, "description", "", "Short description")

	return cmd
}

// NewDeleteCollectionCmd creates the delete-collection command
func NewDeleteCollectionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-collection <name>",
		Short: "Delete a collection and all its resources (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Navigate(cmd.Context(), "/DeleteCollectionAndResource", func(ctx context.Context) error {
				if err := app.API.Build().DeleteCollection(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Deleted collection %q.\n", args[0])
				return nil
			})
		},
	}
}

// NewDeleteResourceCmd creates the delete-resource command
func NewDeleteResourceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-resource <collection> <resource-name>",
		Short: "Delete a single resource from a collection (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Navigate(cmd.Context(), "/DeleteCollectionAndResource", func(ctx context.Context) error {
				if err := app.API.Build().DeleteResource(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Deleted %q from %q.\n", args[1], args[0])
				return nil
			})
		},
	}
}

package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bookhub-dev/bookhub/internal/cli/client"
	"github.com/bookhub-dev/bookhub/internal/cli/gate"
)

// NewBooksCmd creates the books command
func NewBooksCmd(app *App) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse the book catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Navigate(cmd.Context(), gate.DefaultLandingPath, func(ctx context.Context) error {
				return app.renderBooks(ctx, search)
			})
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Only show books whose title starts with this")

	return cmd
}

// renderBooks is the landing page; gate redirects from elsewhere land here
func (a *App) renderBooks(ctx context.Context, search string) error {
	api := a.API.Build()

	var books []client.Book
	var err error
	if search != "" {
		books, err = api.SearchBooks(ctx, search)
	} else {
		books, err = api.ListBooks(ctx)
	}
	if err != nil {
		return err
	}

	if len(books) == 0 {
		fmt.Fprintln(a.Out, "No books found.")
		return nil
	}

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tAUTHOR\tBORROWED BY\tSINCE")
	fmt.Fprintln(w, "─────\t──────\t───────────\t─────")
	for _, b := range books {
		borrower, since := b.BorrowedBy, b.BorrowDate
		if borrower == "" {
			borrower, since = "-", "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Name, b.Author, borrower, since)
	}
	return w.Flush()
}

// NewBorrowCmd creates the borrow command
func NewBorrowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <book-title>",
		Short: "Borrow a book from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Navigate(cmd.Context(), "/borrow", func(ctx context.Context) error {
				if err := app.API.Build().BorrowBook(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Borrowed %q.\n", args[0])
				return nil
			})
		},
	}
}

// NewReturnCmd creates the return command
func NewReturnCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "return <book-title>",
		Short: "Return a book you borrowed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Navigate(cmd.Context(), "/borrow", func(ctx context.Context) error {
				if err := app.API.Build().ReturnBook(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Returned %q.\n", args[0])
				return nil
			})
		},
	}
}

// NewAddBookCmd creates the add-book command
func NewAddBookCmd(app *App) *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "add-book <book-title>",
		Short: "Add a new book to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if author == "" {
				return fmt.Errorf("author is required (use --author flag)")
			}
			return app.Navigate(cmd.Context(), gate.DefaultLandingPath, func(ctx context.Context) error {
				if err := app.API.Build().AddBook(ctx, args[0], author); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Added %q by %s.\n", args[0], author)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Book author")

	return cmd
}

// NewDeleteBookCmd creates the delete-book command
func NewDeleteBookCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-book <book-title>",
		Short: "Remove a book from the catalog (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Navigate(cmd.Context(), "/DeletePhysicalBook", func(ctx context.Context) error {
				if err := app.API.Build().DeleteBook(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Deleted %q.\n", args[0])
				return nil
			})
		},
	}
}

package app

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/bookstorectl/internal/access"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "info <id|object-ref>",
		Short:   "Show a book and its verified links",
		Example: `  bookstorectl info a1`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := loadCatalog(ctx); err != nil {
				return err
			}
			ref := args[0]
			book, found := books.Lookup(ref)
			if !found {
				// Let the resolver produce the classified error.
				_, err := resolver.ResolveView(ctx, ref)
				return err
			}

			var view, dl access.Target
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				view, err = resolver.ResolveView(gctx, ref)
				return err
			})
			g.Go(func() error {
				var err error
				dl, err = resolver.ResolveDownload(gctx, ref)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			header(w, "Book: %s", book.Title)
			printBook(w, book)
			fmt.Fprintf(w, "  %s %s\n", color.CyanString("View:"), view.URL)
			fmt.Fprintf(w, "  %s %s\n", color.CyanString("Download:"), dl.URL)
			fmt.Fprintf(w, "  %s %s\n", color.CyanString("Resolved by:"), view.Strategy)
			return nil
		},
	}
	return cmd
}

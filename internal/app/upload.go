package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
	"github.com/blackwell-systems/bookstorectl/internal/catalog"
	"github.com/blackwell-systems/bookstorectl/internal/ingest"
	"github.com/blackwell-systems/bookstorectl/internal/store"
	"github.com/blackwell-systems/bookstorectl/internal/tui"
)

func newUploadCmd() *cobra.Command {
	var (
		title    string
		category string
	)

	cmd := &cobra.Command{
		Use:   "upload <file|url>",
		Short: "Upload a book to the catalog",
		Long: `Upload a local file or an http(s) URL to the catalog service.

The title is required. For PDFs without --title, the title stored in the
document metadata is used when there is one. A blank category files the
book under "Uncategorized".`,
		Example: `  bookstorectl upload ~/Downloads/dune.pdf --title "Dune" --category Fiction
  bookstorectl upload https://example.com/paper.pdf --title "Paper"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := ingest.Resolve(args[0])
			if err != nil {
				return apperr.Wrap(apperr.KindValidation, "upload", err)
			}

			if title == "" {
				if info, err := ingest.ReadDocInfo(src); err == nil && info.Title != "" {
					title = info.Title
					fmt.Fprintf(cmd.ErrOrStderr(), "Using title from document metadata: %q\n", title)
				}
			}

			req := store.UploadRequest{File: src, Title: title, Category: category}
			var book *catalog.Book
			run := func(wrap func(io.Reader, int64) io.Reader) error {
				if wrap != nil {
					req.Progress = func(r io.Reader) io.Reader { return wrap(r, src.Size) }
				}
				book, err = pipeline.Upload(cmd.Context(), req)
				return err
			}

			if tui.ShouldUseTUI(cmd) && src.Size > 0 {
				err = tui.RunWithProgress("Uploading "+src.Name, src.Size, run)
			} else {
				err = run(nil)
			}

			if book != nil {
				ok("Uploaded %q as %s (%s)", book.Title, book.ID, book.CategoryName())
			}
			if errors.Is(err, store.ErrRefreshAfterMutation) {
				warn("%v", err)
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Book title")
	cmd.Flags().StringVar(&category, "category", "", "Category (default \"Uncategorized\")")
	return cmd
}

package app

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookstorectl/internal/access"
	"github.com/blackwell-systems/bookstorectl/internal/catalog"
	"github.com/blackwell-systems/bookstorectl/internal/download"
	"github.com/blackwell-systems/bookstorectl/internal/tui"
)

func newDownloadCmd() *cobra.Command {
	var (
		outDir  string
		urlOnly bool
	)

	cmd := &cobra.Command{
		Use:     "download <id|object-ref>",
		Aliases: []string{"get"},
		Short:   "Download a book",
		Long: `Resolve a verified download URL for a book and save the file.

Files land in download.dir from the config unless -o is given. Use
--url-only to print the URL without fetching it.`,
		Example: `  bookstorectl download a1
  bookstorectl download a1 -o ./books
  bookstorectl download a1 --url-only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := loadCatalog(ctx); err != nil {
				return err
			}
			t, err := resolver.ResolveDownload(ctx, args[0])
			if err != nil {
				return err
			}
			if urlOnly {
				fmt.Fprintln(cmd.OutOrStdout(), t.URL)
				return nil
			}

			dir := outDir
			if dir == "" {
				dir = cfg.Download.Dir
			}

			var dest string
			if tui.ShouldUseTUI(cmd) {
				err = tui.RunWithProgress("Downloading "+t.Book.Title, -1, func(wrap func(io.Reader, int64) io.Reader) error {
					var ferr error
					dest, ferr = download.Fetch(ctx, transfers, t.URL, dir, localName(t.Book), wrap)
					return ferr
				})
			} else {
				dest, err = saveTarget(ctx, t, dir)
			}
			if err != nil {
				return err
			}
			ok("Saved %s", dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Directory to save into")
	cmd.Flags().BoolVar(&urlOnly, "url-only", false, "Print the download URL instead of fetching it")
	return cmd
}

// saveTarget fetches a resolved download target into dir without progress
// output. The browser uses it too.
func saveTarget(ctx context.Context, t access.Target, dir string) (string, error) {
	return download.Fetch(ctx, transfers, t.URL, dir, localName(t.Book), nil)
}

// localName is the fallback file name when the server sends no
// Content-Disposition: the last object-ref segment plus the format
// extension if it lacks one.
func localName(b catalog.Book) string {
	name := path.Base(b.Ref())
	if b.Format != "" && filepath.Ext(name) == "" {
		name += "." + strings.TrimPrefix(strings.ToLower(b.Format), ".")
	}
	return name
}

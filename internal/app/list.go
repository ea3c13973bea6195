package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookstorectl/internal/catalog"
)

func newListCmd() *cobra.Command {
	var (
		format   string
		category string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books grouped by category",
		Long: `Fetch the catalog and print every book grouped by category.

Use --format yaml or --format json for machine-readable output.`,
		Example: `  bookstorectl list
  bookstorectl list --category Fiction
  bookstorectl list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadCatalog(cmd.Context()); err != nil {
				return err
			}
			snap := books.Snapshot()
			if category != "" {
				snap = filterCategory(snap, category)
			}

			w := cmd.OutOrStdout()
			switch format {
			case "", "table":
				renderTable(w, catalog.Group(snap))
				return nil
			case "yaml", "json":
				out, err := catalog.Marshal(snap, format)
				if err != nil {
					return err
				}
				_, err = w.Write(out)
				return err
			default:
				return fmt.Errorf("unknown format %q (want table, yaml or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, yaml, json")
	cmd.Flags().StringVar(&category, "category", "", "Only show this category")
	return cmd
}

func filterCategory(s *catalog.Snapshot, name string) *catalog.Snapshot {
	want := catalog.NormalizeCategory(name)
	var kept []catalog.Book
	for _, b := range s.Books() {
		if b.CategoryName() == want {
			kept = append(kept, b)
		}
	}
	return catalog.NewSnapshot(kept)
}

// renderTable prints one section per category in display order.
func renderTable(w io.Writer, g catalog.CategoryGroup) {
	if g.Len() == 0 {
		fmt.Fprintln(w, "No books in the catalog.")
		return
	}
	for i, name := range g.Names {
		entries := g.Get(name)
		if i > 0 {
			fmt.Fprintln(w)
		}
		header(w, "%s  (%d)", name, len(entries))

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, b := range entries {
			size := ""
			if b.Size > 0 {
				size = humanBytes(b.Size)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", b.ID, b.Title, b.Format, size)
		}
		_ = tw.Flush()
	}
}

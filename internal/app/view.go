package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newViewCmd() *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "view <id|object-ref>",
		Short: "Print a verified view URL for a book",
		Long: `Resolve a URL for reading a book in the browser.

The reference must be in the catalog. The URL is only printed once the
object behind it is confirmed to exist (probe strategy) or the service has
issued it (brokered strategy).`,
		Example: `  bookstorectl view a1
  bookstorectl view books/dune --open`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadCatalog(cmd.Context()); err != nil {
				return err
			}
			t, err := resolver.ResolveView(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.URL)
			if open {
				return openURL(t.URL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "Open the URL in the default browser")
	return cmd
}

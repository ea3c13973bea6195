package app

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookstorectl/internal/store"
)

func newDeleteCmd() *cobra.Command {
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book from the catalog",
		Long: `Delete a book from the remote catalog.

You are asked to type the book ID back before anything is sent. The
service decides whether the ID exists; IDs missing from the local view
are still forwarded.`,
		Example: `  bookstorectl delete a1
  bookstorectl delete a1 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			out := cmd.OutOrStdout()

			if err := loadCatalog(cmd.Context()); err != nil {
				warn("%v", err)
			}
			if b, found := books.Lookup(id); found {
				fmt.Fprintln(out, color.RedString("This will permanently delete:"))
				printBook(out, b)
				fmt.Fprintln(out)
			} else {
				warn("%s is not in the local catalog; the service will decide", id)
			}

			confirmed := skipConfirm
			if !confirmed {
				confirmed = confirmByTyping(cmd.InOrStdin(), out, id)
			}

			deleted, err := pipeline.Delete(cmd.Context(), id, confirmed)
			switch {
			case errors.Is(err, store.ErrRefreshAfterMutation):
				ok("Deleted %s", id)
				warn("%v", err)
				return nil
			case err != nil:
				return err
			case !deleted:
				fmt.Fprintln(out, "Aborted; nothing was deleted.")
				return nil
			}
			ok("Deleted %s", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipConfirm, "yes", false, "Skip the confirmation prompt")
	return cmd
}

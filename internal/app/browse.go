package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookstorectl/internal/access"
	"github.com/blackwell-systems/bookstorectl/internal/catalog"
	"github.com/blackwell-systems/bookstorectl/internal/tui"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog interactively",
		Long: `Open the interactive browser: books grouped by category with view,
download, delete and refresh actions.

Falls back to the plain list when not attached to a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !tui.ShouldUseTUI(cmd) {
				if err := loadCatalog(cmd.Context()); err != nil {
					return err
				}
				renderTable(cmd.OutOrStdout(), catalog.Group(books.Snapshot()))
				return nil
			}
			return runBrowse(cmd)
		},
	}
}

// runBrowse starts the browser. A failed initial load is shown in the
// browser's status line rather than aborting.
func runBrowse(cmd *cobra.Command) error {
	if err := loadCatalog(cmd.Context()); err != nil {
		logger.Warn("initial catalog load failed", "error", err)
	}
	return tui.RunBrowser(tui.BrowserOptions{
		Context:  cmd.Context(),
		Store:    books,
		Pipeline: pipeline,
		Resolver: resolver,
		Open:     openURL,
		Download: func(ctx context.Context, t access.Target) (string, error) {
			return saveTarget(ctx, t, cfg.Download.Dir)
		},
	})
}

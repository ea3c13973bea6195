package tui

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookstorectl/internal/util"
)

// ShouldUseTUI reports whether cmd should run interactively: stdout and
// stdin are terminals, --no-interactive is unset and no --format was asked
// for.
func ShouldUseTUI(cmd *cobra.Command) bool {
	if !util.IsTTY() || !util.IsInputTTY() {
		return false
	}
	if noInteractive, _ := cmd.Flags().GetBool("no-interactive"); noInteractive {
		return false
	}
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		return false
	}
	return true
}

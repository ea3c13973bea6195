package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion records the build version for `version` and the User-Agent.
func SetVersion(v string) {
	appVersion = v
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the bookstorectl version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{offline: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bookstorectl %s\n", appVersion)
		},
	}
}

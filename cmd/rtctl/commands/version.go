package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/axondata/go-rtctl"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		info := rtctl.GetVersion()
		fmt.Fprintf(cmd.OutOrStdout(), "rtctl %s (commit %s, built %s)\n", Version, Commit, Date)
		fmt.Fprintf(cmd.OutOrStdout(), "library %s, layouts: %s\n", info.Version, strings.Join(info.Layouts, ", "))
	},
}

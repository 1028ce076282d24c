package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statusQuiet bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the supervisor status",
	Long: `Run the control CLI's status verb. With one root its output is shown
unless --quiet is set; with several roots a summary table is printed.

The command fails when any supervisor does not answer or reports a problem.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusQuiet, "quiet", "q", false, "discard the control CLI's output")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if len(cfg.Roots) == 1 {
		ctl, err := singleController()
		if err != nil {
			return err
		}
		return ctl.Status(cmd.Context(), statusQuiet)
	}

	m, err := newManager(true)
	if err != nil {
		return err
	}

	results, statusErr := m.Status(cmd.Context(), cfg.Roots...)
	printStatusTable(cmd.OutOrStdout(), cfg.Roots, results)
	if statusErr != nil {
		return statusErr
	}

	down := 0
	for _, running := range results {
		if !running {
			down++
		}
	}
	if down > 0 {
		return fmt.Errorf("%d of %d supervisors not running", down, len(results))
	}
	return nil
}

// printStatusTable writes one row per root; roots without a result are shown as unknown
func printStatusTable(w io.Writer, roots []string, results map[string]bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Root", "State"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	sorted := append([]string(nil), roots...)
	sort.Strings(sorted)
	for _, root := range sorted {
		state := "unknown"
		if running, ok := results[root]; ok {
			state = "stopped"
			if running {
				state = "running"
			}
		}
		table.Append([]string{root, state})
	}

	table.Render()
}

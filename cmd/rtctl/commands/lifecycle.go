package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	stopQuiet    bool
	restartQuiet bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the supervisor daemon",
	Long: `Start the supervisor daemon with the installation's configuration.

Examples:
  # Start the installation rtctl belongs to
  rtctl start

  # Start two installations
  rtctl start --root /opt/rt-a --root /opt/rt-b`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Shut the supervisor down",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Shut the supervisor down, wait for it to answer, and start it",
	Long: `Restart shuts the supervisor down, ignoring a shutdown that reports failure,
polls status until the control CLI answers, then starts the daemon.

The poll is bounded by restart.timeout from the configuration.`,
	Args: cobra.NoArgs,
	RunE: runRestart,
}

func init() {
	stopCmd.Flags().BoolVarP(&stopQuiet, "quiet", "q", false, "discard the control CLI's output")
	restartCmd.Flags().BoolVarP(&restartQuiet, "quiet", "q", false, "discard the control CLI's output")
}

func runStart(cmd *cobra.Command, _ []string) error {
	if len(cfg.Roots) == 1 {
		ctl, err := singleController()
		if err != nil {
			return err
		}
		if err := ctl.Start(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Supervisor started")
		return nil
	}

	m, err := newManager(false)
	if err != nil {
		return err
	}
	return m.Start(cmd.Context(), cfg.Roots...)
}

func runStop(cmd *cobra.Command, _ []string) error {
	if len(cfg.Roots) == 1 {
		ctl, err := singleController()
		if err != nil {
			return err
		}
		if err := ctl.Stop(cmd.Context(), stopQuiet); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Supervisor stopped")
		return nil
	}

	m, err := newManager(stopQuiet)
	if err != nil {
		return err
	}
	return m.Stop(cmd.Context(), cfg.Roots...)
}

func runRestart(cmd *cobra.Command, _ []string) error {
	if len(cfg.Roots) == 1 {
		ctl, err := singleController()
		if err != nil {
			return err
		}
		if err := ctl.Restart(cmd.Context(), restartQuiet); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Supervisor restarted")
		return nil
	}

	m, err := newManager(restartQuiet)
	if err != nil {
		return err
	}
	return m.Restart(cmd.Context(), cfg.Roots...)
}

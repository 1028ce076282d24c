package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axondata/go-rtctl"
	"github.com/axondata/go-rtctl/config"
)

var (
	initForce      bool
	initPort       int
	initSaveConfig string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the installation layout and a default supervisor config",
	Long: `Create bin, etc, var and lib under each installation root and write a
default supervisor configuration that runs the RealTime server.

An existing configuration is kept unless --force is given.

Examples:
  # Lay out a new installation
  rtctl init --root /opt/rt

  # Also save the rtctl settings used
  rtctl init --root /opt/rt --save-config /opt/rt/etc/rtctl.yaml`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing supervisor config")
	initCmd.Flags().IntVar(&initPort, "port", rtctl.DefaultServerPort, "port of the RealTime server")
	initCmd.Flags().StringVar(&initSaveConfig, "save-config", "", "write the effective rtctl config to this path")
}

func runInit(cmd *cobra.Command, _ []string) error {
	kind, err := rtctl.ParseLayoutKind(cfg.Layout)
	if err != nil {
		return err
	}

	for _, root := range cfg.Roots {
		layout, err := rtctl.NewLayout(root, kind)
		if err != nil {
			return err
		}
		layout.ConfigFile = cfg.ConfigFile
		layout.PidFile = cfg.PidFile
		layout.SearchPath = rtctl.SearchPath{
			Var:  cfg.SearchPath.Var,
			Base: cfg.SearchPath.Base,
			Dirs: cfg.SearchPath.Dirs,
		}

		s := rtctl.NewScaffold(layout).WithPort(initPort).WithForce(initForce)
		if err := s.Create(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", layout.ConfigPath())
	}

	if initSaveConfig != "" {
		if err := config.Save(cfg, initSaveConfig); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", initSaveConfig)
	}
	return nil
}

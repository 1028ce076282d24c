// Package commands implements the rtctl CLI commands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/axondata/go-rtctl"
	"github.com/axondata/go-rtctl/config"
	"github.com/axondata/go-rtctl/internal/logger"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile     string
	flagRoots   []string
	flagLayout  string
	flagLevel   string
	flagTimeout time.Duration
)

// runtime state prepared by the root command before any subcommand runs
var (
	cfg      *config.Config
	slogger  *slog.Logger
	closeLog func() error

	// extraOptions are appended to every controller's options; tests use it
	// to substitute the launcher
	extraOptions []rtctl.Option
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rtctl",
	Short: "Control the supervised RealTime server",
	Long: `rtctl starts, stops, restarts and queries the process supervisor that
runs the RealTime server, using the supervisor's own daemon and control
executables under the installation root.

The installation root defaults to the parent of the directory holding rtctl.

Use "rtctl [command] --help" for more information about a command.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLog != nil {
			return closeLog()
		}
		return nil
	},
}

// ExecuteContext runs the root command with ctx.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/rtctl/rtctl.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&flagRoots, "root", nil, "installation root; repeat for several installations")
	rootCmd.PersistentFlags().StringVar(&flagLayout, "layout", "", "executable layout: supervisor or realtime")
	rootCmd.PersistentFlags().StringVar(&flagLevel, "log-level", "", "log level: DEBUG, INFO, WARN, ERROR")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "overall timeout for the command (0 = none)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// setup loads configuration, applies flag overrides and builds the logger
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if len(flagRoots) > 0 {
		loaded.Roots = flagRoots
	}
	if flagLayout != "" {
		loaded.Layout = strings.ToLower(flagLayout)
	}
	if flagLevel != "" {
		loaded.Logging.Level = flagLevel
	}
	if err := config.Validate(loaded); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if len(loaded.Roots) == 0 {
		root, err := rtctl.RootFromExecutable()
		if err != nil {
			return err
		}
		loaded.Roots = []string{root}
	}
	loaded.Roots = normalizeRoots(loaded.Roots)

	l, closeFn, err := logger.New(logger.Config{
		Level:  loaded.Logging.Level,
		Format: loaded.Logging.Format,
		Output: loaded.Logging.Output,
	})
	if err != nil {
		return err
	}

	cfg, slogger, closeLog = loaded, l, closeFn

	if flagTimeout > 0 {
		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		cobra.OnFinalize(cancel)
		cmd.SetContext(ctx)
	}
	return nil
}

// normalizeRoots cleans each root and drops repeated spellings of one directory
func normalizeRoots(roots []string) []string {
	seen := make(map[string]struct{}, len(roots))
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		r := rtctl.NormalizeRoot(root)
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// controllerOptions returns the options for every controller built by a command
func controllerOptions() ([]rtctl.Option, error) {
	opts, err := cfg.ControllerOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, rtctl.WithLogger(slogger))
	return append(opts, extraOptions...), nil
}

// singleController builds the controller for the only configured root
func singleController() (*rtctl.Controller, error) {
	if len(cfg.Roots) != 1 {
		return nil, fmt.Errorf("this command needs exactly one --root, got %d", len(cfg.Roots))
	}
	opts, err := controllerOptions()
	if err != nil {
		return nil, err
	}
	return rtctl.New(cfg.Roots[0], opts...)
}

// newManager builds a Manager over the configured roots
func newManager(quiet bool) (*rtctl.Manager, error) {
	opts, err := controllerOptions()
	if err != nil {
		return nil, err
	}
	return rtctl.NewManager(
		rtctl.WithConcurrency(cfg.Concurrency),
		rtctl.WithTimeout(0),
		rtctl.WithQuiet(quiet),
		rtctl.WithControllerOptions(opts...),
	), nil
}

// Package config loads the rtctl command configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/renameio/v2"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/axondata/go-rtctl"
)

// EnvPrefix is the prefix of environment variable overrides, e.g. RTCTL_LAYOUT
const EnvPrefix = "RTCTL"

// Config represents the rtctl configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (applied by the command)
//  2. Environment variables (RTCTL_*)
//  3. Configuration file (YAML)
//  4. Default values
type Config struct {
	// Roots are the installation roots to control; empty means the root
	// derived from the location of the rtctl executable
	Roots []string `mapstructure:"roots" yaml:"roots,omitempty"`

	// Layout selects the executable layout: supervisor or realtime
	Layout string `mapstructure:"layout" validate:"required,oneof=supervisor realtime" yaml:"layout"`

	// ConfigFile is the supervisor configuration, relative to the root
	ConfigFile string `mapstructure:"config_file" validate:"required" yaml:"config_file"`

	// PidFile is the supervisor pid file, relative to the root
	PidFile string `mapstructure:"pid_file" validate:"required" yaml:"pid_file"`

	// ServerName appears in error messages
	ServerName string `mapstructure:"server_name" validate:"required" yaml:"server_name"`

	// SearchPath extends the supervisor runtime's module search path
	SearchPath SearchPathConfig `mapstructure:"search_path" yaml:"search_path"`

	// Restart tunes the restart sequence
	Restart RestartConfig `mapstructure:"restart" yaml:"restart"`

	// Concurrency bounds parallel operations across roots
	Concurrency int `mapstructure:"concurrency" validate:"min=1" yaml:"concurrency"`

	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SearchPathConfig describes the search path extension
type SearchPathConfig struct {
	// Var is the environment variable to extend; empty disables the extension
	Var string `mapstructure:"var" yaml:"var"`
	// Base is the directory holding Dirs, relative to the root
	Base string `mapstructure:"base" yaml:"base"`
	// Dirs are prepended in order
	Dirs []string `mapstructure:"dirs" yaml:"dirs"`
}

// RestartConfig tunes the restart sequence
type RestartConfig struct {
	// Timeout bounds the wait for the control CLI to answer
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0" yaml:"timeout"`
	// PollInterval is the delay between status polls
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gte=0" yaml:"poll_interval"`
	// SettleDelay is the pause after shutdown
	SettleDelay time.Duration `mapstructure:"settle_delay" validate:"gte=0" yaml:"settle_delay"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	// Format specifies the log output format
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	// Output specifies where logs are written: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Layout:     rtctl.LayoutRealtime.String(),
		ConfigFile: rtctl.DefaultConfigFile,
		PidFile:    rtctl.DefaultPidFile,
		ServerName: rtctl.DefaultServerName,
		SearchPath: SearchPathConfig{
			Var:  rtctl.DefaultSearchPathVar,
			Base: rtctl.DefaultLibDir,
			Dirs: []string{"supervisor", "meld3"},
		},
		Restart: RestartConfig{
			Timeout:      rtctl.DefaultRestartTimeout,
			PollInterval: rtctl.DefaultPollInterval,
			SettleDelay:  rtctl.DefaultSettleDelay,
		},
		Concurrency: 4,
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load loads configuration from file, environment, and defaults.
// An empty configPath searches the default locations; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	cfg.Layout = strings.ToLower(cfg.Layout)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// Save writes cfg as YAML to path atomically
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), rtctl.DirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := renameio.WriteFile(path, data, rtctl.FileMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ControllerOptions converts cfg into options for rtctl.New
func (c *Config) ControllerOptions() ([]rtctl.Option, error) {
	kind, err := rtctl.ParseLayoutKind(c.Layout)
	if err != nil {
		return nil, err
	}

	return []rtctl.Option{
		rtctl.WithLayoutKind(kind),
		rtctl.WithConfigFile(c.ConfigFile),
		rtctl.WithPidFile(c.PidFile),
		rtctl.WithServerName(c.ServerName),
		rtctl.WithSearchPath(rtctl.SearchPath{
			Var:  c.SearchPath.Var,
			Base: c.SearchPath.Base,
			Dirs: c.SearchPath.Dirs,
		}),
		rtctl.WithRestartTimeout(c.Restart.Timeout),
		rtctl.WithPollInterval(c.Restart.PollInterval),
		rtctl.WithSettleDelay(c.Restart.SettleDelay),
	}, nil
}

// setupViper registers defaults, environment variables and the config file location
func setupViper(v *viper.Viper, configPath string) {
	d := Default()
	v.SetDefault("roots", []string{})
	v.SetDefault("layout", d.Layout)
	v.SetDefault("config_file", d.ConfigFile)
	v.SetDefault("pid_file", d.PidFile)
	v.SetDefault("server_name", d.ServerName)
	v.SetDefault("search_path.var", d.SearchPath.Var)
	v.SetDefault("search_path.base", d.SearchPath.Base)
	v.SetDefault("search_path.dirs", d.SearchPath.Dirs)
	v.SetDefault("restart.timeout", d.Restart.Timeout)
	v.SetDefault("restart.poll_interval", d.Restart.PollInterval)
	v.SetDefault("restart.settle_delay", d.Restart.SettleDelay)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	// Example: RTCTL_RESTART_TIMEOUT=10s
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(GetConfigDir())
	v.AddConfigPath(".")
	v.SetConfigName("rtctl")
	v.SetConfigType("yaml")
}

// readConfigFile reads the configuration file if it exists
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// configDecodeHooks handles durations and comma-separated lists from the environment
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook converts strings and numbers to time.Duration
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// GetConfigDir returns $XDG_CONFIG_HOME/rtctl, falling back to ~/.config/rtctl
func GetConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "rtctl")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "rtctl")
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return filepath.Join(GetConfigDir(), "rtctl.yaml")
}

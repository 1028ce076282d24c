package rtctl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

// Scaffold defaults
const (
	// DefaultProgramName is the supervisor program section for the RealTime server
	DefaultProgramName = "realtime"

	// DefaultServerPort is the port the RealTime server listens on
	DefaultServerPort = 8001

	// DefaultLogDir holds supervisor and program logs, relative to the root
	DefaultLogDir = "var/log"

	// DefaultSocketFile is the supervisor control socket, relative to the root
	DefaultSocketFile = "var/supervisor.sock"
)

// Scaffold creates the directory structure of an installation and a default
// supervisor configuration running the RealTime server as one program.
type Scaffold struct {
	// Layout is the target installation
	Layout Layout
	// Program is the supervisor program name
	Program string
	// Cmd is the server command; empty means bin/realtime -port Port
	Cmd []string
	// Port is the server port used by the default command
	Port int
	// Env contains environment variables for the server
	Env map[string]string
	// LogDir holds the log files
	LogDir string
	// SocketFile is the control socket path
	SocketFile string
	// StartSecs is how long the program must stay up to count as started
	StartSecs int
	// StopSignal is the signal the supervisor sends to stop the program
	StopSignal string
	// Force overwrites an existing configuration file
	Force bool
}

// NewScaffold creates a Scaffold for the given layout with default settings
func NewScaffold(layout Layout) *Scaffold {
	return &Scaffold{
		Layout:     layout,
		Program:    DefaultProgramName,
		Port:       DefaultServerPort,
		Env:        make(map[string]string),
		LogDir:     DefaultLogDir,
		SocketFile: DefaultSocketFile,
		StartSecs:  1,
		StopSignal: "TERM",
	}
}

// WithCmd sets the server command
func (s *Scaffold) WithCmd(cmd []string) *Scaffold {
	s.Cmd = cmd
	return s
}

// WithPort sets the server port
func (s *Scaffold) WithPort(port int) *Scaffold {
	s.Port = port
	return s
}

// WithEnv adds an environment variable
func (s *Scaffold) WithEnv(key, value string) *Scaffold {
	s.Env[key] = value
	return s
}

// WithForce allows overwriting an existing configuration
func (s *Scaffold) WithForce(force bool) *Scaffold {
	s.Force = force
	return s
}

// Create makes the installation directories and writes the configuration file
func (s *Scaffold) Create() error {
	if err := s.Layout.Validate(); err != nil {
		return err
	}
	if s.Program == "" {
		return fmt.Errorf("program name not specified")
	}

	dirs := []string{
		filepath.Dir(s.Layout.DaemonPath()),
		filepath.Dir(s.Layout.ConfigPath()),
		filepath.Dir(s.Layout.PidPath()),
		s.Layout.resolve(s.LogDir),
		s.Layout.resolve(s.Layout.SearchPath.Base),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, DirMode); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	configPath := s.Layout.ConfigPath()
	if !s.Force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, configPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("checking config: %w", err)
		}
	}

	if err := renameio.WriteFile(configPath, []byte(s.buildConfig()), FileMode); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// command returns the server command line
func (s *Scaffold) command() []string {
	if len(s.Cmd) > 0 {
		return s.Cmd
	}
	return []string{
		s.Layout.resolve(filepath.Join("bin", DefaultProgramName)),
		"-port", strconv.Itoa(s.Port),
	}
}

// buildConfig generates the supervisor configuration file
func (s *Scaffold) buildConfig() string {
	socket := iniEscape(s.Layout.resolve(s.SocketFile))
	logDir := s.Layout.resolve(s.LogDir)
	root := iniEscape(s.Layout.Root)

	lines := []string{
		"[unix_http_server]",
		"file=" + socket,
		"",
		"[supervisord]",
		"pidfile=" + iniEscape(s.Layout.PidPath()),
		"logfile=" + iniEscape(filepath.Join(logDir, "supervisord.log")),
		"directory=" + root,
		"",
		"[rpcinterface:supervisor]",
		"supervisor.rpcinterface_factory = supervisor.rpcinterface:make_main_rpcinterface",
		"",
		"[supervisorctl]",
		"serverurl=unix://" + socket,
		"",
		"[program:" + s.Program + "]",
	}

	cmdParts := make([]string, 0, len(s.command()))
	for _, part := range s.command() {
		cmdParts = append(cmdParts, iniEscape(shellQuote(part)))
	}
	lines = append(lines,
		"command="+strings.Join(cmdParts, " "),
		"directory="+root,
		"autostart=true",
		"autorestart=true",
		"startsecs="+strconv.Itoa(s.StartSecs),
		"stopsignal="+s.StopSignal,
		"redirect_stderr=true",
		"stdout_logfile="+iniEscape(filepath.Join(logDir, s.Program+".log")),
	)

	if len(s.Env) > 0 {
		keys := make([]string, 0, len(s.Env))
		for k := range s.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, iniEscape(strconv.Quote(s.Env[k]))))
		}
		lines = append(lines, "environment="+strings.Join(pairs, ","))
	}

	return strings.Join(lines, "\n") + "\n"
}

// iniEscape doubles '%' so supervisord does not read it as an expansion
func iniEscape(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

// shellQuote escapes a string for safe use in a command line
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}

	if !needsShellQuoting(s) {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// needsShellQuoting checks if a string contains characters that require shell quoting
func needsShellQuoting(s string) bool {
	const specialChars = " \t\n'\"\\$`!*?[](){}<>|&;~%"

	for _, r := range s {
		if strings.ContainsRune(specialChars, r) {
			return true
		}
	}
	return false
}

package rtctl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LayoutKind identifies which revision of the supervisor binaries an installation ships
type LayoutKind int

const (
	// LayoutUnknown represents an unrecognized layout
	LayoutUnknown LayoutKind = iota
	// LayoutSupervisor has supervisord and supervisorctl at the installation root
	LayoutSupervisor
	// LayoutRealtime has bin/realtimed and bin/realtimectl
	LayoutRealtime
)

// LayoutKind string constants
const (
	layoutUnknownStr    = "unknown"
	layoutSupervisorStr = "supervisor"
	layoutRealtimeStr   = "realtime"
)

// String returns the string representation of LayoutKind
func (k LayoutKind) String() string {
	switch k {
	case LayoutSupervisor:
		return layoutSupervisorStr
	case LayoutRealtime:
		return layoutRealtimeStr
	default:
		return layoutUnknownStr
	}
}

// ParseLayoutKind returns the LayoutKind named by s
func ParseLayoutKind(s string) (LayoutKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case layoutSupervisorStr:
		return LayoutSupervisor, nil
	case layoutRealtimeStr, "":
		return LayoutRealtime, nil
	default:
		return LayoutUnknown, fmt.Errorf("unknown layout %q", s)
	}
}

// SearchPath describes extra directories prepended to a search path variable
// in the environment of every invoked executable
type SearchPath struct {
	// Var is the environment variable to extend; empty disables the extension
	Var string
	// Base is the directory the entries of Dirs are relative to, itself relative to the root
	Base string
	// Dirs are prepended in order
	Dirs []string
}

// Layout holds the root-relative paths of one installation. Relative fields are
// resolved against Root; absolute fields are used unchanged.
type Layout struct {
	// Kind is the revision this layout was built from
	Kind LayoutKind
	// Root is the absolute installation root
	Root string
	// ConfigFile is the supervisor configuration file
	ConfigFile string
	// Daemon is the supervisor daemon launcher
	Daemon string
	// Control is the supervisor control CLI
	Control string
	// PidFile is the supervisor pid file, observed by Watch
	PidFile string
	// SearchPath is the runtime search path extension
	SearchPath SearchPath
}

// NewLayout returns the preset layout of kind rooted at root
func NewLayout(root string, kind LayoutKind) (Layout, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolving installation root: %w", err)
	}

	l := Layout{
		Kind:       kind,
		Root:       absRoot,
		ConfigFile: DefaultConfigFile,
		PidFile:    DefaultPidFile,
		SearchPath: SearchPath{
			Var:  DefaultSearchPathVar,
			Base: DefaultLibDir,
			Dirs: []string{"supervisor", "meld3"},
		},
	}

	switch kind {
	case LayoutSupervisor:
		l.Daemon = "supervisord"
		l.Control = "supervisorctl"
	case LayoutRealtime:
		l.Daemon = filepath.Join("bin", "realtimed")
		l.Control = filepath.Join("bin", "realtimectl")
	default:
		return Layout{}, fmt.Errorf("unsupported layout: %v", kind)
	}

	return l, nil
}

// RootFromExecutable returns the installation root of the running program:
// the parent of the directory holding the executable.
func RootFromExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(filepath.Dir(exe)), nil
}

func (l Layout) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.Root, p)
}

// ConfigPath returns the absolute configuration file path
func (l Layout) ConfigPath() string { return l.resolve(l.ConfigFile) }

// DaemonPath returns the absolute daemon executable path
func (l Layout) DaemonPath() string { return l.resolve(l.Daemon) }

// ControlPath returns the absolute control executable path
func (l Layout) ControlPath() string { return l.resolve(l.Control) }

// PidPath returns the absolute pid file path
func (l Layout) PidPath() string { return l.resolve(l.PidFile) }

// SearchDirs returns the absolute search path entries in order
func (l Layout) SearchDirs() []string {
	if l.SearchPath.Var == "" {
		return nil
	}
	base := l.resolve(l.SearchPath.Base)
	dirs := make([]string, 0, len(l.SearchPath.Dirs))
	for _, d := range l.SearchPath.Dirs {
		if filepath.IsAbs(d) {
			dirs = append(dirs, d)
			continue
		}
		dirs = append(dirs, filepath.Join(base, d))
	}
	return dirs
}

// Env returns a copy of environ with the search path variable extended.
// Any existing value is kept after the added entries.
func (l Layout) Env(environ []string) []string {
	dirs := l.SearchDirs()
	out := make([]string, 0, len(environ)+1)
	if len(dirs) == 0 {
		return append(out, environ...)
	}

	prefix := l.SearchPath.Var + "="
	value := strings.Join(dirs, string(os.PathListSeparator))
	replaced := false
	for _, kv := range environ {
		if strings.HasPrefix(kv, prefix) {
			if replaced {
				continue
			}
			if old := kv[len(prefix):]; old != "" {
				kv = prefix + value + string(os.PathListSeparator) + old
			} else {
				kv = prefix + value
			}
			replaced = true
		}
		out = append(out, kv)
	}
	if !replaced {
		out = append(out, prefix+value)
	}
	return out
}

// Validate checks that the layout names every required path
func (l Layout) Validate() error {
	if !filepath.IsAbs(l.Root) {
		return fmt.Errorf("installation root must be absolute: %q", l.Root)
	}
	if l.ConfigFile == "" {
		return fmt.Errorf("config file path is empty")
	}
	if l.Daemon == "" || l.Control == "" {
		return fmt.Errorf("daemon and control executables are required")
	}
	return nil
}

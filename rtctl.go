package rtctl

import "time"

// Installation layout constants
const (
	// DefaultConfigFile is the supervisor configuration path relative to the installation root
	DefaultConfigFile = "etc/supervisord.conf"

	// DefaultPidFile is the supervisor pid file path relative to the installation root
	DefaultPidFile = "var/supervisord.pid"

	// DefaultServerName is the human-readable name used in error messages
	DefaultServerName = "RealTime Server"

	// DefaultSearchPathVar is the module search path variable extended for the supervisor runtime
	DefaultSearchPathVar = "PYTHONPATH"

	// DefaultLibDir holds the bundled supervisor runtime dependencies
	DefaultLibDir = "lib"
)

// Timing defaults
const (
	// DefaultPollInterval is the delay between status polls while waiting for the supervisor
	DefaultPollInterval = 250 * time.Millisecond

	// DefaultRestartTimeout bounds the status poll during Restart
	DefaultRestartTimeout = 30 * time.Second

	// DefaultSettleDelay is the pause between shutdown and the first status poll
	DefaultSettleDelay = 500 * time.Millisecond

	// DefaultWaitDelay is how long a cancelled command gets before it is killed
	DefaultWaitDelay = 5 * time.Second

	// DefaultWatchDebounce coalesces bursts of pid file events
	DefaultWatchDebounce = 50 * time.Millisecond
)

// File modes
const (
	// DirMode is the default mode for created directories
	DirMode = 0o755

	// FileMode is the default mode for created files
	FileMode = 0o644
)

// Control CLI verbs
const (
	verbShutdown = "shutdown"
	verbStatus   = "status"
)

// Operation represents a lifecycle operation
type Operation int

const (
	// OpUnknown represents an unknown operation
	OpUnknown Operation = iota
	// OpStart launches the supervisor daemon
	OpStart
	// OpStop asks the supervisor to shut down
	OpStop
	// OpStatus queries the supervisor
	OpStatus
	// OpRestart stops, waits and starts again
	OpRestart
)

// Operation string constants
const (
	opUnknownStr = "unknown"
	opStartStr   = "start"
	opStopStr    = "stop"
	opStatusStr  = "status"
	opRestartStr = "restart"
)

// String returns the string representation of an Operation
func (op Operation) String() string {
	switch op {
	case OpStart:
		return opStartStr
	case OpStop:
		return opStopStr
	case OpStatus:
		return opStatusStr
	case OpRestart:
		return opRestartStr
	default:
		return opUnknownStr
	}
}

// ParseOperation returns the Operation named by s, or OpUnknown
func ParseOperation(s string) Operation {
	switch s {
	case opStartStr:
		return OpStart
	case opStopStr:
		return OpStop
	case opStatusStr:
		return OpStatus
	case opRestartStr:
		return OpRestart
	default:
		return OpUnknown
	}
}

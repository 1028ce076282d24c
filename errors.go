package rtctl

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by lifecycle operations
var (
	// ErrExitStatus indicates the command ran and exited with a nonzero status
	ErrExitStatus = errors.New("rtctl: nonzero exit status")

	// ErrNotFound indicates the daemon or control executable does not exist
	ErrNotFound = errors.New("rtctl: executable not found")

	// ErrTimeout indicates the supervisor did not answer before the restart deadline
	ErrTimeout = errors.New("rtctl: timeout")

	// ErrConfigExists indicates the scaffold would overwrite an existing config
	ErrConfigExists = errors.New("rtctl: config already exists")
)

// OpError describes a failed lifecycle operation
type OpError struct {
	// Op is the operation that failed
	Op Operation
	// Server is the human-readable name of the supervised server
	Server string
	// Command is the command line that was run
	Command string
	// ExitCode is the exit status of the command, or -1 if it did not complete
	ExitCode int
	// Err is the underlying cause
	Err error
}

// Error returns the fixed message for the operation
func (e *OpError) Error() string {
	switch e.Op {
	case OpStart:
		return "Error starting " + e.Server
	case OpStop:
		return "Error stopping " + e.Server
	case OpStatus:
		return "Error getting status of " + e.Server
	default:
		return fmt.Sprintf("Error running %s on %s", e.Op, e.Server)
	}
}

// Unwrap returns the underlying error for error chain inspection
func (e *OpError) Unwrap() error {
	return e.Err
}

// StartupError is returned when the daemon launcher fails
type StartupError struct{ OpError }

// Unwrap exposes the embedded OpError
func (e *StartupError) Unwrap() error { return &e.OpError }

// ShutdownError is returned when the control CLI fails to shut the supervisor down
type ShutdownError struct{ OpError }

// Unwrap exposes the embedded OpError
func (e *ShutdownError) Unwrap() error { return &e.OpError }

// StatusError is returned when the control CLI reports failure for status
type StatusError struct{ OpError }

// Unwrap exposes the embedded OpError
func (e *StatusError) Unwrap() error { return &e.OpError }

// newOpError builds the typed error for op
func newOpError(op Operation, server, command string, code int, cause error) error {
	base := OpError{Op: op, Server: server, Command: command, ExitCode: code, Err: cause}
	switch op {
	case OpStart:
		return &StartupError{base}
	case OpStop:
		return &ShutdownError{base}
	case OpStatus:
		return &StatusError{base}
	default:
		return &base
	}
}

// IsExitFailure reports whether err comes from a command that ran to completion
// and exited nonzero, as opposed to one that could not be run at all.
func IsExitFailure(err error) bool {
	return errors.Is(err, ErrExitStatus)
}

// MultiError aggregates multiple errors from bulk operations
type MultiError struct {
	// Errors contains all accumulated errors
	Errors []error
}

// Error returns a summary of the accumulated errors
func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return "no errors"
	case 1:
		return m.Errors[0].Error()
	}
	msgs := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors occurred: %s", len(m.Errors), strings.Join(msgs, "; "))
}

// Add appends an error to the collection if it's not nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Unwrap returns the accumulated errors for errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Err returns nil if no errors occurred, otherwise returns the MultiError itself
func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

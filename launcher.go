package rtctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/axondata/go-rtctl/internal/proc"
)

// Command is a single invocation of a supervisor executable
type Command struct {
	// Path is the absolute path of the executable
	Path string
	// Args are the arguments after the executable
	Args []string
	// Dir is the working directory
	Dir string
	// Env is the complete child environment; nil inherits the caller's
	Env []string
	// Quiet discards the command's output
	Quiet bool
}

// String returns the command line as it would be typed in a shell
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)
	parts = append(parts, c.Args...)
	return strings.Join(parts, " ")
}

// Launcher runs a command to completion and reports its exit code.
// It returns (code, nil) when the process ran and exited, and (-1, err)
// when it could not be started or did not complete.
type Launcher interface {
	Run(ctx context.Context, cmd Command) (int, error)
}

// LauncherFunc adapts a function to the Launcher interface
type LauncherFunc func(ctx context.Context, cmd Command) (int, error)

// Run calls f
func (f LauncherFunc) Run(ctx context.Context, cmd Command) (int, error) {
	return f(ctx, cmd)
}

// ExecLauncher runs commands as child processes without a shell
type ExecLauncher struct {
	// Stdout receives the command's standard output when not quiet
	Stdout io.Writer
	// Stderr receives the command's standard error when not quiet
	Stderr io.Writer
	// WaitDelay is how long a cancelled process group gets before it is killed
	WaitDelay time.Duration
}

// NewExecLauncher returns an ExecLauncher attached to the caller's terminal
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		WaitDelay: DefaultWaitDelay,
	}
}

// Run executes cmd and waits for it to exit
func (l *ExecLauncher) Run(ctx context.Context, c Command) (int, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env

	// nil writers connect the child to the null device
	if !c.Quiet {
		cmd.Stdout = l.Stdout
		cmd.Stderr = l.Stderr
	}

	cmd.SysProcAttr = proc.SysProcAttr()
	cmd.Cancel = func() error {
		return proc.TerminateGroup(cmd.Process.Pid)
	}
	cmd.WaitDelay = l.WaitDelay

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return -1, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return -1, fmt.Errorf("running %s: %w", c.Path, err)
}

var _ Launcher = (*ExecLauncher)(nil)

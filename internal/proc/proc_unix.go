//go:build unix

// Package proc provides platform-specific process group helpers.
package proc

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// SysProcAttr places the child in a new process group so the whole tree can be signalled
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// TerminateGroup sends SIGTERM to the process group led by pid.
// A group that has already exited is not an error.
func TerminateGroup(pid int) error {
	if pid <= 0 {
		return nil
	}
	if err := unix.Kill(-pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}
	return nil
}

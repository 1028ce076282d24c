//go:build !unix

// Package proc provides platform-specific process group helpers.
package proc

import (
	"os"
	"syscall"
)

// SysProcAttr returns nil; process groups are not used on this platform
func SysProcAttr() *syscall.SysProcAttr {
	return nil
}

// TerminateGroup kills the process itself
func TerminateGroup(pid int) error {
	if pid <= 0 {
		return nil
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	return p.Kill()
}

//go:build unix

package proc

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTerminateGroupStopsChild(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	cmd.SysProcAttr = SysProcAttr()
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	require.NoError(t, TerminateGroup(cmd.Process.Pid))

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("process group was not terminated")
	}
}

func TestTerminateGroupIgnoresMissing(t *testing.T) {
	require.NoError(t, TerminateGroup(0))

	cmd := exec.Command("true")
	cmd.SysProcAttr = SysProcAttr()
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot run true: %v", err)
	}
	require.NoError(t, TerminateGroup(cmd.Process.Pid))
}

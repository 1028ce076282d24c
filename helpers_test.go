package rtctl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/renameio/v2"
)

// fakeLauncher records every command and answers with a scripted exit code
type fakeLauncher struct {
	mu    sync.Mutex
	cmds  []Command
	reply func(n int, cmd Command) (int, error)
}

func (f *fakeLauncher) Run(_ context.Context, cmd Command) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	if f.reply == nil {
		return 0, nil
	}
	return f.reply(len(f.cmds), cmd)
}

func (f *fakeLauncher) commands() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.cmds...)
}

// verbs returns the control verb of each recorded command, or "start" for the daemon
func (f *fakeLauncher) verbs(daemon string) []string {
	var out []string
	for _, c := range f.commands() {
		if c.Path == daemon {
			out = append(out, "start")
			continue
		}
		out = append(out, c.Args[len(c.Args)-1])
	}
	return out
}

// exitWhen replies with code for commands whose last argument is verb, 0 otherwise
func exitWhen(verb string, code int) func(int, Command) (int, error) {
	return func(_ int, cmd Command) (int, error) {
		if len(cmd.Args) > 0 && cmd.Args[len(cmd.Args)-1] == verb {
			return code, nil
		}
		return 0, nil
	}
}

// newTestController builds a controller with fast timings and the given launcher
func newTestController(t *testing.T, root string, l Launcher, opts ...Option) *Controller {
	t.Helper()
	base := []Option{
		WithLauncher(l),
		WithSettleDelay(0),
		WithPollInterval(0),
		WithRestartTimeout(0),
		WithEnviron([]string{"PATH=/usr/bin:/bin"}),
	}
	ctl, err := New(root, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ctl
}

// fakeSupervisor writes shell-script stand-ins for the daemon and control
// executables into an installation root. The control script answers each verb
// with the exit code stored in <root>/var/<verb>.code (default 0) and appends
// its arguments, working directory and search path to <root>/var/calls.log.
type fakeSupervisor struct {
	Root   string
	Layout Layout
}

func newFakeSupervisor(t *testing.T, kind LayoutKind) *fakeSupervisor {
	t.Helper()

	layout, err := NewLayout(t.TempDir(), kind)
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeSupervisor{Root: layout.Root, Layout: layout}

	for _, dir := range []string{"var", "etc", filepath.Dir(layout.Daemon)} {
		if err := os.MkdirAll(filepath.Join(f.Root, dir), DirMode); err != nil {
			t.Fatal(err)
		}
	}
	if err := renameio.WriteFile(layout.ConfigPath(), []byte("[supervisord]\n"), FileMode); err != nil {
		t.Fatal(err)
	}

	script := `#!/bin/sh
verb="start"
case "$(basename "$0")" in
*ctl) for a in "$@"; do verb="$a"; done ;;
esac
echo "$(basename "$0") $* | $(pwd) | $PYTHONPATH" >> var/calls.log
code=0
if [ -f "var/$verb.code" ]; then code=$(cat "var/$verb.code"); fi
echo "fake $verb"
exit "$code"
`
	for _, p := range []string{layout.DaemonPath(), layout.ControlPath()} {
		if err := renameio.WriteFile(p, []byte(script), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

// setExit makes the next invocations of verb exit with code
func (f *fakeSupervisor) setExit(t *testing.T, verb string, code int) {
	t.Helper()
	p := filepath.Join(f.Root, "var", verb+".code")
	if err := renameio.WriteFile(p, []byte(fmt.Sprintf("%d\n", code)), FileMode); err != nil {
		t.Fatal(err)
	}
}

// calls returns the lines logged by the fake executables
func (f *fakeSupervisor) calls(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.Root, "var", "calls.log"))
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return string(data)
}

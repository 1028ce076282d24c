package rtctl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLayoutPresets(t *testing.T) {
	tests := []struct {
		kind    LayoutKind
		daemon  string
		control string
	}{
		{LayoutSupervisor, "/opt/rt/supervisord", "/opt/rt/supervisorctl"},
		{LayoutRealtime, "/opt/rt/bin/realtimed", "/opt/rt/bin/realtimectl"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			l, err := NewLayout("/opt/rt", tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.daemon, l.DaemonPath())
			assert.Equal(t, tt.control, l.ControlPath())
			assert.Equal(t, "/opt/rt/etc/supervisord.conf", l.ConfigPath())
			assert.Equal(t, "/opt/rt/var/supervisord.pid", l.PidPath())
			require.NoError(t, l.Validate())
		})
	}

	_, err := NewLayout("/opt/rt", LayoutUnknown)
	require.Error(t, err)
}

func TestNewLayoutResolvesRelativeRoot(t *testing.T) {
	l, err := NewLayout("rt", LayoutRealtime)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "rt"), l.Root)
}

func TestLayoutAbsoluteOverrides(t *testing.T) {
	l, err := NewLayout("/opt/rt", LayoutRealtime)
	require.NoError(t, err)

	l.ConfigFile = "/etc/supervisor/rt.conf"
	assert.Equal(t, "/etc/supervisor/rt.conf", l.ConfigPath())
}

func TestParseLayoutKind(t *testing.T) {
	k, err := ParseLayoutKind("Supervisor")
	require.NoError(t, err)
	assert.Equal(t, LayoutSupervisor, k)

	k, err = ParseLayoutKind("")
	require.NoError(t, err)
	assert.Equal(t, LayoutRealtime, k)

	_, err = ParseLayoutKind("systemd")
	require.Error(t, err)
	assert.Equal(t, "unknown", LayoutUnknown.String())
}

func TestLayoutEnv(t *testing.T) {
	l, err := NewLayout("/opt/rt", LayoutRealtime)
	require.NoError(t, err)

	t.Run("appends_when_unset", func(t *testing.T) {
		env := l.Env([]string{"HOME=/root"})
		assert.Equal(t, []string{"HOME=/root", "PYTHONPATH=/opt/rt/lib/supervisor:/opt/rt/lib/meld3"}, env)
	})

	t.Run("prepends_to_existing", func(t *testing.T) {
		env := l.Env([]string{"PYTHONPATH=/site", "HOME=/root"})
		assert.Equal(t, []string{"PYTHONPATH=/opt/rt/lib/supervisor:/opt/rt/lib/meld3:/site", "HOME=/root"}, env)
	})

	t.Run("empty_existing", func(t *testing.T) {
		env := l.Env([]string{"PYTHONPATH="})
		assert.Equal(t, []string{"PYTHONPATH=/opt/rt/lib/supervisor:/opt/rt/lib/meld3"}, env)
	})

	t.Run("drops_duplicates", func(t *testing.T) {
		env := l.Env([]string{"PYTHONPATH=/a", "PYTHONPATH=/b"})
		assert.Equal(t, []string{"PYTHONPATH=/opt/rt/lib/supervisor:/opt/rt/lib/meld3:/a"}, env)
	})

	t.Run("does_not_touch_input", func(t *testing.T) {
		in := []string{"PYTHONPATH=/site"}
		_ = l.Env(in)
		assert.Equal(t, []string{"PYTHONPATH=/site"}, in)
	})

	t.Run("disabled", func(t *testing.T) {
		off := l
		off.SearchPath = SearchPath{}
		assert.Equal(t, []string{"PYTHONPATH=/site"}, off.Env([]string{"PYTHONPATH=/site"}))
		assert.Nil(t, off.SearchDirs())
	})
}

func TestRootFromExecutable(t *testing.T) {
	root, err := RootFromExecutable()
	require.NoError(t, err)

	exe, err := os.Executable()
	require.NoError(t, err)
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	assert.Equal(t, filepath.Dir(filepath.Dir(exe)), root)
}

package rtctl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaffoldCreate(t *testing.T) {
	layout, err := NewLayout(t.TempDir(), LayoutRealtime)
	require.NoError(t, err)

	s := NewScaffold(layout).WithPort(9001).WithEnv("RT_MODE", "prod").WithEnv("A", "x y")
	require.NoError(t, s.Create())

	for _, dir := range []string{"bin", "etc", "var", "var/log", "lib"} {
		assert.DirExists(t, filepath.Join(layout.Root, dir))
	}

	data, err := os.ReadFile(layout.ConfigPath())
	require.NoError(t, err)
	conf := string(data)

	assert.Contains(t, conf, "[supervisord]\npidfile="+layout.PidPath())
	assert.Contains(t, conf, "serverurl=unix://"+filepath.Join(layout.Root, DefaultSocketFile))
	assert.Contains(t, conf, "[program:realtime]")
	assert.Contains(t, conf, "command="+filepath.Join(layout.Root, "bin", "realtime")+" -port 9001")
	assert.Contains(t, conf, "directory="+layout.Root)
	assert.Contains(t, conf, `environment=A="x y",RT_MODE="prod"`)
}

func TestScaffoldRefusesOverwrite(t *testing.T) {
	layout, err := NewLayout(t.TempDir(), LayoutSupervisor)
	require.NoError(t, err)

	require.NoError(t, NewScaffold(layout).Create())
	require.ErrorIs(t, NewScaffold(layout).Create(), ErrConfigExists)

	require.NoError(t, NewScaffold(layout).WithPort(7000).WithForce(true).Create())
	data, err := os.ReadFile(layout.ConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "-port 7000")
}

func TestScaffoldCustomCommand(t *testing.T) {
	layout, err := NewLayout(t.TempDir(), LayoutRealtime)
	require.NoError(t, err)

	s := NewScaffold(layout).WithCmd([]string{"/usr/bin/server", "--name", "it's here"})
	conf := s.buildConfig()
	assert.Contains(t, conf, `command=/usr/bin/server --name 'it'\''s here'`)
	assert.NotContains(t, conf, "environment=")
}

func TestScaffoldRequiresProgram(t *testing.T) {
	layout, err := NewLayout(t.TempDir(), LayoutRealtime)
	require.NoError(t, err)

	s := NewScaffold(layout)
	s.Program = ""
	require.Error(t, s.Create())
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "''"},
		{"plain", "plain"},
		{"/opt/rt/bin/realtime", "/opt/rt/bin/realtime"},
		{"a b", "'a b'"},
		{"$HOME", "'$HOME'"},
		{"it's", `'it'\''s'`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shellQuote(tt.in), tt.in)
	}
}

func TestScaffoldEscapesPercent(t *testing.T) {
	layout, err := NewLayout(filepath.Join(t.TempDir(), "rt%1"), LayoutRealtime)
	require.NoError(t, err)

	conf := NewScaffold(layout).WithEnv("FMT", "100%").buildConfig()
	escaped := strings.ReplaceAll(layout.Root, "%", "%%")

	assert.Contains(t, conf, "pidfile="+escaped+"/var/supervisord.pid")
	assert.Contains(t, conf, "file="+escaped+"/var/supervisor.sock")
	assert.Contains(t, conf, "directory="+escaped+"\n")
	assert.Contains(t, conf, "command='"+escaped+"/bin/realtime' -port 8001")
	assert.Contains(t, conf, `environment=FMT="100%%"`)
	assert.NotContains(t, strings.ReplaceAll(conf, "%%", ""), "%")
}

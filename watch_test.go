package rtctl

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextEvent(t *testing.T, ch <-chan WatchEvent) WatchEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
		return WatchEvent{}
	}
}

func TestWatchReportsStateChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "var"), DirMode))

	var up atomic.Bool
	fake := &fakeLauncher{reply: func(_ int, cmd Command) (int, error) {
		if up.Load() {
			return 0, nil
		}
		return 3, nil
	}}
	ctl := newTestController(t, root, fake, WithWatchDebounce(10*time.Millisecond))

	ch, cleanup, err := ctl.Watch(context.Background())
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	ev := nextEvent(t, ch)
	require.NoError(t, ev.Err)
	assert.False(t, ev.Running)

	up.Store(true)
	require.NoError(t, os.WriteFile(ctl.Layout.PidPath(), []byte("4242\n"), FileMode))
	ev = nextEvent(t, ch)
	require.NoError(t, ev.Err)
	assert.True(t, ev.Running)

	up.Store(false)
	require.NoError(t, os.Remove(ctl.Layout.PidPath()))
	ev = nextEvent(t, ch)
	require.NoError(t, ev.Err)
	assert.False(t, ev.Running)
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "var"), DirMode))

	fake := &fakeLauncher{}
	ctl := newTestController(t, root, fake, WithWatchDebounce(10*time.Millisecond))

	ch, cleanup, err := ctl.Watch(context.Background())
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	assert.True(t, nextEvent(t, ch).Running)

	require.NoError(t, os.WriteFile(filepath.Join(root, "var", "other.log"), []byte("x"), FileMode))
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, fake.commands(), 1, "unrelated files must not trigger a status query")
}

func TestWatchCleanupClosesChannel(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "var"), DirMode))

	ctl := newTestController(t, root, &fakeLauncher{})
	ch, cleanup, err := ctl.Watch(context.Background())
	require.NoError(t, err)

	nextEvent(t, ch)
	require.NoError(t, cleanup())

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cleanup")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	ctl := newTestController(t, filepath.Join(t.TempDir(), "absent"), &fakeLauncher{})
	_, _, err := ctl.Watch(context.Background())
	require.Error(t, err)
}

func TestWatchCleanupInterruptsStatusQuery(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "var"), DirMode))

	started := make(chan struct{})
	hung := LauncherFunc(func(ctx context.Context, _ Command) (int, error) {
		close(started)
		<-ctx.Done()
		return -1, ctx.Err()
	})
	ctl := newTestController(t, root, hung)

	ch, cleanup, err := ctl.Watch(context.Background())
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("status query never started")
	}

	done := make(chan error, 1)
	go func() { done <- cleanup() }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cleanup blocked on an in-flight status query")
	}

	select {
	case ev, ok := <-ch:
		assert.False(t, ok, "unexpected event %+v", ev)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cleanup")
	}
}

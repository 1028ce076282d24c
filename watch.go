package rtctl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"
)

// WatchEvent represents a running-state change of the supervisor
type WatchEvent struct {
	// Running is true when the control CLI answered a status query
	Running bool
	// Time is when the state was observed
	Time time.Time
	// Err is set when the state could not be determined
	Err error
}

// WatchCleanupFunc stops a watch and waits for its goroutine to exit
type WatchCleanupFunc func() error

// Watch monitors the directory holding the supervisor pid file. Every change
// to the pid file triggers a debounced status query; an event is sent when the
// running state differs from the last one sent. The first observation is
// always sent. Status queries run under the watch's own context, so cleanup
// interrupts one in flight once the grace period ends. The channel is closed
// when the watch goroutine exits.
func (c *Controller) Watch(ctx context.Context) (<-chan WatchEvent, WatchCleanupFunc, error) {
	pidPath := c.Layout.PidPath()
	dir := filepath.Dir(pidPath)
	name := filepath.Base(pidPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	ch := make(chan WatchEvent, 10)

	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
	})

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}

	send := func(ev WatchEvent) bool {
		select {
		case ch <- ev:
			return true
		case <-sctx.Stopping():
			return false
		case <-sctx.Done():
			return false
		}
	}

	var (
		known   bool
		running bool
	)
	check := func() bool {
		up, err := c.IsRunning(sctx)
		if sctx.IsStopping() || sctx.Err() != nil {
			return false
		}
		if err != nil {
			return send(WatchEvent{Err: err, Time: time.Now()})
		}
		if known && up == running {
			return true
		}
		known, running = true, up
		c.logger.DebugContext(sctx, "supervisor state changed", slog.Bool("running", up))
		return send(WatchEvent{Running: up, Time: time.Now()})
	}

	accepted := sctx.Go(func(sctx *stopper.Context) error {
		defer close(ch)

		if !check() {
			return nil
		}

		debounce := time.NewTimer(time.Hour)
		debounce.Stop()
		defer debounce.Stop()

		for {
			select {
			case <-sctx.Stopping():
				return nil

			case <-sctx.Done():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) == name {
					debounce.Reset(c.WatchDebounce)
				}

			case <-debounce.C:
				if !check() {
					return nil
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil && !send(WatchEvent{Err: err, Time: time.Now()}) {
					return nil
				}
			}
		}
	})

	if !accepted {
		close(ch)
	}

	return ch, cleanup, nil
}

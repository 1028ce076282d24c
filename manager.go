package rtctl

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Manager runs lifecycle operations on several installations concurrently.
// Each root is an independent supervisor; a root appears at most once per call.
// Roots are compared, reported and keyed by their cleaned absolute path.
type Manager struct {
	// Concurrency is the maximum number of concurrent operations
	Concurrency int
	// Timeout is the per-operation timeout
	Timeout time.Duration
	// Quiet discards control CLI output for stop, restart and status
	Quiet bool

	opts    []Option
	factory func(root string, opts ...Option) (LifecycleClient, error)
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithConcurrency sets the maximum number of concurrent operations
func WithConcurrency(n int) ManagerOption {
	return func(m *Manager) {
		m.Concurrency = n
	}
}

// WithTimeout sets the per-operation timeout
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.Timeout = d
	}
}

// WithQuiet discards control CLI output
func WithQuiet(quiet bool) ManagerOption {
	return func(m *Manager) {
		m.Quiet = quiet
	}
}

// WithControllerOptions sets the options applied to every Controller
func WithControllerOptions(opts ...Option) ManagerOption {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

// withClientFactory replaces Controller construction, for tests
func withClientFactory(f func(root string, opts ...Option) (LifecycleClient, error)) ManagerOption {
	return func(m *Manager) {
		m.factory = f
	}
}

// NewManager creates a new Manager with default settings
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		Concurrency: 4,
		Timeout:     DefaultRestartTimeout + 10*time.Second,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.Concurrency < 1 {
		m.Concurrency = 1
	}
	if m.factory == nil {
		m.factory = func(root string, opts ...Option) (LifecycleClient, error) {
			return New(root, opts...)
		}
	}

	return m
}

func (m *Manager) execute(ctx context.Context, roots []string, op func(context.Context, string, LifecycleClient) error) error {
	if len(roots) == 0 {
		return nil
	}

	var g errgroup.Group
	g.SetLimit(m.Concurrency)

	var mu sync.Mutex
	merr := &MultiError{}
	fail := func(err error) {
		mu.Lock()
		merr.Add(err)
		mu.Unlock()
	}

	for _, root := range dedupe(roots) {
		if ctx.Err() != nil {
			fail(fmt.Errorf("%s: %w", root, ctx.Err()))
			continue
		}

		g.Go(func() error {
			client, err := m.factory(root, m.opts...)
			if err != nil {
				fail(fmt.Errorf("%s: %w", root, err))
				return nil
			}

			opCtx := ctx
			if m.Timeout > 0 {
				var cancel context.CancelFunc
				opCtx, cancel = context.WithTimeout(ctx, m.Timeout)
				defer cancel()
			}

			if err := op(opCtx, root, client); err != nil {
				fail(fmt.Errorf("%s: %w", root, err))
			}
			return nil
		})
	}

	_ = g.Wait()
	return merr.Err()
}

// Start starts the supervisors at the given roots
func (m *Manager) Start(ctx context.Context, roots ...string) error {
	return m.execute(ctx, roots, func(ctx context.Context, _ string, c LifecycleClient) error {
		return c.Start(ctx)
	})
}

// Stop shuts down the supervisors at the given roots
func (m *Manager) Stop(ctx context.Context, roots ...string) error {
	return m.execute(ctx, roots, func(ctx context.Context, _ string, c LifecycleClient) error {
		return c.Stop(ctx, m.Quiet)
	})
}

// Restart restarts the supervisors at the given roots
func (m *Manager) Restart(ctx context.Context, roots ...string) error {
	return m.execute(ctx, roots, func(ctx context.Context, _ string, c LifecycleClient) error {
		return c.Restart(ctx, m.Quiet)
	})
}

// Status reports whether each supervisor answers a status query, keyed by
// NormalizeRoot. Roots whose control CLI could not be run are missing from
// the map and reported in the error.
func (m *Manager) Status(ctx context.Context, roots ...string) (map[string]bool, error) {
	results := make(map[string]bool, len(roots))
	var mu sync.Mutex

	err := m.execute(ctx, roots, func(ctx context.Context, root string, c LifecycleClient) error {
		running, err := c.IsRunning(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		results[root] = running
		mu.Unlock()
		return nil
	})

	return results, err
}

// NormalizeRoot returns the absolute, cleaned form of an installation root
func NormalizeRoot(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.Clean(root)
	}
	return abs
}

// dedupe normalizes roots and drops later spellings of the same directory
func dedupe(roots []string) []string {
	seen := make(map[string]struct{}, len(roots))
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		r := NormalizeRoot(root)
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

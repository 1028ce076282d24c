package rtctl

import (
	"context"
)

// LifecycleClient is the interface the Controller implements. Callers that
// drive an installation, such as the CLI and the Manager, depend on it so
// tests can substitute a fake.
type LifecycleClient interface {
	// Basic operations
	Start(ctx context.Context) error
	Stop(ctx context.Context, quiet bool) error
	Status(ctx context.Context, quiet bool) error
	Restart(ctx context.Context, quiet bool) error

	// IsRunning reports whether the supervisor answers a status query
	IsRunning(ctx context.Context) (bool, error)

	// WaitReady blocks until a status query succeeds or the wait is exhausted
	WaitReady(ctx context.Context) error

	// Watch monitors the supervisor pid file for running-state changes
	// Returns a channel of events and a stop function
	Watch(ctx context.Context) (<-chan WatchEvent, WatchCleanupFunc, error)
}

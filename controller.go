package rtctl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Controller starts, stops, restarts and queries one supervisor installation
// by running its daemon and control executables. Operations are synchronous
// and must not be run concurrently against the same installation.
type Controller struct {
	// Layout holds the resolved installation paths
	Layout Layout

	// ServerName appears in operation error messages
	ServerName string

	// PollInterval is the delay between status polls in WaitReady
	PollInterval time.Duration

	// RestartTimeout bounds WaitReady; zero leaves it bounded only by the context
	RestartTimeout time.Duration

	// SettleDelay is the pause between shutdown and the first status poll in Restart
	SettleDelay time.Duration

	// WatchDebounce coalesces pid file events in Watch
	WatchDebounce time.Duration

	launcher   Launcher
	logger     *slog.Logger
	environ    []string
	kind       LayoutKind
	layoutOpts []func(*Layout)
}

// Option configures a Controller
type Option func(*Controller)

// WithLayoutKind selects the executable layout preset
func WithLayoutKind(k LayoutKind) Option {
	return func(c *Controller) {
		c.kind = k
	}
}

// WithConfigFile overrides the supervisor configuration path
func WithConfigFile(path string) Option {
	return func(c *Controller) {
		c.layoutOpts = append(c.layoutOpts, func(l *Layout) { l.ConfigFile = path })
	}
}

// WithPidFile overrides the supervisor pid file path
func WithPidFile(path string) Option {
	return func(c *Controller) {
		c.layoutOpts = append(c.layoutOpts, func(l *Layout) { l.PidFile = path })
	}
}

// WithSearchPath overrides the runtime search path extension
func WithSearchPath(sp SearchPath) Option {
	return func(c *Controller) {
		c.layoutOpts = append(c.layoutOpts, func(l *Layout) { l.SearchPath = sp })
	}
}

// WithLauncher sets the process launcher
func WithLauncher(l Launcher) Option {
	return func(c *Controller) {
		c.launcher = l
	}
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithServerName sets the name used in error messages
func WithServerName(name string) Option {
	return func(c *Controller) {
		c.ServerName = name
	}
}

// WithPollInterval sets the delay between status polls
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.PollInterval = d
	}
}

// WithRestartTimeout sets the upper bound on the restart status poll
func WithRestartTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.RestartTimeout = d
	}
}

// WithSettleDelay sets the pause after shutdown during Restart
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.SettleDelay = d
	}
}

// WithWatchDebounce sets the debounce duration for watch events
func WithWatchDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.WatchDebounce = d
	}
}

// WithEnviron sets the base environment for invoked executables.
// The default is the caller's environment at construction time.
func WithEnviron(environ []string) Option {
	return func(c *Controller) {
		c.environ = environ
	}
}

// New creates a Controller for the installation rooted at root
func New(root string, opts ...Option) (*Controller, error) {
	c := &Controller{
		ServerName:     DefaultServerName,
		PollInterval:   DefaultPollInterval,
		RestartTimeout: DefaultRestartTimeout,
		SettleDelay:    DefaultSettleDelay,
		WatchDebounce:  DefaultWatchDebounce,
		kind:           LayoutRealtime,
	}

	for _, opt := range opts {
		opt(c)
	}

	layout, err := NewLayout(root, c.kind)
	if err != nil {
		return nil, err
	}
	for _, f := range c.layoutOpts {
		f(&layout)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	c.Layout = layout

	if c.launcher == nil {
		c.launcher = NewExecLauncher()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.environ == nil {
		c.environ = os.Environ()
	}

	return c, nil
}

// command builds an invocation rooted at the installation directory
func (c *Controller) command(path string, quiet bool, args ...string) Command {
	return Command{
		Path:  path,
		Args:  args,
		Dir:   c.Layout.Root,
		Env:   c.Layout.Env(c.environ),
		Quiet: quiet,
	}
}

// run executes cmd and maps its outcome to the typed error for op
func (c *Controller) run(ctx context.Context, op Operation, cmd Command) error {
	c.logger.DebugContext(ctx, "running supervisor command",
		slog.String("op", op.String()),
		slog.String("cmd", cmd.String()),
		slog.String("dir", cmd.Dir),
		slog.Bool("quiet", cmd.Quiet))

	code, err := c.launcher.Run(ctx, cmd)
	if err != nil {
		return newOpError(op, c.ServerName, cmd.String(), -1, err)
	}
	if code != 0 {
		return newOpError(op, c.ServerName, cmd.String(), code,
			fmt.Errorf("%w: exit code %d", ErrExitStatus, code))
	}
	return nil
}

// Start launches the supervisor daemon with the installation's configuration
func (c *Controller) Start(ctx context.Context) error {
	cmd := c.command(c.Layout.DaemonPath(), false, "-c", c.Layout.ConfigPath())
	if err := c.run(ctx, OpStart, cmd); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "supervisor started", slog.String("root", c.Layout.Root))
	return nil
}

// Stop asks the supervisor to shut down. Quiet discards the control CLI's output.
func (c *Controller) Stop(ctx context.Context, quiet bool) error {
	cmd := c.command(c.Layout.ControlPath(), quiet, "-c", c.Layout.ConfigPath(), verbShutdown)
	if err := c.run(ctx, OpStop, cmd); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "supervisor stopped", slog.String("root", c.Layout.Root))
	return nil
}

// Status runs the control CLI's status verb. A nonzero exit is reported as a
// StatusError whether the supervisor is unreachable or reports a problem.
func (c *Controller) Status(ctx context.Context, quiet bool) error {
	cmd := c.command(c.Layout.ControlPath(), quiet, "-c", c.Layout.ConfigPath(), verbStatus)
	return c.run(ctx, OpStatus, cmd)
}

// IsRunning reports whether the supervisor answers a status query
func (c *Controller) IsRunning(ctx context.Context) (bool, error) {
	err := c.Status(ctx, true)
	switch {
	case err == nil:
		return true, nil
	case IsExitFailure(err):
		return false, nil
	default:
		return false, err
	}
}

// WaitReady polls Status until the first success. It gives up when the context
// is done or RestartTimeout elapses, returning a StatusError wrapping ErrTimeout
// in the latter case.
func (c *Controller) WaitReady(ctx context.Context) error {
	waitCtx := ctx
	if c.RestartTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.RestartTimeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		err := c.Status(waitCtx, true)
		if err == nil {
			c.logger.DebugContext(ctx, "supervisor answered", slog.Int("attempts", attempt))
			return nil
		}
		if !IsExitFailure(err) && waitCtx.Err() == nil {
			return err
		}
		lastErr = err

		if waitCtx.Err() == nil {
			c.logger.DebugContext(ctx, "supervisor not answering yet",
				slog.Int("attempt", attempt), slog.Any("error", err))
			err = sleepContext(waitCtx, c.PollInterval)
		} else {
			err = waitCtx.Err()
		}
		if err == nil {
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var opErr *OpError
		code := -1
		if errors.As(lastErr, &opErr) {
			code = opErr.ExitCode
		}
		cmd := c.command(c.Layout.ControlPath(), true, "-c", c.Layout.ConfigPath(), verbStatus)
		return newOpError(OpStatus, c.ServerName, cmd.String(), code,
			fmt.Errorf("%w: no answer after %d attempts in %s: %w", ErrTimeout, attempt, c.RestartTimeout, lastErr))
	}
}

// Restart shuts the supervisor down, waits for its control CLI to answer, and
// starts it again. A shutdown that ran and exited nonzero is ignored so that
// restarting a stopped supervisor works; a shutdown that could not be run at
// all aborts the restart.
func (c *Controller) Restart(ctx context.Context, quiet bool) error {
	if err := c.Stop(ctx, quiet); err != nil {
		if !IsExitFailure(err) {
			return err
		}
		c.logger.DebugContext(ctx, "ignoring shutdown failure", slog.Any("error", err))
	}

	if err := sleepContext(ctx, c.SettleDelay); err != nil {
		return err
	}

	if err := c.WaitReady(ctx); err != nil {
		return err
	}

	return c.Start(ctx)
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Ensure Controller implements LifecycleClient
var _ LifecycleClient = (*Controller)(nil)

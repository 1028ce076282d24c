// Package rtctl controls the lifecycle of a supervised RealTime server by
// running the supervisor's own executables and inspecting their exit status.
//
// The core functionality centers around the Controller type, which provides
// start, stop, restart and status operations for a single installation:
//
//	ctl, err := rtctl.New("/opt/rt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start the supervisor daemon
//	err = ctl.Start(context.Background())
//
//	// Query it without printing anything
//	running, err := ctl.IsRunning(context.Background())
//
// Every command runs with the installation root as working directory and
// "-c <root>/etc/supervisord.conf" as configuration. The layout preset picks
// the executables: supervisord/supervisorctl at the root, or
// bin/realtimed/bin/realtimectl.
//
// # Errors
//
// Start, Stop and Status return *StartupError, *ShutdownError and
// *StatusError respectively. All of them wrap ErrExitStatus when the command
// ran and exited nonzero, which IsExitFailure reports. Restart ignores only
// that class of shutdown failure.
//
// # Process launching
//
// Commands go through a Launcher. The default ExecLauncher runs them without
// a shell in their own process group; tests substitute a LauncherFunc.
//
// # Manager for Bulk Operations
//
// The Manager runs the same operation against several installations
// concurrently:
//
//	manager := rtctl.NewManager(
//	    rtctl.WithConcurrency(2),
//	    rtctl.WithTimeout(time.Minute),
//	)
//	err = manager.Restart(ctx, "/opt/rt-a", "/opt/rt-b")
package rtctl

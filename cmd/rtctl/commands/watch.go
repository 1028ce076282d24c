package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/axondata/go-rtctl"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print supervisor state changes until interrupted",
	Long: `Watch the supervisor pid file and print a line each time the supervisor
starts answering or stops answering status queries.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctl, err := singleController()
	if err != nil {
		return err
	}

	events, cleanup, err := ctl.Watch(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			slogger.Warn("failed to stop watching", "error", err)
		}
	}()

	out := cmd.OutOrStdout()
	for {
		var event rtctl.WatchEvent
		select {
		case <-cmd.Context().Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			event = ev
		}

		ts := event.Time.Format(time.RFC3339)
		if event.Err != nil {
			fmt.Fprintf(out, "%s error: %v\n", ts, event.Err)
			continue
		}
		state := "stopped"
		if event.Running {
			state = "running"
		}
		fmt.Fprintf(out, "%s %s\n", ts, state)
	}
}

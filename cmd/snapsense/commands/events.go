package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapsense/snapsense/pkg/cli"
	"github.com/snapsense/snapsense/pkg/eventlog"
	"github.com/snapsense/snapsense/pkg/gesture"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Browse the persisted event log",
}

// openEventLog opens the log under ~/.snapsense/events.
func openEventLog() (*eventlog.Log, error) {
	paths, err := cli.NewPaths()
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureEventsDir(); err != nil {
		return nil, err
	}
	return eventlog.Open(eventlog.Options{Dir: paths.EventsDir()})
}

var eventsSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := openEventLog()
		if err != nil {
			return err
		}
		defer log.Close()

		sessions, err := log.Sessions(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range sessions {
			fmt.Println(s)
		}
		return nil
	},
}

var eventsListCmd = &cobra.Command{
	Use:   "list <session>",
	Short: "List a session's events in detection order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := openEventLog()
		if err != nil {
			return err
		}
		defer log.Close()

		var events []gesture.Event
		for ev, err := range log.Session(cmd.Context(), args[0]) {
			if err != nil {
				return err
			}
			events = append(events, ev)
		}
		if len(events) == 0 {
			cli.PrintInfo("no events in session %q", args[0])
			return nil
		}
		return cli.Output(events, cli.OutputOptions{Format: outputFormat()})
	},
}

var eventsImportFile string

// readEvents loads an export produced by `events list -o yaml|json
// --file`, or the same document piped on stdin.
func readEvents(path string) ([]gesture.Event, error) {
	var events []gesture.Event
	if path == "-" {
		if err := cli.LoadFromStdin(&events); err != nil {
			return nil, err
		}
		return events, nil
	}
	if err := cli.LoadFile(path, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func importEvents(ctx context.Context, log *eventlog.Log, session string, events []gesture.Event) (int, error) {
	for i, ev := range events {
		if err := log.Append(ctx, session, ev); err != nil {
			return i, err
		}
	}
	return len(events), nil
}

var eventsImportCmd = &cobra.Command{
	Use:   "import <session>",
	Short: "Import an exported event list into a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := readEvents(eventsImportFile)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			cli.PrintInfo("nothing to import")
			return nil
		}

		log, err := openEventLog()
		if err != nil {
			return err
		}
		defer log.Close()

		n, err := importEvents(cmd.Context(), log, args[0], events)
		if err != nil {
			return fmt.Errorf("imported %d of %d events: %w", n, len(events), err)
		}
		cli.PrintSuccess("imported %d events into session %q", n, args[0])
		return nil
	},
	Args: cobra.ExactArgs(1),
}

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete <session>",
	Short: "Delete a session's events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := openEventLog()
		if err != nil {
			return err
		}
		defer log.Close()

		if err := log.DeleteSession(cmd.Context(), args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("session %q deleted", args[0])
		return nil
	},
}

func init() {
	eventsImportCmd.Flags().StringVarP(&eventsImportFile, "file", "f", "", "event export YAML or JSON, or - for stdin (required)")
	eventsImportCmd.MarkFlagRequired("file")
	eventsCmd.AddCommand(eventsSessionsCmd, eventsListCmd, eventsImportCmd, eventsDeleteCmd)
	rootCmd.AddCommand(eventsCmd)
}

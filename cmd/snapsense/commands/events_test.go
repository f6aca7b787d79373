package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/snapsense/snapsense/pkg/cli"
	"github.com/snapsense/snapsense/pkg/eventlog"
	"github.com/snapsense/snapsense/pkg/gesture"
)

func TestReadEventsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	const doc = `- id: abc
  class: snap
  score: 0.91
  time: "2026-03-14T09:26:53.5Z"
- id: def
  class: snap
  score: 0.84
  time: "2026-03-14T09:26:55Z"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	events, err := readEvents(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID != "abc" || events[0].Score != 0.91 {
		t.Errorf("first event = %+v", events[0])
	}
}

func TestImportRoundTrip(t *testing.T) {
	dir := t.TempDir()

	// Export a session the same way `events list --file` does, then
	// import it under a new name and read it back.
	orig := []gesture.Event{
		{ID: "a", Class: "snap", Score: 0.9, Time: time.Unix(100, 0).UTC()},
		{ID: "b", Class: "snap", Score: 0.8, Time: time.Unix(101, 0).UTC()},
	}
	export := filepath.Join(dir, "export.json")
	if err := cli.Output(orig, cli.OutputOptions{Format: cli.FormatJSON, File: export}); err != nil {
		t.Fatal(err)
	}

	log, err := eventlog.Open(eventlog.Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { log.Close() })

	events, err := readEvents(export)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	n, err := importEvents(ctx, log, "copied", events)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("imported %d events, want 2", n)
	}

	var got []gesture.Event
	for ev, err := range log.Session(ctx, "copied") {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, ev)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("read back %+v", got)
	}
}

func TestImportRejectsBadSession(t *testing.T) {
	log, err := eventlog.Open(eventlog.Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { log.Close() })

	events := []gesture.Event{{ID: "a", Class: "snap", Time: time.Unix(100, 0)}}
	if _, err := importEvents(context.Background(), log, "a:b", events); err == nil {
		t.Error("expected error for ':' in session name")
	}
}

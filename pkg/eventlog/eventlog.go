// Package eventlog persists detected gesture events in BadgerDB,
// grouped by capture session. Records are append-only: the run
// command writes each event as it fires, and the events command reads
// them back in detection order for inspection and model tuning.
//
// Keys encode as "ev:<session>:<unix-nanos>:<event-id>", so a prefix
// scan over a session yields events in chronological order.
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/snapsense/snapsense/pkg/gesture"
)

// ErrNotFound is returned when a session has no recorded events.
var ErrNotFound = errors.New("eventlog: not found")

const keyPrefix = "ev:"

// Options configures the log.
type Options struct {
	// Dir is the BadgerDB data directory. Required unless InMemory.
	Dir string

	// InMemory runs badger without disk persistence. Tests use this
	// to exercise the real engine.
	InMemory bool

	// Logger receives badger's own log output; nil routes warnings
	// and errors to slog and drops the rest.
	Logger badger.Logger
}

// Log is an append-only store of gesture events.
type Log struct {
	db *badger.DB
}

// Open opens (or creates) the event log.
func Open(opts Options) (*Log, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("eventlog: Options.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	if opts.Logger != nil {
		dbOpts = dbOpts.WithLogger(opts.Logger)
	} else {
		dbOpts = dbOpts.WithLogger(slogLogger{})
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open: %w", err)
	}
	return &Log{db: db}, nil
}

func eventKey(session string, ev gesture.Event) []byte {
	return fmt.Appendf(nil, "%s%s:%020d:%s", keyPrefix, session, ev.Time.UnixNano(), ev.ID)
}

func sessionPrefix(session string) []byte {
	return fmt.Appendf(nil, "%s%s:", keyPrefix, session)
}

// Append records one event under the given session. Session names
// must not contain ':', the key separator; a name like "a:b" would
// otherwise bleed into session "a"'s prefix scans.
func (l *Log) Append(_ context.Context, session string, ev gesture.Event) error {
	if session == "" {
		return errors.New("eventlog: session must not be empty")
	}
	if strings.ContainsRune(session, ':') {
		return fmt.Errorf("eventlog: session %q must not contain ':'", session)
	}
	val, err := msgpack.Marshal(ev)
	if err != nil {
		return fmt.Errorf("eventlog: encode event: %w", err)
	}
	err = l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(session, ev), val)
	})
	if err != nil {
		return fmt.Errorf("eventlog: append: %w", err)
	}
	return nil
}

// Session iterates a session's events in chronological order.
func (l *Log) Session(_ context.Context, session string) iter.Seq2[gesture.Event, error] {
	prefix := sessionPrefix(session)
	return func(yield func(gesture.Event, error) bool) {
		err := l.db.View(func(txn *badger.Txn) error {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = prefix
			it := txn.NewIterator(iterOpts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				val, err := it.Item().ValueCopy(nil)
				if err != nil {
					if !yield(gesture.Event{}, err) {
						return nil
					}
					continue
				}
				var ev gesture.Event
				if err := msgpack.Unmarshal(val, &ev); err != nil {
					err = fmt.Errorf("eventlog: decode event: %w", err)
					if !yield(gesture.Event{}, err) {
						return nil
					}
					continue
				}
				if !yield(ev, nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(gesture.Event{}, err)
		}
	}
}

// Sessions lists the distinct session names, lexicographically.
func (l *Log) Sessions(_ context.Context) ([]string, error) {
	var sessions []string
	err := l.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		iterOpts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		var last string
		for it.Seek(iterOpts.Prefix); it.ValidForPrefix(iterOpts.Prefix); it.Next() {
			key := it.Item().Key()
			rest := key[len(keyPrefix):]
			// Session names never contain ':'.
			end := 0
			for end < len(rest) && rest[end] != ':' {
				end++
			}
			s := string(rest[:end])
			if s != last {
				sessions = append(sessions, s)
				last = s
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("eventlog: list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes all events of a session.
func (l *Log) DeleteSession(ctx context.Context, session string) error {
	prefix := sessionPrefix(session)
	var keys [][]byte
	err := l.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("eventlog: delete session: %w", err)
	}
	if len(keys) == 0 {
		return ErrNotFound
	}

	wb := l.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("eventlog: delete session: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("eventlog: delete session: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// slogLogger routes badger warnings and errors to slog and suppresses
// info and debug output.
type slogLogger struct{}

func (slogLogger) Errorf(f string, v ...interface{}) {
	slog.Error(fmt.Sprintf("badger: "+f, v...))
}
func (slogLogger) Warningf(f string, v ...interface{}) {
	slog.Warn(fmt.Sprintf("badger: "+f, v...))
}
func (slogLogger) Infof(string, ...interface{})  {}
func (slogLogger) Debugf(string, ...interface{}) {}

// Package clipstore persists short audio clips of detected gestures
// so misfires can be reviewed and fed back into model training. A
// clip is the engine's pre-roll buffer around the moment an event
// fired, written as a mono 16-bit WAV.
//
// The Store interface abstracts the backend: local disk for
// development, S3 (or any S3-compatible object store) for fleets.
package clipstore

import (
	"context"
	"fmt"
	"io"

	"github.com/snapsense/snapsense/pkg/gesture"
	"github.com/snapsense/snapsense/pkg/wav"
)

// Store is a minimal file-oriented backend for clips.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type Store interface {
	// Read opens the named clip for reading. If the clip does not
	// exist, an error wrapping os.ErrNotExist is returned.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named clip for writing, truncating any
	// existing one. The caller must close the returned WriteCloser
	// to flush data.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named clip. Deleting a missing clip is not
	// an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named clip exists.
	Exists(ctx context.Context, path string) (bool, error)
}

// ClipPath returns the store path for an event's clip:
// <session>/<utc-timestamp>-<event-id>.wav. Timestamps sort
// chronologically, so a directory listing doubles as a timeline.
func ClipPath(session string, ev gesture.Event) string {
	return fmt.Sprintf("%s/%s-%s.wav",
		session, ev.Time.UTC().Format("20060102T150405.000"), ev.ID)
}

// Save encodes samples as a mono WAV clip for ev and writes it to the
// store, returning the clip's path.
func Save(ctx context.Context, s Store, session string, ev gesture.Event, sampleRate int, samples []float32) (string, error) {
	path := ClipPath(session, ev)
	w, err := s.Write(ctx, path)
	if err != nil {
		return "", fmt.Errorf("clipstore: save %s: %w", path, err)
	}
	if err := wav.Encode(w, sampleRate, samples); err != nil {
		w.Close()
		return "", fmt.Errorf("clipstore: save %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("clipstore: save %s: %w", path, err)
	}
	return path, nil
}

package cli

import (
	"strings"
	"sync"

	"github.com/snapsense/snapsense/pkg/buffer"
)

// LogWriter implements io.Writer and keeps the most recent log lines
// for the live view's log section. Safe for concurrent use: slog
// writes from the tick loop while the view renders.
type LogWriter struct {
	mu  sync.Mutex
	buf *buffer.Ring[string]
}

// NewLogWriter creates a log writer keeping up to maxLines lines.
func NewLogWriter(maxLines int) *LogWriter {
	return &LogWriter{buf: buffer.NewRing[string](maxLines)}
}

// Write implements io.Writer, splitting multi-line input.
func (w *LogWriter) Write(p []byte) (n int, err error) {
	text := strings.TrimRight(string(p), "\n")

	w.mu.Lock()
	for _, line := range strings.Split(text, "\n") {
		w.buf.Push(line)
	}
	w.mu.Unlock()
	return len(p), nil
}

// Lines returns the buffered lines, oldest first.
func (w *LogWriter) Lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Values()
}

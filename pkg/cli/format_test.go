package cli

import (
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{350 * time.Millisecond, "350ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30.0s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{3 * 1024 * 1024, "3.00 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestMeter(t *testing.T) {
	m := Meter(0.5, 0.7, 12)
	if len([]rune(m)) != 12 {
		t.Errorf("meter width = %d, want 12", len([]rune(m)))
	}
	if !strings.Contains(m, "█") {
		t.Error("half-full meter has no fill")
	}
	if !strings.Contains(m, "┊") {
		t.Error("meter missing threshold tick")
	}

	empty := Meter(0, 0.7, 12)
	if strings.Contains(empty, "█") {
		t.Error("empty meter has fill")
	}
	full := Meter(1, 0.5, 12)
	if strings.Contains(full[1:len(full)-1], " ") {
		t.Errorf("full meter has gaps: %q", full)
	}
}

func TestLogWriterSplitsLines(t *testing.T) {
	w := NewLogWriter(4)
	w.Write([]byte("one\ntwo\n"))
	w.Write([]byte("three\n"))

	lines := w.Lines()
	if len(lines) != 3 || lines[0] != "one" || lines[2] != "three" {
		t.Errorf("lines = %v", lines)
	}

	// Overflow evicts the oldest line.
	w.Write([]byte("four\nfive\n"))
	lines = w.Lines()
	if len(lines) != 4 || lines[0] != "two" {
		t.Errorf("lines after overflow = %v", lines)
	}
}

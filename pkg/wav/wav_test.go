package wav

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestFile(t *testing.T, path string, sampleRate int, samples []float32) {
	t.Helper()
	w, err := NewWriter(path, sampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(samples); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")

	in := make([]float32, 4800)
	for i := range in {
		in[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/48000))
	}
	writeTestFile(t, path, 48000, in)

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if r.SampleRate() != 48000 {
		t.Errorf("sample rate = %d, want 48000", r.SampleRate())
	}
	if r.Channels() != 1 {
		t.Errorf("channels = %d, want 1", r.Channels())
	}
	if got, want := r.Duration(), 100*time.Millisecond; got != want {
		t.Errorf("duration = %v, want %v", got, want)
	}

	out := make([]float32, len(in))
	n, err := r.Read(out)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(in) {
		t.Fatalf("read %d samples, want %d", n, len(in))
	}
	for i := range in {
		if d := math.Abs(float64(in[i] - out[i])); d > 1.0/32767 {
			t.Fatalf("sample %d: wrote %g, read %g", i, in[i], out[i])
		}
	}
	if _, err := r.Read(out); err != io.EOF {
		t.Errorf("read past end: err = %v, want EOF", err)
	}
}

func TestWriterClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hot.wav")
	writeTestFile(t, path, 16000, []float32{2.0, -2.0})

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	out := make([]float32, 2)
	if _, err := r.Read(out); err != nil {
		t.Fatal(err)
	}
	if out[0] < 0.99 || out[1] > -0.99 {
		t.Errorf("clipped samples read back as %v", out)
	}
}

func TestReadPartialBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.wav")
	writeTestFile(t, path, 16000, make([]float32, 300))

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	block := make([]float32, 256)
	n, err := r.Read(block)
	if err != nil || n != 256 {
		t.Fatalf("first read: n=%d err=%v", n, err)
	}
	n, err = r.Read(block)
	if err != nil || n != 44 {
		t.Fatalf("tail read: n=%d err=%v, want 44 samples", n, err)
	}
	if _, err := r.Read(block); err != io.EOF {
		t.Errorf("err = %v, want EOF", err)
	}
}

func TestEncodeMatchesWriter(t *testing.T) {
	dir := t.TempDir()
	samples := []float32{0, 0.25, -0.25, 0.5, -0.5, 1}

	writerPath := filepath.Join(dir, "writer.wav")
	writeTestFile(t, writerPath, 16000, samples)

	encodePath := filepath.Join(dir, "encode.wav")
	f, err := os.Create(encodePath)
	if err != nil {
		t.Fatal(err)
	}
	if err := Encode(f, 16000, samples); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	a, _ := os.ReadFile(writerPath)
	b, _ := os.ReadFile(encodePath)
	if string(a) != string(b) {
		t.Error("Encode output differs from Writer output")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not a wave file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected error for non-wave file")
	}
}

func TestOpenSkipsUnknownChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.wav")
	writeTestFile(t, path, 16000, []float32{0.1, 0.2})

	// Splice a LIST chunk between fmt and data.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var spliced []byte
	spliced = append(spliced, raw[:36]...)
	spliced = append(spliced, 'L', 'I', 'S', 'T', 4, 0, 0, 0, 'I', 'N', 'F', 'O')
	spliced = append(spliced, raw[36:]...)
	if err := os.WriteFile(path, spliced, 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	out := make([]float32, 2)
	if n, err := r.Read(out); err != nil || n != 2 {
		t.Fatalf("read after LIST chunk: n=%d err=%v", n, err)
	}
}

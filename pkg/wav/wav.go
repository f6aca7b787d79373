// Package wav reads and writes 16-bit PCM RIFF/WAVE files.
//
// It covers exactly what the detection tooling needs: writing mono
// gesture clips captured from the engine and replaying recordings
// through it. Samples cross the API as float32 in [-1, 1]; stereo
// files are downmixed to mono on read.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"
)

const headerSize = 44

// Writer writes a mono 16-bit PCM WAVE file. The header is
// back-patched with the final sizes on Close, so an unclosed file is
// not a valid WAVE file.
type Writer struct {
	f          *os.File
	sampleRate int
	dataSize   int
	buf        []byte
}

// NewWriter creates path and reserves the header.
func NewWriter(path string, sampleRate int) (*Writer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wav: sample rate must be positive, got %d", sampleRate)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav: create: %w", err)
	}
	if _, err := f.Write(make([]byte, headerSize)); err != nil {
		f.Close()
		return nil, fmt.Errorf("wav: reserve header: %w", err)
	}
	return &Writer{f: f, sampleRate: sampleRate}, nil
}

// Write appends samples, clamping to [-1, 1].
func (w *Writer) Write(samples []float32) error {
	if cap(w.buf) < len(samples)*2 {
		w.buf = make([]byte, len(samples)*2)
	}
	buf := w.buf[:len(samples)*2]
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(s*32767)))
	}
	n, err := w.f.Write(buf)
	w.dataSize += n
	if err != nil {
		return fmt.Errorf("wav: write samples: %w", err)
	}
	return nil
}

// Close patches the header and closes the file.
func (w *Writer) Close() error {
	header := make([]byte, headerSize)
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(36+w.dataSize))
	copy(header[8:], "WAVE")

	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:], 1) // mono
	binary.LittleEndian.PutUint32(header[24:], uint32(w.sampleRate))
	binary.LittleEndian.PutUint32(header[28:], uint32(w.sampleRate*2))
	binary.LittleEndian.PutUint16(header[32:], 2)
	binary.LittleEndian.PutUint16(header[34:], 16)

	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], uint32(w.dataSize))

	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		w.f.Close()
		return fmt.Errorf("wav: seek header: %w", err)
	}
	if _, err := w.f.Write(header); err != nil {
		w.f.Close()
		return fmt.Errorf("wav: write header: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("wav: close: %w", err)
	}
	return nil
}

// Encode writes a complete mono 16-bit PCM WAVE stream to w. Unlike
// Writer it needs the samples up front, which lets it emit the header
// first and skip the back-patch, so it works on non-seekable writers.
func Encode(w io.Writer, sampleRate int, samples []float32) error {
	if sampleRate <= 0 {
		return fmt.Errorf("wav: sample rate must be positive, got %d", sampleRate)
	}
	dataSize := len(samples) * 2
	buf := make([]byte, headerSize+dataSize)

	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(36+dataSize))
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1)
	binary.LittleEndian.PutUint16(buf[22:], 1)
	binary.LittleEndian.PutUint32(buf[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:], 2)
	binary.LittleEndian.PutUint16(buf[34:], 16)
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataSize))

	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(buf[headerSize+i*2:], uint16(int16(s*32767)))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("wav: encode: %w", err)
	}
	return nil
}

// Reader reads a 16-bit PCM WAVE file. Unknown chunks are skipped, so
// files with LIST or fact chunks read fine.
type Reader struct {
	f          *os.File
	sampleRate int
	channels   int
	remaining  int // bytes of sample data left
	buf        []byte
}

// Open opens path and parses the chunk headers up to the data chunk.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wav: open: %w", err)
	}
	r, err := newReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func newReader(f *os.File) (*Reader, error) {
	riff := make([]byte, 12)
	if _, err := io.ReadFull(f, riff); err != nil {
		return nil, fmt.Errorf("wav: read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("wav: not a riff/wave file")
	}

	r := &Reader{f: f}
	chunk := make([]byte, 8)
	for {
		if _, err := io.ReadFull(f, chunk); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("wav: missing fmt or data chunk")
			}
			return nil, fmt.Errorf("wav: read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])
		pad := int64(size % 2)

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("wav: fmt chunk too small (%d bytes)", size)
			}
			data := make([]byte, size)
			if _, err := io.ReadFull(f, data); err != nil {
				return nil, fmt.Errorf("wav: read fmt chunk: %w", err)
			}
			if pad > 0 {
				f.Seek(pad, io.SeekCurrent)
			}
			if format := binary.LittleEndian.Uint16(data[0:2]); format != 1 {
				return nil, fmt.Errorf("wav: unsupported audio format %d, want PCM", format)
			}
			r.channels = int(binary.LittleEndian.Uint16(data[2:4]))
			r.sampleRate = int(binary.LittleEndian.Uint32(data[4:8]))
			if bits := binary.LittleEndian.Uint16(data[14:16]); bits != 16 {
				return nil, fmt.Errorf("wav: unsupported bit depth %d, want 16", bits)
			}
			if r.channels != 1 && r.channels != 2 {
				return nil, fmt.Errorf("wav: unsupported channel count %d", r.channels)
			}
		case "data":
			if r.channels == 0 {
				return nil, fmt.Errorf("wav: data chunk before fmt chunk")
			}
			r.remaining = int(size)
			return r, nil
		default:
			if _, err := f.Seek(int64(size)+pad, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("wav: skip %q chunk: %w", id, err)
			}
		}
	}
}

// SampleRate returns the file's sample rate in Hz.
func (r *Reader) SampleRate() int { return r.sampleRate }

// Channels returns the channel count of the underlying file. Read
// always produces mono.
func (r *Reader) Channels() int { return r.channels }

// Duration returns the play time of the not-yet-read sample data, the
// whole file when called right after Open.
func (r *Reader) Duration() time.Duration {
	frames := r.remaining / (2 * r.channels)
	return time.Duration(frames) * time.Second / time.Duration(r.sampleRate)
}

// Read fills out with mono samples, averaging stereo pairs. It
// returns the number of samples produced; n < len(out) with err == nil
// only at end of data, where the next call returns io.EOF.
func (r *Reader) Read(out []float32) (int, error) {
	if r.remaining == 0 {
		return 0, io.EOF
	}
	frameBytes := 2 * r.channels
	want := len(out) * frameBytes
	if want > r.remaining {
		want = r.remaining
	}
	if cap(r.buf) < want {
		r.buf = make([]byte, want)
	}
	buf := r.buf[:want]
	n, err := io.ReadFull(r.f, buf)
	r.remaining -= n
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("wav: read samples: %w", err)
	}

	frames := n / frameBytes
	const scale = 1.0 / 32768.0
	for i := 0; i < frames; i++ {
		if r.channels == 1 {
			s := int16(binary.LittleEndian.Uint16(buf[i*2:]))
			out[i] = float32(s) * scale
		} else {
			l := int16(binary.LittleEndian.Uint16(buf[i*4:]))
			rr := int16(binary.LittleEndian.Uint16(buf[i*4+2:]))
			out[i] = (float32(l) + float32(rr)) * scale / 2
		}
	}
	return frames, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.f.Close() }

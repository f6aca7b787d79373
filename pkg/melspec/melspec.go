// Package melspec produces the fixed-size log-mel spectrogram tensor
// consumed by the CNN gesture classifier.
//
// The triangular mel filterbank is built once at construction and held
// as an immutable table. At runtime, downsampled samples accumulate in
// a rolling history capped at the classifier's excerpt length; Extract
// segments the history into overlapping Hann-windowed frames, runs the
// shared radix-2 FFT, applies the filterbank and converts the result to
// clamped dB. The output is a row-major [mel-bin, frame] matrix
// flattened to a vector; input normalization (mean/std) belongs to the
// classifier that owns the stored statistics.
package melspec

import (
	"fmt"
	"math"

	"github.com/snapsense/snapsense/pkg/buffer"
	"github.com/snapsense/snapsense/pkg/dsp"
)

const logEps = 1e-10

// Config controls log-mel extraction.
type Config struct {
	// SampleRate is the rate of the samples pushed into the history,
	// i.e. the classifier's training rate (default 16000).
	SampleRate int

	// FFTSize is the per-frame FFT length. Must be a power of two
	// (default 512).
	FFTSize int

	// Hop is the frame hop in samples (default 160).
	Hop int

	// NumMels is the number of mel filters (default 64).
	NumMels int

	// LowFreq and HighFreq bound the filterbank in Hz
	// (defaults 20 and SampleRate/2 - 400).
	LowFreq  float64
	HighFreq float64

	// ExcerptSeconds is the history length the classifier was trained
	// on (default 0.5).
	ExcerptSeconds float64

	// FloorDB and CeilDB clamp the log-mel output (defaults -80, 0).
	FloorDB float64
	CeilDB  float64
}

// DefaultConfig returns the config matching the shipped CNN models.
func DefaultConfig() Config {
	return Config{
		SampleRate:     16000,
		FFTSize:        512,
		Hop:            160,
		NumMels:        64,
		LowFreq:        20,
		HighFreq:       7600,
		ExcerptSeconds: 0.5,
		FloorDB:        -80,
		CeilDB:         0,
	}
}

// Extractor maintains the rolling history and computes log-mel tensors.
// Not safe for concurrent use; owned by the engine tick loop.
type Extractor struct {
	cfg     Config
	melBank [][]float64
	window  []float64

	history *buffer.Ring[float32]
	excerpt []float32 // history snapshot scratch

	re, im []float64 // FFT scratch
	power  []float64
	out    []float32
}

// New creates an Extractor. Configuration errors are fatal: the engine
// must refuse to start rather than produce undefined tensors.
func New(cfg Config) (*Extractor, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("melspec: sample rate must be positive, got %d", cfg.SampleRate)
	}
	if !dsp.IsPowerOfTwo(cfg.FFTSize) {
		return nil, fmt.Errorf("melspec: fft size must be a power of two, got %d", cfg.FFTSize)
	}
	if cfg.Hop <= 0 {
		return nil, fmt.Errorf("melspec: hop must be positive, got %d", cfg.Hop)
	}
	if cfg.NumMels <= 0 {
		return nil, fmt.Errorf("melspec: num mels must be positive, got %d", cfg.NumMels)
	}
	if cfg.HighFreq <= cfg.LowFreq {
		return nil, fmt.Errorf("melspec: high freq %g must exceed low freq %g", cfg.HighFreq, cfg.LowFreq)
	}
	if cfg.CeilDB <= cfg.FloorDB {
		return nil, fmt.Errorf("melspec: ceil dB %g must exceed floor dB %g", cfg.CeilDB, cfg.FloorDB)
	}

	excerptLen := int(cfg.ExcerptSeconds * float64(cfg.SampleRate))
	if excerptLen < cfg.FFTSize {
		return nil, fmt.Errorf("melspec: excerpt %d samples shorter than one frame (%d)", excerptLen, cfg.FFTSize)
	}

	e := &Extractor{
		cfg:     cfg,
		melBank: melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq),
		window:  dsp.HannWindow(cfg.FFTSize),
		history: buffer.NewRing[float32](excerptLen),
		excerpt: make([]float32, excerptLen),
		re:      make([]float64, cfg.FFTSize),
		im:      make([]float64, cfg.FFTSize),
		power:   make([]float64, cfg.FFTSize/2+1),
	}
	e.out = make([]float32, cfg.NumMels*e.Frames())
	return e, nil
}

// Frames returns the number of frames in one full excerpt.
func (e *Extractor) Frames() int {
	return (e.history.Cap()-e.cfg.FFTSize)/e.cfg.Hop + 1
}

// Size returns the length of the flattened tensor (NumMels * Frames).
func (e *Extractor) Size() int { return e.cfg.NumMels * e.Frames() }

// Push appends downsampled samples to the rolling history, dropping
// the oldest once the excerpt length is reached.
func (e *Extractor) Push(samples []float32) {
	e.history.Append(samples...)
}

// Ready reports whether a full excerpt has accumulated.
func (e *Extractor) Ready() bool { return e.history.Full() }

// Reset discards the accumulated history.
func (e *Extractor) Reset() { e.history.Reset() }

// Extract computes the flattened row-major [mel-bin, frame] log-mel
// tensor over the current history. The returned slice aliases internal
// scratch and is only valid until the next Extract call.
//
// Returns nil while the history is still filling; that is the normal
// warm-up condition, not an error.
func (e *Extractor) Extract() []float32 {
	if !e.history.Full() {
		return nil
	}
	e.history.CopyTo(e.excerpt)

	cfg := e.cfg
	frames := e.Frames()
	half := cfg.FFTSize/2 + 1

	for t := 0; t < frames; t++ {
		start := t * cfg.Hop
		for i := 0; i < cfg.FFTSize; i++ {
			e.re[i] = float64(e.excerpt[start+i]) * e.window[i]
			e.im[i] = 0
		}
		dsp.FFT(e.re, e.im)

		for k := 0; k < half; k++ {
			e.power[k] = e.re[k]*e.re[k] + e.im[k]*e.im[k]
		}

		for m := 0; m < cfg.NumMels; m++ {
			sum := 0.0
			for k, w := range e.melBank[m] {
				if w != 0 {
					sum += w * e.power[k]
				}
			}
			db := 10 * math.Log10(sum+logEps)
			if db < cfg.FloorDB {
				db = cfg.FloorDB
			} else if db > cfg.CeilDB {
				db = cfg.CeilDB
			}
			// Row-major [mel, frame]: mel index selects the row.
			e.out[m*frames+t] = float32(db)
		}
	}
	return e.out
}

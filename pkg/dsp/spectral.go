// Package dsp provides the spectral front-end for gesture detection:
// a Hann-windowed radix-2 FFT and per-block band features.
//
// The Analyzer owns its FFT scratch buffers, sized once at construction.
// A single Analyze call windows the block, runs the FFT in place and
// reduces the magnitude spectrum to the band features the noise gate
// and the classifiers consume. Nothing is cached across blocks.
package dsp

import (
	"fmt"
	"math"
)

// eps guards every ratio and centroid denominator so that silent or
// DC-only blocks produce zeros instead of NaN.
const eps = 1e-12

// Config controls the spectral analyzer.
type Config struct {
	// SampleRate is the capture sample rate in Hz (e.g. 48000).
	SampleRate int `yaml:"sample_rate"`

	// BlockSize is the audio block length in samples. Must be a
	// power of two (e.g. 512, 1024).
	BlockSize int `yaml:"block_size"`

	// LowBandHz is the [min, max] frequency range of the low band.
	// Default [0, 600].
	LowBandHz [2]float64 `yaml:"low_band_hz"`

	// HighBandHz is the [min, max] frequency range of the high band.
	// Default [1000, 8000].
	HighBandHz [2]float64 `yaml:"high_band_hz"`
}

// DefaultConfig returns the analyzer config used by the shipped models:
// 48kHz capture, 1024-sample blocks, low band 0-600Hz, high band 1-8kHz.
func DefaultConfig() Config {
	return Config{
		SampleRate: 48000,
		BlockSize:  1024,
		LowBandHz:  [2]float64{0, 600},
		HighBandHz: [2]float64{1000, 8000},
	}
}

// Features holds the spectral features of one audio block.
//
// HighMags aliases the analyzer's scratch buffer and is only valid
// until the next Analyze call.
type Features struct {
	// RMS is the time-domain RMS of the raw block.
	RMS float64

	// LowEnergy is the sum of squared magnitudes over the low band.
	LowEnergy float64

	// HighMags holds per-bin magnitudes over the high band.
	HighMags []float64

	// HighEnergy is the sum of squared magnitudes over the high band.
	HighEnergy float64

	// HighRMS is sqrt(HighEnergy / number of high-band bins).
	HighRMS float64

	// Centroid is the magnitude-weighted mean absolute bin index
	// restricted to the high band. Zero for a silent block.
	Centroid float64

	// Flatness is the geometric-to-arithmetic mean ratio of the
	// high-band power spectrum, in [0, 1]. Near 1 for white noise,
	// near 0 for a pure tone.
	Flatness float64
}

// LogBandRatio returns log10 of the high/low band energy ratio.
// Both terms are epsilon-guarded so silence yields log10(1) = 0.
func (f Features) LogBandRatio() float64 {
	return math.Log10((f.HighEnergy + eps) / (f.LowEnergy + eps))
}

// Analyzer computes Features from fixed-size audio blocks.
// It is not safe for concurrent use; the engine tick loop is the
// only caller.
type Analyzer struct {
	cfg    Config
	window []float64

	// FFT scratch, reused across blocks.
	re, im []float64

	lowLo, lowHi   int // low band bin range, inclusive
	highLo, highHi int // high band bin range, inclusive

	highMags []float64
}

// NewAnalyzer creates an Analyzer for the given config.
// Returns an error if the block size is not a power of two or a band
// maps to an empty bin range.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("dsp: sample rate must be positive, got %d", cfg.SampleRate)
	}
	if !IsPowerOfTwo(cfg.BlockSize) {
		return nil, fmt.Errorf("dsp: block size must be a power of two, got %d", cfg.BlockSize)
	}

	a := &Analyzer{
		cfg:    cfg,
		window: HannWindow(cfg.BlockSize),
		re:     make([]float64, cfg.BlockSize),
		im:     make([]float64, cfg.BlockSize),
	}

	half := cfg.BlockSize / 2
	binHz := float64(cfg.SampleRate) / float64(cfg.BlockSize)
	clampBin := func(hz float64) int {
		b := int(hz / binHz)
		if b < 0 {
			b = 0
		}
		if b > half {
			b = half
		}
		return b
	}

	a.lowLo = clampBin(cfg.LowBandHz[0])
	a.lowHi = clampBin(cfg.LowBandHz[1])
	a.highLo = clampBin(cfg.HighBandHz[0])
	a.highHi = clampBin(cfg.HighBandHz[1])

	if a.lowHi < a.lowLo {
		return nil, fmt.Errorf("dsp: low band %v maps to empty bin range", cfg.LowBandHz)
	}
	if a.highHi <= a.highLo {
		return nil, fmt.Errorf("dsp: high band %v maps to empty bin range", cfg.HighBandHz)
	}

	a.highMags = make([]float64, a.highHi-a.highLo+1)
	return a, nil
}

// BlockSize returns the expected block length in samples.
func (a *Analyzer) BlockSize() int { return a.cfg.BlockSize }

// HighBandBins returns the inclusive [lo, hi] bin range of the high band.
func (a *Analyzer) HighBandBins() (lo, hi int) { return a.highLo, a.highHi }

// BinHz returns the width of one FFT bin in Hz.
func (a *Analyzer) BinHz() float64 {
	return float64(a.cfg.SampleRate) / float64(a.cfg.BlockSize)
}

// Analyze computes the spectral features of one block.
// block must be exactly BlockSize samples in [-1, 1].
func (a *Analyzer) Analyze(block []float32) (Features, error) {
	n := a.cfg.BlockSize
	if len(block) != n {
		return Features{}, fmt.Errorf("dsp: block length %d, want %d", len(block), n)
	}

	var sumSq float64
	for i, s := range block {
		v := float64(s)
		sumSq += v * v
		a.re[i] = v * a.window[i]
		a.im[i] = 0
	}
	FFT(a.re, a.im)

	f := Features{
		RMS:      math.Sqrt(sumSq / float64(n)),
		HighMags: a.highMags,
	}

	for k := a.lowLo; k <= a.lowHi; k++ {
		f.LowEnergy += a.re[k]*a.re[k] + a.im[k]*a.im[k]
	}

	var magSum, weighted float64
	var logPowSum, powSum float64
	nHigh := a.highHi - a.highLo + 1
	for k := a.highLo; k <= a.highHi; k++ {
		pow := a.re[k]*a.re[k] + a.im[k]*a.im[k]
		mag := math.Sqrt(pow)
		a.highMags[k-a.highLo] = mag

		f.HighEnergy += pow
		magSum += mag
		weighted += float64(k) * mag
		logPowSum += math.Log(pow + eps)
		powSum += pow
	}

	f.HighRMS = math.Sqrt(f.HighEnergy / float64(nHigh))
	f.Centroid = weighted / (magSum + eps)
	f.Flatness = math.Exp(logPowSum/float64(nHigh)) / (powSum/float64(nHigh) + eps)
	if f.Flatness > 1 {
		f.Flatness = 1
	}

	return f, nil
}

// Package resample converts mono audio between sample rates.
//
// The engine captures at the device rate (typically 48kHz) while the
// CNN models are trained at 16kHz; a Downsampler sits between the tick
// loop and the mel history. Resampling is streaming and stateful, so
// one Downsampler belongs to one engine instance.
package resample

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Downsampler converts mono float32 sample blocks from one rate to
// another. Not safe for concurrent use.
type Downsampler struct {
	srcRate, dstRate int
	rs               resampling.Resampler

	in  []float64
	out []float32
}

// New creates a Downsampler from srcRate to dstRate Hz.
// Equal rates yield a pass-through.
func New(srcRate, dstRate int) (*Downsampler, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resample: rates must be positive, got %d -> %d", srcRate, dstRate)
	}
	d := &Downsampler{srcRate: srcRate, dstRate: dstRate}
	if srcRate != dstRate {
		rs, err := resampling.New(&resampling.Config{
			InputRate:  float64(srcRate),
			OutputRate: float64(dstRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("resample: %w", err)
		}
		d.rs = rs
	}
	return d, nil
}

// Process converts one block of samples in [-1, 1]. The returned slice
// aliases internal scratch and is only valid until the next call. A
// streaming resampler may return fewer (or zero) samples than the
// rate ratio suggests while its filter fills.
func (d *Downsampler) Process(block []float32) ([]float32, error) {
	if d.rs == nil {
		return block, nil
	}

	if cap(d.in) < len(block) {
		d.in = make([]float64, len(block))
	}
	d.in = d.in[:len(block)]
	for i, s := range block {
		d.in[i] = float64(s)
	}

	out, err := d.rs.Process(d.in)
	if err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}

	if cap(d.out) < len(out) {
		d.out = make([]float32, len(out))
	}
	d.out = d.out[:len(out)]
	for i, s := range out {
		d.out[i] = float32(s)
	}
	return d.out, nil
}

package gesture

import (
	"fmt"

	"github.com/snapsense/snapsense/pkg/dsp"
)

// GateConfig tunes the adaptive noise gate.
//
// The ratio gate uses the log10 convention throughout: a block passes
// when log10(high/low energy) meets RatioThreshold. Thresholds trained
// against a linear ratio must be converted before deployment.
type GateConfig struct {
	// FloorSmoothing is the noise-floor EMA factor, close to 1 so the
	// floor tracks slowly (default 0.975).
	FloorSmoothing float64 `yaml:"floor_smoothing"`

	// RMSMultiplier rejects blocks whose high-band RMS falls below
	// floor * RMSMultiplier (default 2.5).
	RMSMultiplier float64 `yaml:"rms_multiplier"`

	// MaxRMS rejects saturated blocks above this high-band RMS.
	// Zero disables the upper gate.
	MaxRMS float64 `yaml:"max_rms,omitempty"`

	// RatioThreshold is the minimum log10 high/low energy ratio
	// (default 0.3, i.e. high band twice the low band).
	RatioThreshold float64 `yaml:"ratio_threshold"`

	// CentroidMin and CentroidMax bound the acceptable spectral
	// centroid, in absolute bin indices.
	CentroidMin float64 `yaml:"centroid_min"`
	CentroidMax float64 `yaml:"centroid_max"`
}

// DefaultGateConfig returns gate settings tuned for 48kHz/1024 blocks.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		FloorSmoothing: 0.975,
		RMSMultiplier:  2.5,
		MaxRMS:         0.35,
		RatioThreshold: 0.3,
		CentroidMin:    40,
		CentroidMax:    160,
	}
}

func (c GateConfig) validate() error {
	if c.FloorSmoothing <= 0 || c.FloorSmoothing >= 1 {
		return fmt.Errorf("gesture: gate floor_smoothing %g must be in (0, 1)", c.FloorSmoothing)
	}
	if c.RMSMultiplier <= 0 {
		return fmt.Errorf("gesture: gate rms_multiplier %g must be positive", c.RMSMultiplier)
	}
	if c.CentroidMax <= c.CentroidMin {
		return fmt.Errorf("gesture: gate centroid range [%g, %g] is empty", c.CentroidMin, c.CentroidMax)
	}
	return nil
}

// Verdict is the gate decision for one block.
type Verdict int

const (
	// Pass marks a candidate gesture block.
	Pass Verdict = iota
	// RejectQuiet means the high-band RMS fell below the adaptive floor.
	RejectQuiet
	// RejectLoud means the block exceeded the saturation bound.
	RejectLoud
	// RejectRatio means the high/low band ratio was too low (atonal).
	RejectRatio
	// RejectCentroid means the spectral centroid fell outside the band.
	RejectCentroid
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case RejectQuiet:
		return "quiet"
	case RejectLoud:
		return "loud"
	case RejectRatio:
		return "ratio"
	case RejectCentroid:
		return "centroid"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Passed reports whether the verdict is Pass.
func (v Verdict) Passed() bool { return v == Pass }

// NoiseGate cheaply rejects non-gesture blocks before classification.
// It tracks the ambient high-band RMS as an exponentially smoothed
// noise floor; the floor updates on every block, pass or fail, which
// is what lets it adapt to a changing noise level.
type NoiseGate struct {
	cfg   GateConfig
	floor float64
	init  bool
}

// NewNoiseGate creates a gate with the given config.
func NewNoiseGate(cfg GateConfig) (*NoiseGate, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &NoiseGate{cfg: cfg}, nil
}

// Floor returns the current noise-floor estimate (high-band RMS).
func (g *NoiseGate) Floor() float64 { return g.floor }

// Check updates the noise floor from the block's high-band RMS and
// returns the gate verdict. Checks short-circuit on first failure;
// the floor update is unconditional.
func (g *NoiseGate) Check(f dsp.Features) Verdict {
	rms := f.HighRMS
	if !g.init {
		g.floor = rms
		g.init = true
	} else {
		s := g.cfg.FloorSmoothing
		g.floor = g.floor*s + rms*(1-s)
	}

	if rms < g.floor*g.cfg.RMSMultiplier {
		return RejectQuiet
	}
	if g.cfg.MaxRMS > 0 && rms > g.cfg.MaxRMS {
		return RejectLoud
	}
	if f.LogBandRatio() < g.cfg.RatioThreshold {
		return RejectRatio
	}
	if f.Centroid < g.cfg.CentroidMin || f.Centroid > g.cfg.CentroidMax {
		return RejectCentroid
	}
	return Pass
}

// Reset clears the floor estimate; the next block re-initializes it.
func (g *NoiseGate) Reset() {
	g.floor = 0
	g.init = false
}

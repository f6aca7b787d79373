package gesture

import (
	"math"
	"testing"

	"github.com/snapsense/snapsense/pkg/dsp"
)

func testGateConfig() GateConfig {
	return GateConfig{
		FloorSmoothing: 0.9,
		RMSMultiplier:  2.0,
		MaxRMS:         0.5,
		RatioThreshold: 0.3,
		CentroidMin:    40,
		CentroidMax:    160,
	}
}

// features builds a Features value with the given high-band RMS and
// derived energy, a strong band ratio and an in-range centroid, so
// individual gates can be failed one at a time.
func features(highRMS float64) dsp.Features {
	const bins = 100
	return dsp.Features{
		RMS:        highRMS,
		HighRMS:    highRMS,
		HighEnergy: highRMS * highRMS * bins,
		LowEnergy:  highRMS * highRMS * bins / 100, // ratio 100 -> log10 = 2
		Centroid:   90,
	}
}

func TestGateRejectsSilence(t *testing.T) {
	g, err := NewNoiseGate(testGateConfig())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		if v := g.Check(dsp.Features{}); v.Passed() {
			t.Fatalf("silent block %d passed the gate", i)
		}
	}
}

func TestGateQuietBelowFloor(t *testing.T) {
	g, _ := NewNoiseGate(testGateConfig())

	// Establish a floor around 0.1.
	for i := 0; i < 200; i++ {
		g.Check(features(0.1))
	}

	// A block below floor*multiplier is vetoed before the other
	// checks run.
	if v := g.Check(features(0.12)); v != RejectQuiet {
		t.Errorf("verdict = %v, want quiet", v)
	}
	// A block well above it passes.
	if v := g.Check(features(0.4)); v != Pass {
		t.Errorf("verdict = %v, want pass", v)
	}
}

func TestGateUpperBound(t *testing.T) {
	g, _ := NewNoiseGate(testGateConfig())
	g.Check(features(0.05)) // init floor
	if v := g.Check(features(0.9)); v != RejectLoud {
		t.Errorf("saturated block verdict = %v, want loud", v)
	}
}

func TestGateRatio(t *testing.T) {
	g, _ := NewNoiseGate(testGateConfig())
	g.Check(features(0.01)) // init floor low

	f := features(0.3)
	f.LowEnergy = f.HighEnergy // log ratio 0 < 0.3
	if v := g.Check(f); v != RejectRatio {
		t.Errorf("atonal block verdict = %v, want ratio", v)
	}
}

func TestGateCentroid(t *testing.T) {
	g, _ := NewNoiseGate(testGateConfig())
	g.Check(features(0.01))

	f := features(0.3)
	f.Centroid = 500
	if v := g.Check(f); v != RejectCentroid {
		t.Errorf("out-of-band centroid verdict = %v, want centroid", v)
	}
	f.Centroid = 10
	if v := g.Check(f); v != RejectCentroid {
		t.Errorf("low centroid verdict = %v, want centroid", v)
	}
}

func TestFloorConverges(t *testing.T) {
	g, _ := NewNoiseGate(testGateConfig())

	const rms = 0.07
	g.Check(features(0.01)) // init well below the target level
	for i := 0; i < 500; i++ {
		g.Check(features(rms))
	}
	before := g.Floor()
	if math.Abs(before-rms) > 1e-6 {
		t.Fatalf("floor %g did not converge to %g", before, rms)
	}

	// Once converged, identical input moves the floor by less than a
	// small epsilon.
	g.Check(features(rms))
	if math.Abs(g.Floor()-before) > 1e-9 {
		t.Errorf("converged floor moved from %g to %g", before, g.Floor())
	}
}

func TestFloorAdaptsOnRejectedBlocks(t *testing.T) {
	g, _ := NewNoiseGate(testGateConfig())
	g.Check(features(0.01))
	start := g.Floor()

	// Blocks that fail the centroid gate must still raise the floor.
	f := features(0.2)
	f.Centroid = 500
	for i := 0; i < 100; i++ {
		if v := g.Check(f); v.Passed() {
			t.Fatal("expected centroid rejection")
		}
	}
	if g.Floor() <= start {
		t.Errorf("floor %g did not adapt on rejected blocks (start %g)", g.Floor(), start)
	}
}

func TestGateConfigValidation(t *testing.T) {
	cfg := testGateConfig()
	cfg.FloorSmoothing = 1.0
	if _, err := NewNoiseGate(cfg); err == nil {
		t.Error("expected error for smoothing = 1")
	}

	cfg = testGateConfig()
	cfg.CentroidMax = cfg.CentroidMin
	if _, err := NewNoiseGate(cfg); err == nil {
		t.Error("expected error for empty centroid range")
	}
}

package hand

import (
	"math"
	"testing"
)

// posAt builds a pose with the thumb at distance d from the middle tip
// and everything else fixed.
func poseAt(d float64) Pose {
	var p Pose
	p.Palm = Vec3{0, 0.05, 0}
	p.Tips[ThumbTip] = Vec3{d, 0, 0}
	p.Tips[MiddleTip] = Vec3{0, 0, 0}
	p.Tips[IndexTip] = Vec3{0.02, 0.08, 0}
	p.Tips[RingTip] = Vec3{-0.02, 0.07, 0}
	p.Tips[PinkyTip] = Vec3{-0.04, 0.06, 0}
	return p
}

func TestWindowNotReadyWhileFilling(t *testing.T) {
	w := NewWindow(1.0/60, WithWindowSize(5))
	for i := 0; i < 4; i++ {
		w.Push(poseAt(0.05))
		if _, ok := w.Feature(); ok {
			t.Fatalf("ready after %d frames, window size 5", i+1)
		}
	}
	w.Push(poseAt(0.05))
	if _, ok := w.Feature(); !ok {
		t.Fatal("not ready after window filled")
	}
}

func TestWindowSummaryStats(t *testing.T) {
	const dt = 0.01
	w := NewWindow(dt, WithWindowSize(3))

	// Pinch closing: 0.06 -> 0.04 -> 0.02.
	w.Push(poseAt(0.06))
	w.Push(poseAt(0.04))
	w.Push(poseAt(0.02))

	feat, ok := w.Feature()
	if !ok {
		t.Fatal("window should be ready")
	}
	if len(feat) != FeatureDim {
		t.Fatalf("feature dim %d, want %d", len(feat), FeatureDim)
	}

	if got := float64(feat[0]); math.Abs(got-0.02) > 1e-6 {
		t.Errorf("min dist = %g, want 0.02", got)
	}
	if got := float64(feat[1]); math.Abs(got-0.04) > 1e-6 {
		t.Errorf("mean dist = %g, want 0.04", got)
	}
	// Each step closes 0.02 over dt=0.01 → speed 2.0.
	if got := float64(feat[2]); math.Abs(got-2.0) > 1e-6 {
		t.Errorf("max speed = %g, want 2.0", got)
	}

	// Thumb displacement oldest→newest is -0.04 in X.
	if got := float64(feat[6]); math.Abs(got-(-0.04)) > 1e-6 {
		t.Errorf("thumb dx = %g, want -0.04", got)
	}
	// Middle tip did not move.
	mid := 6 + MiddleTip*3
	if feat[mid] != 0 || feat[mid+1] != 0 || feat[mid+2] != 0 {
		t.Errorf("middle delta = (%g,%g,%g), want zero", feat[mid], feat[mid+1], feat[mid+2])
	}
}

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(0.01, WithWindowSize(3))
	w.Push(poseAt(0.10)) // will be evicted
	w.Push(poseAt(0.06))
	w.Push(poseAt(0.04))
	w.Push(poseAt(0.02))

	feat, ok := w.Feature()
	if !ok {
		t.Fatal("window should be ready")
	}
	// 0.10 must be gone: mean over {0.06, 0.04, 0.02} = 0.04.
	if got := float64(feat[1]); math.Abs(got-0.04) > 1e-6 {
		t.Errorf("mean dist = %g, want 0.04 after eviction", got)
	}
}

func TestWindowReset(t *testing.T) {
	w := NewWindow(0.01, WithWindowSize(2))
	w.Push(poseAt(0.05))
	w.Push(poseAt(0.05))
	w.Reset()
	if _, ok := w.Feature(); ok {
		t.Fatal("ready after reset")
	}
	// First frame after reset has no predecessor; speed must be 0.
	w.Push(poseAt(0.01))
	w.Push(poseAt(0.01))
	feat, _ := w.Feature()
	if feat[2] != 0 {
		t.Errorf("max speed after reset = %g, want 0", feat[2])
	}
}

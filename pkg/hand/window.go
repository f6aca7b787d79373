package hand

import (
	"math"

	"github.com/snapsense/snapsense/pkg/buffer"
)

// DefaultWindowSize is the number of consecutive frames summarized per
// feature vector.
const DefaultWindowSize = 11

// FeatureDim is the length of the kinematic feature vector:
// six summary statistics plus an (x, y, z) displacement per fingertip.
const FeatureDim = 6 + 3*NumTips

// frame holds the per-tick metrics derived from one Pose.
type frame struct {
	dist     float64 // thumb tip to middle tip distance
	speed    float64 // inter-frame rate of change of dist
	palmDist float64 // middle tip to palm distance
	tips     [NumTips]Vec3 // fingertip positions relative to the wrist
}

// Window is a strict FIFO of per-tick kinematic frames with fixed
// capacity. Pushing past capacity evicts the oldest frame. Owned by
// the engine tick loop; not safe for concurrent use.
type Window struct {
	frames *buffer.Ring[frame]
	dt     float64

	prev    frame
	hasPrev bool

	feat []float32
}

// WindowOption configures a Window.
type WindowOption func(*Window)

// WithWindowSize sets the window length in frames (default 11).
func WithWindowSize(n int) WindowOption {
	return func(w *Window) {
		if n > 1 {
			w.frames = buffer.NewRing[frame](n)
		}
	}
}

// NewWindow creates a Window. tickSeconds is the expected interval
// between poses, used to scale finite-difference speeds.
func NewWindow(tickSeconds float64, opts ...WindowOption) *Window {
	if tickSeconds <= 0 {
		tickSeconds = 1.0 / 60.0
	}
	w := &Window{
		frames: buffer.NewRing[frame](DefaultWindowSize),
		dt:     tickSeconds,
		feat:   make([]float32, FeatureDim),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Push adds one pose sample to the window.
func (w *Window) Push(p Pose) {
	f := frame{
		dist:     p.Tips[ThumbTip].Dist(p.Tips[MiddleTip]),
		palmDist: p.Tips[MiddleTip].Dist(p.Palm),
	}
	for i, tip := range p.Tips {
		f.tips[i] = tip.Sub(p.Wrist)
	}
	if w.hasPrev {
		f.speed = math.Abs(f.dist-w.prev.dist) / w.dt
	}
	w.prev = f
	w.hasPrev = true
	w.frames.Push(f)
}

// Ready reports whether the window has reached its required length.
func (w *Window) Ready() bool { return w.frames.Full() }

// Feature returns the kinematic feature vector over the current window:
// min and mean pinch distance, max and mean pinch speed, min and mean
// palm distance, then per-fingertip displacement between the oldest and
// newest frame. The second result is false while the window is still
// filling, a normal warm-up condition rather than an error.
//
// The returned slice aliases internal scratch and is only valid until
// the next Feature call.
func (w *Window) Feature() ([]float32, bool) {
	if !w.frames.Full() {
		return nil, false
	}
	n := w.frames.Len()

	minDist, meanDist := math.Inf(1), 0.0
	maxSpeed, meanSpeed := 0.0, 0.0
	minPalm, meanPalm := math.Inf(1), 0.0

	for i := 0; i < n; i++ {
		f := w.frames.At(i)
		minDist = math.Min(minDist, f.dist)
		meanDist += f.dist
		maxSpeed = math.Max(maxSpeed, f.speed)
		meanSpeed += f.speed
		minPalm = math.Min(minPalm, f.palmDist)
		meanPalm += f.palmDist
	}
	fn := float64(n)

	w.feat[0] = float32(minDist)
	w.feat[1] = float32(meanDist / fn)
	w.feat[2] = float32(maxSpeed)
	w.feat[3] = float32(meanSpeed / fn)
	w.feat[4] = float32(minPalm)
	w.feat[5] = float32(meanPalm / fn)

	oldest, newest := w.frames.At(0), w.frames.At(n-1)
	for i := 0; i < NumTips; i++ {
		d := newest.tips[i].Sub(oldest.tips[i])
		w.feat[6+i*3+0] = float32(d.X)
		w.feat[6+i*3+1] = float32(d.Y)
		w.feat[6+i*3+2] = float32(d.Z)
	}
	return w.feat, true
}

// Reset clears the window, e.g. when the hand loses tracking.
func (w *Window) Reset() {
	w.frames.Reset()
	w.hasPrev = false
}

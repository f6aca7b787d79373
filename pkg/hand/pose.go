// Package hand provides hand-pose types and the sliding-window
// kinematic feature extractor for pose-based gestures.
//
// Joint naming follows the MediaPipe hand-landmark convention; the
// tracking subsystem that produces poses is an external collaborator.
package hand

import "math"

// Vec3 is a 3D position in meters, in the tracking space.
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Dist returns the Euclidean distance between v and o.
func (v Vec3) Dist(o Vec3) float64 {
	d := v.Sub(o)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// Fingertip indices into Pose.Tips.
const (
	ThumbTip = iota
	IndexTip
	MiddleTip
	RingTip
	PinkyTip
	NumTips
)

// Pose is one tracked hand sample for a single tick.
type Pose struct {
	Wrist Vec3
	Palm  Vec3
	Tips  [NumTips]Vec3
}

// TipNames maps fingertip indices to display names.
var TipNames = [NumTips]string{"thumb", "index", "middle", "ring", "pinky"}

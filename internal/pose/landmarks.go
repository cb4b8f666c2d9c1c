// Package pose defines the landmark frame model produced by an external pose
// estimator and the per-frame heuristics that read it: the foot landmark gate
// and the facing-direction estimator.
package pose

// LandmarkIndex identifies a body landmark within a Frame. The indices follow
// the 33-point full-body scheme emitted by common pose estimators; the engine
// only reads the shoulder, hip, knee, ankle, heel and foot-tip points.
type LandmarkIndex int

const (
	Nose          LandmarkIndex = 0
	LeftShoulder  LandmarkIndex = 11
	RightShoulder LandmarkIndex = 12
	LeftHip       LandmarkIndex = 23
	RightHip      LandmarkIndex = 24
	LeftKnee      LandmarkIndex = 25
	RightKnee     LandmarkIndex = 26
	LeftAnkle     LandmarkIndex = 27
	RightAnkle    LandmarkIndex = 28
	LeftHeel      LandmarkIndex = 29
	RightHeel     LandmarkIndex = 30
	LeftFootTip   LandmarkIndex = 31
	RightFootTip  LandmarkIndex = 32
)

// LandmarkCount is the expected length of a full landmark set.
const LandmarkCount = 33

// Side identifies a foot / body side.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// Landmark is a single body point in normalized image coordinates. X and Y
// are in [0,1] with Y growing downward; Visibility is the estimator's
// confidence in [0,1].
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Frame is one per-tick landmark observation. TimestampMs carries the capture
// timestamp (video position or wall clock, milliseconds); PixelHeight is the
// source frame height used to scale normalized coordinates into pixels.
// Frames are immutable once constructed and are not retained by the engine
// beyond the current ProcessFrame call.
type Frame struct {
	TimestampMs float64    `json:"timestamp_ms"`
	PixelHeight float64    `json:"pixel_height"`
	Landmarks   []Landmark `json:"landmarks"`
}

// At returns the landmark at the given index and whether it exists. A short
// landmark slice (partial detection) reports missing rather than panicking.
func (f *Frame) At(i LandmarkIndex) (Landmark, bool) {
	if f == nil || i < 0 || int(i) >= len(f.Landmarks) {
		return Landmark{}, false
	}
	return f.Landmarks[int(i)], true
}

// VisibleAt returns the landmark at the given index if it exists and its
// visibility meets the threshold. Missing and low-visibility are both
// reported as not visible; callers that need to distinguish use At.
func (f *Frame) VisibleAt(i LandmarkIndex, threshold float64) (Landmark, bool) {
	lm, ok := f.At(i)
	if !ok || lm.Visibility < threshold {
		return Landmark{}, false
	}
	return lm, true
}

// ankleIndex returns the ankle landmark index for the side.
func ankleIndex(side Side) LandmarkIndex {
	if side == SideLeft {
		return LeftAnkle
	}
	return RightAnkle
}

// heelIndex returns the heel landmark index for the side.
func heelIndex(side Side) LandmarkIndex {
	if side == SideLeft {
		return LeftHeel
	}
	return RightHeel
}

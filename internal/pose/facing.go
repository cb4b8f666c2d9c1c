package pose

// Facing is the estimated facing direction of the runner.
type Facing string

const (
	FacingLeft    Facing = "left"
	FacingRight   Facing = "right"
	FacingUnknown Facing = "unknown"
)

// FacingMargin is the minimum visibility-sum difference between the two body
// sides before a direction is reported. Below it the view is treated as
// ambiguous (near head-on).
const FacingMargin = 0.35

// Landmark sets compared by EstimateFacing. Hips-to-feet plus shoulder, the
// region the engine requires in view anyway.
var (
	leftSideLandmarks  = []LandmarkIndex{LeftShoulder, LeftHip, LeftKnee, LeftAnkle}
	rightSideLandmarks = []LandmarkIndex{RightShoulder, RightHip, RightKnee, RightAnkle}
)

// EstimateFacing compares aggregate landmark visibility of the two body sides
// for a single frame. In a side view the side nearer the camera is the more
// visible one, so the runner faces toward the side with lower visibility.
// Pure function of one frame; no memory across frames.
func EstimateFacing(f *Frame) Facing {
	leftSum := visibilitySum(f, leftSideLandmarks)
	rightSum := visibilitySum(f, rightSideLandmarks)

	diff := leftSum - rightSum
	if diff < 0 {
		diff = -diff
	}
	if diff < FacingMargin {
		return FacingUnknown
	}

	if leftSum > rightSum {
		return FacingRight
	}
	return FacingLeft
}

func visibilitySum(f *Frame, set []LandmarkIndex) float64 {
	var sum float64
	for _, i := range set {
		if lm, ok := f.At(i); ok {
			sum += lm.Visibility
		}
	}
	return sum
}

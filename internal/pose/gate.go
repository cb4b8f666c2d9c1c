package pose

// FootObservation is the gated per-foot result for one frame. OK is true only
// when both the ankle and heel landmarks exist with sufficient visibility; Y
// is then the midpoint of their vertical positions in pixels (larger = lower
// in the image).
type FootObservation struct {
	OK bool
	Y  float64
}

// ObserveFoot applies the landmark gate for one side of the body. Missing or
// low-visibility landmarks yield OK=false; there is no error path.
func ObserveFoot(f *Frame, side Side, threshold float64) FootObservation {
	ankle, ok := f.VisibleAt(ankleIndex(side), threshold)
	if !ok {
		return FootObservation{}
	}
	heel, ok := f.VisibleAt(heelIndex(side), threshold)
	if !ok {
		return FootObservation{}
	}

	y := (ankle.Y + heel.Y) / 2 * f.PixelHeight
	return FootObservation{OK: true, Y: y}
}

// HeelY returns the heel vertical position in pixels for the side, gated by
// the visibility threshold. Used by the ground calibrator, which only needs
// the heel point.
func HeelY(f *Frame, side Side, threshold float64) (float64, bool) {
	heel, ok := f.VisibleAt(heelIndex(side), threshold)
	if !ok {
		return 0, false
	}
	return heel.Y * f.PixelHeight, true
}

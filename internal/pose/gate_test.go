package pose

import (
	"math"
	"testing"
)

// frameWith builds a full-length frame with the given landmarks set and all
// others zeroed (visibility 0).
func frameWith(pixelHeight float64, points map[LandmarkIndex]Landmark) *Frame {
	f := &Frame{
		PixelHeight: pixelHeight,
		Landmarks:   make([]Landmark, LandmarkCount),
	}
	for i, lm := range points {
		f.Landmarks[int(i)] = lm
	}
	return f
}

func TestObserveFootMidpoint(t *testing.T) {
	f := frameWith(1000, map[LandmarkIndex]Landmark{
		RightAnkle: {X: 0.4, Y: 0.90, Visibility: 0.9},
		RightHeel:  {X: 0.4, Y: 0.94, Visibility: 0.8},
	})

	obs := ObserveFoot(f, SideRight, 0.55)
	if !obs.OK {
		t.Fatal("expected OK observation")
	}
	want := (0.90 + 0.94) / 2 * 1000
	if math.Abs(obs.Y-want) > 1e-9 {
		t.Errorf("Y = %v, want %v", obs.Y, want)
	}
}

func TestObserveFootGating(t *testing.T) {
	tests := []struct {
		name   string
		points map[LandmarkIndex]Landmark
		side   Side
		wantOK bool
	}{
		{
			"both visible",
			map[LandmarkIndex]Landmark{
				LeftAnkle: {Y: 0.9, Visibility: 0.6},
				LeftHeel:  {Y: 0.92, Visibility: 0.6},
			},
			SideLeft, true,
		},
		{
			"ankle below threshold",
			map[LandmarkIndex]Landmark{
				LeftAnkle: {Y: 0.9, Visibility: 0.5},
				LeftHeel:  {Y: 0.92, Visibility: 0.9},
			},
			SideLeft, false,
		},
		{
			"heel below threshold",
			map[LandmarkIndex]Landmark{
				LeftAnkle: {Y: 0.9, Visibility: 0.9},
				LeftHeel:  {Y: 0.92, Visibility: 0.1},
			},
			SideLeft, false,
		},
		{
			"wrong side set",
			map[LandmarkIndex]Landmark{
				LeftAnkle: {Y: 0.9, Visibility: 0.9},
				LeftHeel:  {Y: 0.92, Visibility: 0.9},
			},
			SideRight, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := frameWith(720, tt.points)
			obs := ObserveFoot(f, tt.side, 0.55)
			if obs.OK != tt.wantOK {
				t.Errorf("OK = %v, want %v", obs.OK, tt.wantOK)
			}
			if !obs.OK && obs.Y != 0 {
				t.Errorf("Y = %v for gated-out observation, want 0", obs.Y)
			}
		})
	}
}

func TestObserveFootShortLandmarkSlice(t *testing.T) {
	// Partial detections arrive as short slices; the gate must not panic.
	f := &Frame{PixelHeight: 720, Landmarks: make([]Landmark, 10)}
	if obs := ObserveFoot(f, SideRight, 0.55); obs.OK {
		t.Error("expected OK=false for frame without foot landmarks")
	}

	var nilFrame *Frame
	if _, ok := nilFrame.At(RightAnkle); ok {
		t.Error("At on nil frame should report missing")
	}
}

func TestHeelY(t *testing.T) {
	f := frameWith(500, map[LandmarkIndex]Landmark{
		LeftHeel: {Y: 0.96, Visibility: 0.7},
	})

	y, ok := HeelY(f, SideLeft, 0.55)
	if !ok {
		t.Fatal("expected visible heel")
	}
	if math.Abs(y-480) > 1e-9 {
		t.Errorf("y = %v, want 480", y)
	}

	if _, ok := HeelY(f, SideRight, 0.55); ok {
		t.Error("right heel should be gated out")
	}
}

func TestSideOpposite(t *testing.T) {
	if SideLeft.Opposite() != SideRight || SideRight.Opposite() != SideLeft {
		t.Error("Opposite() mapping broken")
	}
}

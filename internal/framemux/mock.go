package framemux

import (
	"io"
	"math"
	"sync"
	"time"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"
)

// MockSource synthesizes a walking trajectory without a capture client: both
// ankles trace anti-phase sinusoids so the detector sees alternating
// footfalls. Useful for demos and for exercising the full pipeline on
// hardware-free machines.
type MockSource struct {
	interval time.Duration
	periodMs float64

	mu     sync.Mutex
	tick   int
	closed bool
	done   chan struct{}
}

// Mock trajectory shape. The baseline sits low in a 720p frame with a 40px
// swing, comfortably inside the default ground tolerance at the bottom of
// each cycle.
const (
	mockPixelHeight = 720
	mockBaselineY   = 640.0
	mockAmplitudeY  = 40.0
)

// NewMockSource generates frames every interval with one full gait cycle per
// period.
func NewMockSource(interval, period time.Duration) *MockSource {
	return &MockSource{
		interval: interval,
		periodMs: float64(period.Milliseconds()),
		done:     make(chan struct{}),
	}
}

// NewMockFrameMux creates a FrameMux backed by a synthetic walking source
// with a 30Hz frame rate and a one-second gait cycle.
func NewMockFrameMux() *FrameMux[*MockSource] {
	return NewFrameMux(NewMockSource(33*time.Millisecond, time.Second))
}

// ReadFrame waits one frame interval, then returns the next synthetic frame.
func (s *MockSource) ReadFrame() (*pose.Frame, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, io.EOF
	}
	tick := s.tick
	s.tick++
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil, io.EOF
	case <-time.After(s.interval):
	}

	tsMs := float64(tick) * float64(s.interval.Milliseconds())
	phase := 2 * math.Pi * tsMs / s.periodMs

	f := &pose.Frame{
		TimestampMs: tsMs,
		PixelHeight: mockPixelHeight,
		Landmarks:   make([]pose.Landmark, pose.LandmarkCount),
	}
	s.placeFoot(f, pose.SideLeft, phase)
	s.placeFoot(f, pose.SideRight, phase+math.Pi)

	// Torso landmarks so the facing estimator has something to read.
	for _, i := range []pose.LandmarkIndex{pose.LeftShoulder, pose.LeftHip, pose.LeftKnee} {
		f.Landmarks[i] = pose.Landmark{X: 0.45, Y: 0.5, Visibility: 0.95}
	}
	for _, i := range []pose.LandmarkIndex{pose.RightShoulder, pose.RightHip, pose.RightKnee} {
		f.Landmarks[i] = pose.Landmark{X: 0.55, Y: 0.5, Visibility: 0.95}
	}
	return f, nil
}

func (s *MockSource) placeFoot(f *pose.Frame, side pose.Side, phase float64) {
	y := (mockBaselineY + mockAmplitudeY*math.Sin(phase)) / mockPixelHeight
	ankle, heel := pose.LeftAnkle, pose.LeftHeel
	if side == pose.SideRight {
		ankle, heel = pose.RightAnkle, pose.RightHeel
	}
	f.Landmarks[ankle] = pose.Landmark{X: 0.5, Y: y, Visibility: 0.9}
	f.Landmarks[heel] = pose.Landmark{X: 0.5, Y: y + 0.005, Visibility: 0.9}
}

// Close ends the synthetic stream.
func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

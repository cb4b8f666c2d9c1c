package gait

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"
)

// Ground calibration constants. The explicit window and sample floor are
// fixed; only the tolerance radius around the estimate is tunable.
const (
	groundAlpha           = 0.10 // EWMA weight of a new heel sample
	calibrationWindowMs   = 1000
	calibrationMinSamples = 10
	groundPercentile      = 0.90
)

// ErrCalibrationFailed reports an explicit calibration window that collected
// too few heel samples. The prior estimate, if any, is retained.
var ErrCalibrationFailed = errors.New("ground calibration failed: insufficient heel samples")

// GroundEstimate is the estimated vertical image position of the treadmill
// surface. Calibrated estimates are frozen for the rest of the session.
type GroundEstimate struct {
	Y          float64 `json:"y"`
	Calibrated bool    `json:"calibrated"`
}

// GroundCalibrator maintains the ground line estimate. Default mode is a
// continuously decaying running estimate fed by heel landmarks; an explicit
// calibration window replaces it with a high-percentile sample and freezes it.
type GroundCalibrator struct {
	estimate    GroundEstimate
	hasEstimate bool

	// Explicit calibration window state. The window is anchored at the first
	// frame observed after Begin, since the engine is frame-driven.
	pending    bool
	sampling   bool
	deadlineMs float64
	samples    []float64
}

// NewGroundCalibrator returns a calibrator with no estimate.
func NewGroundCalibrator() *GroundCalibrator {
	return &GroundCalibrator{}
}

// Estimate returns the current ground estimate and whether one exists.
func (g *GroundCalibrator) Estimate() (GroundEstimate, bool) {
	return g.estimate, g.hasEstimate
}

// Calibrating reports whether an explicit calibration window is open or
// queued for the next frame.
func (g *GroundCalibrator) Calibrating() bool {
	return g.pending || g.sampling
}

// Begin queues an explicit calibration window. Sampling starts at the next
// observed frame and runs for one second of frame time.
func (g *GroundCalibrator) Begin() {
	g.pending = true
	g.sampling = false
	g.samples = g.samples[:0]
}

// Observe feeds one frame's heel landmarks into the calibrator. In continuous
// mode it nudges the running estimate toward the lower visible heel; during an
// explicit window it collects samples and, once the window closes, freezes the
// percentile estimate. The returned error is non-nil only when a window closes
// with too few samples; detection continues on the prior estimate.
func (g *GroundCalibrator) Observe(f *pose.Frame, threshold, nowMs float64) error {
	sample, ok := lowerHeelY(f, threshold)

	if g.pending {
		g.pending = false
		g.sampling = true
		g.deadlineMs = nowMs + calibrationWindowMs
	}

	if g.sampling {
		if nowMs >= g.deadlineMs {
			return g.finishWindow()
		}
		if ok {
			g.samples = append(g.samples, sample)
		}
		return nil
	}

	if !ok || g.estimate.Calibrated {
		return nil
	}

	if !g.hasEstimate {
		g.estimate = GroundEstimate{Y: sample}
		g.hasEstimate = true
		return nil
	}
	g.estimate.Y = (1-groundAlpha)*g.estimate.Y + groundAlpha*sample
	return nil
}

// finishWindow closes an explicit calibration window, freezing the estimate
// when enough samples were collected.
func (g *GroundCalibrator) finishWindow() error {
	g.sampling = false
	if len(g.samples) < calibrationMinSamples {
		return fmt.Errorf("%w: got %d, need %d", ErrCalibrationFailed, len(g.samples), calibrationMinSamples)
	}

	sort.Float64s(g.samples)
	y := stat.Quantile(groundPercentile, stat.Empirical, g.samples, nil)
	g.estimate = GroundEstimate{Y: y, Calibrated: true}
	g.hasEstimate = true
	g.samples = g.samples[:0]
	return nil
}

// Reset discards the estimate and any calibration state.
func (g *GroundCalibrator) Reset() {
	g.estimate = GroundEstimate{}
	g.hasEstimate = false
	g.pending = false
	g.sampling = false
	g.samples = g.samples[:0]
}

// lowerHeelY returns the lower (larger pixel y) of the two heels that clear
// the visibility threshold.
func lowerHeelY(f *pose.Frame, threshold float64) (float64, bool) {
	best := math.Inf(-1)
	found := false
	for _, side := range []pose.Side{pose.SideLeft, pose.SideRight} {
		if y, ok := pose.HeelY(f, side, threshold); ok {
			if y > best {
				best = y
			}
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return best, true
}

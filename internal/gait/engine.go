package gait

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/config"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/monitoring"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/timeutil"
)

// Analyzer is the session context object owning all engine state: the two
// foot channels, ground calibrator, metrics calculator, quality monitor and
// the session state machine. The host feeds it frames through the single
// synchronous ProcessFrame entry point; each frame runs to completion before
// the next is accepted. The mutex only guards concurrent snapshot reads from
// HTTP handlers against the frame-processing writer.
type Analyzer struct {
	mu sync.Mutex

	clock     timeutil.Clock
	threshold float64

	sessionID string
	sm        *stateMachine

	left, right *FootChannel
	detector    *StrikeDetector
	ground      *GroundCalibrator
	metrics     *MetricsCalculator
	quality     *QualityMonitor

	facing          pose.Facing
	lastStrikeSide  string
	lastStrideFreq  *float64
	lastFrameMs     float64
	calibrationErr  string
	stepQuota       int
	quotaReachedLog bool
}

// Snapshot is a host-facing view of the engine, re-derivable at any time.
type Snapshot struct {
	SessionID        string          `json:"session_id,omitempty"`
	State            SessionState    `json:"state"`
	StateLabel       string          `json:"state_label"`
	Quality          Quality         `json:"quality"`
	QualityRatio     float64         `json:"quality_ratio"`
	Facing           pose.Facing     `json:"facing"`
	LastStrikeSide   string          `json:"last_strike_side,omitempty"`
	LastStrideFreqHz *float64        `json:"last_stride_freq_hz,omitempty"`
	Steps            int             `json:"steps"`
	TotalFrames      int             `json:"total_frames"`
	LastFrameMs      float64         `json:"last_frame_ms,omitempty"`
	Ground           *GroundEstimate `json:"ground,omitempty"`
	Calibrating      bool            `json:"calibrating"`
	CalibrationError string          `json:"calibration_error,omitempty"`
	BeltSpeedMPS     float64         `json:"belt_speed_mps"`
}

// NewAnalyzer builds an engine from the tuning configuration. The clock
// drives the warm-up and countdown phases; tests inject a MockClock.
func NewAnalyzer(cfg *config.TuningConfig, clock timeutil.Clock) *Analyzer {
	a := &Analyzer{
		clock:     clock,
		threshold: cfg.GetVisibilityThreshold(),
		stepQuota: cfg.GetStepQuota(),
		sm:        newStateMachine(clock, cfg.GetWarmupDuration(), cfg.GetCountdownDuration()),
		left:      NewFootChannel(pose.SideLeft),
		right:     NewFootChannel(pose.SideRight),
		detector: NewStrikeDetector(DetectorConfig{
			MinStrikeMs:            cfg.GetMinStrikeIntervalMs(),
			SmoothingWindow:        cfg.GetSmoothingWindow(),
			GroundToleranceRadius:  cfg.GetGroundTolerancePx(),
			RequireSignChange:      cfg.GetRequireSignChange(),
			RequireGroundProximity: cfg.GetRequireGroundProximity(),
		}),
		ground:  NewGroundCalibrator(),
		metrics: NewMetricsCalculator(cfg.GetBeltSpeedMPS(), cfg.GetStepQuota()),
		quality: &QualityMonitor{},
		facing:  pose.FacingUnknown,
	}
	return a
}

// Start begins a fresh analysis session and returns its ID. All per-session
// state is cleared; the state machine enters warm-up.
func (a *Analyzer) Start() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.resetSessionLocked()
	a.sessionID = uuid.NewString()
	a.sm.Start()
	monitoring.Logf("session %s started", a.sessionID)
	return a.sessionID
}

// Stop cancels the session from any state. Accumulated rows and counters
// remain valid and exportable; a stop is not a rollback.
func (a *Analyzer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sm.state != StateIdle {
		monitoring.Logf("session %s stopped in state %s", a.sessionID, a.sm.state)
	}
	a.sm.Stop()
}

// Calibrate queues an explicit ground calibration window starting at the next
// frame.
func (a *Analyzer) Calibrate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calibrationErr = ""
	a.ground.Begin()
}

// Reset returns the engine to its zeroed construction state. Idempotent:
// resetting twice is indistinguishable from resetting once.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetSessionLocked()
	a.sessionID = ""
	a.sm.Stop()
}

func (a *Analyzer) resetSessionLocked() {
	a.left.Reset()
	a.right.Reset()
	a.ground.Reset()
	a.metrics.Reset()
	a.quality.Reset()
	a.facing = pose.FacingUnknown
	a.lastStrikeSide = ""
	a.lastStrideFreq = nil
	a.lastFrameMs = 0
	a.calibrationErr = ""
	a.quotaReachedLog = false
}

// ProcessFrame feeds one landmark observation through the pipeline: gate,
// facing, ground, quality, and, while analyzing, detection and metrics. A nil
// frame means "no detection this tick" and only degrades the quality ratio.
// The returned rows are the ones appended by this frame, for sinks that
// persist or push them.
func (a *Analyzer) ProcessFrame(f *pose.Frame) []GaitRow {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.advanceLocked()

	if f == nil {
		a.quality.Observe(false)
		return nil
	}
	a.lastFrameMs = f.TimestampMs

	a.facing = pose.EstimateFacing(f)

	if err := a.ground.Observe(f, a.threshold, f.TimestampMs); err != nil {
		a.calibrationErr = err.Error()
		monitoring.Logf("ground calibration: %v", err)
	}

	leftObs := pose.ObserveFoot(f, pose.SideLeft, a.threshold)
	rightObs := pose.ObserveFoot(f, pose.SideRight, a.threshold)
	a.quality.Observe(leftObs.OK && rightObs.OK)

	if a.sm.state != StateAnalyzing {
		return nil
	}

	ground, hasGround := a.ground.Estimate()
	var appended []GaitRow

	for _, fc := range []struct {
		ch  *FootChannel
		obs pose.FootObservation
	}{{a.right, rightObs}, {a.left, leftObs}} {
		ev, ok := a.detector.Process(fc.ch, fc.obs, f.TimestampMs, ground, hasGround)
		if !ok {
			continue
		}
		row, accepted, quotaReached := a.metrics.RecordStrike(ev)
		if !accepted {
			continue
		}
		a.lastStrikeSide = row.Label
		if row.StrideFreqHz != nil {
			a.lastStrideFreq = row.StrideFreqHz
		}
		appended = append(appended, row)
		monitoring.Logf("strike %s at %.0fms (step %d/%d)", row.Label, ev.TimestampMs, a.metrics.StepCount(), a.stepQuota)

		if quotaReached {
			a.sm.Stop()
			if !a.quotaReachedLog {
				monitoring.Logf("session %s complete: step quota reached", a.sessionID)
				a.quotaReachedLog = true
			}
			break
		}
	}
	return appended
}

// advanceLocked applies due state transitions; entering Analyzing clears the
// per-foot detection state for the timed trial.
func (a *Analyzer) advanceLocked() {
	for _, entered := range a.sm.advance() {
		if entered == StateAnalyzing {
			a.left.Reset()
			a.right.Reset()
			a.metrics.ClearTiming()
			monitoring.Logf("session %s analyzing", a.sessionID)
		}
	}
}

// Rows returns a copy of all appended gait rows.
func (a *Analyzer) Rows() []GaitRow {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.metrics.Rows()
}

// Summary aggregates stride statistics over the accumulated rows.
func (a *Analyzer) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Summarize(a.metrics.Rows())
}

// SmoothedTrajectory returns the smoothed vertical history for one foot,
// oldest first. Diagnostic surface for the trajectory plot.
func (a *Analyzer) SmoothedTrajectory(side pose.Side) []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if side == pose.SideLeft {
		return a.left.SmoothedTrajectory()
	}
	return a.right.SmoothedTrajectory()
}

// Snapshot returns the current host-facing view. Time-driven transitions are
// applied first so the reported state never lags the clock.
func (a *Analyzer) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.advanceLocked()

	snap := Snapshot{
		SessionID:        a.sessionID,
		State:            a.sm.state,
		StateLabel:       a.sm.label(),
		Quality:          a.quality.Classify(),
		QualityRatio:     a.quality.Ratio(),
		Facing:           a.facing,
		LastStrikeSide:   a.lastStrikeSide,
		LastStrideFreqHz: a.lastStrideFreq,
		Steps:            a.metrics.StepCount(),
		LastFrameMs:      a.lastFrameMs,
		Calibrating:      a.ground.Calibrating(),
		CalibrationError: a.calibrationErr,
		BeltSpeedMPS:     a.metrics.BeltSpeedMPS(),
	}
	_, snap.TotalFrames = a.quality.Counts()
	if est, ok := a.ground.Estimate(); ok {
		snap.Ground = &est
	}
	return snap
}

// State returns the current session state after applying due transitions.
func (a *Analyzer) State() SessionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.advanceLocked()
	return a.sm.state
}

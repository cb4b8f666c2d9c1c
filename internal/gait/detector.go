package gait

import (
	"math"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"
)

// minSmoothedSamples is the smoothed-history length required before the
// detector evaluates a frame.
const minSmoothedSamples = 5

// peakSuppressionFloorMs bounds the sub-refractory window that rejects
// near-duplicate local maxima a frame or two apart.
const peakSuppressionFloorMs = 120

// DetectorConfig holds the strike detector tuning. Values are assumed
// pre-clamped by the configuration layer.
type DetectorConfig struct {
	MinStrikeMs           float64
	SmoothingWindow       int
	GroundToleranceRadius float64

	// RequireSignChange demands an explicit slope sign change around the
	// candidate peak; RequireGroundProximity rejects peaks away from the
	// ground line (only applied once an estimate exists).
	RequireSignChange      bool
	RequireGroundProximity bool
}

// StrikeEvent is an accepted foot-ground contact. Ephemeral: produced by the
// detector, consumed immediately by the metrics calculator.
type StrikeEvent struct {
	Side        pose.Side
	TimestampMs float64
}

// StrikeDetector evaluates gated foot observations against a FootChannel,
// flagging a strike when the smoothed vertical trajectory peaks. It never
// errors; any insufficiency yields "no strike this frame".
type StrikeDetector struct {
	cfg DetectorConfig
}

// NewStrikeDetector creates a detector with the given tuning.
func NewStrikeDetector(cfg DetectorConfig) *StrikeDetector {
	if cfg.MinStrikeMs < peakSuppressionFloorMs {
		cfg.MinStrikeMs = peakSuppressionFloorMs
	}
	if cfg.SmoothingWindow < 1 {
		cfg.SmoothingWindow = 1
	}
	return &StrikeDetector{cfg: cfg}
}

// Process pushes one gated observation into the channel and reports whether
// it completes a strike. ground carries the current ground-line estimate;
// hasGround is false while none exists.
func (d *StrikeDetector) Process(ch *FootChannel, obs pose.FootObservation, nowMs float64, ground GroundEstimate, hasGround bool) (StrikeEvent, bool) {
	if !obs.OK {
		return StrikeEvent{}, false
	}

	ch.yHist.Push(obs.Y)
	ch.ySmHist.Push(ch.yHist.TailMean(d.cfg.SmoothingWindow))

	if ch.ySmHist.Len() < minSmoothedSamples {
		return StrikeEvent{}, false
	}

	// Oldest to newest of the three most recent smoothed values. A local
	// maximum in y is the foot's lowest image position, the side-view proxy
	// for ground contact.
	y2 := ch.ySmHist.Last(2)
	y1 := ch.ySmHist.Last(1)
	y0 := ch.ySmHist.Last(0)

	isPeak := y1 > y2 && y1 > y0
	if d.cfg.RequireSignChange {
		isPeak = (y1-y2) > 0 && (y0-y1) < 0
	}
	if !isPeak {
		return StrikeEvent{}, false
	}

	// Sub-refractory suppression: a detected local maximum too close to the
	// previous one, accepted or not, is noise. Record it either way so a
	// burst of duplicates keeps suppressing itself.
	suppression := math.Max(peakSuppressionFloorMs, d.cfg.MinStrikeMs/2)
	if ch.lastPeakMs >= 0 && nowMs-ch.lastPeakMs < suppression {
		ch.lastPeakMs = nowMs
		return StrikeEvent{}, false
	}
	ch.lastPeakMs = nowMs

	if d.cfg.RequireGroundProximity && hasGround {
		if math.Abs(y1-ground.Y) > d.cfg.GroundToleranceRadius {
			return StrikeEvent{}, false
		}
	}

	// Per-foot refractory since the last accepted strike.
	if ch.lastStrikeMs >= 0 && nowMs-ch.lastStrikeMs < d.cfg.MinStrikeMs {
		return StrikeEvent{}, false
	}

	ch.lastStrikeMs = nowMs
	return StrikeEvent{Side: ch.Side, TimestampMs: nowMs}, true
}

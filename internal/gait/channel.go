package gait

import "github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"

// historyCapacity bounds the per-foot raw and smoothed trajectory histories.
// At 30 fps this retains roughly 2.4 s of motion, several stride cycles.
const historyCapacity = 72

// FootChannel owns the per-foot detection state: the bounded raw and smoothed
// vertical-position histories and the refractory bookkeeping. It is mutated
// only by the strike detector for its side and reset at session start.
type FootChannel struct {
	Side pose.Side

	yHist   *ring
	ySmHist *ring

	// lastStrikeMs is the timestamp of the last accepted strike; -1 when the
	// channel has none. Monotonically non-decreasing between resets.
	lastStrikeMs float64

	// lastPeakMs is the timestamp of the last detected local maximum, accepted
	// or not. Used to suppress re-triggering on near-duplicate noisy peaks.
	lastPeakMs float64
}

// NewFootChannel creates an empty channel for the given side.
func NewFootChannel(side pose.Side) *FootChannel {
	ch := &FootChannel{
		Side:    side,
		yHist:   newRing(historyCapacity),
		ySmHist: newRing(historyCapacity),
	}
	ch.Reset()
	return ch
}

// Reset discards history and refractory state.
func (ch *FootChannel) Reset() {
	ch.yHist.Reset()
	ch.ySmHist.Reset()
	ch.lastStrikeMs = -1
	ch.lastPeakMs = -1
}

// LastStrikeMs returns the timestamp of the last accepted strike and whether
// one exists.
func (ch *FootChannel) LastStrikeMs() (float64, bool) {
	return ch.lastStrikeMs, ch.lastStrikeMs >= 0
}

// SmoothedTrajectory returns the smoothed history oldest-first, for
// diagnostics and plotting.
func (ch *FootChannel) SmoothedTrajectory() []float64 {
	return ch.ySmHist.Values()
}

package gait

import (
	"math"
	"testing"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"
)

func strike(side pose.Side, ts float64) StrikeEvent {
	return StrikeEvent{Side: side, TimestampMs: ts}
}

func TestFirstStrikeHasNoTimings(t *testing.T) {
	m := NewMetricsCalculator(3.0, 10)

	row, accepted, done := m.RecordStrike(strike(pose.SideRight, 1000))
	if !accepted || done {
		t.Fatalf("accepted=%v done=%v, want true,false", accepted, done)
	}
	if row.Label != "R" {
		t.Errorf("label = %q, want R", row.Label)
	}
	if row.StepTimeMs != nil || row.StrideTimeMs != nil || row.StrideLenM != nil {
		t.Errorf("first strike row has timings: %+v", row)
	}
}

func TestStrideAndStepMetrics(t *testing.T) {
	m := NewMetricsCalculator(3.0, 10)

	m.RecordStrike(strike(pose.SideRight, 1000))
	m.RecordStrike(strike(pose.SideLeft, 1400))
	row, _, _ := m.RecordStrike(strike(pose.SideRight, 1800))

	if row.StrideTimeMs == nil || *row.StrideTimeMs != 800 {
		t.Fatalf("stride time = %v, want 800", row.StrideTimeMs)
	}
	if row.StrideFreqHz == nil || math.Abs(*row.StrideFreqHz-1.25) > 1e-12 {
		t.Errorf("stride freq = %v, want 1.25", row.StrideFreqHz)
	}
	// strideLenM = beltSpeedMS * strideTimeMs/1000 exactly.
	if row.StrideLenM == nil || *row.StrideLenM != 3.0*800/1000 {
		t.Errorf("stride length = %v, want 2.4", row.StrideLenM)
	}
	if row.StepTimeMs == nil || *row.StepTimeMs != 400 {
		t.Errorf("step time = %v, want 400", row.StepTimeMs)
	}
	if row.StepLenM == nil || *row.StepLenM != 3.0*400/1000 {
		t.Errorf("step length = %v, want 1.2", row.StepLenM)
	}
}

func TestZeroBeltSpeedWithholdsLengths(t *testing.T) {
	m := NewMetricsCalculator(0, 10)

	m.RecordStrike(strike(pose.SideRight, 1000))
	m.RecordStrike(strike(pose.SideLeft, 1400))
	row, _, _ := m.RecordStrike(strike(pose.SideRight, 1800))

	if row.StrideTimeMs == nil || row.StepTimeMs == nil {
		t.Fatal("timings must be present regardless of belt speed")
	}
	if row.StrideLenM != nil || row.StepLenM != nil {
		t.Errorf("lengths present with zero belt speed: %+v", row)
	}
	if row.StrideFreqHz == nil {
		t.Error("stride frequency does not depend on belt speed")
	}
}

func TestGlobalRefractory(t *testing.T) {
	m := NewMetricsCalculator(3.0, 10)

	m.RecordStrike(strike(pose.SideRight, 1000))
	// Opposite foot lands 60ms later: implausible, double-count guard.
	_, accepted, _ := m.RecordStrike(strike(pose.SideLeft, 1060))
	if accepted {
		t.Fatal("strike 60ms after the previous one should be rejected")
	}
	if got := m.StepCount(); got != 1 {
		t.Errorf("step count = %d, want 1", got)
	}

	// Rejected strike must not disturb bookkeeping: the next left strike
	// computes its step time against the accepted right strike.
	row, accepted, _ := m.RecordStrike(strike(pose.SideLeft, 1400))
	if !accepted {
		t.Fatal("strike past refractory rejected")
	}
	if row.StepTimeMs == nil || *row.StepTimeMs != 400 {
		t.Errorf("step time = %v, want 400", row.StepTimeMs)
	}
}

func TestStepQuota(t *testing.T) {
	m := NewMetricsCalculator(3.0, 3)

	sides := []pose.Side{pose.SideRight, pose.SideLeft, pose.SideRight}
	var done bool
	for i, side := range sides {
		_, _, done = m.RecordStrike(strike(side, float64(1000+400*i)))
	}
	if !done {
		t.Error("quota of 3 not reported after third accepted strike")
	}
	if len(m.Rows()) != 3 {
		t.Errorf("rows = %d, want 3", len(m.Rows()))
	}
}

func TestClearTimingKeepsRows(t *testing.T) {
	m := NewMetricsCalculator(3.0, 10)
	m.RecordStrike(strike(pose.SideRight, 1000))
	m.ClearTiming()

	// No stride after clearing: the prior same-foot strike is forgotten.
	row, accepted, _ := m.RecordStrike(strike(pose.SideRight, 1050))
	if !accepted {
		t.Fatal("strike after ClearTiming rejected by stale refractory")
	}
	if row.StrideTimeMs != nil {
		t.Error("stride computed across ClearTiming")
	}
	if len(m.Rows()) != 2 {
		t.Errorf("rows = %d, want 2 (rows survive ClearTiming)", len(m.Rows()))
	}
}

func TestSummarizeFromRecordedStrikes(t *testing.T) {
	m := NewMetricsCalculator(3.0, 10)
	m.RecordStrike(strike(pose.SideRight, 1000))
	m.RecordStrike(strike(pose.SideRight, 1800))
	m.RecordStrike(strike(pose.SideRight, 2700))

	s := Summarize(m.Rows())
	if s.Steps != 3 {
		t.Errorf("steps = %d, want 3", s.Steps)
	}
	if s.StrideTimeMeanMs == nil || math.Abs(*s.StrideTimeMeanMs-850) > 1e-9 {
		t.Errorf("stride time mean = %v, want 850", s.StrideTimeMeanMs)
	}
	if s.StrideTimeStdMs == nil {
		t.Error("expected stddev with two stride samples")
	}

	empty := Summarize(nil)
	if empty.Steps != 0 || empty.StrideTimeMeanMs != nil {
		t.Errorf("empty summary = %+v, want zeroed", empty)
	}
}

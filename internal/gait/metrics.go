package gait

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"
)

// globalRefractoryMs rejects a strike arriving implausibly close to the last
// accepted strike of either foot, guarding against a single footfall being
// attributed to both channels.
const globalRefractoryMs = 120

// GaitRow is one appended result row. Nil fields are absent, not zero: a
// missing belt speed yields nil lengths rather than implying a measured zero.
// Rows are append-only and never mutated.
type GaitRow struct {
	Label        string   `json:"label"`
	StepTimeMs   *float64 `json:"step_time_ms,omitempty"`
	StepLenM     *float64 `json:"step_len_m,omitempty"`
	StrideTimeMs *float64 `json:"stride_time_ms,omitempty"`
	StrideLenM   *float64 `json:"stride_len_m,omitempty"`
	StrideFreqHz *float64 `json:"stride_freq_hz,omitempty"`
}

// MetricsCalculator turns accepted strikes into gait rows. Stride metrics
// compare same-foot strikes, step metrics the opposite foot; lengths are
// derived from the belt speed since horizontal displacement is not observable
// in a side view.
type MetricsCalculator struct {
	beltSpeedMPS float64
	stepQuota    int

	rows            []GaitRow
	lastStrikeMs    map[pose.Side]float64
	lastStrikeAnyMs float64
	stepCount       int
}

// NewMetricsCalculator creates a calculator. beltSpeedMPS of zero means the
// belt speed is unknown and length fields stay absent. stepQuota bounds the
// analysis; reaching it reports termination to the caller.
func NewMetricsCalculator(beltSpeedMPS float64, stepQuota int) *MetricsCalculator {
	m := &MetricsCalculator{beltSpeedMPS: beltSpeedMPS, stepQuota: stepQuota}
	m.Reset()
	return m
}

// RecordStrike processes one accepted strike. It returns the appended row,
// whether the strike was accepted past the global refractory, and whether the
// step quota has been reached.
func (m *MetricsCalculator) RecordStrike(ev StrikeEvent) (row GaitRow, accepted bool, quotaReached bool) {
	if m.lastStrikeAnyMs >= 0 && ev.TimestampMs-m.lastStrikeAnyMs < globalRefractoryMs {
		return GaitRow{}, false, false
	}

	row = GaitRow{Label: SideLabel(ev.Side)}

	if prev, ok := m.lastStrikeMs[ev.Side]; ok {
		strideTime := ev.TimestampMs - prev
		if strideTime > 0 {
			row.StrideTimeMs = ptr(strideTime)
			row.StrideFreqHz = ptr(1000 / strideTime)
			if m.beltSpeedMPS > 0 {
				row.StrideLenM = ptr(m.beltSpeedMPS * strideTime / 1000)
			}
		}
	}

	if prev, ok := m.lastStrikeMs[ev.Side.Opposite()]; ok {
		stepTime := ev.TimestampMs - prev
		if stepTime > 0 {
			row.StepTimeMs = ptr(stepTime)
			if m.beltSpeedMPS > 0 {
				row.StepLenM = ptr(m.beltSpeedMPS * stepTime / 1000)
			}
		}
	}

	m.rows = append(m.rows, row)
	m.lastStrikeMs[ev.Side] = ev.TimestampMs
	m.lastStrikeAnyMs = ev.TimestampMs
	m.stepCount++

	return row, true, m.stepCount >= m.stepQuota
}

// Rows returns a copy of the appended rows.
func (m *MetricsCalculator) Rows() []GaitRow {
	out := make([]GaitRow, len(m.rows))
	copy(out, m.rows)
	return out
}

// StepCount returns the number of accepted steps.
func (m *MetricsCalculator) StepCount() int { return m.stepCount }

// BeltSpeedMPS returns the configured belt speed.
func (m *MetricsCalculator) BeltSpeedMPS() float64 { return m.beltSpeedMPS }

// ClearTiming resets the refractory and per-foot bookkeeping while keeping
// accumulated rows, for the fresh start after a countdown.
func (m *MetricsCalculator) ClearTiming() {
	m.lastStrikeMs = make(map[pose.Side]float64, 2)
	m.lastStrikeAnyMs = -1
}

// Reset discards all rows and bookkeeping.
func (m *MetricsCalculator) Reset() {
	m.rows = nil
	m.stepCount = 0
	m.ClearTiming()
}

// Summary aggregates stride statistics over a set of rows.
type Summary struct {
	Steps            int      `json:"steps"`
	StrideTimeMeanMs *float64 `json:"stride_time_mean_ms,omitempty"`
	StrideTimeStdMs  *float64 `json:"stride_time_std_ms,omitempty"`
	StrideFreqMeanHz *float64 `json:"stride_freq_mean_hz,omitempty"`
	StrideLenMeanM   *float64 `json:"stride_len_mean_m,omitempty"`
}

// Summarize computes mean and sample standard deviation of the stride fields
// present in rows. Rows without a field are skipped, matching the absent
// semantics of GaitRow.
func Summarize(rows []GaitRow) Summary {
	s := Summary{Steps: len(rows)}

	var times, freqs, lens []float64
	for _, r := range rows {
		if r.StrideTimeMs != nil {
			times = append(times, *r.StrideTimeMs)
		}
		if r.StrideFreqHz != nil {
			freqs = append(freqs, *r.StrideFreqHz)
		}
		if r.StrideLenM != nil {
			lens = append(lens, *r.StrideLenM)
		}
	}

	if len(times) > 0 {
		s.StrideTimeMeanMs = ptr(stat.Mean(times, nil))
		if len(times) > 1 {
			s.StrideTimeStdMs = ptr(stat.StdDev(times, nil))
		}
	}
	if len(freqs) > 0 {
		s.StrideFreqMeanHz = ptr(stat.Mean(freqs, nil))
	}
	if len(lens) > 0 {
		s.StrideLenMeanM = ptr(stat.Mean(lens, nil))
	}
	return s
}

// SideLabel maps a side to its row label.
func SideLabel(side pose.Side) string {
	if side == pose.SideLeft {
		return "L"
	}
	return "R"
}

func ptr(v float64) *float64 { return &v }

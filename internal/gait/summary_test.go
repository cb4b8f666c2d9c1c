package gait

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"
)

// TestSummarize tests stride statistic aggregation over recorded rows.
func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("empty rows yield zero steps and no stats", func(t *testing.T) {
		t.Parallel()
		s := Summarize(nil)

		assert.Equal(t, 0, s.Steps)
		assert.Nil(t, s.StrideTimeMeanMs)
		assert.Nil(t, s.StrideTimeStdMs)
		assert.Nil(t, s.StrideFreqMeanHz)
		assert.Nil(t, s.StrideLenMeanM)
	})

	t.Run("rows without stride fields are skipped", func(t *testing.T) {
		t.Parallel()
		rows := []GaitRow{
			{Label: "R"},
			{Label: "L", StrideTimeMs: ptr(800)},
		}

		s := Summarize(rows)
		assert.Equal(t, 2, s.Steps)
		require.NotNil(t, s.StrideTimeMeanMs)
		assert.Equal(t, 800.0, *s.StrideTimeMeanMs)
		// a single sample has no spread
		assert.Nil(t, s.StrideTimeStdMs)
	})

	t.Run("mean and sample stddev over multiple strides", func(t *testing.T) {
		t.Parallel()
		rows := []GaitRow{
			{Label: "R"},
			{Label: "L"},
			{Label: "R", StrideTimeMs: ptr(800), StrideFreqHz: ptr(1.25), StrideLenM: ptr(2.4)},
			{Label: "L", StrideTimeMs: ptr(900), StrideFreqHz: ptr(1.1111), StrideLenM: ptr(2.7)},
		}

		s := Summarize(rows)
		assert.Equal(t, 4, s.Steps)
		require.NotNil(t, s.StrideTimeMeanMs)
		assert.InDelta(t, 850.0, *s.StrideTimeMeanMs, 1e-9)
		require.NotNil(t, s.StrideTimeStdMs)
		assert.InDelta(t, 70.7107, *s.StrideTimeStdMs, 1e-4)
		require.NotNil(t, s.StrideFreqMeanHz)
		assert.InDelta(t, 1.18055, *s.StrideFreqMeanHz, 1e-4)
		require.NotNil(t, s.StrideLenMeanM)
		assert.InDelta(t, 2.55, *s.StrideLenMeanM, 1e-9)
	})
}

// TestSideLabel tests the side to row label mapping.
func TestSideLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "L", SideLabel(pose.SideLeft))
	assert.Equal(t, "R", SideLabel(pose.SideRight))
}

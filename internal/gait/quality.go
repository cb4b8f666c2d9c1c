package gait

// Quality is the three-level tracking quality classification.
type Quality string

const (
	QualityGood         Quality = "good"
	QualityMedium       Quality = "medium"
	QualityPoor         Quality = "poor"
	QualityInsufficient Quality = "insufficient"
)

// Classification boundaries on the good-frame ratio.
const (
	qualityGoodRatio   = 0.75
	qualityMediumRatio = 0.45
	qualityMinFrames   = 15
)

// QualityMonitor accumulates the fraction of frames where both feet pass the
// landmark gate simultaneously. Counters only grow; nothing short of a full
// reset decrements them.
type QualityMonitor struct {
	goodFrames  int
	totalFrames int
}

// Observe records one delivered frame.
func (q *QualityMonitor) Observe(bothFeetVisible bool) {
	q.totalFrames++
	if bothFeetVisible {
		q.goodFrames++
	}
}

// Ratio returns goodFrames/totalFrames, or 0 before any frame.
func (q *QualityMonitor) Ratio() float64 {
	if q.totalFrames == 0 {
		return 0
	}
	return float64(q.goodFrames) / float64(q.totalFrames)
}

// Counts returns the raw counters.
func (q *QualityMonitor) Counts() (good, total int) {
	return q.goodFrames, q.totalFrames
}

// Classify returns the current classification. Poor requires enough frames to
// be meaningful; before that a low ratio reads as insufficient data.
func (q *QualityMonitor) Classify() Quality {
	ratio := q.Ratio()
	switch {
	case ratio > qualityGoodRatio:
		return QualityGood
	case ratio > qualityMediumRatio:
		return QualityMedium
	case q.totalFrames > qualityMinFrames:
		return QualityPoor
	default:
		return QualityInsufficient
	}
}

// Reset zeroes both counters.
func (q *QualityMonitor) Reset() {
	q.goodFrames = 0
	q.totalFrames = 0
}

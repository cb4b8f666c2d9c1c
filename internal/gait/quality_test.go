package gait

import "testing"

func observeN(q *QualityMonitor, good, bad int) {
	for i := 0; i < good; i++ {
		q.Observe(true)
	}
	for i := 0; i < bad; i++ {
		q.Observe(false)
	}
}

func TestQualityClassification(t *testing.T) {
	tests := []struct {
		name string
		good int
		bad  int
		want Quality
	}{
		{"ratio 0.80 is good", 16, 4, QualityGood},
		{"ratio 0.50 is medium", 10, 10, QualityMedium},
		{"ratio 0.20 over 20 frames is poor", 4, 16, QualityPoor},
		{"low ratio but few frames", 1, 9, QualityInsufficient},
		{"no frames", 0, 0, QualityInsufficient},
		{"boundary 0.75 is medium", 15, 5, QualityMedium},
		{"boundary 0.45 over enough frames is poor", 9, 11, QualityPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &QualityMonitor{}
			observeN(q, tt.good, tt.bad)
			if got := q.Classify(); got != tt.want {
				t.Errorf("Classify() = %v, want %v (ratio %v over %d)", got, tt.want, q.Ratio(), tt.good+tt.bad)
			}
		})
	}
}

func TestQualityCountersMonotonic(t *testing.T) {
	q := &QualityMonitor{}
	observeN(q, 7, 3)

	good, total := q.Counts()
	if good != 7 || total != 10 {
		t.Errorf("Counts() = %d,%d, want 7,10", good, total)
	}
	if good > total {
		t.Error("goodFrames exceeds totalFrames")
	}
}

func TestQualityReset(t *testing.T) {
	q := &QualityMonitor{}
	observeN(q, 5, 5)
	q.Reset()

	good, total := q.Counts()
	if good != 0 || total != 0 {
		t.Errorf("Counts() after Reset = %d,%d, want 0,0", good, total)
	}
	if got := q.Classify(); got != QualityInsufficient {
		t.Errorf("Classify() after Reset = %v, want insufficient", got)
	}
}

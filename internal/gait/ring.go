// Package gait implements the gait event detection and metrics engine: foot
// trajectory smoothing, strike detection, ground calibration, step/stride
// metrics, tracking quality and the analysis session state machine.
package gait

// ring is a fixed-capacity float64 ring buffer with O(1) push-and-evict.
// Index 0 is the oldest retained sample.
type ring struct {
	buf   []float64
	start int
	n     int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]float64, capacity)}
}

// Push appends a value, silently dropping the oldest when full.
func (r *ring) Push(v float64) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = v
		r.n++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Len returns the number of retained samples.
func (r *ring) Len() int { return r.n }

// At returns the i-th retained sample, 0 being the oldest. Panics on
// out-of-range access, matching slice semantics.
func (r *ring) At(i int) float64 {
	if i < 0 || i >= r.n {
		panic("ring: index out of range")
	}
	return r.buf[(r.start+i)%len(r.buf)]
}

// Last returns the sample offset positions back from the newest; Last(0) is
// the newest retained sample.
func (r *ring) Last(offset int) float64 {
	return r.At(r.n - 1 - offset)
}

// TailMean returns the mean of the newest n samples, or of all samples when
// fewer than n are retained.
func (r *ring) TailMean(n int) float64 {
	if r.n == 0 {
		return 0
	}
	if n > r.n {
		n = r.n
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += r.Last(i)
	}
	return sum / float64(n)
}

// Values returns the retained samples oldest-first as a fresh slice.
func (r *ring) Values() []float64 {
	out := make([]float64, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.At(i)
	}
	return out
}

// Reset discards all samples in place.
func (r *ring) Reset() {
	r.start = 0
	r.n = 0
}

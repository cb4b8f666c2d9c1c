package framemux

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/monitoring"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/timeutil"
)

// ReplaySource reads JSONL frame captures, one JSON frame per line. With
// pacing enabled it sleeps out the timestamp delta between consecutive frames
// so a capture replays at recording speed; without pacing it reads as fast as
// the consumer drains.
type ReplaySource struct {
	r      io.ReadCloser
	scan   *bufio.Scanner
	clock  timeutil.Clock
	paced  bool
	lastMs float64
	line   int
}

// maxFrameLineBytes bounds a single JSONL line. A full 33-landmark frame is
// around 4KB; 1MB leaves room for extra fields without admitting runaway
// lines.
const maxFrameLineBytes = 1 << 20

// NewReplaySource creates a replay source over r. When paced is true, frame
// delivery is slowed to match the recorded timestamps using the given clock.
func NewReplaySource(r io.ReadCloser, clock timeutil.Clock, paced bool) *ReplaySource {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 64*1024), maxFrameLineBytes)
	return &ReplaySource{
		r:      r,
		scan:   scan,
		clock:  clock,
		paced:  paced,
		lastMs: -1,
	}
}

// ReadFrame returns the next frame from the capture. Blank lines are skipped;
// a malformed line is logged and skipped rather than ending the replay.
func (s *ReplaySource) ReadFrame() (*pose.Frame, error) {
	for s.scan.Scan() {
		s.line++
		text := strings.TrimSpace(s.scan.Text())
		if text == "" {
			continue
		}

		f, err := DecodeFrame([]byte(text))
		if err != nil {
			monitoring.Logf("replay: skipping line %d: %v", s.line, err)
			continue
		}

		if s.paced && s.lastMs >= 0 && f.TimestampMs > s.lastMs {
			delta := time.Duration(f.TimestampMs-s.lastMs) * time.Millisecond
			t := s.clock.NewTimer(delta)
			<-t.C()
		}
		s.lastMs = f.TimestampMs
		return f, nil
	}

	if err := s.scan.Err(); err != nil {
		return nil, fmt.Errorf("replay read failed: %w", err)
	}
	return nil, io.EOF
}

// Close closes the underlying capture reader.
func (s *ReplaySource) Close() error {
	return s.r.Close()
}

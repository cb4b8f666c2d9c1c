package framemux

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/timeutil"
)

// TestReplaySource_ReadsJSONL tests reading a capture line by line, skipping
// blanks and malformed lines
func TestReplaySource_ReadsJSONL(t *testing.T) {
	capture := strings.Join([]string{
		`{"timestamp_ms": 0, "pixel_height": 720}`,
		``,
		`not json at all`,
		`{"timestamp_ms": 33, "pixel_height": 720}`,
	}, "\n")

	src := NewReplaySource(io.NopCloser(strings.NewReader(capture)), timeutil.RealClock{}, false)
	defer src.Close()

	f1, err := src.ReadFrame()
	if err != nil {
		t.Fatalf("first ReadFrame: %v", err)
	}
	if f1.TimestampMs != 0 {
		t.Errorf("first frame ts = %v, want 0", f1.TimestampMs)
	}

	f2, err := src.ReadFrame()
	if err != nil {
		t.Fatalf("second ReadFrame: %v", err)
	}
	if f2.TimestampMs != 33 {
		t.Errorf("second frame ts = %v, want 33 (blank and malformed lines skipped)", f2.TimestampMs)
	}

	if _, err := src.ReadFrame(); err != io.EOF {
		t.Errorf("ReadFrame at end = %v, want io.EOF", err)
	}
}

// TestReplaySource_Pacing tests that paced replay waits out timestamp deltas
// on the injected clock
func TestReplaySource_Pacing(t *testing.T) {
	capture := `{"timestamp_ms": 0, "pixel_height": 720}` + "\n" +
		`{"timestamp_ms": 200, "pixel_height": 720}` + "\n"

	clock := timeutil.NewMockClock(time.Unix(0, 0))
	src := NewReplaySource(io.NopCloser(strings.NewReader(capture)), clock, true)
	defer src.Close()

	if _, err := src.ReadFrame(); err != nil {
		t.Fatalf("first ReadFrame: %v", err)
	}

	// The second read blocks on a 200ms timer until the clock advances.
	got := make(chan float64, 1)
	go func() {
		f, err := src.ReadFrame()
		if err != nil {
			t.Errorf("second ReadFrame: %v", err)
			return
		}
		got <- f.TimestampMs
	}()

	select {
	case ts := <-got:
		t.Fatalf("paced read returned ts %v before clock advanced", ts)
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(200 * time.Millisecond)
	select {
	case ts := <-got:
		if ts != 200 {
			t.Errorf("second frame ts = %v, want 200", ts)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting for paced frame")
	}
}

// TestReplaySource_UnpacedIgnoresTimestamps tests that unpaced replay never
// touches a timer
func TestReplaySource_UnpacedIgnoresTimestamps(t *testing.T) {
	capture := `{"timestamp_ms": 0, "pixel_height": 720}` + "\n" +
		`{"timestamp_ms": 60000, "pixel_height": 720}` + "\n"

	// A mock clock that is never advanced: a timer wait would hang.
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	src := NewReplaySource(io.NopCloser(strings.NewReader(capture)), clock, false)
	defer src.Close()

	for i := 0; i < 2; i++ {
		if _, err := src.ReadFrame(); err != nil {
			t.Fatalf("ReadFrame %d: %v", i, err)
		}
	}
}

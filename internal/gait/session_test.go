package gait

import (
	"testing"
	"time"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/timeutil"
)

func newTestMachine() (*stateMachine, *timeutil.MockClock) {
	clock := timeutil.NewMockClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	return newStateMachine(clock, 10*time.Second, 5*time.Second), clock
}

func TestStateMachineLifecycle(t *testing.T) {
	sm, clock := newTestMachine()

	if sm.state != StateIdle {
		t.Fatalf("initial state = %v, want idle", sm.state)
	}

	sm.Start()
	if sm.state != StateWarmUp {
		t.Fatalf("state after Start = %v, want warmup", sm.state)
	}

	clock.Advance(9 * time.Second)
	if entered := sm.advance(); len(entered) != 0 {
		t.Fatalf("transitions before warm-up end: %v", entered)
	}

	clock.Advance(1 * time.Second)
	entered := sm.advance()
	if len(entered) != 1 || entered[0] != StateCountdown {
		t.Fatalf("entered = %v, want [countdown]", entered)
	}

	clock.Advance(5 * time.Second)
	entered = sm.advance()
	if len(entered) != 1 || entered[0] != StateAnalyzing {
		t.Fatalf("entered = %v, want [analyzing]", entered)
	}
}

func TestStateMachineSkipsAcrossPhases(t *testing.T) {
	sm, clock := newTestMachine()
	sm.Start()

	// A long gap between checks crosses both timed boundaries in order.
	clock.Advance(20 * time.Second)
	entered := sm.advance()
	if len(entered) != 2 || entered[0] != StateCountdown || entered[1] != StateAnalyzing {
		t.Fatalf("entered = %v, want [countdown analyzing]", entered)
	}
}

func TestStateMachineStopFromAnyState(t *testing.T) {
	for _, setup := range []struct {
		name    string
		advance time.Duration
	}{
		{"from warmup", 0},
		{"from countdown", 10 * time.Second},
		{"from analyzing", 15 * time.Second},
	} {
		t.Run(setup.name, func(t *testing.T) {
			sm, clock := newTestMachine()
			sm.Start()
			clock.Advance(setup.advance)
			sm.advance()

			sm.Stop()
			if sm.state != StateIdle {
				t.Errorf("state after Stop = %v, want idle", sm.state)
			}
			// No timed resurrection.
			clock.Advance(time.Minute)
			if entered := sm.advance(); len(entered) != 0 {
				t.Errorf("transitions after Stop: %v", entered)
			}
		})
	}
}

func TestStateMachineLabels(t *testing.T) {
	sm, clock := newTestMachine()

	if got := sm.label(); got != "idle" {
		t.Errorf("idle label = %q", got)
	}

	sm.Start()
	if got := sm.label(); got != "warm-up 10s" {
		t.Errorf("warmup label = %q, want \"warm-up 10s\"", got)
	}

	clock.Advance(10 * time.Second)
	sm.advance()
	if got := sm.label(); got != "5" {
		t.Errorf("countdown label = %q, want \"5\"", got)
	}
	clock.Advance(2500 * time.Millisecond)
	if got := sm.label(); got != "3" {
		t.Errorf("countdown label = %q, want \"3\"", got)
	}

	clock.Advance(2500 * time.Millisecond)
	sm.advance()
	if got := sm.label(); got != "analyzing" {
		t.Errorf("analyzing label = %q", got)
	}
}

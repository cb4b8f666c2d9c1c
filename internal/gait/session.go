package gait

import (
	"fmt"
	"time"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/timeutil"
)

// SessionState is the lifecycle phase of an analysis session.
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateWarmUp    SessionState = "warmup"
	StateCountdown SessionState = "countdown"
	StateAnalyzing SessionState = "analyzing"
)

// stateMachine drives the Idle -> WarmUp -> Countdown -> Analyzing cycle.
// Transitions are time-driven against the injected clock and are evaluated
// cooperatively at frame and snapshot boundaries; there are no internal
// timers. Stop is permitted from any state.
type stateMachine struct {
	clock      timeutil.Clock
	state      SessionState
	phaseStart time.Time

	warmup    time.Duration
	countdown time.Duration
}

func newStateMachine(clock timeutil.Clock, warmup, countdown time.Duration) *stateMachine {
	return &stateMachine{
		clock:     clock,
		state:     StateIdle,
		warmup:    warmup,
		countdown: countdown,
	}
}

// Start enters the warm-up phase.
func (s *stateMachine) Start() {
	s.state = StateWarmUp
	s.phaseStart = s.clock.Now()
}

// Stop cancels to Idle from any state.
func (s *stateMachine) Stop() {
	s.state = StateIdle
}

// advance applies any due time-driven transitions and returns the states
// entered, in order. Phase starts are advanced by the phase duration rather
// than reset to now, so a late check crosses both boundaries correctly.
func (s *stateMachine) advance() []SessionState {
	var entered []SessionState

	if s.state == StateWarmUp && s.clock.Since(s.phaseStart) >= s.warmup {
		s.state = StateCountdown
		s.phaseStart = s.phaseStart.Add(s.warmup)
		entered = append(entered, StateCountdown)
	}
	if s.state == StateCountdown && s.clock.Since(s.phaseStart) >= s.countdown {
		s.state = StateAnalyzing
		s.phaseStart = s.phaseStart.Add(s.countdown)
		entered = append(entered, StateAnalyzing)
	}
	return entered
}

// remaining returns the time left in the current timed phase, zero for
// untimed states.
func (s *stateMachine) remaining() time.Duration {
	var total time.Duration
	switch s.state {
	case StateWarmUp:
		total = s.warmup
	case StateCountdown:
		total = s.countdown
	default:
		return 0
	}
	left := total - s.clock.Since(s.phaseStart)
	if left < 0 {
		return 0
	}
	return left
}

// label renders the host-facing state text, including the countdown seconds.
func (s *stateMachine) label() string {
	switch s.state {
	case StateWarmUp:
		return fmt.Sprintf("warm-up %ds", ceilSeconds(s.remaining()))
	case StateCountdown:
		return fmt.Sprintf("%d", ceilSeconds(s.remaining()))
	case StateAnalyzing:
		return "analyzing"
	default:
		return "idle"
	}
}

func ceilSeconds(d time.Duration) int {
	secs := int(d / time.Second)
	if d%time.Second > 0 {
		secs++
	}
	return secs
}

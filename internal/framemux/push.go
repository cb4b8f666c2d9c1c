package framemux

import (
	"fmt"
	"io"
	"sync"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"
)

// PushSource is a FrameSource fed by an external producer, used for the HTTP
// ingest path where a capture client POSTs frames as they are estimated.
type PushSource struct {
	frames chan *pose.Frame

	mu     sync.Mutex
	closed bool
}

// pushBuffer absorbs short ingest bursts without blocking HTTP handlers.
const pushBuffer = 64

// NewPushSource creates an empty push-fed source.
func NewPushSource() *PushSource {
	return &PushSource{frames: make(chan *pose.Frame, pushBuffer)}
}

// Push queues a frame for delivery. It returns an error when the source is
// closed or the buffer is full; ingest callers surface that as backpressure.
func (s *PushSource) Push(f *pose.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("push source is closed")
	}
	select {
	case s.frames <- f:
		return nil
	default:
		return fmt.Errorf("frame buffer full")
	}
}

// ReadFrame blocks until a frame is pushed or the source is closed.
func (s *PushSource) ReadFrame() (*pose.Frame, error) {
	f, ok := <-s.frames
	if !ok {
		return nil, io.EOF
	}
	return f, nil
}

// Close stops the source. Frames already queued are still delivered before
// ReadFrame reports EOF.
func (s *PushSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.frames)
	}
	return nil
}

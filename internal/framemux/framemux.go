// Framemux provides an abstraction over a pose frame source with the ability
// for multiple clients to subscribe to decoded frames from a single capture
// stream.
package framemux

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"io"
	"sync"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"
)

// FrameSource is the minimal interface for a stream of pose frames. Sources
// block in ReadFrame until a frame is available, the stream ends (io.EOF) or
// the source fails.
type FrameSource interface {
	ReadFrame() (*pose.Frame, error)
	Close() error
}

// FrameMux is a generic frame multiplexer that allows multiple clients to
// subscribe to frames from a single source.
type FrameMux[T FrameSource] struct {
	source       T
	subscribers  map[string]chan *pose.Frame
	subscriberMu sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// FrameMuxInterface defines the interface for the FrameMux type.
type FrameMuxInterface interface {
	// Subscribe creates a new channel for receiving frames from the source.
	// The channel ID is used to identify the unique channel when
	// unsubscribing.
	Subscribe() (string, chan *pose.Frame)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// Monitor reads frames from the source and fans them out to subscribers.
	Monitor(context.Context) error
	// Close closes all subscribed channels and the underlying source.
	Close() error
}

// NewFrameMux creates a FrameMux instance backed by the given source.
func NewFrameMux[T FrameSource](source T) *FrameMux[T] {
	return &FrameMux[T]{
		source:      source,
		subscribers: make(map[string]chan *pose.Frame),
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (m *FrameMux[T]) Subscribe() (string, chan *pose.Frame) {
	id := randomID()
	ch := make(chan *pose.Frame)
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	m.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the frame mux.
func (m *FrameMux[T]) Unsubscribe(id string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

// Monitor reads frames from the source and sends them to subscribers. A
// subscriber that is not draining its channel misses frames rather than
// stalling the stream.
func (m *FrameMux[T]) Monitor(ctx context.Context) error {
	frameChan := make(chan *pose.Frame)
	readErrChan := make(chan error, 1)

	// start a goroutine to read from the source & send decoded frames to
	// frameChan, and any terminal error to readErrChan.
	//
	// the blocking ReadFrame will not interfere with our outer loop awaiting
	// frames & context cancellation.
	go func() {
		defer close(frameChan)
		for {
			f, err := m.source.ReadFrame()
			if err != nil {
				select {
				case readErrChan <- err:
				case <-ctx.Done():
				}
				return
			}
			select {
			case frameChan <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErrChan:
			if err == io.EOF {
				return nil
			}
			return err

		case f, ok := <-frameChan:
			if !ok {
				// the reader queues its terminal error before closing
				// frameChan, so a pending failure is visible here.
				select {
				case err := <-readErrChan:
					if err != io.EOF {
						return err
					}
				default:
				}
				return nil
			}
			m.closingMu.Lock()
			if m.closing {
				m.closingMu.Unlock()
				return nil
			}
			m.closingMu.Unlock()

			m.subscriberMu.Lock()
			for _, ch := range m.subscribers {
				select {
				case ch <- f:
				default:
					// skip slow subscribers so as not to block the outer loop
				}
			}
			m.subscriberMu.Unlock()
		}
	}
}

func (m *FrameMux[T]) Close() error {
	m.closingMu.Lock()
	m.closing = true
	m.closingMu.Unlock()

	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	return m.source.Close()
}

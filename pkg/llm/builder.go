package llm

import (
	"github.com/slidex/slidex/pkg/buffer"
)

type streamEvent struct {
	frag *Fragment
	err  error
}

// StreamBuilder is the producer side of a Stream. A backend puller
// goroutine adds fragments and finishes with Done or Abort; the consumer
// reads through the Stream view. The builder paces the producer against the
// consumer with a fixed-size blocking ring.
type StreamBuilder struct {
	rb *buffer.Ring[streamEvent]
}

// NewStreamBuilder creates a builder whose ring holds size events.
func NewStreamBuilder(size int) *StreamBuilder {
	return &StreamBuilder{rb: buffer.NewRing[streamEvent](size)}
}

// Add appends fragments to the stream in order.
func (b *StreamBuilder) Add(frags ...*Fragment) error {
	for _, f := range frags {
		if err := b.rb.Add(streamEvent{frag: f}); err != nil {
			return err
		}
	}
	return nil
}

// Done terminates the stream normally. The consumer sees ErrDone after
// draining buffered fragments.
func (b *StreamBuilder) Done() error {
	if err := b.rb.Add(streamEvent{err: ErrDone}); err != nil {
		return err
	}
	return b.rb.CloseWrite()
}

// Abort terminates the stream with a stream-level failure.
func (b *StreamBuilder) Abort(err error) error {
	if aerr := b.rb.Add(streamEvent{err: err}); aerr != nil {
		// The consumer is gone; close hard so the puller stops.
		return b.rb.CloseWithError(err)
	}
	return b.rb.CloseWrite()
}

// Stream returns the consumer view of the builder.
func (b *StreamBuilder) Stream() Stream {
	return (*streamImpl)(b)
}

type streamImpl StreamBuilder

func (s *streamImpl) Next() (*Fragment, error) {
	evt, err := s.rb.Next()
	if err != nil {
		return nil, err
	}
	if evt.err != nil {
		s.rb.CloseWithError(evt.err)
		return nil, evt.err
	}
	return evt.frag, nil
}

func (s *streamImpl) Close() error {
	return s.rb.Close()
}

func (s *streamImpl) CloseWithError(err error) error {
	return s.rb.CloseWithError(err)
}

// Package buffer provides a generic blocking ring buffer used as the seam
// between a producing goroutine and a consuming loop.
//
// A Ring has a fixed capacity. Add blocks while the ring is full and Next
// blocks while it is empty, so a fast producer is paced by its consumer
// without unbounded memory growth.
package buffer

import (
	"fmt"
	"io"
	"sync"
)

// Ring is a thread-safe fixed-size blocking ring buffer.
//
// The zero value is not usable; create one with NewRing.
type Ring[T any] struct {
	cond *sync.Cond

	mu         sync.Mutex
	buf        []T
	head, tail int64
	closeWrite bool
	closeErr   error
}

// NewRing creates a Ring with the given capacity.
func NewRing[T any](size int) *Ring[T] {
	r := &Ring[T]{buf: make([]T, size)}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Add appends one element to the ring, blocking while the ring is full.
//
// Returns an error if the ring has been closed for writing or closed with
// an error.
func (r *Ring[T]) Add(v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if r.closeErr != nil {
			return fmt.Errorf("buffer: add to closed ring: %w", r.closeErr)
		}
		if r.closeWrite {
			return fmt.Errorf("buffer: add to closed ring: %w", io.ErrClosedPipe)
		}
		if r.tail-r.head < int64(len(r.buf)) {
			break
		}
		r.cond.Wait()
	}
	r.buf[r.tail%int64(len(r.buf))] = v
	r.tail++
	r.cond.Broadcast()
	return nil
}

// Next removes and returns the next element, blocking while the ring is
// empty.
//
// After CloseWrite, Next drains the remaining elements and then returns
// io.EOF. After CloseWithError, Next returns the close error immediately,
// discarding anything still buffered.
func (r *Ring[T]) Next() (v T, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if r.closeErr != nil {
			err = fmt.Errorf("buffer: next from closed ring: %w", r.closeErr)
			return
		}
		if r.head != r.tail {
			break
		}
		if r.closeWrite {
			err = io.EOF
			return
		}
		r.cond.Wait()
	}
	i := r.head % int64(len(r.buf))
	v = r.buf[i]
	var zero T
	r.buf[i] = zero
	r.head++
	r.cond.Broadcast()
	return v, nil
}

// Len returns the number of buffered elements.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.tail - r.head)
}

// CloseWrite closes the write side. Buffered elements remain readable;
// once drained, Next returns io.EOF. Idempotent.
func (r *Ring[T]) CloseWrite() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeWrite {
		return nil
	}
	r.closeWrite = true
	r.cond.Broadcast()
	return nil
}

// CloseWithError closes both sides of the ring. Pending Add and Next calls
// unblock with the given error. A nil err is replaced by io.ErrClosedPipe.
// Only the first close takes effect.
func (r *Ring[T]) CloseWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeErr != nil {
		return nil
	}
	r.closeErr = err
	r.closeWrite = true
	r.cond.Broadcast()
	return nil
}

// Close closes the ring. Equivalent to CloseWithError(io.ErrClosedPipe).
func (r *Ring[T]) Close() error {
	return r.CloseWithError(io.ErrClosedPipe)
}

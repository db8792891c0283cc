// Package toolcall reassembles streamed tool-call fragments into complete
// invocations.
//
// A model turn may interleave deltas for several invocations. Each
// invocation is announced once with an id; continuation fragments may omit
// the id and belong to the most recently announced invocation. The
// Aggregator buffers argument text per invocation and releases everything
// at a turn boundary, in the order invocation ids were first seen.
package toolcall

import (
	"github.com/slidex/slidex/pkg/llm"
)

// Invocation is one fully assembled function invocation.
type Invocation struct {
	ID   string
	Name string
	Args string
}

// Aggregator accumulates tool-call fragments for the current turn.
//
// It is owned by a single session goroutine and is not safe for concurrent
// use.
type Aggregator struct {
	open    map[string]*Invocation
	order   []string
	current string
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{open: make(map[string]*Invocation)}
}

// Ingest folds one fragment into the open invocation set.
//
// A fragment with an unseen id opens a new invocation and makes it
// current; a repeated id is coalesced into the existing invocation, not
// treated as an error. A fragment without an id continues the current
// invocation; if nothing is open it is dropped silently, since a confused
// producer must not take down the whole stream. Non tool-call fragments
// are ignored.
func (a *Aggregator) Ingest(f *llm.Fragment) {
	if f == nil || f.Kind != llm.FragmentToolCall {
		return
	}
	if f.ID != "" {
		if _, ok := a.open[f.ID]; !ok {
			a.open[f.ID] = &Invocation{ID: f.ID}
			a.order = append(a.order, f.ID)
		}
		a.current = f.ID
	}
	if a.current == "" {
		return
	}
	inv := a.open[a.current]
	inv.Name += f.Name
	inv.Args += f.Args
}

// Open returns the number of invocations buffered for the current turn.
func (a *Aggregator) Open() int {
	return len(a.open)
}

// Flush returns the buffered invocations in the order their ids were first
// seen and resets the aggregator for the next turn. Invocations that never
// received argument text are skipped; there is nothing to decode.
func (a *Aggregator) Flush() []Invocation {
	out := make([]Invocation, 0, len(a.order))
	for _, id := range a.order {
		inv := a.open[id]
		if inv.Args == "" {
			continue
		}
		out = append(out, *inv)
	}
	a.open = make(map[string]*Invocation)
	a.order = a.order[:0]
	a.current = ""
	return out
}

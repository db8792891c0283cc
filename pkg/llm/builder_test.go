package llm

import (
	"errors"
	"testing"
)

func TestStreamBuilderOrder(t *testing.T) {
	sb := NewStreamBuilder(8)
	frags := []*Fragment{
		{Kind: FragmentToolCall, ID: "call_1", Name: "add_slide", Args: `{"slideIn`},
		{Kind: FragmentToolCall, Args: `dex":0}`},
		{Kind: FragmentTurnEnd},
	}
	if err := sb.Add(frags...); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := sb.Done(); err != nil {
		t.Fatalf("Done: %v", err)
	}

	s := sb.Stream()
	for i, want := range frags {
		got, err := s.Next()
		if err != nil {
			t.Fatalf("Next #%d: %v", i, err)
		}
		if got != want {
			t.Fatalf("Next #%d = %+v, want %+v", i, got, want)
		}
	}
	if _, err := s.Next(); !errors.Is(err, ErrDone) {
		t.Fatalf("Next after Done = %v, want ErrDone", err)
	}
	// The terminal error is sticky.
	if _, err := s.Next(); !errors.Is(err, ErrDone) {
		t.Fatalf("Next again = %v, want ErrDone", err)
	}
}

func TestStreamBuilderAbort(t *testing.T) {
	sb := NewStreamBuilder(8)
	boom := errors.New("upstream gone")
	if err := sb.Add(&Fragment{Kind: FragmentText, Text: "partial"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := sb.Abort(boom); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	s := sb.Stream()
	if _, err := s.Next(); err != nil {
		t.Fatalf("Next before failure: %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, boom) {
		t.Fatalf("Next = %v, want %v", err, boom)
	}
}

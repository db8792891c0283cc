package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/slidex/slidex/pkg/deck"
	"github.com/slidex/slidex/pkg/hub"
	"github.com/slidex/slidex/pkg/kv"
	"github.com/slidex/slidex/pkg/llm"
	"github.com/slidex/slidex/pkg/storage"
	"github.com/slidex/slidex/pkg/todo"
)

// scriptedSource replays a fixed fragment sequence.
type scriptedSource struct {
	frags []*llm.Fragment
	abort error
}

func (s *scriptedSource) Open(_ context.Context, _ *llm.Request) (llm.Stream, error) {
	sb := llm.NewStreamBuilder(len(s.frags) + 4)
	if err := sb.Add(s.frags...); err != nil {
		return nil, err
	}
	if s.abort != nil {
		sb.Abort(s.abort)
	} else {
		sb.Done()
	}
	return sb.Stream(), nil
}

func (s *scriptedSource) Invoke(context.Context, *llm.Request) (*llm.Completion, error) {
	return nil, errors.New("scripted source is stream only")
}

func addSlideFrags(id string, index int, title string) []*llm.Fragment {
	args := fmt.Sprintf(`{"html":"<section>%s</section>","slideIndex":%d,"title":%q}`, title, index, title)
	// Split the argument text to exercise reassembly.
	half := len(args) / 2
	return []*llm.Fragment{
		{Kind: llm.FragmentToolCall, ID: id, Name: "add_slide", Args: args[:half]},
		{Kind: llm.FragmentToolCall, Args: args[half:]},
	}
}

func updateTodoFrag(id string, index int) *llm.Fragment {
	return &llm.Fragment{
		Kind: llm.FragmentToolCall, ID: id, Name: "update_todo",
		Args: fmt.Sprintf(`{"slideIndex":%d}`, index),
	}
}

func turnEnd() *llm.Fragment {
	return &llm.Fragment{Kind: llm.FragmentTurnEnd}
}

func newTestSession(t *testing.T, src llm.Source) (*Session, *hub.Subscriber, *todo.List, *deck.Store) {
	t.Helper()
	fs, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	ledger := todo.NewList(fs, "TODO.md")
	store := deck.NewStore(kv.NewMemory())
	h := hub.New()
	t.Cleanup(h.Close)
	sub := h.Subscribe("")

	s, err := New(Config{
		ID:     "sess-test",
		Source: src,
		Hub:    h,
		Ledger: ledger,
		Deck:   store,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, sub, ledger, store
}

type wireMessage struct {
	Type       string `json:"type"`
	SlideIndex int    `json:"slideIndex"`
	Title      string `json:"title"`
	HTML       string `json:"html"`
	Message    string `json:"message"`
	Completed  bool   `json:"completed"`
	Details    string `json:"details"`
}

func drain(t *testing.T, sub *hub.Subscriber) []wireMessage {
	t.Helper()
	var out []wireMessage
	for {
		select {
		case env := <-sub.C:
			var msg wireMessage
			if err := json.Unmarshal(env.Data, &msg); err != nil {
				t.Fatalf("Unmarshal(%q) error = %v", env.Data, err)
			}
			if env.Session != "sess-test" {
				t.Fatalf("Session = %q, want %q", env.Session, "sess-test")
			}
			out = append(out, msg)
		case <-time.After(50 * time.Millisecond):
			return out
		}
	}
}

func TestRunThreeSlides(t *testing.T) {
	var frags []*llm.Fragment
	titles := []string{"Intro", "Results", "Summary"}
	for i, title := range titles {
		frags = append(frags, addSlideFrags(fmt.Sprintf("call_a%d", i), i, title)...)
		frags = append(frags, updateTodoFrag(fmt.Sprintf("call_t%d", i), i))
		frags = append(frags, turnEnd())
	}
	src := &scriptedSource{frags: frags}
	s, sub, ledger, store := newTestSession(t, src)

	err := s.Run(context.Background(), &Request{
		Prompt:  "quarterly review",
		Outline: deck.Outline{{Title: "Intro"}, {Title: "Results"}, {Title: "Summary"}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.State() != Completed {
		t.Fatalf("State() = %v, want %v", s.State(), Completed)
	}

	msgs := drain(t, sub)
	// Per slide: slide, progress, todo_update. Then generation_complete.
	if len(msgs) != 10 {
		t.Fatalf("len(msgs) = %d, want 10", len(msgs))
	}
	for i, title := range titles {
		base := i * 3
		if msgs[base].Type != "slide" || msgs[base].SlideIndex != i || msgs[base].Title != title {
			t.Fatalf("msgs[%d] = %+v, want slide %d %q", base, msgs[base], i, title)
		}
		wantProgress := fmt.Sprintf("Generated slide %d: %s", i+1, title)
		if msgs[base+1].Type != "progress" || msgs[base+1].Message != wantProgress {
			t.Fatalf("msgs[%d] = %+v, want progress %q", base+1, msgs[base+1], wantProgress)
		}
		if msgs[base+2].Type != "todo_update" || msgs[base+2].SlideIndex != i || !msgs[base+2].Completed {
			t.Fatalf("msgs[%d] = %+v, want todo_update %d", base+2, msgs[base+2], i)
		}
	}
	last := msgs[len(msgs)-1]
	if last.Type != "generation_complete" || last.Message != "All slides have been generated!" {
		t.Fatalf("last = %+v, want generation_complete", last)
	}

	for _, e := range ledger.Snapshot() {
		if !e.Done {
			t.Fatalf("ledger entry %d not done", e.Index)
		}
	}

	slides, err := store.Slides(context.Background(), "sess-test")
	if err != nil {
		t.Fatalf("Slides() error = %v", err)
	}
	if len(slides) != 3 {
		t.Fatalf("len(slides) = %d, want 3", len(slides))
	}
}

func TestRunSkipsMalformedInvocation(t *testing.T) {
	frags := []*llm.Fragment{
		{Kind: llm.FragmentToolCall, ID: "call_bad", Name: "add_slide", Args: `{"html": [42]}`},
	}
	frags = append(frags, addSlideFrags("call_ok", 0, "Intro")...)
	frags = append(frags, turnEnd())
	src := &scriptedSource{frags: frags}
	s, sub, _, _ := newTestSession(t, src)

	err := s.Run(context.Background(), &Request{
		Prompt:  "x",
		Outline: deck.Outline{{Title: "Intro"}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.State() != Completed {
		t.Fatalf("State() = %v, want %v", s.State(), Completed)
	}

	msgs := drain(t, sub)
	var slides, errs int
	for _, m := range msgs {
		switch m.Type {
		case "slide":
			slides++
		case "error":
			errs++
		}
	}
	if slides != 1 {
		t.Fatalf("slide messages = %d, want 1", slides)
	}
	if errs != 0 {
		t.Fatalf("error messages = %d, want 0", errs)
	}
}

func TestRunFlushesOnDoneWithoutTurnEnd(t *testing.T) {
	frags := addSlideFrags("call_1", 0, "Intro")
	src := &scriptedSource{frags: frags}
	s, sub, _, _ := newTestSession(t, src)

	if err := s.Run(context.Background(), &Request{
		Prompt:  "x",
		Outline: deck.Outline{{Title: "Intro"}},
	}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	msgs := drain(t, sub)
	if len(msgs) == 0 || msgs[0].Type != "slide" {
		t.Fatalf("msgs = %+v, want leading slide message", msgs)
	}
}

func TestRunStreamFailure(t *testing.T) {
	frags := addSlideFrags("call_1", 0, "Intro")
	frags = append(frags, turnEnd())
	src := &scriptedSource{frags: frags, abort: errors.New("backend: connection reset")}
	s, sub, _, _ := newTestSession(t, src)

	err := s.Run(context.Background(), &Request{
		Prompt:  "x",
		Outline: deck.Outline{{Title: "Intro"}, {Title: "More"}},
	})
	if err == nil {
		t.Fatal("Run() error = nil, want stream failure")
	}
	if s.State() != Failed {
		t.Fatalf("State() = %v, want %v", s.State(), Failed)
	}

	msgs := drain(t, sub)
	last := msgs[len(msgs)-1]
	if last.Type != "error" || last.Message != "Failed to generate slides" {
		t.Fatalf("last = %+v, want error message", last)
	}
	if last.Details != "backend: connection reset" {
		t.Fatalf("Details = %q, want cause text", last.Details)
	}
	// The slide delivered before the failure still went out.
	if msgs[0].Type != "slide" {
		t.Fatalf("msgs[0] = %+v, want slide", msgs[0])
	}
}

func TestRunOneShot(t *testing.T) {
	src := &scriptedSource{}
	s, _, _, _ := newTestSession(t, src)
	req := &Request{Prompt: "x", Outline: deck.Outline{{Title: "A"}}}

	if err := s.Run(context.Background(), req); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := s.Run(context.Background(), req); !errors.Is(err, ErrAlreadyRun) {
		t.Fatalf("second Run() error = %v, want ErrAlreadyRun", err)
	}
}

// guardedSource fails the test if the session opens a stream.
type guardedSource struct {
	t *testing.T
}

func (g *guardedSource) Open(context.Context, *llm.Request) (llm.Stream, error) {
	g.t.Error("Open() called for a request that should have been rejected")
	return nil, errors.New("rejected")
}

func (g *guardedSource) Invoke(context.Context, *llm.Request) (*llm.Completion, error) {
	return nil, errors.New("stream only")
}

func TestRunRejectsBeforeStreaming(t *testing.T) {
	s, sub, _, _ := newTestSession(t, &guardedSource{t: t})

	err := s.Run(context.Background(), &Request{Prompt: "x"})
	if err == nil {
		t.Fatal("Run() error = nil, want validation failure")
	}
	if s.State() != Failed {
		t.Fatalf("State() = %v, want %v", s.State(), Failed)
	}
	msgs := drain(t, sub)
	if len(msgs) != 1 || msgs[0].Type != "error" {
		t.Fatalf("msgs = %+v, want single error", msgs)
	}
}

func TestRunValidatesRequest(t *testing.T) {
	cases := []struct {
		name string
		req  *Request
	}{
		{"empty prompt", &Request{Outline: deck.Outline{{Title: "A"}}}},
		{"empty outline", &Request{Prompt: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, sub, _, _ := newTestSession(t, &scriptedSource{})
			if err := s.Run(context.Background(), tc.req); err == nil {
				t.Fatal("Run() error = nil, want validation failure")
			}
			if s.State() != Failed {
				t.Fatalf("State() = %v, want %v", s.State(), Failed)
			}
			msgs := drain(t, sub)
			if len(msgs) != 1 || msgs[0].Type != "error" {
				t.Fatalf("msgs = %+v, want single error", msgs)
			}
		})
	}
}

// Package session drives one presentation generation run: it streams the
// model, reassembles tool invocations, dispatches decoded events to the
// hub, the deck store, and the checklist, and publishes a terminal event
// when the run ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/slidex/slidex/pkg/deck"
	"github.com/slidex/slidex/pkg/hub"
	"github.com/slidex/slidex/pkg/llm"
	"github.com/slidex/slidex/pkg/toolcall"
)

// State is the lifecycle of a session.
type State int

const (
	// Idle means Run has not been called.
	Idle State = iota
	// Streaming means the model stream is being consumed.
	Streaming
	// Completed means the run finished and published generation_complete.
	Completed
	// Failed means the run aborted and published an error event.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrAlreadyRun reports a second Run call on a one-shot session.
var ErrAlreadyRun = errors.New("session: already run")

// Ledger tracks per-slide completion for a run.
type Ledger interface {
	Init(ctx context.Context, titles []string) error
	MarkDone(ctx context.Context, index int)
}

// Config wires a session's collaborators.
type Config struct {
	// ID tags every published envelope. Required.
	ID string

	// Source produces the generation stream. Required.
	Source llm.Source

	// Hub receives wire messages. Required.
	Hub *hub.Hub

	// Ledger is the run's checklist. Required.
	Ledger Ledger

	// Deck persists slide snapshots. Optional.
	Deck *deck.Store
}

// Request is the input of one generation run.
type Request struct {
	Prompt  string
	Outline deck.Outline
	Files   []string
}

// Session is a one-shot generation run. Run may be called once; State may
// be called from any goroutine.
type Session struct {
	cfg Config

	mu    sync.Mutex
	state State
}

// New creates an idle session.
func New(cfg Config) (*Session, error) {
	if cfg.ID == "" {
		return nil, errors.New("session: missing id")
	}
	if cfg.Source == nil {
		return nil, errors.New("session: missing source")
	}
	if cfg.Hub == nil {
		return nil, errors.New("session: missing hub")
	}
	if cfg.Ledger == nil {
		return nil, errors.New("session: missing ledger")
	}
	return &Session{cfg: cfg}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) transition(to State) {
	s.mu.Lock()
	s.state = to
	s.mu.Unlock()
}

// Run executes the generation loop and blocks until the run reaches a
// terminal state. Exactly one terminal event is published per run, on
// failure paths included.
func (s *Session) Run(ctx context.Context, req *Request) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrAlreadyRun
	}
	// Only a validated request starts streaming; an invalid one goes
	// straight to Failed.
	if err := s.validate(req); err != nil {
		s.state = Failed
		s.mu.Unlock()
		s.publishFailure(err)
		return err
	}
	s.state = Streaming
	s.mu.Unlock()

	if err := s.cfg.Ledger.Init(ctx, req.Outline.Titles()); err != nil {
		s.fail(err)
		return err
	}

	stream, err := s.cfg.Source.Open(ctx, s.buildRequest(req))
	if err != nil {
		s.fail(err)
		return err
	}
	defer stream.Close()

	agg := toolcall.NewAggregator()
	for {
		frag, err := stream.Next()
		if err != nil {
			if errors.Is(err, llm.ErrDone) {
				// Flush invocations left open by a backend that ended the
				// stream without a turn boundary.
				s.dispatch(ctx, agg.Flush())
				s.complete()
				return nil
			}
			s.fail(err)
			return err
		}
		switch frag.Kind {
		case llm.FragmentToolCall:
			agg.Ingest(frag)
		case llm.FragmentTurnEnd:
			s.dispatch(ctx, agg.Flush())
		case llm.FragmentText:
			// Narration between tool calls carries no state.
		}
	}
}

func (s *Session) validate(req *Request) error {
	if req == nil || req.Prompt == "" {
		return errors.New("session: empty prompt")
	}
	if len(req.Outline) == 0 {
		return errors.New("session: empty outline")
	}
	return nil
}

func (s *Session) dispatch(ctx context.Context, invs []toolcall.Invocation) {
	for _, inv := range invs {
		ev, err := deck.Decode(inv)
		if err != nil {
			slog.Error("session: decode invocation",
				"session", s.cfg.ID, "function", inv.Name, "raw", inv.Args, "err", err)
			continue
		}
		switch ev := ev.(type) {
		case deck.SlideEvent:
			s.handleSlide(ctx, ev.Slide)
		case deck.ProgressEvent:
			s.cfg.Ledger.MarkDone(ctx, ev.Index)
			s.publish(deck.NewTodoUpdateMessage(ev.Index, true))
		case nil:
			slog.Warn("session: unknown function ignored",
				"session", s.cfg.ID, "function", inv.Name)
		}
	}
}

func (s *Session) handleSlide(ctx context.Context, slide deck.Slide) {
	s.publish(deck.NewSlideMessage(slide))
	if s.cfg.Deck != nil {
		if err := s.cfg.Deck.PutSlide(ctx, s.cfg.ID, slide); err != nil {
			slog.Error("session: persist slide",
				"session", s.cfg.ID, "slide", slide.Index, "err", err)
		}
	}
	s.cfg.Ledger.MarkDone(ctx, slide.Index)
	s.publish(deck.NewProgressMessage(
		fmt.Sprintf("Generated slide %d: %s", slide.Index+1, slide.Title)))
}

func (s *Session) complete() {
	s.publish(deck.NewCompleteMessage("All slides have been generated!"))
	s.transition(Completed)
	slog.Info("session: completed", "session", s.cfg.ID)
}

func (s *Session) fail(cause error) {
	s.transition(Failed)
	s.publishFailure(cause)
}

func (s *Session) publishFailure(cause error) {
	s.publish(deck.NewErrorMessage("Failed to generate slides", cause.Error()))
	slog.Error("session: failed", "session", s.cfg.ID, "err", cause)
}

func (s *Session) publish(v any) {
	if err := s.cfg.Hub.PublishJSON(s.cfg.ID, v); err != nil {
		slog.Error("session: publish", "session", s.cfg.ID, "err", err)
	}
}

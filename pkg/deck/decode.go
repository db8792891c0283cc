package deck

import (
	"fmt"

	"github.com/slidex/slidex/pkg/toolcall"
)

// Event is a typed domain event decoded from a completed tool invocation.
type Event interface {
	event()
}

// SlideEvent carries one finished slide.
type SlideEvent struct {
	Slide Slide
}

// ProgressEvent marks the checklist item at Index complete.
type ProgressEvent struct {
	Index int
}

func (SlideEvent) event()    {}
func (ProgressEvent) event() {}

// DecodeError reports an invocation whose payload could not be decoded.
// Raw preserves the accumulated argument text for diagnosis.
type DecodeError struct {
	Name string
	Raw  string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("deck: decode %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode maps a completed invocation to a domain event. Invocations naming
// a function the deck does not know return (nil, nil); malformed or invalid
// payloads return a *DecodeError. Decode never panics on model output.
func Decode(inv toolcall.Invocation) (Event, error) {
	switch inv.Name {
	case AddSlideTool.Name:
		var args AddSlideArgs
		if err := AddSlideTool.Decode(inv.Args, &args); err != nil {
			return nil, &DecodeError{Name: inv.Name, Raw: inv.Args, Err: err}
		}
		if args.SlideIndex < 0 {
			return nil, &DecodeError{Name: inv.Name, Raw: inv.Args,
				Err: fmt.Errorf("slideIndex %d out of range", args.SlideIndex)}
		}
		if args.HTML == "" {
			return nil, &DecodeError{Name: inv.Name, Raw: inv.Args,
				Err: fmt.Errorf("missing html")}
		}
		return SlideEvent{Slide: Slide{Index: args.SlideIndex, Title: args.Title, HTML: args.HTML}}, nil
	case UpdateTodoTool.Name:
		var args UpdateTodoArgs
		if err := UpdateTodoTool.Decode(inv.Args, &args); err != nil {
			return nil, &DecodeError{Name: inv.Name, Raw: inv.Args, Err: err}
		}
		if args.SlideIndex < 0 {
			return nil, &DecodeError{Name: inv.Name, Raw: inv.Args,
				Err: fmt.Errorf("slideIndex %d out of range", args.SlideIndex)}
		}
		return ProgressEvent{Index: args.SlideIndex}, nil
	default:
		return nil, nil
	}
}

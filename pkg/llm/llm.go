// Package llm abstracts a streaming language-model backend as a producer of
// incremental fragments.
//
// A Source opens a Stream for a request. The stream yields Fragments: tool
// call argument deltas, assistant text deltas, and turn boundaries. The
// stream ends with ErrDone on normal completion or any other error on a
// stream-level failure. Consumers never see partial fragments out of order;
// fragments belonging to one invocation arrive in the order the backend
// produced them.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message roles.
const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleModel  Role = "model"
)

// Role identifies the author of a Message.
type Role string

func (r Role) String() string {
	return string(r)
}

// Message is one conversational turn sent to the backend.
type Message struct {
	Role    Role
	Content string
}

// Params tunes generation.
type Params struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// Request describes one model call.
type Request struct {
	Messages []Message
	Tools    []*FuncTool
	Params   *Params
}

// FragmentKind discriminates Fragment payloads.
type FragmentKind int

const (
	// FragmentToolCall carries a tool-call delta: optionally an invocation
	// id, optionally a piece of the function name, optionally a piece of
	// the argument text.
	FragmentToolCall FragmentKind = iota
	// FragmentText carries a piece of assistant prose.
	FragmentText
	// FragmentTurnEnd signals that every invocation opened in the current
	// turn is complete and ready to decode.
	FragmentTurnEnd
)

// Fragment is one incremental piece of a streamed response.
//
// For FragmentToolCall, ID is set on the first fragment of an invocation
// and may be empty on continuation fragments, which belong to the most
// recently announced invocation.
type Fragment struct {
	Kind FragmentKind

	ID   string
	Name string
	Args string

	Text string
}

// Stream yields fragments until a terminal error.
//
// Next returns ErrDone when the backend finished normally. Any other error
// is a stream-level failure. Close releases the stream early.
type Stream interface {
	Next() (*Fragment, error)
	Close() error
	CloseWithError(error) error
}

// Source opens streams against a concrete backend.
type Source interface {
	// Open starts a streaming generation for req.
	Open(ctx context.Context, req *Request) (Stream, error)

	// Invoke runs a single non-streaming completion for req and returns
	// either assistant text or a tool call.
	Invoke(ctx context.Context, req *Request) (*Completion, error)
}

// Completion is the result of a non-streaming Invoke.
type Completion struct {
	Text string
	Call *FuncCall
}

// FuncCall is one complete function invocation produced by the model.
type FuncCall struct {
	ID        string
	Name      string
	Arguments string
}

// ErrDone is the terminal error of a stream that completed normally.
var ErrDone = errors.New("llm: done")

// ErrTruncated reports that generation hit the output token limit.
var ErrTruncated = errors.New("llm: generate truncated")

// Blocked returns the terminal error for a refused generation.
func Blocked(refusal string) error {
	return fmt.Errorf("llm: generate blocked: %s", refusal)
}

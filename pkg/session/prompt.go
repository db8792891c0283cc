package session

import (
	"fmt"
	"strings"

	"github.com/slidex/slidex/pkg/deck"
	"github.com/slidex/slidex/pkg/llm"
)

const systemPrompt = `You are a presentation generator. You build one slide at a time.

For each slide in the outline, in order:
1. Call add_slide with the slide index, its title, and a complete standalone
   HTML document for the slide. Use inline CSS, 1280x720 layout.
2. Call update_todo with the same slide index to mark it finished.

Produce every slide in the outline. Do not skip indexes and do not write
prose between tool calls.`

func (s *Session) buildRequest(req *Request) *llm.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a presentation: %s\n\nOutline:\n", req.Prompt)
	for i, item := range req.Outline {
		typ := item.Type
		if typ == "" {
			typ = deck.SlideTypeContent
		}
		fmt.Fprintf(&b, "%d. [%s] %s", i, typ, item.Title)
		if item.Content != "" {
			fmt.Fprintf(&b, ": %s", item.Content)
		}
		b.WriteByte('\n')
	}
	if len(req.Files) > 0 {
		fmt.Fprintf(&b, "\nReference files: %s\n", strings.Join(req.Files, ", "))
	}

	return &llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: b.String()},
		},
		Tools: []*llm.FuncTool{deck.AddSlideTool, deck.UpdateTodoTool},
	}
}

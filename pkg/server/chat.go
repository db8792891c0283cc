package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/slidex/slidex/pkg/deck"
	"github.com/slidex/slidex/pkg/llm"
)

const chatSystemPrompt = `You are a presentation planning assistant. Discuss
the user's topic and help shape an outline. Once the user approves the plan,
call generate_presentation with the final title and outline instead of
describing it in prose.`

type chatRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Files []string `json:"files,omitempty"`
}

type chatResponse struct {
	Type    string `json:"type"` // "text" or "generate"
	Content string `json:"content,omitempty"`

	Title   string       `json:"title,omitempty"`
	Outline deck.Outline `json:"outline,omitempty"`
	Files   []string     `json:"files,omitempty"`
}

// handleChat runs one planning turn. The model either answers in prose or
// calls generate_presentation, which the client turns into a /api/generate
// request.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "missing messages")
		return
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: chatSystemPrompt}}
	for _, m := range req.Messages {
		role := llm.RoleUser
		if m.Role == "assistant" || m.Role == "model" {
			role = llm.RoleModel
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}

	comp, err := s.opts.Source.Invoke(r.Context(), &llm.Request{
		Messages: messages,
		Tools:    []*llm.FuncTool{deck.GeneratePresentationTool},
	})
	if err != nil {
		slog.Error("server: chat invoke", "err", err)
		writeError(w, http.StatusBadGateway, "model call failed")
		return
	}

	if comp.Call != nil && comp.Call.Name == deck.GeneratePresentationTool.Name {
		var args deck.GeneratePresentationArgs
		if err := deck.GeneratePresentationTool.Decode(comp.Call.Arguments, &args); err != nil {
			slog.Error("server: chat decode plan", "raw", comp.Call.Arguments, "err", err)
			writeError(w, http.StatusBadGateway, "model returned an unreadable plan")
			return
		}
		files := args.Files
		if len(files) == 0 {
			files = req.Files
		}
		writeJSON(w, http.StatusOK, chatResponse{
			Type:    "generate",
			Title:   args.Title,
			Outline: args.Outline,
			Files:   files,
		})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Type: "text", Content: comp.Text})
}

package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/slidex/slidex/pkg/deck"
	"github.com/slidex/slidex/pkg/session"
	"github.com/slidex/slidex/pkg/todo"
)

type generateRequest struct {
	Prompt  string       `json:"prompt"`
	Outline deck.Outline `json:"outline"`
	Files   []string     `json:"files,omitempty"`
}

type generateResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"sessionId"`
}

// handleGenerate validates the plan, replies immediately, and runs the
// generation session in the background. Progress reaches the client over
// the websocket, not this response.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "missing prompt")
		return
	}
	if len(req.Outline) == 0 {
		writeError(w, http.StatusBadRequest, "missing outline")
		return
	}

	id := uuid.NewString()
	sess, err := session.New(session.Config{
		ID:     id,
		Source: s.opts.Source,
		Hub:    s.opts.Hub,
		Ledger: todo.NewList(s.opts.Files, "TODO.md"),
		Deck:   s.opts.Deck,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	go func() {
		// The run outlives the HTTP request.
		if err := sess.Run(context.Background(), &session.Request{
			Prompt:  req.Prompt,
			Outline: req.Outline,
			Files:   req.Files,
		}); err != nil {
			slog.Error("server: generation run", "session", id, "err", err)
		}
	}()

	slog.Info("server: generation started", "session", id, "slides", len(req.Outline))
	writeJSON(w, http.StatusOK, generateResponse{Status: "started", SessionID: id})
}

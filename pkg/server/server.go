// Package server exposes the HTTP and websocket surface of the slide
// generator: planning chat, generation kickoff, uploads, a search proxy,
// and the event stream.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/slidex/slidex/pkg/deck"
	"github.com/slidex/slidex/pkg/hub"
	"github.com/slidex/slidex/pkg/llm"
	"github.com/slidex/slidex/pkg/storage"
)

// Options wire a server's collaborators.
type Options struct {
	// Source answers chat turns and drives generation runs. Required.
	Source llm.Source

	// Hub fans events out to websocket subscribers. Required.
	Hub *hub.Hub

	// Deck persists slide snapshots for catch-up replay. Required.
	Deck *deck.Store

	// Files stores uploads and the generation checklist. Required.
	Files storage.FileStore

	// SearchClient performs outbound search requests. Defaults to
	// http.DefaultClient.
	SearchClient *http.Client
}

// Server handles the HTTP surface. Create with New.
type Server struct {
	opts Options
	mux  *http.ServeMux
}

// New validates opts and builds the route table.
func New(opts Options) (*Server, error) {
	if opts.Source == nil {
		return nil, errors.New("server: missing source")
	}
	if opts.Hub == nil {
		return nil, errors.New("server: missing hub")
	}
	if opts.Deck == nil {
		return nil, errors.New("server: missing deck store")
	}
	if opts.Files == nil {
		return nil, errors.New("server: missing file store")
	}
	if opts.SearchClient == nil {
		opts.SearchClient = http.DefaultClient
	}

	s := &Server{opts: opts, mux: http.NewServeMux()}
	s.mux.HandleFunc("/api/chat", s.handleChat)
	s.mux.HandleFunc("/api/generate", s.handleGenerate)
	s.mux.HandleFunc("/api/upload", s.handleUpload)
	s.mux.HandleFunc("/api/search", s.handleSearch)
	s.mux.HandleFunc("/api/export", s.handleExport)
	s.mux.HandleFunc("/ws", s.handleWS)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("server: encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

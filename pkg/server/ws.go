package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/slidex/slidex/pkg/deck"
	"github.com/slidex/slidex/pkg/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The browser client connects cross-origin in development.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWS attaches a websocket subscriber. An optional session query
// parameter filters delivery to one run; catchup=1 replays that run's deck
// snapshot before live delivery.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("server: websocket upgrade", "err", err)
		return
	}

	sessionID := r.URL.Query().Get("session")
	var backlog [][]byte
	if sessionID != "" && r.URL.Query().Get("catchup") == "1" {
		slides, err := s.opts.Deck.Slides(r.Context(), sessionID)
		if err != nil {
			slog.Error("server: load catch-up snapshot", "session", sessionID, "err", err)
		}
		for _, slide := range slides {
			data, err := json.Marshal(deck.NewSlideMessage(slide))
			if err != nil {
				continue
			}
			backlog = append(backlog, data)
		}
	}

	s.opts.Hub.ServeConn(conn, hub.AttachOptions{Session: sessionID, Backlog: backlog})
}

package server

import (
	"encoding/json"
	"net/http"
)

type exportRequest struct {
	Format string `json:"format"`
	Slides []struct {
		Title string `json:"title"`
		HTML  string `json:"html"`
	} `json:"slides"`
}

// handleExport acknowledges an export request. Rendering happens on the
// client; the endpoint validates the payload and echoes the plan so the
// client can show export progress.
//
// TODO: render PDF server side once a headless renderer is wired in.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Format == "" {
		req.Format = "pdf"
	}
	if len(req.Slides) == 0 {
		writeError(w, http.StatusBadRequest, "missing slides")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "accepted",
		"format": req.Format,
		"slides": len(req.Slides),
	})
}

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
)

// duckDuckGoURL is the instant-answer endpoint the search proxy queries.
// Variable so tests can point it at a local server.
var duckDuckGoURL = "https://api.duckduckgo.com/"

type searchTopic struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type searchResponse struct {
	Abstract       string        `json:"abstract"`
	AbstractText   string        `json:"abstractText"`
	AbstractSource string        `json:"abstractSource"`
	AbstractURL    string        `json:"abstractURL"`
	RelatedTopics  []searchTopic `json:"relatedTopics"`
}

// handleSearch proxies an instant-answer lookup so the browser never talks
// to the search engine directly.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	u := duckDuckGoURL + "?" + url.Values{
		"q":       {query},
		"format":  {"json"},
		"no_html": {"1"},
	}.Encode()
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "building search request failed")
		return
	}
	resp, err := s.opts.SearchClient.Do(req)
	if err != nil {
		slog.Error("server: search upstream", "err", err)
		writeError(w, http.StatusBadGateway, "search request failed")
		return
	}
	defer resp.Body.Close()

	var upstream struct {
		Abstract       string `json:"Abstract"`
		AbstractText   string `json:"AbstractText"`
		AbstractSource string `json:"AbstractSource"`
		AbstractURL    string `json:"AbstractURL"`
		RelatedTopics  []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&upstream); err != nil {
		slog.Error("server: decode search response", "err", err)
		writeError(w, http.StatusBadGateway, "search response unreadable")
		return
	}

	out := searchResponse{
		Abstract:       upstream.Abstract,
		AbstractText:   upstream.AbstractText,
		AbstractSource: upstream.AbstractSource,
		AbstractURL:    upstream.AbstractURL,
		RelatedTopics:  []searchTopic{},
	}
	for _, t := range upstream.RelatedTopics {
		if t.Text == "" {
			continue
		}
		out.RelatedTopics = append(out.RelatedTopics, searchTopic{Text: t.Text, URL: t.FirstURL})
		if len(out.RelatedTopics) == 5 {
			break
		}
	}
	writeJSON(w, http.StatusOK, out)
}

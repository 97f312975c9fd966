package server

import (
	"net/http"

	"stockpulse/internal/logging"
)

// handleNews returns the top scored headlines for a symbol.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	symbol, err := symbolFromPath("/news/", r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.newsClient == nil {
		writeError(w, http.StatusServiceUnavailable, msgNewsUnavailable)
		return
	}

	items, ok := s.newsCache.Get(symbol)
	if !ok {
		var err error
		items, err = s.newsClient.Fetch(r.Context(), symbol)
		if err != nil {
			logging.Error("News fetch for %s failed: %v", symbol, err)
			writeError(w, http.StatusServiceUnavailable, msgNewsUnavailable)
			return
		}
		s.newsCache.Set(symbol, items)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"count":  len(items),
		"items":  items,
	})
}

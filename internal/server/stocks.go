package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bookrag/internal/domain"
)

// handleStockHistory serves a daily price series, from cache when present.
// force=1 bypasses the cache and refetches from the provider.
func (s *Server) handleStockHistory(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	force := r.URL.Query().Get("force")
	hist, cached, err := s.stocks.History(r.Context(), ticker, force == "1" || force == "true")
	if err != nil {
		s.log.Printf("stock history %q: %v", ticker, err)
		writeError(w, http.StatusBadGateway, "Failed to fetch stock history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ticker":    hist.Ticker,
		"startDate": hist.StartDate,
		"endDate":   hist.EndDate,
		"data":      hist.Data,
		"cached":    cached,
		"updatedAt": hist.UpdatedAt,
	})
}

func (s *Server) handleStockCacheList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.stockData.ListHistories(r.Context())
	if err != nil {
		s.log.Printf("list stock cache: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if rows == nil {
		rows = []domain.StockHistory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rows})
}

// handleStockCacheNote records a display note for a ticker, creating the
// cache row if the ticker has never been fetched.
func (s *Server) handleStockCacheNote(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}
	var req struct {
		Ticker string `json:"ticker"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	if err := s.stockData.SetHistoryNote(r.Context(), ticker, req.Note); err != nil {
		s.log.Printf("set stock note %q: %v", ticker, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStockCacheDelete(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	if err := s.stockData.DeleteHistory(r.Context(), ticker); err != nil {
		s.log.Printf("delete stock cache %q: %v", ticker, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStockSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.stocks.Summary(r.Context())
	if err != nil {
		s.log.Printf("stock summary: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) handleSymbolSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	raw, err := s.search.Search(r.Context(), q)
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			writeError(w, http.StatusInternalServerError, "Symbol search not configured")
			return
		}
		s.log.Printf("symbol search %q: %v", q, err)
		writeError(w, http.StatusBadGateway, "Symbol search failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// Package server exposes the HTTP surface: ingestion, progress streaming,
// retrieval-augmented querying, and the management endpoints.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"os"

	"bookrag/internal/domain"
	"bookrag/internal/ingest"
	"bookrag/internal/progress"
	"bookrag/internal/service"
	"bookrag/internal/stocks"
)

// maxUploadBytes caps multipart upload memory usage.
const maxUploadBytes = 32 << 20

// SymbolSearcher looks up instruments at an external provider.
type SymbolSearcher interface {
	Search(ctx context.Context, q string) (json.RawMessage, error)
}

// Options carries the assembled application components.
type Options struct {
	Secret    string
	Pipeline  *ingest.Pipeline
	Tracker   *progress.Tracker
	Reports   *service.ReportService
	Chunks    domain.ChunkStore
	Plans     domain.PlanStore
	Stocks    *stocks.CacheService
	StockData domain.StockStore
	Search    SymbolSearcher
	Logger    *log.Logger
}

// Server holds route handlers. All state lives in the injected components.
type Server struct {
	secret    string
	pipeline  *ingest.Pipeline
	tracker   *progress.Tracker
	reports   *service.ReportService
	chunks    domain.ChunkStore
	plans     domain.PlanStore
	stocks    *stocks.CacheService
	stockData domain.StockStore
	search    SymbolSearcher
	log       *log.Logger
}

// New creates a server from assembled components.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Server{
		secret:    opts.Secret,
		pipeline:  opts.Pipeline,
		tracker:   opts.Tracker,
		reports:   opts.Reports,
		chunks:    opts.Chunks,
		plans:     opts.Plans,
		stocks:    opts.Stocks,
		stockData: opts.StockData,
		search:    opts.Search,
		log:       logger,
	}
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/upload-progress", s.handleUploadProgress)
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /api/books", s.handleBooks)
	mux.HandleFunc("GET /api/book-chunks", s.handleBookChunks)
	mux.HandleFunc("DELETE /api/remove-book", s.handleRemoveBook)
	mux.HandleFunc("GET /api/plans", s.handlePlans)
	mux.HandleFunc("POST /api/save-plan", s.handleSavePlan)
	mux.HandleFunc("DELETE /api/remove-plan", s.handleRemovePlan)
	mux.HandleFunc("GET /api/stock-history", s.handleStockHistory)
	mux.HandleFunc("GET /api/stock-cache", s.handleStockCacheList)
	mux.HandleFunc("POST /api/stock-cache", s.handleStockCacheNote)
	mux.HandleFunc("DELETE /api/stock-cache", s.handleStockCacheDelete)
	mux.HandleFunc("GET /api/stock-summary", s.handleStockSummary)
	mux.HandleFunc("GET /api/symbol-search", s.handleSymbolSearch)
	return mux
}

// authorize validates the shared secret carried by the key query parameter.
// It writes the error response itself and reports whether to proceed.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	if s.secret == "" {
		writeError(w, http.StatusInternalServerError, "Server not configured")
		return false
	}
	key := r.URL.Query().Get("key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.secret)) != 1 {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

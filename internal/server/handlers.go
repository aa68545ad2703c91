package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"bookrag/internal/domain"
	"bookrag/internal/service"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload accepts a multipart file, runs the ingestion pipeline, and
// reports the number of chunks stored. The shared secret doubles as the
// progress job key, so a client polling with the same key sees this upload.
// One active job per key: a second upload under the same secret restarts the
// shared progress record, and watchers follow the newer job.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable file")
		return
	}
	bookTitle := r.FormValue("bookTitle")
	if bookTitle == "" {
		bookTitle = header.Filename
	}
	mimeType := header.Header.Get("Content-Type")
	jobKey := r.URL.Query().Get("key")

	// Ingestion outlives the request: dropping the upload connection must not
	// abort a half-embedded book, progress watchers still want the outcome.
	count, err := s.pipeline.Ingest(context.WithoutCancel(r.Context()), data, mimeType, bookTitle, jobKey)
	if err != nil {
		if errors.Is(err, domain.ErrExtraction) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Printf("upload %q: %v", bookTitle, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Book added",
		"chunks":  count,
	})
}

// handleUploadProgress streams progress snapshots for the caller's job as
// server-sent events until the job reaches a terminal state or the client
// disconnects. With no active job it emits a single idle frame.
func (s *Server) handleUploadProgress(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	key := r.URL.Query().Get("key")
	ch := s.tracker.Watch(r.Context(), key)

	sent := false
	for snap := range ch {
		sent = true
		writeEvent(w, snap)
		flusher.Flush()
		if snap.Terminal() {
			return
		}
	}
	if !sent {
		writeEvent(w, map[string]any{"current": 0, "total": 0, "state": "idle"})
		flusher.Flush()
	}
}

func writeEvent(w io.Writer, v any) {
	payload, _ := json.Marshal(v)
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req service.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.UserPrompt == "" {
		writeError(w, http.StatusBadRequest, "userPrompt is required")
		return
	}
	resp, err := s.reports.Answer(r.Context(), req)
	if err != nil {
		s.log.Printf("query: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.chunks.ListBooks(r.Context())
	if err != nil {
		s.log.Printf("list books: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if books == nil {
		books = []domain.BookSummary{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleBookChunks(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	chunks, err := s.chunks.ChunksByTitle(r.Context(), title)
	if err != nil {
		s.log.Printf("book chunks %q: %v", title, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	writeJSON(w, http.StatusOK, chunks)
}

func (s *Server) handleRemoveBook(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}
	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	removed, err := s.chunks.DeleteByTitle(r.Context(), title)
	if err != nil {
		s.log.Printf("remove book %q: %v", title, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Book removed",
		"removed": removed,
	})
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.ListPlans(r.Context())
	if err != nil {
		s.log.Printf("list plans: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if plans == nil {
		plans = []domain.Plan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}
	var plan domain.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if plan.Prompt == "" || plan.Response == "" {
		writeError(w, http.StatusBadRequest, "prompt and response are required")
		return
	}
	if err := s.plans.SavePlan(r.Context(), &plan); err != nil {
		s.log.Printf("save plan: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Plan saved",
		"id":      plan.ID,
	})
}

func (s *Server) handleRemovePlan(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	if err := s.plans.DeletePlan(r.Context(), id); err != nil {
		s.log.Printf("remove plan %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Plan removed"})
}

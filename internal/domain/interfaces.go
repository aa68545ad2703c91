package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Chunk is an embedded slice of an uploaded book, immutable once stored.
type Chunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
	BookTitle string    `json:"bookTitle"`
}

// BookSummary groups stored chunks by title.
type BookSummary struct {
	BookTitle string `json:"bookTitle"`
	Count     int    `json:"count"`
}

// ScoredChunk pairs a chunk with its similarity score for one retrieval call.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Plan is a saved generation report.
type Plan struct {
	ID        int64     `json:"id"`
	Platform  string    `json:"platform"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
}

// StockHistory is one cached daily price series. Data holds the provider
// payload verbatim so the cache stays provider-agnostic.
type StockHistory struct {
	Ticker    string          `json:"ticker"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Data      json.RawMessage `json:"data"`
	Notes     string          `json:"notes,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ChunkStore persists embedded chunks grouped by book title.
type ChunkStore interface {
	AppendChunks(ctx context.Context, chunks []Chunk) error
	ListBooks(ctx context.Context) ([]BookSummary, error)
	ChunksByTitle(ctx context.Context, title string) ([]Chunk, error)
	AllChunks(ctx context.Context) ([]Chunk, error)
	DeleteByTitle(ctx context.Context, title string) (int64, error)
}

// PlanStore persists saved reports.
type PlanStore interface {
	SavePlan(ctx context.Context, plan *Plan) error
	ListPlans(ctx context.Context) ([]Plan, error)
	DeletePlan(ctx context.Context, id int64) error
}

// StockStore caches provider price series keyed by ticker.
type StockStore interface {
	UpsertHistory(ctx context.Context, h StockHistory) error
	GetHistory(ctx context.Context, ticker string) (*StockHistory, error)
	ListHistories(ctx context.Context) ([]StockHistory, error)
	SetHistoryNote(ctx context.Context, ticker, note string) error
	DeleteHistory(ctx context.Context, ticker string) error
}

// Generator produces free text from a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrag/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func chunk(id, title, text string, embedding ...float64) domain.Chunk {
	return domain.Chunk{ID: id, BookTitle: title, Text: text, Embedding: embedding}
}

func TestAppendAndListBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendChunks(ctx, []domain.Chunk{
		chunk("1", "Moby Dick", "call me ishmael", 0.1, 0.2),
		chunk("2", "Moby Dick", "some years ago", 0.3, 0.4),
	}))
	require.NoError(t, s.AppendChunks(ctx, []domain.Chunk{
		chunk("3", "Walden", "i went to the woods", 0.5, 0.6),
	}))
	// duplicate title accumulates under the same grouping key
	require.NoError(t, s.AppendChunks(ctx, []domain.Chunk{
		chunk("4", "Moby Dick", "the whale", 0.7, 0.8),
	}))

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	// first-appearance order, not alphabetical
	assert.Equal(t, "Moby Dick", books[0].BookTitle)
	assert.Equal(t, 3, books[0].Count)
	assert.Equal(t, "Walden", books[1].BookTitle)
	assert.Equal(t, 1, books[1].Count)
}

func TestChunksByTitle_StorageOrderAndEmbeddingRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := []domain.Chunk{
		chunk("a", "Book", "first", 1.5, -2.25, 0),
		chunk("b", "Book", "second", 0.0001, 99999.5, -1),
	}
	require.NoError(t, s.AppendChunks(ctx, in))

	got, err := s.ChunksByTitle(ctx, "Book")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, in[0].Embedding, got[0].Embedding)
	assert.Equal(t, in[1].Embedding, got[1].Embedding)
}

func TestChunksByTitle_UnknownTitleEmpty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.ChunksByTitle(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteByTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendChunks(ctx, []domain.Chunk{
		chunk("1", "Keep", "kept", 1),
		chunk("2", "Drop", "dropped", 2),
		chunk("3", "Drop", "dropped too", 3),
	}))

	n, err := s.DeleteByTitle(ctx, "Drop")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// deleting a title with no chunks is a no-op, not an error
	n, err = s.DeleteByTitle(ctx, "Drop")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	all, err := s.AllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Keep", all[0].BookTitle)
}

func TestPlanCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &domain.Plan{Platform: "instagram", Prompt: "launch plan", Response: "the plan"}
	require.NoError(t, s.SavePlan(ctx, p))
	assert.NotZero(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	p2 := &domain.Plan{Platform: "x", Prompt: "other", Response: "another"}
	require.NoError(t, s.SavePlan(ctx, p2))

	plans, err := s.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	require.NoError(t, s.DeletePlan(ctx, p.ID))
	plans, err = s.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, p2.ID, plans[0].ID)

	// deleting a missing id is fine
	require.NoError(t, s.DeletePlan(ctx, 424242))
}

func TestStockHistoryCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetHistory(ctx, "AAPL")
	require.ErrorIs(t, err, domain.ErrNotFound)

	data, _ := json.Marshal([]map[string]any{{"date": "2026-08-28", "close": 230.1}})
	require.NoError(t, s.UpsertHistory(ctx, domain.StockHistory{
		Ticker:    "AAPL",
		StartDate: "1980-12-12",
		EndDate:   "2026-08-29",
		Data:      data,
	}))

	h, err := s.GetHistory(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "1980-12-12", h.StartDate)
	assert.JSONEq(t, string(data), string(h.Data))

	// upsert replaces the series
	require.NoError(t, s.UpsertHistory(ctx, domain.StockHistory{
		Ticker:    "AAPL",
		StartDate: "1980-12-12",
		EndDate:   "2026-09-01",
		Data:      []byte(`[]`),
	}))
	h, err = s.GetHistory(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01", h.EndDate)

	require.NoError(t, s.SetHistoryNote(ctx, "AAPL", "Apple Inc."))
	h, err = s.GetHistory(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", h.Notes)
	// note upsert keeps the cached series intact
	assert.Equal(t, "2026-09-01", h.EndDate)

	// note-only row for a ticker never fetched
	require.NoError(t, s.SetHistoryNote(ctx, "MSFT", "Microsoft"))
	histories, err := s.ListHistories(ctx)
	require.NoError(t, err)
	assert.Len(t, histories, 2)

	require.NoError(t, s.DeleteHistory(ctx, "AAPL"))
	_, err = s.GetHistory(ctx, "AAPL")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	require.NoError(t, s.DeleteHistory(ctx, "AAPL"))
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reopen.db")

	s1, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.AppendChunks(context.Background(), []domain.Chunk{chunk("1", "B", "t", 1)}))
	require.NoError(t, s1.Close())

	s2, err := NewStore(path)
	require.NoError(t, err)
	defer s2.Close()
	all, err := s2.AllChunks(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookrag/internal/domain"
)

var _ domain.StockStore = (*Store)(nil)

// UpsertHistory caches a fetched price series, replacing any prior series
// for the ticker while preserving its note.
func (s *Store) UpsertHistory(ctx context.Context, h domain.StockHistory) error {
	if h.Data == nil {
		h.Data = []byte("null")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_history (ticker, start_date, end_date, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, h.Ticker, h.StartDate, h.EndDate, string(h.Data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upserting stock history: %w", err)
	}
	return nil
}

// GetHistory returns the cached series for a ticker, or domain.ErrNotFound.
func (s *Store) GetHistory(ctx context.Context, ticker string) (*domain.StockHistory, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT ticker, start_date, end_date, data, notes, updated_at
		FROM stock_history WHERE ticker = ?
	`, ticker)
	h, err := scanHistory(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning stock history: %w", err)
	}
	return h, nil
}

// ListHistories returns all cached series, most recently updated first.
func (s *Store) ListHistories(ctx context.Context) ([]domain.StockHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, start_date, end_date, data, notes, updated_at
		FROM stock_history
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying stock histories: %w", err)
	}
	defer rows.Close()

	var histories []domain.StockHistory //nolint:prealloc // size unknown from query
	for rows.Next() {
		h, err := scanHistory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning stock history: %w", err)
		}
		histories = append(histories, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock histories: %w", err)
	}
	return histories, nil
}

// SetHistoryNote upserts a display note for a ticker, creating a bare row
// when the ticker has no cached series yet.
func (s *Store) SetHistoryNote(ctx context.Context, ticker, note string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_history (ticker, notes, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET notes = excluded.notes
	`, ticker, note, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("setting stock note: %w", err)
	}
	return nil
}

// DeleteHistory evicts a ticker from the cache. Missing tickers are not an error.
func (s *Store) DeleteHistory(ctx context.Context, ticker string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM stock_history WHERE ticker = ?", ticker); err != nil {
		return fmt.Errorf("deleting stock history: %w", err)
	}
	return nil
}

func scanHistory(scan func(dest ...any) error) (*domain.StockHistory, error) {
	var h domain.StockHistory
	var data string
	var notes sql.NullString
	if err := scan(&h.Ticker, &h.StartDate, &h.EndDate, &data, &notes, &h.UpdatedAt); err != nil {
		return nil, err
	}
	h.Data = []byte(data)
	h.Notes = notes.String
	return &h, nil
}

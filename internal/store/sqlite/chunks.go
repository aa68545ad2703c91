package sqlite

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"bookrag/internal/domain"
)

var _ domain.ChunkStore = (*Store)(nil)

// AppendChunks inserts a batch of chunks in one transaction. Duplicate titles
// accumulate more chunks under the same grouping key; ids are never reused.
func (s *Store) AppendChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, book_title, position, content, embedding)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		blob := embeddingToBytes(chunk.Embedding)
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.BookTitle, i, chunk.Text, blob); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListBooks returns one entry per distinct title with its chunk count,
// ordered by the title's first appearance in storage.
func (s *Store) ListBooks(ctx context.Context) ([]domain.BookSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_title, COUNT(*)
		FROM chunks
		GROUP BY book_title
		ORDER BY MIN(rowid)
	`)
	if err != nil {
		return nil, fmt.Errorf("querying books: %w", err)
	}
	defer rows.Close()

	var books []domain.BookSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var b domain.BookSummary
		if err := rows.Scan(&b.BookTitle, &b.Count); err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating books: %w", err)
	}
	return books, nil
}

// ChunksByTitle returns all chunks stored under title, in storage order.
func (s *Store) ChunksByTitle(ctx context.Context, title string) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, `
		SELECT id, book_title, content, embedding
		FROM chunks WHERE book_title = ?
		ORDER BY rowid
	`, title)
}

// AllChunks returns the full stored corpus in storage order.
func (s *Store) AllChunks(ctx context.Context) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, `
		SELECT id, book_title, content, embedding
		FROM chunks
		ORDER BY rowid
	`)
}

// DeleteByTitle removes every chunk under title and reports how many rows
// went away. A title with no chunks deletes zero rows and is not an error.
func (s *Store) DeleteByTitle(ctx context.Context, title string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE book_title = ?", title)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted chunks: %w", err)
	}
	return n, nil
}

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.BookTitle, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToEmbedding(blob)
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// embeddingToBytes packs a vector as little-endian float64s.
func embeddingToBytes(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func bytesToEmbedding(buf []byte) []float64 {
	v := make([]float64, len(buf)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return v
}

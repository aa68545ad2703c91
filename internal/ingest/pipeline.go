// Package ingest turns an uploaded file into persisted, embedded chunks.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bookrag/internal/chunker"
	"bookrag/internal/domain"
	"bookrag/internal/embedding"
	"bookrag/internal/extract"
	"bookrag/internal/progress"
)

// Pipeline orchestrates extraction, chunking, embedding, progress reporting,
// and persistence for one uploaded file.
type Pipeline struct {
	chunker     *chunker.WordChunker
	embedder    embedding.Embedder
	store       domain.ChunkStore
	tracker     *progress.Tracker
	concurrency int
}

// NewPipeline assembles a pipeline. Embedding runs through a worker pool of
// the given size; anything below 1 falls back to strictly sequential calls,
// which keeps external API rate limits happy.
func NewPipeline(ch *chunker.WordChunker, emb embedding.Embedder, store domain.ChunkStore, tracker *progress.Tracker, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		chunker:     ch,
		embedder:    emb,
		store:       store,
		tracker:     tracker,
		concurrency: concurrency,
	}
}

// Ingest processes one uploaded file under jobKey and returns the number of
// chunks persisted. On any embedding or storage failure the job is aborted:
// nothing is persisted, the job is marked failed, and the error is returned.
// Extraction failures abort before the job is ever registered.
func (p *Pipeline) Ingest(ctx context.Context, fileBytes []byte, mimeType, bookTitle, jobKey string) (int, error) {
	text, err := extract.Text(fileBytes, mimeType)
	if err != nil {
		return 0, err
	}

	texts := p.chunker.Chunk(text)
	p.tracker.Start(jobKey, len(texts))

	chunks := make([]domain.Chunk, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, t := range texts {
		g.Go(func() error {
			vec, err := p.embedder.Embed(gctx, t)
			if err != nil {
				return fmt.Errorf("embedding chunk %d: %w", i, err)
			}
			chunks[i] = domain.Chunk{
				ID:        uuid.NewString(),
				Text:      t,
				Embedding: vec,
				BookTitle: bookTitle,
			}
			p.tracker.Advance(jobKey)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.tracker.Fail(jobKey)
		return 0, err
	}

	if err := p.store.AppendChunks(ctx, chunks); err != nil {
		p.tracker.Fail(jobKey)
		return 0, fmt.Errorf("persisting chunks: %w", err)
	}
	p.tracker.Finish(jobKey)
	return len(chunks), nil
}

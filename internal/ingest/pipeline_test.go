package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bookrag/internal/chunker"
	"bookrag/internal/domain"
	"bookrag/internal/progress"
)

// fakeEmbedder returns a fixed 2D vector, optionally failing after a number
// of successful calls.
type fakeEmbedder struct {
	mu        sync.Mutex
	calls     int
	failAfter int // 0 means never fail
}

func (f *fakeEmbedder) Name() string   { return "fake" }
func (f *fakeEmbedder) Dimension() int { return 2 }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAfter > 0 && f.calls > f.failAfter {
		return nil, errors.New("embedding service unavailable")
	}
	return []float64{float64(len(text)), 1}, nil
}

// memStore is an in-memory ChunkStore recording appended batches.
type memStore struct {
	mu      sync.Mutex
	chunks  []domain.Chunk
	batches int
	fail    bool
}

func (m *memStore) AppendChunks(_ context.Context, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("disk full")
	}
	m.chunks = append(m.chunks, chunks...)
	m.batches++
	return nil
}

func (m *memStore) ListBooks(context.Context) ([]domain.BookSummary, error) { return nil, nil }
func (m *memStore) ChunksByTitle(context.Context, string) ([]domain.Chunk, error) {
	return nil, nil
}
func (m *memStore) AllChunks(context.Context) ([]domain.Chunk, error) { return m.chunks, nil }
func (m *memStore) DeleteByTitle(context.Context, string) (int64, error) {
	return 0, nil
}

func words(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = "word"
	}
	return strings.Join(out, " ")
}

func newTestPipeline(t *testing.T, emb *fakeEmbedder, store *memStore, concurrency int) (*Pipeline, *progress.Tracker) {
	t.Helper()
	ch, err := chunker.NewWordChunker(300)
	if err != nil {
		t.Fatal(err)
	}
	tracker := progress.NewTracker()
	return NewPipeline(ch, emb, store, tracker, concurrency), tracker
}

func TestIngest_NineHundredWordsThreeChunks(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &memStore{}
	p, tracker := newTestPipeline(t, emb, store, 1)

	n, err := p.Ingest(context.Background(), []byte(words(900)), "text/plain", "My Book", "job1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 chunks, got %d", n)
	}
	if len(store.chunks) != 3 {
		t.Fatalf("expected 3 persisted chunks, got %d", len(store.chunks))
	}
	if store.batches != 1 {
		t.Errorf("expected one batch append, got %d", store.batches)
	}
	ids := map[string]bool{}
	for _, c := range store.chunks {
		if c.BookTitle != "My Book" {
			t.Errorf("unexpected title %q", c.BookTitle)
		}
		if len(c.Embedding) != 2 {
			t.Errorf("unexpected embedding length %d", len(c.Embedding))
		}
		if ids[c.ID] {
			t.Errorf("duplicate chunk id %s", c.ID)
		}
		ids[c.ID] = true
	}
	if _, ok := tracker.Snapshot("job1"); ok {
		t.Error("expected progress record cleared after success")
	}
}

// gatedEmbedder blocks each call until released, so tests can attach a
// watcher while the job is running.
type gatedEmbedder struct {
	gate chan struct{}
}

func (g *gatedEmbedder) Name() string   { return "gated" }
func (g *gatedEmbedder) Dimension() int { return 1 }

func (g *gatedEmbedder) Embed(ctx context.Context, _ string) ([]float64, error) {
	select {
	case <-g.gate:
		return []float64{1}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestIngest_ProgressSequenceObserved(t *testing.T) {
	emb := &gatedEmbedder{gate: make(chan struct{})}
	store := &memStore{}
	ch, err := chunker.NewWordChunker(300)
	if err != nil {
		t.Fatal(err)
	}
	tracker := progress.NewTracker()
	p := NewPipeline(ch, emb, store, tracker, 1)

	result := make(chan error, 1)
	go func() {
		_, err := p.Ingest(context.Background(), []byte(words(900)), "text/plain", "B", "job")
		result <- err
	}()

	// wait for the job to register, then watch it
	for {
		if _, ok := tracker.Snapshot("job"); ok {
			break
		}
		time.Sleep(time.Millisecond)
	}
	watch := tracker.Watch(context.Background(), "job")

	var seen []progress.Snapshot
	go func() {
		for i := 0; i < 3; i++ {
			emb.gate <- struct{}{}
		}
	}()
	for snap := range watch {
		seen = append(seen, snap)
	}
	if err := <-result; err != nil {
		t.Fatal(err)
	}

	if len(seen) == 0 {
		t.Fatal("expected progress snapshots")
	}
	prev := -1
	for _, s := range seen {
		if s.Total != 3 {
			t.Errorf("expected total 3, got %d", s.Total)
		}
		if s.Current < prev {
			t.Errorf("progress went backwards: %d after %d", s.Current, prev)
		}
		prev = s.Current
	}
	last := seen[len(seen)-1]
	if last.State != progress.StateDone || last.Current != 3 {
		t.Errorf("expected terminal 3/3 done, got %+v", last)
	}
}

func TestIngest_EmbeddingFailureDiscardsPartialWork(t *testing.T) {
	emb := &fakeEmbedder{failAfter: 1}
	store := &memStore{}
	p, tracker := newTestPipeline(t, emb, store, 1)

	_, err := p.Ingest(context.Background(), []byte(words(900)), "text/plain", "B", "job")
	if err == nil {
		t.Fatal("expected error from failing embedder")
	}
	if len(store.chunks) != 0 {
		t.Errorf("expected nothing persisted, got %d chunks", len(store.chunks))
	}
	if _, ok := tracker.Snapshot("job"); ok {
		t.Error("expected failed job record cleared")
	}
}

func TestIngest_StoreFailureMarksJobFailed(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &memStore{fail: true}
	p, _ := newTestPipeline(t, emb, store, 1)

	if _, err := p.Ingest(context.Background(), []byte(words(10)), "text/plain", "B", "job"); err == nil {
		t.Fatal("expected persistence error")
	}
}

func TestIngest_CorruptPDFAbortsBeforeEmbedding(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &memStore{}
	p, tracker := newTestPipeline(t, emb, store, 1)

	_, err := p.Ingest(context.Background(), []byte("not a pdf"), "application/pdf", "B", "job")
	if err == nil {
		t.Fatal("expected extraction error")
	}
	if !errors.Is(err, domain.ErrExtraction) {
		t.Errorf("expected extraction error, got %v", err)
	}
	if emb.calls != 0 {
		t.Errorf("expected no embedding calls, got %d", emb.calls)
	}
	if _, ok := tracker.Snapshot("job"); ok {
		t.Error("expected no progress record for failed extraction")
	}
}

func TestIngest_BoundedConcurrencyProducesCompleteBatch(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &memStore{}
	p, _ := newTestPipeline(t, emb, store, 4)

	n, err := p.Ingest(context.Background(), []byte(words(1500)), "text/plain", "B", "job")
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("expected 5 chunks, got %d", n)
	}
	for i, c := range store.chunks {
		if c.Text == "" || len(c.Embedding) == 0 {
			t.Errorf("chunk %d incomplete", i)
		}
	}
}

func TestIngest_EmptyFile(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &memStore{}
	p, _ := newTestPipeline(t, emb, store, 1)

	n, err := p.Ingest(context.Background(), []byte("   \n  "), "text/plain", "B", "job")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 chunks for whitespace-only file, got %d", n)
	}
	if emb.calls != 0 {
		t.Errorf("expected no embedding calls, got %d", emb.calls)
	}
}

package retriever

import (
	"math"
	"strconv"
	"testing"

	"bookrag/internal/domain"
)

func TestCosine_Symmetric(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{-2, 0.5, 4}
	ab, err := Cosine(a, b)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := Cosine(b, a)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("cosine not symmetric: %f vs %f", ab, ba)
	}
}

func TestCosine_SelfSimilarityIsOne(t *testing.T) {
	a := []float64{0.3, -1.7, 2.2, 0.01}
	got, err := Cosine(a, a)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestCosine_ZeroMagnitudeIsZeroNotError(t *testing.T) {
	got, err := Cosine([]float64{0, 0, 0}, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
}

func TestCosine_DimensionMismatch(t *testing.T) {
	if _, err := Cosine([]float64{1, 2}, []float64{1, 2, 3}); err == nil {
		t.Fatal("expected error for dimension mismatch")
	}
}

func TestRetrieve_TopKOverLargerCorpus(t *testing.T) {
	corpus := make([]domain.Chunk, 10)
	for i := range corpus {
		corpus[i] = domain.Chunk{
			ID:        strconv.Itoa(i),
			Embedding: []float64{1, float64(i)},
		}
	}
	got, err := Retrieve([]float64{1, 0}, corpus, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 results, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
	// every result must come from the corpus
	ids := map[string]bool{}
	for _, c := range corpus {
		ids[c.ID] = true
	}
	for _, r := range got {
		if !ids[r.Chunk.ID] {
			t.Errorf("result %s not in corpus", r.Chunk.ID)
		}
	}
}

func TestRetrieve_KClampedToCorpusSize(t *testing.T) {
	corpus := []domain.Chunk{
		{ID: "a", Embedding: []float64{1, 0}},
		{ID: "b", Embedding: []float64{0, 1}},
	}
	got, err := Retrieve([]float64{1, 0}, corpus, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
}

func TestRetrieve_ZeroMagnitudeChunkScoredZero(t *testing.T) {
	corpus := []domain.Chunk{
		{ID: "zero", Embedding: []float64{0, 0}},
		{ID: "one", Embedding: []float64{1, 0}},
	}
	got, err := Retrieve([]float64{1, 0}, corpus, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Chunk.ID != "one" {
		t.Errorf("expected nonzero chunk first, got %s", got[0].Chunk.ID)
	}
	if got[1].Chunk.ID != "zero" || got[1].Score != 0 {
		t.Errorf("expected zero-magnitude chunk with score 0, got %s/%f", got[1].Chunk.ID, got[1].Score)
	}
}

func TestRetrieve_StableTieBreak(t *testing.T) {
	// identical embeddings: all scores equal, corpus order must hold
	corpus := []domain.Chunk{
		{ID: "first", Embedding: []float64{1, 1}},
		{ID: "second", Embedding: []float64{1, 1}},
		{ID: "third", Embedding: []float64{1, 1}},
	}
	got, err := Retrieve([]float64{1, 1}, corpus, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Chunk.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got[i].Chunk.ID)
		}
	}
}

func TestRetrieve_DefaultK(t *testing.T) {
	corpus := make([]domain.Chunk, 8)
	for i := range corpus {
		corpus[i] = domain.Chunk{ID: strconv.Itoa(i), Embedding: []float64{1, float64(i)}}
	}
	got, err := Retrieve([]float64{1, 2}, corpus, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != DefaultTopK {
		t.Errorf("expected default k=%d, got %d", DefaultTopK, len(got))
	}
}

func TestRetrieve_MismatchedCorpusFailsFast(t *testing.T) {
	corpus := []domain.Chunk{{ID: "bad", Embedding: []float64{1, 2, 3}}}
	if _, err := Retrieve([]float64{1, 2}, corpus, 1); err == nil {
		t.Fatal("expected error for mismatched corpus embedding")
	}
}

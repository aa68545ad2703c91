// Package retriever scores stored chunks against a query embedding and
// selects the most similar ones.
package retriever

import (
	"fmt"
	"math"
	"sort"

	"bookrag/internal/domain"
)

// DefaultTopK is the number of chunks injected into the generation prompt
// when the caller does not override it.
const DefaultTopK = 5

// Cosine computes the cosine similarity of two embeddings. A zero-magnitude
// vector on either side yields 0 rather than an error. Mismatched
// dimensionality indicates a configuration bug and fails fast.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("retriever: embedding dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// Retrieve scores every chunk in the corpus against queryEmbedding and
// returns the top k by descending score. Ties keep their corpus order.
// k defaults to DefaultTopK when non-positive.
func Retrieve(queryEmbedding []float64, corpus []domain.Chunk, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	scored := make([]domain.ScoredChunk, 0, len(corpus))
	for _, ch := range corpus {
		score, err := Cosine(queryEmbedding, ch.Embedding)
		if err != nil {
			return nil, fmt.Errorf("scoring chunk %s: %w", ch.ID, err)
		}
		scored = append(scored, domain.ScoredChunk{Chunk: ch, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

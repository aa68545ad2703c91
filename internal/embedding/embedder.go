package embedding

import "context"

// Embedder converts free text into a numeric vector representation.
// Output dimensionality is stable for a given model.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

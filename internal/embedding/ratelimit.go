package embedding

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimited throttles calls to an underlying embedder so sequential
// ingestion stays inside external API rate limits.
type rateLimited struct {
	inner   Embedder
	limiter *rate.Limiter
}

// RateLimited wraps e with a token-bucket limiter of rps requests per second.
// A non-positive rps returns e unchanged.
func RateLimited(e Embedder, rps float64) Embedder {
	if rps <= 0 {
		return e
	}
	return &rateLimited{
		inner:   e,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (r *rateLimited) Name() string   { return r.inner.Name() }
func (r *rateLimited) Dimension() int { return r.inner.Dimension() }

func (r *rateLimited) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Embed(ctx, text)
}

package embedding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Batcher splits inputs into batches of at most size texts and waits on a
// limiter before each request. It never retries.
type Batcher struct {
	inner   Embedder
	size    int
	limiter *rate.Limiter
}

// NewBatcher wraps inner. size <= 0 sends everything in one request and
// rps <= 0 disables pacing.
func NewBatcher(inner Embedder, size int, rps float64) *Batcher {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Batcher{inner: inner, size: size, limiter: rate.NewLimiter(limit, 1)}
}

func (b *Batcher) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	size := b.size
	if size <= 0 || size > len(texts) {
		size = len(texts)
	}
	if size == 0 {
		return b.inner.Embed(ctx, texts)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		batch, err := b.inner.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("batch %d-%d returned %d vectors", start, end, len(batch))
		}
		log.Debug().Int("from", start).Int("to", end).Msg("Embedded batch")
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"pdf-assistant/internal/embedding"
	"pdf-assistant/internal/index"
	"pdf-assistant/internal/models"
)

// Searcher is the read side of an index.Index
type Searcher interface {
	Len() int
	Dimension() int
	Search(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error)
}

type Retriever struct {
	embedder embedding.Embedder
	index    Searcher
}

// NewRetriever pairs an index with the embedder that built it
func NewRetriever(embedder embedding.Embedder, idx Searcher) *Retriever {
	return &Retriever{embedder: embedder, index: idx}
}

// Retrieve returns the min(k, Len()) chunks most similar to query
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (models.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", models.ErrConfig, k)
	}
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError(models.FieldIssue{Field: "AnsweredQuery.Question", Problem: "required"})
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed query: %v", models.ErrEmbedding, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for one query", models.ErrEmbedding, len(vectors))
	}
	if err := index.CheckVector(vectors[0]); err != nil {
		return nil, err
	}
	if len(vectors[0]) != r.index.Dimension() {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index has %d", models.ErrEmbedding, len(vectors[0]), r.index.Dimension())
	}

	result, err := r.index.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("k", k).Int("found", len(result)).Ints("pages", result.Pages()).Msg("Retrieved context")
	return result, nil
}

package embedding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"pdf-assistant/internal/config"
	"pdf-assistant/internal/models"
)

// Embedder turns texts into vectors, one vector per text in input order.
// A single query is a batch of one.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// New creates the embedder for the configured provider, paced by a Batcher
func New(cfg *config.ProviderConfig) (Embedder, error) {
	var (
		inner Embedder
		err   error
	)
	switch cfg.Type {
	case config.ProviderOpenAI:
		inner, err = NewOpenAIEmbedder(cfg)
	case config.ProviderOllama:
		inner, err = NewOllamaEmbedder(cfg)
	case config.ProviderOpenAIDirect:
		inner = NewOpenAIClientEmbedder(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider type %q", models.ErrConfig, cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create %s embedder: %v", models.ErrStartup, cfg.Type, err)
	}

	log.Info().Str("provider", cfg.Type).Str("model", cfg.EmbeddingModel).Msg("Embedder ready")
	return NewBatcher(inner, cfg.EmbeddingBatchSize, cfg.RequestsPerSecond), nil
}

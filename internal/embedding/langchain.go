package embedding

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-assistant/internal/config"
)

// LangchainEmbedder adapts a langchaingo embedder to Embedder
type LangchainEmbedder struct {
	impl embeddings.Embedder
}

func NewLangchainEmbedder(impl embeddings.Embedder) *LangchainEmbedder {
	return &LangchainEmbedder{impl: impl}
}

// NewOpenAIEmbedder creates an OpenAI (or OpenAI compatible) embedder
func NewOpenAIEmbedder(cfg *config.ProviderConfig) (*LangchainEmbedder, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        cfg.BaseURL,
		"embedding_model": cfg.EmbeddingModel,
	}).Msg("Creating OpenAI embedder")

	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return NewLangchainEmbedder(embedder), nil
}

// new ollama embedder
func NewOllamaEmbedder(cfg *config.ProviderConfig) (*LangchainEmbedder, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        cfg.BaseURL,
		"embedding_model": cfg.EmbeddingModel,
	}).Msg("Creating Ollama embedder")

	opts := []ollama.Option{ollama.WithModel(cfg.EmbeddingModel)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return NewLangchainEmbedder(embedder), nil
}

func (e *LangchainEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.impl.EmbedDocuments(ctx, texts)
}

package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"pdf-assistant/internal/config"
)

// OpenAIClientEmbedder calls the embeddings endpoint through go-openai
type OpenAIClientEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIClientEmbedder(cfg *config.ProviderConfig) *OpenAIClientEmbedder {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIClientEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  openai.EmbeddingModel(cfg.EmbeddingModel),
	}
}

func (e *OpenAIClientEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, err
	}

	// the API reports the input position of every vector
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range for %d inputs", d.Index, len(texts))
		}
		vectors[d.Index] = d.Embedding
	}
	if len(resp.Data) != len(texts) {
		return vectors[:0], fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}
	return vectors, nil
}

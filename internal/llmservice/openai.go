package llmservice

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"pdf-assistant/internal/config"
)

// OpenAIClientCompleter talks to the chat completions endpoint through go-openai
type OpenAIClientCompleter struct {
	client *openai.Client
}

func NewOpenAIClientCompleter(cfg *config.ProviderConfig) *OpenAIClientCompleter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIClientCompleter{client: openai.NewClientWithConfig(clientConfig)}
}

func (c *OpenAIClientCompleter) Complete(ctx context.Context, prompt string, params config.LLMConfig) (string, error) {
	// temperature is omitted from the payload when zero
	temperature := float32(params.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	req := openai.ChatCompletionRequest{
		Model: params.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   params.MaxTokens,
	}
	if params.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	log.Debug().Str("model", req.Model).Int("max_tokens", req.MaxTokens).Msg("Creating chat completion")
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

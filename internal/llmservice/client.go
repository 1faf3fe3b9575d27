package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-assistant/internal/config"
	"pdf-assistant/internal/models"
)

// Completer sends one prompt to a chat model and returns its raw reply
type Completer interface {
	Complete(ctx context.Context, prompt string, params config.LLMConfig) (string, error)
}

// New creates the completer for the configured provider. model is used when a
// call does not name one.
func New(cfg *config.ProviderConfig, model string) (Completer, error) {
	var (
		c   Completer
		err error
	)
	switch cfg.Type {
	case config.ProviderOpenAI:
		c, err = NewOpenAICompleter(cfg, model)
	case config.ProviderOllama:
		c, err = NewOllamaCompleter(cfg, model)
	case config.ProviderOpenAIDirect:
		c = NewOpenAIClientCompleter(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider type %q", models.ErrConfig, cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create %s completer: %v", models.ErrStartup, cfg.Type, err)
	}
	return c, nil
}

// LangchainCompleter calls any langchaingo model with a single prompt
type LangchainCompleter struct {
	llm llms.Model
}

func NewLangchainCompleter(llm llms.Model) *LangchainCompleter {
	return &LangchainCompleter{llm: llm}
}

func NewOpenAICompleter(cfg *config.ProviderConfig, model string) (*LangchainCompleter, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return NewLangchainCompleter(llm), nil
}

func NewOllamaCompleter(cfg *config.ProviderConfig, model string) (*LangchainCompleter, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, err
	}
	return NewLangchainCompleter(llm), nil
}

// call llm
func (c *LangchainCompleter) Complete(ctx context.Context, prompt string, params config.LLMConfig) (string, error) {
	log.Debug().Interface("llmConfig", params).Int("prompt_len", len(prompt)).Msg("Generating content")

	opts := []llms.CallOption{
		llms.WithModel(params.Model),
		llms.WithTemperature(params.Temperature),
		llms.WithMaxTokens(params.MaxTokens),
	}
	if params.JSONMode {
		opts = append(opts, llms.WithJSONMode())
	}
	return llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, opts...)
}

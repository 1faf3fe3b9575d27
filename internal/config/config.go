package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pdf-assistant/internal/models"
)

const (
	ProviderOpenAI       = "openai"
	ProviderOpenAIDirect = "openai-direct"
	ProviderOllama       = "ollama"

	BackendMemory   = "memory"
	BackendPostgres = "postgres"

	defaultChunkSize    = 2300
	defaultChunkOverlap = 400
	defaultTopK         = 2

	defaultTemperature = 0.7
	defaultModel       = "gpt-4o"
	defaultMaxTokens   = 2000

	maxTemperature = 2.0
)

type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	RAG      RAGConfig      `yaml:"rag"`
	LLM      LLMConfig      `yaml:"llm"`
	Index    IndexConfig    `yaml:"index"`
	Log      LogConfig      `yaml:"log"`
}

// ProviderConfig selects the embedding and chat provider
type ProviderConfig struct {
	Type               string  `yaml:"type"`
	BaseURL            string  `yaml:"base_url"`
	APIKeyEnv          string  `yaml:"api_key_env"`
	EmbeddingModel     string  `yaml:"embedding_model"`
	EmbeddingBatchSize int     `yaml:"embedding_batch_size"`
	RequestsPerSecond  float64 `yaml:"requests_per_second"`
	JSONMode           bool    `yaml:"json_mode"`

	// APIKey is resolved from the environment, never from the file
	APIKey string `yaml:"-"`
}

// RAGConfig is fixed once the index is built
type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
}

// LLMConfig may change between questions
type LLMConfig struct {
	Temperature float64 `yaml:"temperature"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	JSONMode    bool    `yaml:"-"`
}

type IndexConfig struct {
	Backend  string         `yaml:"backend"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	DSN         string `yaml:"dsn"`
	PasswordEnv string `yaml:"password_env"`
	Debug       bool   `yaml:"debug"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Type:           ProviderOpenAI,
			APIKeyEnv:      "OPENAI_API_KEY",
			EmbeddingModel: "text-embedding-ada-002",
			JSONMode:       true,
		},
		RAG: DefaultRAG(),
		LLM: DefaultLLM(),
		Index: IndexConfig{
			Backend: BackendMemory,
			Postgres: PostgresConfig{
				PasswordEnv: "PGPASSWORD",
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

func DefaultRAG() RAGConfig {
	return RAGConfig{ChunkSize: defaultChunkSize, ChunkOverlap: defaultChunkOverlap, TopK: defaultTopK}
}

func DefaultLLM() LLMConfig {
	return LLMConfig{Temperature: defaultTemperature, Model: defaultModel, MaxTokens: defaultMaxTokens}
}

// LoadConfig reads path over the defaults. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Provider.Type {
	case ProviderOpenAI, ProviderOpenAIDirect, ProviderOllama:
	default:
		return fmt.Errorf("%w: unknown provider type %q", models.ErrConfig, c.Provider.Type)
	}
	switch c.Index.Backend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("%w: unknown index backend %q", models.ErrConfig, c.Index.Backend)
	}
	if c.Provider.EmbeddingBatchSize < 0 || c.Provider.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: embedding batch size and requests per second must not be negative", models.ErrConfig)
	}
	if err := c.RAG.Validate(); err != nil {
		return err
	}
	return c.LLM.Validate()
}

// ResolveCredential reads the provider key from the environment.
// openai and openai-direct cannot start without it.
func (c *Config) ResolveCredential(getenv func(string) string) error {
	c.Provider.APIKey = getenv(c.Provider.APIKeyEnv)
	if c.Provider.APIKey != "" || c.Provider.Type == ProviderOllama {
		return nil
	}
	return fmt.Errorf("%w: %s is not set", models.ErrStartup, c.Provider.APIKeyEnv)
}

// LLMParams returns the LLM section with provider-wide flags applied
func (c *Config) LLMParams() LLMConfig {
	p := c.LLM
	p.JSONMode = c.Provider.JSONMode
	return p
}

func (r RAGConfig) Validate() error {
	if r.ChunkSize <= 0 || r.ChunkOverlap <= 0 || r.TopK <= 0 {
		return fmt.Errorf("%w: chunk_size, chunk_overlap and top_k must be positive", models.ErrConfig)
	}
	if r.ChunkOverlap >= r.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap (%d) must be smaller than chunk_size (%d)", models.ErrConfig, r.ChunkOverlap, r.ChunkSize)
	}
	return nil
}

func (l LLMConfig) Validate() error {
	if l.Temperature < 0 || l.Temperature > maxTemperature {
		return fmt.Errorf("%w: temperature %.2f is outside [0, 2]", models.ErrConfig, l.Temperature)
	}
	if l.Model == "" {
		return fmt.Errorf("%w: model must not be empty", models.ErrConfig)
	}
	if l.MaxTokens <= 0 {
		return fmt.Errorf("%w: max_tokens must be positive", models.ErrConfig)
	}
	return nil
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-assistant/internal/models"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, RAGConfig{ChunkSize: 2300, ChunkOverlap: 400, TopK: 2}, cfg.RAG)
	assert.Equal(t, LLMConfig{Temperature: 0.7, Model: "gpt-4o", MaxTokens: 2000}, cfg.LLM)
	assert.Equal(t, ProviderOpenAI, cfg.Provider.Type)
	assert.Equal(t, BackendMemory, cfg.Index.Backend)
}

func TestLoadConfigOverridesOnlySetKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
provider:
  type: ollama
  base_url: http://localhost:11434
rag:
  top_k: 4
llm:
  temperature: 0
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.Provider.Type)
	assert.Equal(t, "http://localhost:11434", cfg.Provider.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Provider.APIKeyEnv)
	assert.Equal(t, RAGConfig{ChunkSize: 2300, ChunkOverlap: 400, TopK: 4}, cfg.RAG)
	assert.Equal(t, 0.0, cfg.LLM.Temperature)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "overlap not below size", data: "rag:\n  chunk_size: 100\n  chunk_overlap: 100\n"},
		{name: "temperature too high", data: "llm:\n  temperature: 2.5\n"},
		{name: "unknown provider", data: "provider:\n  type: bard\n"},
		{name: "unknown backend", data: "index:\n  backend: faiss\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))

			_, err := LoadConfig(path)
			assert.True(t, errors.Is(err, models.ErrConfig), "got %v", err)
		})
	}
}

func TestRAGConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RAGConfig
		wantErr bool
	}{
		{name: "defaults", cfg: DefaultRAG()},
		{name: "small", cfg: RAGConfig{ChunkSize: 100, ChunkOverlap: 20, TopK: 1}},
		{name: "zero top k", cfg: RAGConfig{ChunkSize: 100, ChunkOverlap: 20, TopK: 0}, wantErr: true},
		{name: "zero overlap", cfg: RAGConfig{ChunkSize: 100, ChunkOverlap: 0, TopK: 1}, wantErr: true},
		{name: "overlap above size", cfg: RAGConfig{ChunkSize: 100, ChunkOverlap: 150, TopK: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLLMConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultLLM().Validate())
	assert.NoError(t, LLMConfig{Temperature: 2, Model: "m", MaxTokens: 1}.Validate())
	assert.ErrorIs(t, LLMConfig{Temperature: -0.1, Model: "m", MaxTokens: 1}.Validate(), models.ErrConfig)
	assert.ErrorIs(t, LLMConfig{Temperature: 1, MaxTokens: 1}.Validate(), models.ErrConfig)
	assert.ErrorIs(t, LLMConfig{Temperature: 1, Model: "m"}.Validate(), models.ErrConfig)
}

func TestResolveCredential(t *testing.T) {
	env := map[string]string{"OPENAI_API_KEY": "sk-test"}
	getenv := func(k string) string { return env[k] }

	cfg := Default()
	require.NoError(t, cfg.ResolveCredential(getenv))
	assert.Equal(t, "sk-test", cfg.Provider.APIKey)

	missing := Default()
	missing.Provider.APIKeyEnv = "OTHER_KEY"
	err := missing.ResolveCredential(getenv)
	assert.ErrorIs(t, err, models.ErrStartup)

	local := Default()
	local.Provider.Type = ProviderOllama
	local.Provider.APIKeyEnv = "OTHER_KEY"
	assert.NoError(t, local.ResolveCredential(getenv))
}

func TestLLMParamsCarriesJSONMode(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.LLMParams().JSONMode)

	cfg.Provider.JSONMode = false
	assert.False(t, cfg.LLMParams().JSONMode)
	assert.Equal(t, "gpt-4o", cfg.LLMParams().Model)
}

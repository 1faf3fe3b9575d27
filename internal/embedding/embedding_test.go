package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-assistant/internal/config"
	"pdf-assistant/internal/models"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// embeddingServer answers every request with one vector per input.
// reverse lists the vectors in reverse order with their indexes.
func embeddingServer(t *testing.T, reverse bool, got *embeddingRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if got != nil {
			*got = req
		}

		data := make([]map[string]any, 0, len(req.Input))
		for i := range req.Input {
			idx := i
			if reverse {
				idx = len(req.Input) - 1 - i
			}
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     idx,
				"embedding": []float32{float32(idx + 1), 0.5},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		}))
	}))
}

func TestOpenAIClientEmbedderOrdersByIndex(t *testing.T) {
	var got embeddingRequest
	srv := embeddingServer(t, true, &got)
	defer srv.Close()

	e := NewOpenAIClientEmbedder(&config.ProviderConfig{
		BaseURL:        srv.URL + "/v1",
		APIKey:         "test-key",
		EmbeddingModel: "text-embedding-3-small",
	})

	vectors, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, got.Input)
	assert.Equal(t, "text-embedding-3-small", got.Model)
	require.Len(t, vectors, 3)
	for i, v := range vectors {
		assert.Equal(t, float32(i+1), v[0])
	}
}

func TestOpenAIClientEmbedderPropagatesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	e := NewOpenAIClientEmbedder(&config.ProviderConfig{BaseURL: srv.URL + "/v1", APIKey: "k"})
	_, err := e.Embed(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestLangchainOpenAIEmbedder(t *testing.T) {
	srv := embeddingServer(t, false, nil)
	defer srv.Close()

	e, err := NewOpenAIEmbedder(&config.ProviderConfig{
		BaseURL:        srv.URL + "/v1",
		APIKey:         "Bearer test-key",
		EmbeddingModel: "text-embedding-ada-002",
	})
	require.NoError(t, err)

	vectors, err := e.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 0.5}, vectors[0])
	assert.Equal(t, []float32{2, 0.5}, vectors[1])
}

func TestNewSelectsProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantErr  error
	}{
		{name: "openai", provider: config.ProviderOpenAI},
		{name: "openai direct", provider: config.ProviderOpenAIDirect},
		{name: "ollama", provider: config.ProviderOllama},
		{name: "unknown", provider: "bard", wantErr: models.ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(&config.ProviderConfig{
				Type:           tt.provider,
				APIKey:         "k",
				BaseURL:        "http://127.0.0.1:1",
				EmbeddingModel: "m",
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, &Batcher{}, e)
		})
	}
}

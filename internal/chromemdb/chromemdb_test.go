package chromemdb

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-assistant/internal/models"
)

func chunk(seq int, content string) models.Chunk {
	return models.Chunk{ID: fmt.Sprintf("1-%d", seq+1), Seq: seq, PageNumber: 1, Content: content}
}

func TestStoreSearchOrdersBySimilarity(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(2)
	require.NoError(t, err)
	defer s.Close()

	chunks := []models.Chunk{chunk(0, "east"), chunk(1, "north"), chunk(2, "north east")}
	require.NoError(t, s.Add(ctx, chunks, [][]float32{{1, 0}, {0, 1}, {1, 1}}))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.Search(ctx, []float32{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "north", got[0].Content)
	assert.Equal(t, "north east", got[1].Content)
	assert.Greater(t, got[0].Similarity, got[1].Similarity)
}

func TestStoreSearchBreaksTiesByDocumentOrder(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(2)
	require.NoError(t, err)
	defer s.Close()

	chunks := []models.Chunk{chunk(0, "a"), chunk(1, "b"), chunk(2, "c"), chunk(3, "d")}
	vectors := [][]float32{{1, 0}, {2, 0}, {0, 1}, {3, 0}}
	require.NoError(t, s.Add(ctx, chunks, vectors))

	for i := 0; i < 5; i++ {
		got, err := s.Search(ctx, []float32{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"a", "b", "d"}, got.Texts())
	}
}

func TestStoreSearchReturnsAllWhenKExceedsLen(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(3)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Add(ctx, []models.Chunk{chunk(0, "only")}, [][]float32{{1, 2, 3}}))

	got, err := s.Search(ctx, []float32{1, 2, 3}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "only", got[0].Content)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-5)
}

func TestStoreRejectsMismatchedInput(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(2)
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.Add(ctx, []models.Chunk{chunk(0, "a")}, nil))
	assert.Error(t, s.Add(ctx, []models.Chunk{chunk(0, "a")}, [][]float32{{1, 2, 3}}))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStoreSearchEmpty(t *testing.T) {
	s, err := NewStore(2)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Search(context.Background(), []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

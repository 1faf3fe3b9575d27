package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"pdf-assistant/internal/helper"
	"pdf-assistant/internal/models"
)

const collectionPrefix = "chunks-"

var errPrecomputed = errors.New("embeddings must be computed before they reach the store")

// Store keeps one session's chunks in an in-memory chromem collection
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	dimension  int
	byID       map[string]models.Chunk
}

// NewStore creates an empty in-memory collection for vectors of the given dimension
func NewStore(dimension int) (*Store, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	db := chromem.NewDB()
	c, err := db.CreateCollection(collectionPrefix+id, nil, func(context.Context, string) ([]float32, error) {
		return nil, errPrecomputed
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %v", err)
	}

	log.Debug().Str("collection", c.Name).Int("dimension", dimension).Msg("Created in-memory collection")
	return &Store{db: db, collection: c, dimension: dimension, byID: make(map[string]models.Chunk)}, nil
}

// Add stores chunks with their vectors. It may be called more than once.
func (s *Store) Add(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != s.dimension {
			return fmt.Errorf("vector for chunk %s has dimension %d, want %d", chunk.ID, len(vectors[i]), s.dimension)
		}
		docs = append(docs, chromem.Document{
			ID:      chunk.ID,
			Content: chunk.Content,
			Metadata: map[string]string{
				"page": strconv.Itoa(chunk.PageNumber),
				"seq":  strconv.Itoa(chunk.Seq),
			},
			Embedding: vectors[i],
		})
	}

	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	for _, chunk := range chunks {
		s.byID[chunk.ID] = chunk
	}
	return nil
}

// Search ranks every stored chunk against vector and returns the best k,
// ties going to the chunk that comes first in the document.
func (s *Store) Search(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error) {
	n := s.collection.Count()
	if n == 0 || k <= 0 {
		return models.RetrievalResult{}, nil
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	out := make(models.RetrievalResult, 0, len(results))
	for _, r := range results {
		chunk, ok := s.byID[r.ID]
		if !ok {
			return nil, fmt.Errorf("unknown document %s in collection", r.ID)
		}
		out = append(out, models.RetrievedChunk{Chunk: chunk, Similarity: r.Similarity})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Seq < out[j].Seq
	})

	if k < len(out) {
		out = out[:k]
	}
	return out, nil
}

// Count returns the number of stored chunks
func (s *Store) Count(_ context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Close drops the collection
func (s *Store) Close() error {
	if err := s.db.DeleteCollection(s.collection.Name); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	s.byID = nil
	return nil
}

package index

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"pdf-assistant/internal/chromemdb"
	"pdf-assistant/internal/config"
	"pdf-assistant/internal/db"
	"pdf-assistant/internal/embedding"
	"pdf-assistant/internal/models"
)

// Store holds chunk vectors for one session
type Store interface {
	Add(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// StoreFactory opens an empty Store for vectors of the given dimension
type StoreFactory func(ctx context.Context, dimension int) (Store, error)

// NewStoreFactory returns the factory for the configured backend.
// password is only used by the postgres backend.
func NewStoreFactory(cfg config.IndexConfig, password string) (StoreFactory, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return MemoryStoreFactory, nil
	case config.BackendPostgres:
		return func(ctx context.Context, dimension int) (Store, error) {
			bdb := db.Open(cfg.Postgres, password)
			s, err := db.NewStore(ctx, bdb, dimension)
			if err != nil {
				bdb.Close()
				return nil, err
			}
			return s, nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", models.ErrConfig, cfg.Backend)
	}
}

func MemoryStoreFactory(_ context.Context, dimension int) (Store, error) {
	s, err := chromemdb.NewStore(dimension)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Index is the searchable, read-only result of Build
type Index struct {
	store     Store
	size      int
	dimension int
}

func (i *Index) Len() int       { return i.size }
func (i *Index) Dimension() int { return i.dimension }

// Search returns the min(k, Len()) most similar chunks, ties by document order
func (i *Index) Search(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error) {
	if len(vector) != i.dimension {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index has %d", models.ErrEmbedding, len(vector), i.dimension)
	}
	k = min(k, i.size)
	if k <= 0 {
		return models.RetrievalResult{}, nil
	}
	return i.store.Search(ctx, vector, k)
}

func (i *Index) Close() error {
	return i.store.Close()
}

type Indexer struct {
	embedder embedding.Embedder
	factory  StoreFactory
}

func NewIndexer(embedder embedding.Embedder, factory StoreFactory) *Indexer {
	return &Indexer{embedder: embedder, factory: factory}
}

// Build embeds every chunk and loads the vectors into a fresh store
func (x *Indexer) Build(ctx context.Context, chunks []models.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %w", models.ErrFile, models.ErrNoContent)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	log.Info().Int("chunks", len(chunks)).Msg("Embedding chunks")
	vectors, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbedding, err)
	}
	dimension, err := checkVectors(vectors, len(chunks))
	if err != nil {
		return nil, err
	}

	store, err := x.factory(ctx, dimension)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}
	if err := fill(ctx, store, chunks, vectors); err != nil {
		if cerr := store.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to close index store")
		}
		return nil, fmt.Errorf("failed to fill index store: %w", err)
	}

	log.Info().Int("chunks", len(chunks)).Int("dimension", dimension).Msg("Index built")
	return &Index{store: store, size: len(chunks), dimension: dimension}, nil
}

// fill adds every chunk and checks that the store holds exactly those
func fill(ctx context.Context, store Store, chunks []models.Chunk, vectors [][]float32) error {
	if err := store.Add(ctx, chunks, vectors); err != nil {
		return err
	}
	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if n != len(chunks) {
		return fmt.Errorf("store holds %d chunks, expected %d", n, len(chunks))
	}
	return nil
}

// checkVectors returns the common dimension of vectors
func checkVectors(vectors [][]float32, want int) (int, error) {
	if len(vectors) != want {
		return 0, fmt.Errorf("%w: got %d vectors for %d chunks", models.ErrEmbedding, len(vectors), want)
	}
	dimension := len(vectors[0])
	for i, v := range vectors {
		if err := CheckVector(v); err != nil {
			return 0, fmt.Errorf("chunk %d: %w", i, err)
		}
		if len(v) != dimension {
			return 0, fmt.Errorf("%w: chunk %d has dimension %d, expected %d", models.ErrEmbedding, i, len(v), dimension)
		}
	}
	return dimension, nil
}

// CheckVector rejects vectors that cannot be compared by cosine similarity
func CheckVector(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", models.ErrEmbedding)
	}
	var norm float64
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return fmt.Errorf("%w: vector is not finite", models.ErrEmbedding)
		}
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return fmt.Errorf("%w: zero vector", models.ErrEmbedding)
	}
	return nil
}

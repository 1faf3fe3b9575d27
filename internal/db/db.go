package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"pdf-assistant/internal/config"
	"pdf-assistant/internal/helper"
	"pdf-assistant/internal/models"
)

// ChunkRow is one chunk in the session table
type ChunkRow struct {
	bun.BaseModel `bun:"alias:c"`
	ID            string           `bun:"id,pk"`
	Seq           int              `bun:"seq,notnull"`
	Page          int              `bun:"page,notnull"`
	Content       string           `bun:"content,notnull"`
	Embedding     *pgvector.Vector `bun:"embedding,type:vector"`
	Similarity    float32          `bun:"similarity,scanonly"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// Open returns a bun handle for the configured DSN. No connection is made until first use.
func Open(cfg config.PostgresConfig, password string) *bun.DB {
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if password != "" {
		opts = append(opts, pgdriver.WithPassword(password))
	}
	return NewDB(sql.OpenDB(pgdriver.NewConnector(opts...)), cfg.Debug)
}

// Store keeps one session's chunks in a pgvector table that is dropped on Close
type Store struct {
	db        *bun.DB
	table     string
	dimension int
}

// NewStore creates a fresh session table for vectors of the given dimension
func NewStore(ctx context.Context, db *bun.DB, dimension int) (*Store, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, table: "chunks_" + strings.ReplaceAll(id, "-", "_"), dimension: dimension}

	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return nil, fmt.Errorf("failed to enable pgvector: %v", err)
	}
	if _, err := s.createTableQuery().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %v", s.table, err)
	}

	log.Debug().Str("table", s.table).Int("dimension", dimension).Msg("Created session table")
	return s, nil
}

func (s *Store) createTableQuery() *bun.RawQuery {
	return s.db.NewRaw(
		"CREATE TABLE ? (id text PRIMARY KEY, seq integer NOT NULL, page integer NOT NULL, content text NOT NULL, embedding vector(?) NOT NULL)",
		bun.Ident(s.table), s.dimension,
	)
}

func (s *Store) insertQuery(rows *[]ChunkRow) *bun.InsertQuery {
	return s.db.NewInsert().
		Model(rows).
		ModelTableExpr("? AS c", bun.Ident(s.table)).
		Column("id", "seq", "page", "content", "embedding")
}

func (s *Store) searchQuery(rows *[]ChunkRow, vector []float32, k int) *bun.SelectQuery {
	v := pgvector.NewVector(vector)
	return s.db.NewSelect().
		Model(rows).
		ModelTableExpr("? AS c", bun.Ident(s.table)).
		Column("id", "seq", "page", "content").
		ColumnExpr("1 - (embedding <=> ?) AS similarity", v).
		OrderExpr("embedding <=> ?", v).
		OrderExpr("seq ASC").
		Limit(k)
}

func (s *Store) countQuery() *bun.SelectQuery {
	return s.db.NewSelect().TableExpr("?", bun.Ident(s.table)).ColumnExpr("count(*)")
}

func (s *Store) dropTableQuery() *bun.DropTableQuery {
	return s.db.NewDropTable().Table(s.table).IfExists()
}

func (s *Store) Add(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	if len(chunks) == 0 {
		return nil
	}

	rows := make([]ChunkRow, 0, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) != s.dimension {
			return fmt.Errorf("vector for chunk %s has dimension %d, want %d", c.ID, len(vectors[i]), s.dimension)
		}
		v := pgvector.NewVector(vectors[i])
		rows = append(rows, ChunkRow{ID: c.ID, Seq: c.Seq, Page: c.PageNumber, Content: c.Content, Embedding: &v})
	}

	if _, err := s.insertQuery(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("failed to store chunks: %v", err)
	}
	return nil
}

// Search returns the k nearest chunks by cosine distance, ties by document order
func (s *Store) Search(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error) {
	if k <= 0 {
		return models.RetrievalResult{}, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query vector has dimension %d, want %d", len(vector), s.dimension)
	}

	var rows []ChunkRow
	if err := s.searchQuery(&rows, vector, k).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to search chunks: %v", err)
	}

	out := make(models.RetrievalResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.RetrievedChunk{
			Chunk:      models.Chunk{ID: r.ID, Seq: r.Seq, PageNumber: r.Page, Content: r.Content},
			Similarity: r.Similarity,
		})
	}
	return out, nil
}

// Count returns the number of rows in the session table
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.countQuery().Scan(ctx, &n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %v", err)
	}
	return n, nil
}

// Close drops the session table and releases the connection pool
func (s *Store) Close() error {
	_, err := s.dropTableQuery().Exec(context.Background())
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to drop table %s: %v", s.table, err)
	}
	return nil
}

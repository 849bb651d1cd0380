// Package pgvector implements vector.Index on PostgreSQL with the pgvector
// extension.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	pgv "github.com/pgvector/pgvector-go"
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/vector"
)

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Index stores points in one table with a vector column.
type Index struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

var _ vector.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithTable overrides the table name.
func WithTable(name string) Option {
	return func(ix *Index) {
		ix.table = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		ix.logger = logger
	}
}

// Open connects to PostgreSQL at databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string, opts ...Option) (*Index, error) {
	ix := &Index{table: vector.DefaultCollection, logger: slog.Default()}
	for _, opt := range opts {
		opt(ix)
	}
	if !identifier.MatchString(ix.table) {
		return nil, fmt.Errorf("%w: %q", vector.ErrInvalidCollection, ix.table)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	ix.db = db
	return ix, nil
}

// EnsureCollection creates the extension, the table and its cosine index.
func (ix *Index) EnsureCollection(ctx context.Context, dimension int) error {
	for _, stmt := range bootstrapStatements(ix.table, dimension) {
		if _, err := ix.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap %s: %w", ix.table, err)
		}
	}
	ix.logger.Debug("collection ready", "table", ix.table, "dimension", dimension)
	return nil
}

// Insert upserts points in one transaction.
func (ix *Index) Insert(ctx context.Context, points []core.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	tx, err := ix.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, insertQuery(ix.table))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.Id, string(p.SourceId), pgv.NewVector(p.Vector)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert point %s: %w", p.Id, err)
		}
	}
	return tx.Commit()
}

// Search orders rows by cosine distance. Scores are reported as cosine similarity.
func (ix *Index) Search(ctx context.Context, query []float32, opts vector.SearchOptions) ([]vector.Hit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	rows, err := ix.db.QueryContext(ctx, searchQuery(ix.table),
		pgv.NewVector(query), opts.MinScore, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []vector.Hit
	for rows.Next() {
		var (
			h      vector.Hit
			source string
			score  float64
		)
		if err := rows.Scan(&h.PointId, &source, &score); err != nil {
			return nil, err
		}
		h.SourceId = core.ID(source)
		h.Score = float32(score)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Close closes the connection pool.
func (ix *Index) Close() error {
	if ix.db != nil {
		return ix.db.Close()
	}
	return nil
}

func bootstrapStatements(table string, dimension int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id uuid PRIMARY KEY,
			source_id text NOT NULL,
			embedding vector(%d) NOT NULL
		)`, table, dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_source_idx ON %s (source_id)`, table, table),
	}
}

func insertQuery(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (id, source_id, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET source_id = EXCLUDED.source_id, embedding = EXCLUDED.embedding
	`, table)
}

func searchQuery(table string) string {
	return fmt.Sprintf(`
		SELECT id::text, source_id, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3 OFFSET $4
	`, table)
}

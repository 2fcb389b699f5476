package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vmaslov/askdocs/internal/core/domain"
)

// Store keeps chunk embeddings in Postgres with the pgvector extension.
// Every corpus rebuild replaces the collection wholesale so the table always
// mirrors the docs directory.
type Store struct {
	db         *sql.DB
	collection string
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func New(db *sql.DB, collection string) *Store {
	return &Store{db: db, collection: collection}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/importer startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS corpus_chunks (
	id TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	document_id TEXT NOT NULL,
	chunk_index INT NOT NULL,
	text TEXT NOT NULL,
	char_count INT NOT NULL,
	embedding vector NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_corpus_chunks_collection ON corpus_chunks(collection);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Replace swaps the collection's contents for the given chunks in a single
// transaction. A failed rebuild leaves the previous corpus untouched.
func (s *Store) Replace(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("replace corpus: %d chunks but %d vectors", len(chunks), len(vectors))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM corpus_chunks WHERE collection = $1`, s.collection); err != nil {
		return fmt.Errorf("clear collection %s: %w", s.collection, err)
	}

	for i, chunk := range chunks {
		_, err := tx.ExecContext(ctx, `
INSERT INTO corpus_chunks (id, collection, document_id, chunk_index, text, char_count, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7::vector)
`,
			uuid.NewString(), s.collection, chunk.DocumentID, chunk.Ordinal, chunk.Text, chunk.CharCount,
			vectorLiteral(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s/%d: %w", chunk.DocumentID, chunk.Ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

// Search returns the closest chunks by cosine distance, best match first.
// Score is 1 minus the distance so higher means closer.
func (s *Store) Search(ctx context.Context, query []float32, limit int) ([]domain.RetrievedChunk, error) {
	if limit <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "vector search", fmt.Errorf("limit must be positive, got %d", limit))
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT document_id, chunk_index, text, 1 - (embedding <=> $2::vector) AS score
FROM corpus_chunks
WHERE collection = $1
ORDER BY embedding <=> $2::vector
LIMIT $3
`, s.collection, vectorLiteral(query), limit)
	if err != nil {
		return nil, fmt.Errorf("query nearest chunks: %w", err)
	}
	defer rows.Close()

	results := make([]domain.RetrievedChunk, 0, limit)
	for rows.Next() {
		var chunk domain.RetrievedChunk
		if err := rows.Scan(&chunk.DocumentID, &chunk.Ordinal, &chunk.Text, &chunk.Score); err != nil {
			return nil, fmt.Errorf("scan retrieved chunk: %w", err)
		}
		results = append(results, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retrieved chunks: %w", err)
	}
	return results, nil
}

func vectorLiteral(vector []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

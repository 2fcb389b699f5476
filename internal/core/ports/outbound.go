package ports

import (
	"context"

	"github.com/vmaslov/askdocs/internal/core/domain"
)

// ExtractionStrategy is one independent algorithm for turning a raw document
// into plain text. A strategy may fail outright; the selector isolates that.
type ExtractionStrategy interface {
	Name() string
	Extract(ctx context.Context, doc domain.Document) (string, error)
}

// Chunker splits accepted document text into retrieval-sized segments.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds vectors for chunks and query text. The same model must be
// used on both sides or retrieval quality degrades silently.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists embedded chunks and answers similarity queries.
// Replace has full-rebuild semantics: the previous collection contents are
// dropped in the same transaction that loads the new ones.
type VectorStore interface {
	Replace(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.RetrievedChunk, error)
}

// AnswerGenerator produces text for a fully built prompt.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// IngestReporter publishes per-document ingestion outcomes for operators.
type IngestReporter interface {
	Report(ctx context.Context, rep domain.IngestReport) error
}

package ports

import (
	"context"

	"github.com/vmaslov/askdocs/internal/core/domain"
)

// QuestionAnswerer is the inbound contract for the online query path.
type QuestionAnswerer interface {
	Answer(ctx context.Context, question string, limit int) (*domain.Answer, error)
}

// CorpusIngestor is the inbound contract for the offline batch import.
type CorpusIngestor interface {
	Run(ctx context.Context) (*domain.IngestSummary, error)
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vmaslov/askdocs/internal/core/domain"
	"github.com/vmaslov/askdocs/internal/core/ports"
)

// AnswerQuestionUseCase is the online pipeline: retrieve context for a
// question, then compose a grounded answer. Phase 1 produces (context,
// question), phase 2 produces (answer, context), and the retrieved context
// is carried through unchanged as provenance.
type AnswerQuestionUseCase struct {
	embedder  ports.Embedder
	store     ports.VectorStore
	generator ports.AnswerGenerator
	topK      int
	log       *slog.Logger
}

func NewAnswerQuestionUseCase(
	embedder ports.Embedder,
	store ports.VectorStore,
	generator ports.AnswerGenerator,
	topK int,
	log *slog.Logger,
) *AnswerQuestionUseCase {
	if topK <= 0 {
		topK = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &AnswerQuestionUseCase{
		embedder:  embedder,
		store:     store,
		generator: generator,
		topK:      topK,
		log:       log,
	}
}

type retrievalOutcome struct {
	chunks []domain.RetrievedChunk
	err    error
}

func (uc *AnswerQuestionUseCase) Answer(ctx context.Context, question string, limit int) (*domain.Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = uc.topK
	}

	// Phase 1: retrieval runs in its own goroutine; the question needs no
	// work and passes through to phase 2 unchanged.
	done := make(chan retrievalOutcome, 1)
	go func() {
		chunks, err := uc.Retrieve(ctx, question, limit)
		done <- retrievalOutcome{chunks: chunks, err: err}
	}()

	var retrieved retrievalOutcome
	select {
	case retrieved = <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if retrieved.err != nil {
		return nil, retrieved.err
	}

	// Phase 2: compose the answer; the phase-1 context is the provenance.
	answer, err := uc.Compose(ctx, question, retrieved.chunks)
	if err != nil {
		return nil, err
	}

	if !answer.Grounded() {
		uc.log.Info("answer_without_context", "question_chars", len(question))
	}
	return answer, nil
}

// Retrieve maps the question onto the store's query contract. Store ordering
// is passed through without reranking, and an empty result set is valid.
func (uc *AnswerQuestionUseCase) Retrieve(ctx context.Context, question string, limit int) ([]domain.RetrievedChunk, error) {
	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	chunks, err := uc.store.Search(ctx, queryVector, limit)
	if err != nil {
		return nil, fmt.Errorf("search corpus: %w", err)
	}
	return chunks, nil
}

// Compose builds the grounded prompt and invokes generation once. The
// returned Answer always carries exactly the chunks it was given.
func (uc *AnswerQuestionUseCase) Compose(ctx context.Context, question string, chunks []domain.RetrievedChunk) (*domain.Answer, error) {
	prompt := BuildAnswerPrompt(question, chunks)

	text, err := uc.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	sources := chunks
	if sources == nil {
		sources = []domain.RetrievedChunk{}
	}
	return &domain.Answer{Text: text, Sources: sources}, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/vmaslov/askdocs/internal/core/domain"
	"github.com/vmaslov/askdocs/internal/core/ports"
	"github.com/vmaslov/askdocs/internal/textutil"
)

// ExtractionSelector runs every registered strategy against a document and
// keeps the best result. Per-file extraction quality is unreliable: a parser
// that handles one PDF perfectly returns garbage or an error on the next, so
// first-successful-wins is deliberately rejected in favor of best-of-all.
type ExtractionSelector struct {
	strategies       []ports.ExtractionStrategy
	minDocumentChars int
	log              *slog.Logger
}

func NewExtractionSelector(strategies []ports.ExtractionStrategy, minDocumentChars int, log *slog.Logger) *ExtractionSelector {
	if minDocumentChars <= 0 {
		minDocumentChars = 100
	}
	if log == nil {
		log = slog.Default()
	}
	return &ExtractionSelector{
		strategies:       strategies,
		minDocumentChars: minDocumentChars,
		log:              log,
	}
}

// Select fans out all strategies concurrently, joins, and reduces by score.
// Score is the rune count of the sanitized text. Ties go to the earliest
// registered strategy. A winner at or below the minimum-content threshold
// yields ErrUnextractable: the document is likely scanned or image-only.
func (s *ExtractionSelector) Select(ctx context.Context, doc domain.Document) (*domain.ExtractionResult, error) {
	if len(s.strategies) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "select extraction", errors.New("no strategies registered"))
	}

	attempts := make([]domain.ExtractionAttempt, len(s.strategies))
	var wg sync.WaitGroup
	for i, strategy := range s.strategies {
		wg.Add(1)
		go func(i int, strategy ports.ExtractionStrategy) {
			defer wg.Done()
			attempts[i] = s.runStrategy(ctx, strategy, doc)
		}(i, strategy)
	}
	wg.Wait()

	best := -1
	for i, attempt := range attempts {
		if !attempt.Succeeded() {
			s.log.Warn("extraction_strategy_failed",
				"strategy", attempt.Strategy,
				"document_id", doc.ID,
				"error", attempt.Err,
			)
			continue
		}
		s.log.Debug("extraction_strategy_result",
			"strategy", attempt.Strategy,
			"document_id", doc.ID,
			"chars", attempt.CharCount,
		)
		// Strictly greater keeps the earliest-registered strategy on ties.
		if best < 0 || attempt.CharCount > attempts[best].CharCount {
			best = i
		}
	}

	if best < 0 {
		return nil, domain.WrapError(domain.ErrUnextractable, "select extraction",
			fmt.Errorf("document %s: all %d strategies failed", doc.ID, len(attempts)))
	}

	winner := attempts[best]
	if winner.CharCount <= s.minDocumentChars {
		return nil, domain.WrapError(domain.ErrUnextractable, "select extraction",
			fmt.Errorf("document %s: best strategy %s extracted %d chars, minimum is %d",
				doc.ID, winner.Strategy, winner.CharCount, s.minDocumentChars))
	}

	return &domain.ExtractionResult{
		DocumentID: doc.ID,
		Strategy:   winner.Strategy,
		Text:       winner.Text,
		CharCount:  winner.CharCount,
		Attempts:   attempts,
	}, nil
}

// runStrategy isolates one strategy call. Panics inside third-party parsers
// are converted into failed attempts so a single bad PDF structure cannot
// take down the batch.
func (s *ExtractionSelector) runStrategy(ctx context.Context, strategy ports.ExtractionStrategy, doc domain.Document) (attempt domain.ExtractionAttempt) {
	attempt.Strategy = strategy.Name()
	defer func() {
		if r := recover(); r != nil {
			attempt = domain.ExtractionAttempt{
				Strategy: strategy.Name(),
				Err:      fmt.Errorf("strategy panic: %v", r),
			}
		}
	}()

	text, err := strategy.Extract(ctx, doc)
	if err != nil {
		attempt.Err = err
		return attempt
	}

	text = textutil.Sanitize(text)
	attempt.Text = text
	attempt.CharCount = utf8.RuneCountInString(text)
	return attempt
}

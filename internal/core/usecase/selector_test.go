package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vmaslov/askdocs/internal/core/domain"
	"github.com/vmaslov/askdocs/internal/core/ports"
)

type strategyFake struct {
	name  string
	text  string
	err   error
	panic bool
}

func (f *strategyFake) Name() string { return f.name }

func (f *strategyFake) Extract(context.Context, domain.Document) (string, error) {
	if f.panic {
		panic("parser blew up")
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func newSelector(strategies ...ports.ExtractionStrategy) *ExtractionSelector {
	return NewExtractionSelector(strategies, 100, nil)
}

func TestSelectPicksLongestOutput(t *testing.T) {
	sel := newSelector(
		&strategyFake{name: "a", err: errors.New("broken xref")},
		&strategyFake{name: "b", text: strings.Repeat("x", 40)},
		&strategyFake{name: "c", text: strings.Repeat("y", 420)},
	)

	res, err := sel.Select(context.Background(), domain.Document{ID: "doc.pdf"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if res.Strategy != "c" {
		t.Fatalf("expected winner c, got %s", res.Strategy)
	}
	if res.CharCount != 420 {
		t.Fatalf("expected 420 chars, got %d", res.CharCount)
	}
	if res.Text != strings.Repeat("y", 420) {
		t.Fatalf("winner text does not match strategy output")
	}
	if len(res.Attempts) != 3 {
		t.Fatalf("expected 3 recorded attempts, got %d", len(res.Attempts))
	}
}

func TestSelectAllStrategiesFail(t *testing.T) {
	sel := newSelector(
		&strategyFake{name: "a", err: errors.New("fail a")},
		&strategyFake{name: "b", err: errors.New("fail b")},
		&strategyFake{name: "c", err: errors.New("fail c")},
	)

	_, err := sel.Select(context.Background(), domain.Document{ID: "doc.pdf"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrUnextractable) {
		t.Fatalf("expected ErrUnextractable, got %v", err)
	}
	if !strings.Contains(err.Error(), "doc.pdf") {
		t.Fatalf("error should carry the document id: %v", err)
	}
}

func TestSelectTieGoesToEarliestRegistered(t *testing.T) {
	sel := newSelector(
		&strategyFake{name: "first", text: strings.Repeat("a", 200)},
		&strategyFake{name: "second", text: strings.Repeat("b", 200)},
	)

	res, err := sel.Select(context.Background(), domain.Document{ID: "doc.pdf"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if res.Strategy != "first" {
		t.Fatalf("tie should go to first registered strategy, got %s", res.Strategy)
	}
}

func TestSelectWinnerBelowThresholdIsUnextractable(t *testing.T) {
	sel := newSelector(
		&strategyFake{name: "a", text: strings.Repeat("x", 100)}, // at threshold, not above
	)

	_, err := sel.Select(context.Background(), domain.Document{ID: "scan.pdf"})
	if !domain.IsKind(err, domain.ErrUnextractable) {
		t.Fatalf("expected ErrUnextractable for 100-char winner, got %v", err)
	}
}

func TestSelectWinnerJustAboveThreshold(t *testing.T) {
	sel := newSelector(
		&strategyFake{name: "a", text: strings.Repeat("x", 101)},
	)

	res, err := sel.Select(context.Background(), domain.Document{ID: "doc.pdf"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if res.CharCount != 101 {
		t.Fatalf("expected 101 chars, got %d", res.CharCount)
	}
}

func TestSelectRecoversStrategyPanic(t *testing.T) {
	sel := newSelector(
		&strategyFake{name: "bad", panic: true},
		&strategyFake{name: "good", text: strings.Repeat("x", 300)},
	)

	res, err := sel.Select(context.Background(), domain.Document{ID: "doc.pdf"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if res.Strategy != "good" {
		t.Fatalf("expected surviving strategy to win, got %s", res.Strategy)
	}
	var panicked *domain.ExtractionAttempt
	for i := range res.Attempts {
		if res.Attempts[i].Strategy == "bad" {
			panicked = &res.Attempts[i]
		}
	}
	if panicked == nil || panicked.Err == nil {
		t.Fatalf("panicking strategy should be recorded as a failed attempt")
	}
}

func TestSelectSanitizesBeforeScoring(t *testing.T) {
	dirty := strings.Repeat("x", 150) + "\x00\x01"
	sel := newSelector(&strategyFake{name: "a", text: dirty})

	res, err := sel.Select(context.Background(), domain.Document{ID: "doc.pdf"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if res.CharCount != 150 {
		t.Fatalf("expected control bytes excluded from score, got %d", res.CharCount)
	}
	if strings.ContainsRune(res.Text, 0) {
		t.Fatalf("NUL byte survived sanitization")
	}
}

func TestSelectNoStrategies(t *testing.T) {
	sel := newSelector()
	_, err := sel.Select(context.Background(), domain.Document{ID: "doc.pdf"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

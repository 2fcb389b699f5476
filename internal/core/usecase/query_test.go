package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vmaslov/askdocs/internal/core/domain"
)

type embedderFake struct {
	queryText string
	vectors   [][]float32
	err       error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queryText = text
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type storeFake struct {
	limit     int
	chunks    []domain.RetrievedChunk
	searchErr error

	replaced        bool
	replacedChunks  []domain.Chunk
	replacedVectors [][]float32
	replaceErr      error
}

func (f *storeFake) Replace(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced = true
	f.replacedChunks = chunks
	f.replacedVectors = vectors
	return nil
}

func (f *storeFake) Search(_ context.Context, _ []float32, limit int) ([]domain.RetrievedChunk, error) {
	f.limit = limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.chunks, nil
}

type generatorFake struct {
	prompt string
	text   string
	err    error
}

func (f *generatorFake) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	if f.text == "" {
		return "generated answer", nil
	}
	return f.text, nil
}

func TestAnswerReturnsTextWithProvenance(t *testing.T) {
	chunks := []domain.RetrievedChunk{
		{DocumentID: "a.pdf", Ordinal: 0, Text: "first", Score: 0.9},
		{DocumentID: "b.pdf", Ordinal: 3, Text: "second", Score: 0.7},
	}
	store := &storeFake{chunks: chunks}
	gen := &generatorFake{}
	uc := NewAnswerQuestionUseCase(&embedderFake{}, store, gen, 5, nil)

	answer, err := uc.Answer(context.Background(), "what is this", 0)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.Text != "generated answer" {
		t.Fatalf("unexpected answer text %q", answer.Text)
	}
	if !reflect.DeepEqual(answer.Sources, chunks) {
		t.Fatalf("sources must equal the retrieved context exactly:\n got %+v\nwant %+v", answer.Sources, chunks)
	}
	if store.limit != 5 {
		t.Fatalf("expected default limit 5, got %d", store.limit)
	}
}

func TestAnswerEmptyRetrievalStillAnswers(t *testing.T) {
	store := &storeFake{chunks: nil}
	gen := &generatorFake{text: "I do not have context for that."}
	uc := NewAnswerQuestionUseCase(&embedderFake{}, store, gen, 5, nil)

	answer, err := uc.Answer(context.Background(), "unknown topic", 4)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.Text == "" {
		t.Fatalf("expected non-empty answer text")
	}
	if answer.Sources == nil || len(answer.Sources) != 0 {
		t.Fatalf("expected empty non-nil sources, got %#v", answer.Sources)
	}
	if answer.Grounded() {
		t.Fatalf("answer without context must not report as grounded")
	}
}

func TestAnswerEmbedFailure(t *testing.T) {
	uc := NewAnswerQuestionUseCase(&embedderFake{err: errors.New("embed down")}, &storeFake{}, &generatorFake{}, 5, nil)
	_, err := uc.Answer(context.Background(), "q", 3)
	if err == nil || !strings.Contains(err.Error(), "embed question") {
		t.Fatalf("expected embed failure, got %v", err)
	}
}

func TestAnswerSearchFailure(t *testing.T) {
	uc := NewAnswerQuestionUseCase(&embedderFake{}, &storeFake{searchErr: errors.New("store down")}, &generatorFake{}, 5, nil)
	_, err := uc.Answer(context.Background(), "q", 3)
	if err == nil || !strings.Contains(err.Error(), "search corpus") {
		t.Fatalf("expected search failure, got %v", err)
	}
}

func TestAnswerGenerateFailure(t *testing.T) {
	uc := NewAnswerQuestionUseCase(&embedderFake{}, &storeFake{}, &generatorFake{err: errors.New("llm down")}, 5, nil)
	_, err := uc.Answer(context.Background(), "q", 3)
	if err == nil || !strings.Contains(err.Error(), "generate answer") {
		t.Fatalf("expected generation failure, got %v", err)
	}
}

func TestAnswerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uc := NewAnswerQuestionUseCase(&embedderFake{}, &storeFake{}, &generatorFake{}, 5, nil)
	if _, err := uc.Answer(ctx, "q", 3); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
}

func TestComposeNeverFabricatesProvenance(t *testing.T) {
	uc := NewAnswerQuestionUseCase(&embedderFake{}, &storeFake{}, &generatorFake{}, 5, nil)
	in := []domain.RetrievedChunk{{DocumentID: "x.pdf", Text: "ctx"}}

	answer, err := uc.Compose(context.Background(), "q", in)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !reflect.DeepEqual(answer.Sources, in) {
		t.Fatalf("composition changed provenance: %+v", answer.Sources)
	}
}

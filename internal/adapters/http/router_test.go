package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmaslov/askdocs/internal/core/domain"
)

type answererFake struct {
	answer   *domain.Answer
	err      error
	question string
	limit    int
}

func (f *answererFake) Answer(_ context.Context, question string, limit int) (*domain.Answer, error) {
	f.question = question
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func newTestRouter(t *testing.T, answerer *answererFake) (*Router, string) {
	t.Helper()
	docsDir := t.TempDir()
	rt := NewRouter(answerer, docsDir, nil, slog.New(slog.DiscardHandler), 0)
	return rt, docsDir
}

func TestAnswerQuestionReturnsAnswerWithSources(t *testing.T) {
	fake := &answererFake{
		answer: &domain.Answer{
			Text: "the answer",
			Sources: []domain.RetrievedChunk{
				{DocumentID: "a.pdf", Ordinal: 0, Text: "context", Score: 0.9},
			},
		},
	}
	rt, _ := newTestRouter(t, fake)

	body := strings.NewReader(`{"question":"what is this?","limit":3}`)
	req := httptest.NewRequest(http.MethodPost, "/rag/query", body)
	rec := httptest.NewRecorder()
	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if fake.question != "what is this?" || fake.limit != 3 {
		t.Fatalf("request not forwarded: question=%q limit=%d", fake.question, fake.limit)
	}

	var payload struct {
		Answer string `json:"answer"`
		Docs   []struct {
			DocumentID string `json:"document_id"`
		} `json:"docs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Answer != "the answer" {
		t.Fatalf("unexpected answer: %q", payload.Answer)
	}
	if len(payload.Docs) != 1 || payload.Docs[0].DocumentID != "a.pdf" {
		t.Fatalf("unexpected docs: %+v", payload.Docs)
	}
}

func TestAnswerQuestionRejectsBlankQuestion(t *testing.T) {
	rt, _ := newTestRouter(t, &answererFake{})

	req := httptest.NewRequest(http.MethodPost, "/rag/query", strings.NewReader(`{"question":"   "}`))
	rec := httptest.NewRecorder()
	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnswerQuestionRejectsGet(t *testing.T) {
	rt, _ := newTestRouter(t, &answererFake{})

	req := httptest.NewRequest(http.MethodGet, "/rag/query", nil)
	rec := httptest.NewRecorder()
	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestAnswerQuestionMapsErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "answer", errors.New("empty question")), http.StatusBadRequest},
		{"temporary", domain.WrapError(domain.ErrTemporary, "answer", errors.New("llm unavailable")), http.StatusServiceUnavailable},
		{"unextractable", domain.WrapError(domain.ErrUnextractable, "answer", errors.New("no corpus")), http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rt, _ := newTestRouter(t, &answererFake{err: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/rag/query", strings.NewReader(`{"question":"q"}`))
			rec := httptest.NewRecorder()
			rt.Handler().ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestStaticServesCorpusFiles(t *testing.T) {
	rt, docsDir := newTestRouter(t, &answererFake{})
	if err := os.WriteFile(filepath.Join(docsDir, "a.pdf"), []byte("%PDF-1.4 stub"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/rag/static/a.pdf", nil)
	rec := httptest.NewRecorder()
	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "%PDF-1.4") {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	rt, _ := newTestRouter(t, &answererFake{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("missing request id header")
	}
}

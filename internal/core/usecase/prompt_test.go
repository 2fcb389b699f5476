package usecase

import (
	"strings"
	"testing"

	"github.com/vmaslov/askdocs/internal/core/domain"
)

func TestBuildAnswerPromptQuestionFollowsContext(t *testing.T) {
	chunks := []domain.RetrievedChunk{
		{Text: "alpha context"},
		{Text: "beta context"},
	}
	prompt := BuildAnswerPrompt("what is alpha?", chunks)

	if !strings.HasPrefix(prompt, "Answer given the following context:\n") {
		t.Fatalf("prompt missing context header: %q", prompt)
	}
	qIdx := strings.Index(prompt, "Question: what is alpha?")
	if qIdx < 0 {
		t.Fatalf("prompt missing literal question: %q", prompt)
	}
	for _, text := range []string{"alpha context", "beta context"} {
		cIdx := strings.Index(prompt, text)
		if cIdx < 0 {
			t.Fatalf("chunk text %q not embedded verbatim", text)
		}
		if cIdx > qIdx {
			t.Fatalf("chunk %q appears after the question", text)
		}
	}
}

func TestBuildAnswerPromptEmptyContext(t *testing.T) {
	prompt := BuildAnswerPrompt("anything?", nil)
	if !strings.Contains(prompt, "Question: anything?") {
		t.Fatalf("prompt missing question: %q", prompt)
	}
	if !strings.HasPrefix(prompt, "Answer given the following context:") {
		t.Fatalf("template header must survive empty context: %q", prompt)
	}
}

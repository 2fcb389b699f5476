package usecase

import (
	"strings"

	"github.com/vmaslov/askdocs/internal/core/domain"
)

// BuildAnswerPrompt renders the grounded generation prompt: retrieved chunks
// verbatim, then the literal question. The "Question:" line following the
// context block is a contract other packages assert against.
func BuildAnswerPrompt(question string, chunks []domain.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString("Answer given the following context:\n")
	for _, chunk := range chunks {
		b.WriteString(chunk.Text)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}

// Package poppler extracts PDF text through docconv, which shells out to the
// poppler pdftotext tool. Slower than the native parser but tolerant of files
// the pure-Go one chokes on.
package poppler

import (
	"context"
	"fmt"

	"code.sajari.com/docconv/v2"

	"github.com/vmaslov/askdocs/internal/core/domain"
)

type Strategy struct{}

func New() *Strategy {
	return &Strategy{}
}

func (s *Strategy) Name() string {
	return "pdftotext"
}

func (s *Strategy) Extract(ctx context.Context, doc domain.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	res, err := docconv.ConvertPath(doc.Path)
	if err != nil {
		return "", fmt.Errorf("convert pdf: %w", err)
	}
	return res.Body, nil
}

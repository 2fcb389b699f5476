// Package mupdf extracts PDF text with the MuPDF rendering engine via
// go-fitz. It handles layout-heavy documents better than either text-first
// strategy and serves as the heavyweight fallback.
package mupdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/vmaslov/askdocs/internal/core/domain"
)

type Strategy struct{}

func New() *Strategy {
	return &Strategy{}
}

func (s *Strategy) Name() string {
	return "mupdf"
}

func (s *Strategy) Extract(ctx context.Context, doc domain.Document) (string, error) {
	d, err := fitz.New(doc.Path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer d.Close()

	pages := make([]string, 0, d.NumPage())
	for n := 0; n < d.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := d.Text(n)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", n, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	// Pages join on a single space so the score counts content, not padding.
	return strings.TrimSpace(strings.Join(pages, " ")), nil
}

package chunking

import (
	"strings"
	"unicode/utf8"
)

// Splitter cuts text into fixed-size overlapping windows over runes. Windows
// fall on character positions, not sentence boundaries; the output is fully
// determined by (text, ChunkSize, Overlap) so re-ingestion reproduces the
// same chunk sequence.
type Splitter struct {
	ChunkSize     int
	Overlap       int
	MinChunkChars int
}

func NewSplitter(chunkSize, overlap, minChunkChars int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	if minChunkChars < 0 {
		minChunkChars = 0
	}
	return &Splitter{
		ChunkSize:     chunkSize,
		Overlap:       overlap,
		MinChunkChars: minChunkChars,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])
		// Quality floor: windows that are blank or near-blank after trimming
		// carry no retrieval value.
		if utf8.RuneCountInString(strings.TrimSpace(chunk)) > s.MinChunkChars {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

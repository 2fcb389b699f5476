package textutil

import "strings"

// Sanitize strips bytes that Postgres text columns reject (NUL from some PDF
// extractors) and non-printing control characters other than common
// whitespace, then trims surrounding space.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\x00", "")

	out := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\r' || ch == '\t' {
			out = append(out, ch)
			continue
		}
		if ch < 0x20 {
			continue
		}
		out = append(out, ch)
	}
	return strings.TrimSpace(string(out))
}

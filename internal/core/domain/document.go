package domain

// Document is one source file discovered by the importer. Raw bytes stay on
// disk; each extraction strategy reads them independently and everything
// downstream works on the winning extracted text.
type Document struct {
	ID     string `json:"id"`   // path relative to the corpus root
	Path   string `json:"path"` // absolute path on disk
	Format string `json:"format"`
}

const FormatPDF = "pdf"

// ExtractionAttempt records the outcome of a single strategy run. Attempts
// are kept for logging and metrics; only the winning one becomes the result.
type ExtractionAttempt struct {
	Strategy  string
	Text      string
	CharCount int
	Err       error
}

func (a ExtractionAttempt) Succeeded() bool {
	return a.Err == nil
}

// ExtractionResult is the accepted text of a document. CharCount always
// equals the rune length of Text, and Strategy names the attempt that scored
// highest among all successful attempts.
type ExtractionResult struct {
	DocumentID string
	Strategy   string
	Text       string
	CharCount  int
	Attempts   []ExtractionAttempt
}

type IngestStatus string

const (
	IngestStatusIndexed       IngestStatus = "indexed"
	IngestStatusUnextractable IngestStatus = "unextractable"
	IngestStatusFailed        IngestStatus = "failed"
)

// IngestReport is the per-document outcome published for operators, so
// unextractable files (usually scanned PDFs) can be routed to OCR out of band.
type IngestReport struct {
	DocumentID string       `json:"document_id"`
	Status     IngestStatus `json:"status"`
	Strategy   string       `json:"strategy,omitempty"`
	CharCount  int          `json:"char_count,omitempty"`
	Chunks     int          `json:"chunks,omitempty"`
	Error      string       `json:"error,omitempty"`
	ElapsedMS  int64        `json:"elapsed_ms,omitempty"`
}

// IngestSummary aggregates one full importer run.
type IngestSummary struct {
	Documents     int      `json:"documents"`
	Indexed       int      `json:"indexed"`
	Unextractable int      `json:"unextractable"`
	Failed        int      `json:"failed"`
	Chunks        int      `json:"chunks"`
	Skipped       []string `json:"skipped,omitempty"` // unextractable and failed document ids
}

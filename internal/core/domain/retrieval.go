package domain

// Chunk is a bounded slice of a document's accepted text, produced by the
// sliding-window splitter. Ordinal is the window position within the document.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Ordinal    int    `json:"chunk_index"`
	Text       string `json:"text"`
	CharCount  int    `json:"char_count"`
}

// RetrievedChunk is a corpus entry returned by similarity search, in the
// store's ranking order.
type RetrievedChunk struct {
	DocumentID string  `json:"document_id"`
	Ordinal    int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Answer pairs generated text with the exact retrieved context it was
// grounded on. Sources is never nil: an answer produced without any retrieved
// context carries an empty slice.
type Answer struct {
	Text    string           `json:"answer"`
	Sources []RetrievedChunk `json:"docs"`
}

func (a *Answer) Grounded() bool {
	return len(a.Sources) > 0
}

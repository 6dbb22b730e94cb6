package domain

import "time"

// Page is the text of a single page after normalisation.
type Page struct {
	// Number is the zero-based page number, nil when the format has no pages.
	Number *int

	// Text is the extracted page text.
	Text string
}

// Document represents an uploaded document after normalisation.
type Document struct {
	// ID is the caller-supplied or generated document identifier.
	ID string

	// URI is the original location (file path, upload name).
	URI string

	// Title is the human-readable title.
	Title string

	// Pages holds the page texts in order.
	Pages []Page

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// HasText returns true if at least one page has non-whitespace text.
func (d *Document) HasText() bool {
	for _, p := range d.Pages {
		for _, r := range p.Text {
			if r != ' ' && r != '\n' && r != '\t' && r != '\r' && r != '\f' {
				return true
			}
		}
	}
	return false
}

// Chunk is a contiguous text passage of a document, the unit of retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string `json:"id"`

	// DocumentID links to the parent Document.
	DocumentID string `json:"document_id"`

	// Content is the text content of this chunk.
	Content string `json:"content"`

	// Position is the ordinal position within the document.
	Position int `json:"position"`

	// Page is the page the chunk was taken from, if known.
	Page *int `json:"page,omitempty"`

	// Embedding is the vector representation used for retrieval.
	Embedding []float32 `json:"-"`
}

// DocumentIndex is the persisted, searchable representation of one document.
// Once built it is immutable.
type DocumentIndex struct {
	DocumentID     string
	Filename       string
	EmbeddingModel string
	Dimensions     int
	Chunks         []Chunk
	CreatedAt      time.Time
}

// IndexSummary describes a stored index without its chunks.
type IndexSummary struct {
	DocumentID     string    `json:"document_id"`
	Filename       string    `json:"filename"`
	EmbeddingModel string    `json:"embedding_model"`
	ChunkCount     int       `json:"chunk_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Summary returns the index summary.
func (i *DocumentIndex) Summary() IndexSummary {
	return IndexSummary{
		DocumentID:     i.DocumentID,
		Filename:       i.Filename,
		EmbeddingModel: i.EmbeddingModel,
		ChunkCount:     len(i.Chunks),
		CreatedAt:      i.CreatedAt,
	}
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}

package driving

import (
	"context"

	"github.com/custodia-labs/ragextract/internal/core/domain"
)

// IngestService turns uploaded documents into durable indexes.
type IngestService interface {
	// Ingest builds and persists the index for a document.
	// An empty documentID is replaced by a generated one.
	Ingest(ctx context.Context, raw *domain.RawDocument, documentID string) (*domain.DocumentIndex, error)

	// LoadIndex returns the stored index. Returns domain.ErrIndexNotFound if absent.
	LoadIndex(ctx context.Context, documentID string) (*domain.DocumentIndex, error)

	// Retriever binds a retriever to the stored index of a document.
	Retriever(ctx context.Context, documentID string) (Retriever, error)

	// ListIndexes returns summaries of all stored indexes.
	ListIndexes(ctx context.Context) ([]domain.IndexSummary, error)

	// DeleteIndex removes a stored index.
	DeleteIndex(ctx context.Context, documentID string) error
}

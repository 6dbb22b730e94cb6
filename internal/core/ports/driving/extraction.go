package driving

import (
	"context"

	"github.com/custodia-labs/ragextract/internal/core/domain"
)

// ExtractionService runs a schema against an ingested document.
type ExtractionService interface {
	// Extract loads the document index and the named schema, then extracts
	// every field. Fails with domain.ErrIndexNotFound before any model call
	// when the document has no index.
	Extract(ctx context.Context, documentID, schemaName string) (*domain.ExtractionResult, error)

	// Run extracts every field of schema using an already bound retriever.
	Run(ctx context.Context, documentID string, schema domain.ExtractionSchema, retriever Retriever) (*domain.ExtractionResult, error)
}

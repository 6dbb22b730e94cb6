package driving

import (
	"context"

	"github.com/custodia-labs/ragextract/internal/core/domain"
)

// Retriever answers similarity queries against one loaded document index.
// It is a pure read path and safe for concurrent use.
type Retriever interface {
	// Query returns the k chunks most similar to question, most similar first.
	Query(ctx context.Context, question string) ([]domain.Chunk, error)
}

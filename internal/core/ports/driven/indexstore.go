package driven

import (
	"context"

	"github.com/custodia-labs/ragextract/internal/core/domain"
)

// IndexStore persists document indexes: chunks, pages and embeddings.
// Load never re-embeds; it returns what Save stored.
type IndexStore interface {
	// Save stores an index, replacing any previous index for the document.
	Save(ctx context.Context, index *domain.DocumentIndex) error

	// Load retrieves an index. Returns domain.ErrIndexNotFound if absent.
	Load(ctx context.Context, documentID string) (*domain.DocumentIndex, error)

	// Exists reports whether an index is stored for the document.
	Exists(ctx context.Context, documentID string) (bool, error)

	// List returns summaries of all stored indexes, newest first.
	List(ctx context.Context) ([]domain.IndexSummary, error)

	// Delete removes an index. Deleting a missing index is not an error.
	Delete(ctx context.Context, documentID string) error
}

// SchemaStore persists extraction schemas by name.
type SchemaStore interface {
	// Save stores a schema, replacing any schema with the same name.
	Save(ctx context.Context, schema *domain.ExtractionSchema) error

	// Get retrieves a schema. Returns domain.ErrSchemaNotFound if absent.
	Get(ctx context.Context, name string) (*domain.ExtractionSchema, error)

	// List returns all schemas ordered by name.
	List(ctx context.Context) ([]domain.ExtractionSchema, error)

	// Delete removes a schema. Returns domain.ErrSchemaNotFound if absent.
	Delete(ctx context.Context, name string) error
}

// UploadStore keeps the original uploaded bytes.
type UploadStore interface {
	// Put stores the bytes for a document and returns their location.
	Put(ctx context.Context, documentID string, content []byte) (string, error)

	// Get returns the stored bytes. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, documentID string) ([]byte, error)
}

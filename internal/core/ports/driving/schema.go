package driving

import (
	"context"

	"github.com/custodia-labs/ragextract/internal/core/domain"
)

// SchemaService is the schema registry.
type SchemaService interface {
	// Register validates and stores a schema. Last write wins.
	Register(ctx context.Context, schema domain.ExtractionSchema) error

	// Get returns a schema. Returns domain.ErrSchemaNotFound if absent.
	Get(ctx context.Context, name string) (*domain.ExtractionSchema, error)

	// List returns all registered schemas.
	List(ctx context.Context) ([]domain.ExtractionSchema, error)

	// Delete removes a schema.
	Delete(ctx context.Context, name string) error
}

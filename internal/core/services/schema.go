package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
	"github.com/custodia-labs/ragextract/internal/core/ports/driving"
	"github.com/custodia-labs/ragextract/internal/logger"
)

// Ensure SchemaService implements the interface.
var _ driving.SchemaService = (*SchemaService)(nil)

// SchemaService is the schema registry. Registering a name that already
// exists replaces the previous schema.
type SchemaService struct {
	store driven.SchemaStore
}

// NewSchemaService creates a new schema registry over the given store.
func NewSchemaService(store driven.SchemaStore) *SchemaService {
	return &SchemaService{store: store}
}

// Register validates and stores a schema.
func (s *SchemaService) Register(ctx context.Context, schema domain.ExtractionSchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	schema.Fields = append([]domain.ExtractionField(nil), schema.Fields...)
	schema.Normalise()

	if err := s.store.Save(ctx, &schema); err != nil {
		return fmt.Errorf("save schema %q: %w", schema.Name, err)
	}
	logger.Info("Registered schema %q with %d fields", schema.Name, len(schema.Fields))
	return nil
}

// Get returns a schema by name.
func (s *SchemaService) Get(ctx context.Context, name string) (*domain.ExtractionSchema, error) {
	schema, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", name, err)
	}
	return schema, nil
}

// List returns all registered schemas.
func (s *SchemaService) List(ctx context.Context) ([]domain.ExtractionSchema, error) {
	return s.store.List(ctx)
}

// Delete removes a schema.
func (s *SchemaService) Delete(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete schema %q: %w", name, err)
	}
	return nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// Ensure SchemaStore implements the interface.
var _ driven.SchemaStore = (*SchemaStore)(nil)

// SchemaStore is an in-memory implementation of driven.SchemaStore.
type SchemaStore struct {
	mu      sync.RWMutex
	schemas map[string]domain.ExtractionSchema
}

// NewSchemaStore creates a new in-memory schema store.
func NewSchemaStore() *SchemaStore {
	return &SchemaStore{
		schemas: make(map[string]domain.ExtractionSchema),
	}
}

// Save stores a schema. Last write wins.
func (s *SchemaStore) Save(_ context.Context, schema *domain.ExtractionSchema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[schema.Name] = cloneSchema(schema)
	return nil
}

// Get retrieves a schema by name.
func (s *SchemaStore) Get(_ context.Context, name string) (*domain.ExtractionSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schema, ok := s.schemas[name]
	if !ok {
		return nil, domain.ErrSchemaNotFound
	}
	out := cloneSchema(&schema)
	return &out, nil
}

// List returns all schemas ordered by name.
func (s *SchemaStore) List(_ context.Context) ([]domain.ExtractionSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.ExtractionSchema, 0, len(s.schemas))
	for _, schema := range s.schemas {
		result = append(result, cloneSchema(&schema))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Delete removes a schema.
func (s *SchemaStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schemas[name]; !ok {
		return domain.ErrSchemaNotFound
	}
	delete(s.schemas, name)
	return nil
}

func cloneSchema(schema *domain.ExtractionSchema) domain.ExtractionSchema {
	out := *schema
	out.Fields = append([]domain.ExtractionField(nil), schema.Fields...)
	return out
}

package mcp

import (
	"context"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driving"
)

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	index     *domain.DocumentIndex
	summaries []domain.IndexSummary
	chunks    []domain.Chunk
	err       error
	lastRaw   *domain.RawDocument
	lastID    string
	lastQuery string
	closed    int
}

func (m *mockIngestService) Ingest(_ context.Context, raw *domain.RawDocument, documentID string) (*domain.DocumentIndex, error) {
	m.lastRaw = raw
	m.lastID = documentID
	return m.index, m.err
}

func (m *mockIngestService) LoadIndex(_ context.Context, _ string) (*domain.DocumentIndex, error) {
	return m.index, m.err
}

func (m *mockIngestService) Retriever(_ context.Context, documentID string) (driving.Retriever, error) {
	m.lastID = documentID
	if m.err != nil {
		return nil, m.err
	}
	return m, nil
}

func (m *mockIngestService) Query(_ context.Context, question string) ([]domain.Chunk, error) {
	m.lastQuery = question
	return m.chunks, nil
}

func (m *mockIngestService) Close() error {
	m.closed++
	return nil
}

func (m *mockIngestService) ListIndexes(_ context.Context) ([]domain.IndexSummary, error) {
	return m.summaries, m.err
}

func (m *mockIngestService) DeleteIndex(_ context.Context, _ string) error {
	return m.err
}

// mockSchemaService is a mock implementation of driving.SchemaService.
type mockSchemaService struct {
	schemas    map[string]domain.ExtractionSchema
	err        error
	registered *domain.ExtractionSchema
}

func (m *mockSchemaService) Register(_ context.Context, schema domain.ExtractionSchema) error {
	if m.err != nil {
		return m.err
	}
	m.registered = &schema
	return nil
}

func (m *mockSchemaService) Get(_ context.Context, name string) (*domain.ExtractionSchema, error) {
	if m.err != nil {
		return nil, m.err
	}
	schema, ok := m.schemas[name]
	if !ok {
		return nil, domain.ErrSchemaNotFound
	}
	return &schema, nil
}

func (m *mockSchemaService) List(_ context.Context) ([]domain.ExtractionSchema, error) {
	if m.err != nil {
		return nil, m.err
	}
	result := []domain.ExtractionSchema{}
	for _, s := range m.schemas {
		result = append(result, s)
	}
	return result, nil
}

func (m *mockSchemaService) Delete(_ context.Context, _ string) error {
	return m.err
}

// mockExtractionService is a mock implementation of driving.ExtractionService.
type mockExtractionService struct {
	result *domain.ExtractionResult
	err    error
}

func (m *mockExtractionService) Extract(_ context.Context, _, _ string) (*domain.ExtractionResult, error) {
	return m.result, m.err
}

func (m *mockExtractionService) Run(
	_ context.Context,
	_ string,
	_ domain.ExtractionSchema,
	_ driving.Retriever,
) (*domain.ExtractionResult, error) {
	return m.result, m.err
}

func validPorts() *Ports {
	return &Ports{
		Ingest:     &mockIngestService{},
		Schema:     &mockSchemaService{},
		Extraction: &mockExtractionService{},
	}
}

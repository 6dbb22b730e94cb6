package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driving"
)

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	indexes   map[string]*domain.DocumentIndex
	chunks    []domain.Chunk
	ingestErr error
	queryErr  error
	ingested  []*domain.RawDocument
	lastQuery string
	closed    int
}

func newMockIngestService() *mockIngestService {
	return &mockIngestService{indexes: make(map[string]*domain.DocumentIndex)}
}

func (m *mockIngestService) Ingest(_ context.Context, raw *domain.RawDocument, documentID string) (*domain.DocumentIndex, error) {
	if m.ingestErr != nil {
		return nil, m.ingestErr
	}
	m.ingested = append(m.ingested, raw)
	if documentID == "" {
		documentID = "generated-id"
	}
	index := &domain.DocumentIndex{
		DocumentID:     documentID,
		Filename:       filepath.Base(raw.URI),
		EmbeddingModel: "test-embed",
		Dimensions:     3,
		Chunks: []domain.Chunk{
			{ID: documentID + "-0", DocumentID: documentID, Content: string(raw.Content), Position: 0, Page: domain.IntPtr(0)},
		},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	m.indexes[documentID] = index
	return index, nil
}

func (m *mockIngestService) LoadIndex(_ context.Context, documentID string) (*domain.DocumentIndex, error) {
	index, ok := m.indexes[documentID]
	if !ok {
		return nil, domain.ErrIndexNotFound
	}
	return index, nil
}

func (m *mockIngestService) Retriever(_ context.Context, documentID string) (driving.Retriever, error) {
	if _, ok := m.indexes[documentID]; !ok {
		return nil, domain.ErrIndexNotFound
	}
	return m, nil
}

// Query makes the mock its own retriever.
func (m *mockIngestService) Query(_ context.Context, question string) ([]domain.Chunk, error) {
	m.lastQuery = question
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.chunks, nil
}

func (m *mockIngestService) Close() error {
	m.closed++
	return nil
}

func (m *mockIngestService) ListIndexes(_ context.Context) ([]domain.IndexSummary, error) {
	summaries := make([]domain.IndexSummary, 0, len(m.indexes))
	for _, index := range m.indexes {
		summaries = append(summaries, index.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].DocumentID < summaries[j].DocumentID })
	return summaries, nil
}

func (m *mockIngestService) DeleteIndex(_ context.Context, documentID string) error {
	if _, ok := m.indexes[documentID]; !ok {
		return domain.ErrIndexNotFound
	}
	delete(m.indexes, documentID)
	return nil
}

// mockSchemaService is a mock implementation of driving.SchemaService.
type mockSchemaService struct {
	schemas map[string]domain.ExtractionSchema
}

func newMockSchemaService() *mockSchemaService {
	return &mockSchemaService{schemas: make(map[string]domain.ExtractionSchema)}
}

func (m *mockSchemaService) Register(_ context.Context, schema domain.ExtractionSchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	schema.Normalise()
	m.schemas[schema.Name] = schema
	return nil
}

func (m *mockSchemaService) Get(_ context.Context, name string) (*domain.ExtractionSchema, error) {
	s, ok := m.schemas[name]
	if !ok {
		return nil, domain.ErrSchemaNotFound
	}
	return &s, nil
}

func (m *mockSchemaService) List(_ context.Context) ([]domain.ExtractionSchema, error) {
	out := make([]domain.ExtractionSchema, 0, len(m.schemas))
	for _, s := range m.schemas {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockSchemaService) Delete(_ context.Context, name string) error {
	if _, ok := m.schemas[name]; !ok {
		return domain.ErrSchemaNotFound
	}
	delete(m.schemas, name)
	return nil
}

// mockExtractionService is a mock implementation of driving.ExtractionService.
type mockExtractionService struct {
	result *domain.ExtractionResult
	err    error
	calls  []string
}

func (m *mockExtractionService) Extract(_ context.Context, documentID, schemaName string) (*domain.ExtractionResult, error) {
	m.calls = append(m.calls, documentID+"/"+schemaName)
	if m.err != nil {
		return nil, m.err
	}
	result := *m.result
	result.DocumentID = documentID
	result.SchemaName = schemaName
	return &result, nil
}

func (m *mockExtractionService) Run(_ context.Context, documentID string, schema domain.ExtractionSchema, _ driving.Retriever) (*domain.ExtractionResult, error) {
	return m.Extract(context.Background(), documentID, schema.Name)
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	values      map[string]string
	validateErr error
	setErr      error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), values: make(map[string]string)}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetValue(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }
func (m *mockSettingsService) ValidateLLMConfig() error       { return nil }

func sampleResult() *domain.ExtractionResult {
	return &domain.ExtractionResult{
		Fields: []domain.FieldResult{
			{
				Name:          "total",
				Value:         domain.StringPtr("1,250.00"),
				Confidence:    0.92,
				Justification: domain.StringPtr("Stated on the last line"),
				Sources:       []domain.SourceSpan{{Page: domain.IntPtr(1), TextSnippet: "Total due: 1,250.00"}},
			},
			{
				Name:       "po_number",
				Confidence: 0,
			},
		},
	}
}

// setupServices installs fresh mocks and restores the previous services
// when the test ends.
func setupServices(t *testing.T) (*mockIngestService, *mockSchemaService, *mockExtractionService, *mockSettingsService) {
	t.Helper()

	prevIngest, prevSchema, prevExtraction, prevSettings := ingestService, schemaService, extractionService, settingsService
	prevKeys, prevEphemeral := settableKeys, ephemeralSchemas
	t.Cleanup(func() {
		ingestService, schemaService, extractionService, settingsService = prevIngest, prevSchema, prevExtraction, prevSettings
		settableKeys, ephemeralSchemas = prevKeys, prevEphemeral
	})

	ingest := newMockIngestService()
	schemas := newMockSchemaService()
	extraction := &mockExtractionService{result: sampleResult()}
	settings := newMockSettingsService()
	SetServices(ServiceConfig{
		Ingest:       ingest,
		Schema:       schemas,
		Extraction:   extraction,
		Settings:     settings,
		SettableKeys: []string{"retrieval.top_k", "storage.backend"},
	})
	return ingest, schemas, extraction, settings
}

// resetFlags restores command flag variables to their defaults.
func resetFlags() {
	ingestDocumentID, ingestNameAsID, ingestJSON = "", false, false
	indexListJSON, indexShowLimit = false, 5
	queryJSON = false
	schemaRegisterName = ""
	extractFormat, extractOutput, extractShowSources = "table", "", false
	watchSchema, watchOutDir, watchPrune = "", "", false
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags()
	t.Cleanup(resetFlags)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

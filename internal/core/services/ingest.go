package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
	"github.com/custodia-labs/ragextract/internal/core/ports/driving"
	"github.com/custodia-labs/ragextract/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestConfig holds the collaborators of an IngestService.
type IngestConfig struct {
	Normalisers driven.NormaliserRegistry
	Pipeline    driven.PostProcessorPipeline
	Embedder    driven.EmbeddingService
	Indexes     driven.IndexStore
	VectorIndex driven.VectorIndexFactory

	// Uploads keeps the original bytes. Optional.
	Uploads driven.UploadStore

	// TopK is the number of chunks each bound retriever returns.
	TopK int
}

// IngestService builds, persists and reloads document indexes.
// Builds for the same document ID are serialised.
type IngestService struct {
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
	indexes     driven.IndexStore
	vectors     driven.VectorIndexFactory
	uploads     driven.UploadStore
	topK        int
	locks       *keyedMutex
}

// NewIngestService creates a new ingestion service.
func NewIngestService(cfg IngestConfig) *IngestService {
	topK := cfg.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &IngestService{
		normalisers: cfg.Normalisers,
		pipeline:    cfg.Pipeline,
		embedder:    cfg.Embedder,
		indexes:     cfg.Indexes,
		vectors:     cfg.VectorIndex,
		uploads:     cfg.Uploads,
		topK:        topK,
		locks:       newKeyedMutex(),
	}
}

// SetEmbedder attaches the embedding provider. Listing, loading and deleting
// indexes work without one, so callers may connect it on first use. It must
// not race with Ingest or Retriever.
func (s *IngestService) SetEmbedder(embedder driven.EmbeddingService) {
	s.embedder = embedder
}

// Ingest normalises, chunks and embeds a document, then persists its index.
// An existing index for the same document ID is replaced.
func (s *IngestService) Ingest(
	ctx context.Context,
	raw *domain.RawDocument,
	documentID string,
) (*domain.DocumentIndex, error) {
	if raw == nil || len(raw.Content) == 0 {
		return nil, fmt.Errorf("%w: empty upload", domain.ErrInvalidDocument)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if documentID == "" {
		documentID = uuid.New().String()
	}

	unlock := s.locks.Lock(documentID)
	defer unlock()

	logger.Section("Ingest " + documentID)
	done := logger.Stage("ingest")
	defer done()

	// 1. NORMALISE (produces Document with Pages)
	result, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("document %s: normalise: %w", documentID, err)
	}
	doc := result.Document
	doc.ID = documentID
	logger.Debug("Normalised %d pages", len(doc.Pages))

	// 2. CHUNK
	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return nil, fmt.Errorf("document %s: chunk: %w", documentID, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %s: %w: no extractable text", documentID, domain.ErrInvalidDocument)
	}
	logger.Debug("Produced %d chunks", len(chunks))

	// 3. EMBED
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w: %v", documentID, domain.ErrEmbeddingProvider, err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("document %s: %w: got %d embeddings for %d chunks",
			documentID, domain.ErrEmbeddingProvider, len(embeddings), len(chunks))
	}

	dimensions := 0
	for i := range chunks {
		chunks[i].DocumentID = documentID
		chunks[i].Embedding = embeddings[i]
		if dimensions == 0 {
			dimensions = len(embeddings[i])
		}
	}

	// 4. PERSIST
	if s.uploads != nil {
		location, err := s.uploads.Put(ctx, documentID, raw.Content)
		if err != nil {
			return nil, fmt.Errorf("document %s: store upload: %w", documentID, err)
		}
		logger.Debug("Stored upload at %s", location)
	}

	index := &domain.DocumentIndex{
		DocumentID:     documentID,
		Filename:       filepath.Base(raw.URI),
		EmbeddingModel: s.embedder.ModelName(),
		Dimensions:     dimensions,
		Chunks:         chunks,
		CreatedAt:      time.Now(),
	}
	if err := s.indexes.Save(ctx, index); err != nil {
		return nil, fmt.Errorf("document %s: save index: %w", documentID, err)
	}

	logger.Info("Indexed %s: %d chunks, %d dimensions", documentID, len(chunks), dimensions)
	return index, nil
}

// LoadIndex returns the stored index without re-embedding.
func (s *IngestService) LoadIndex(ctx context.Context, documentID string) (*domain.DocumentIndex, error) {
	index, err := s.indexes.Load(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, err)
	}
	return index, nil
}

// Retriever binds a retriever to the stored index of a document.
func (s *IngestService) Retriever(ctx context.Context, documentID string) (driving.Retriever, error) {
	index, err := s.LoadIndex(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if index.EmbeddingModel != "" && index.EmbeddingModel != s.embedder.ModelName() {
		logger.Warn("Index %s was built with %s but queries use %s",
			documentID, index.EmbeddingModel, s.embedder.ModelName())
	}
	return NewRetriever(ctx, index, s.embedder, s.vectors, s.topK)
}

// ListIndexes returns summaries of all stored indexes.
func (s *IngestService) ListIndexes(ctx context.Context) ([]domain.IndexSummary, error) {
	return s.indexes.List(ctx)
}

// DeleteIndex removes a stored index.
func (s *IngestService) DeleteIndex(ctx context.Context, documentID string) error {
	unlock := s.locks.Lock(documentID)
	defer unlock()

	exists, err := s.indexes.Exists(ctx, documentID)
	if err != nil {
		return fmt.Errorf("document %s: %w", documentID, err)
	}
	if !exists {
		return fmt.Errorf("document %s: %w", documentID, domain.ErrIndexNotFound)
	}
	return s.indexes.Delete(ctx, documentID)
}

// keyedMutex hands out one mutex per key and drops it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

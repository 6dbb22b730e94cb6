package main

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragextract/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
	"github.com/custodia-labs/ragextract/internal/core/ports/driving"
	"github.com/custodia-labs/ragextract/internal/core/services"
	"github.com/custodia-labs/ragextract/internal/logger"
)

var (
	_ driving.IngestService     = (*lazyIngestService)(nil)
	_ driving.ExtractionService = (*lazyExtractionService)(nil)
)

// connectFunc creates the embedding and language model services.
type connectFunc func(ctx context.Context, settings *domain.AppSettings) (*ai.InitResult, error)

// aiSession connects the providers on first use. It attaches the embedder
// to the one IngestService shared with the CLI, so builds and deletes of a
// document take the same lock. A failed connection is remembered for the
// process.
type aiSession struct {
	settings  *domain.AppSettings
	ingestSvc *services.IngestService
	schemas   driving.SchemaService
	prompts   driven.PromptStore
	connect   connectFunc

	once       sync.Once
	err        error
	providers  *ai.InitResult
	extraction *services.ExtractionService
}

func (s *aiSession) init(ctx context.Context) error {
	s.once.Do(func() {
		logger.Section("Providers")
		providers, err := s.connect(ctx, s.settings)
		if err != nil {
			s.err = err
			return
		}
		logger.Debug("Embedding: %s, LLM: %s", providers.EmbeddingService.ModelName(), providers.LLMService.ModelName())

		extractor, err := services.NewFieldExtractor(providers.LLMService,
			services.WithSnippetLength(s.settings.Extraction.SnippetLength),
			services.WithTemperature(s.settings.LLM.Temperature),
		)
		if err != nil {
			providers.Close()
			s.err = err
			return
		}
		if s.prompts != nil {
			extractor.SetPromptStore(s.prompts)
		}

		s.providers = providers
		s.ingestSvc.SetEmbedder(providers.EmbeddingService)
		s.extraction = services.NewExtractionService(s.ingestSvc, s.schemas, extractor, s.settings.Extraction)
	})
	return s.err
}

// Close releases the provider clients if they were created.
func (s *aiSession) Close() {
	if s.providers != nil {
		s.providers.Close()
	}
}

// lazyIngestService serves index listing and deletion from the stores alone
// and connects the providers only to ingest or query.
type lazyIngestService struct {
	*services.IngestService
	ai *aiSession
}

func (l *lazyIngestService) Ingest(ctx context.Context, raw *domain.RawDocument, documentID string) (*domain.DocumentIndex, error) {
	if err := l.ai.init(ctx); err != nil {
		return nil, err
	}
	return l.IngestService.Ingest(ctx, raw, documentID)
}

func (l *lazyIngestService) Retriever(ctx context.Context, documentID string) (driving.Retriever, error) {
	// Report a missing index before touching the providers.
	if _, err := l.IngestService.LoadIndex(ctx, documentID); err != nil {
		return nil, err
	}
	if err := l.ai.init(ctx); err != nil {
		return nil, err
	}
	return l.IngestService.Retriever(ctx, documentID)
}

// lazyExtractionService connects the providers on the first extraction.
type lazyExtractionService struct {
	indexes driving.IngestService
	ai      *aiSession
}

func (l *lazyExtractionService) Extract(ctx context.Context, documentID, schemaName string) (*domain.ExtractionResult, error) {
	if l.indexes != nil {
		if _, err := l.indexes.LoadIndex(ctx, documentID); err != nil {
			return nil, err
		}
	}
	if err := l.ai.init(ctx); err != nil {
		return nil, err
	}
	return l.ai.extraction.Extract(ctx, documentID, schemaName)
}

func (l *lazyExtractionService) Run(
	ctx context.Context,
	documentID string,
	schema domain.ExtractionSchema,
	retriever driving.Retriever,
) (*domain.ExtractionResult, error) {
	if err := l.ai.init(ctx); err != nil {
		return nil, err
	}
	return l.ai.extraction.Run(ctx, documentID, schema, retriever)
}

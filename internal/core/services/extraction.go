package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driving"
	"github.com/custodia-labs/ragextract/internal/logger"
)

// Ensure ExtractionService implements the interface.
var _ driving.ExtractionService = (*ExtractionService)(nil)

// ExtractionService runs every field of a schema against one document.
type ExtractionService struct {
	indexes     driving.IngestService
	schemas     driving.SchemaService
	extractor   *FieldExtractor
	concurrency int
	timeout     time.Duration
}

// NewExtractionService creates a new extraction orchestrator.
// A concurrency of 1 or less extracts fields sequentially.
func NewExtractionService(
	indexes driving.IngestService,
	schemas driving.SchemaService,
	extractor *FieldExtractor,
	settings domain.ExtractionSettings,
) *ExtractionService {
	concurrency := settings.Concurrency
	if concurrency < 1 {
		concurrency = domain.DefaultConcurrency
	}
	return &ExtractionService{
		indexes:     indexes,
		schemas:     schemas,
		extractor:   extractor,
		concurrency: concurrency,
		timeout:     time.Duration(settings.TimeoutSeconds) * time.Second,
	}
}

// Extract loads the document index, resolves the schema and extracts every field.
// A missing index is reported before the schema is resolved and before any model call.
func (s *ExtractionService) Extract(
	ctx context.Context,
	documentID, schemaName string,
) (*domain.ExtractionResult, error) {
	logger.Section("Extraction")
	logger.Debug("Document: %s, schema: %s", documentID, schemaName)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	retriever, err := s.indexes.Retriever(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if c, ok := retriever.(io.Closer); ok {
		defer c.Close()
	}

	schema, err := s.schemas.Get(ctx, schemaName)
	if err != nil {
		return nil, err
	}

	return s.Run(ctx, documentID, *schema, retriever)
}

// Run extracts every field of schema using an already bound retriever.
// Results follow schema declaration order. The first failing field cancels
// the remaining work and fails the run.
func (s *ExtractionService) Run(
	ctx context.Context,
	documentID string,
	schema domain.ExtractionSchema,
	retriever driving.Retriever,
) (*domain.ExtractionResult, error) {
	done := logger.Stage("extract " + schema.Name)
	defer done()

	results := make([]domain.FieldResult, len(schema.Fields))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, field := range schema.Fields {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := s.extractor.Extract(gctx, field, retriever)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("document %s, schema %s: %w", documentID, schema.Name, err)
	}

	logger.Info("Extracted %d fields from %s with schema %s", len(results), documentID, schema.Name)

	return &domain.ExtractionResult{
		DocumentID: documentID,
		SchemaName: schema.Name,
		Fields:     results,
	}, nil
}

package mcp

import (
	"github.com/custodia-labs/ragextract/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ingest builds and loads document indexes.
	Ingest driving.IngestService

	// Schema is the schema registry.
	Schema driving.SchemaService

	// Extraction runs schemas against documents.
	Extraction driving.ExtractionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	if p.Schema == nil {
		return ErrMissingSchemaService
	}
	if p.Extraction == nil {
		return ErrMissingExtractionService
	}
	return nil
}

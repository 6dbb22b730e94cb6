// Package mcp provides an MCP (Model Context Protocol) server adapter for ragextract.
// It lets AI assistants ingest documents, register schemas and extract fields.
package mcp

import "errors"

// Errors returned when a required port is not provided.
var (
	ErrMissingIngestService     = errors.New("mcp: ingest service is required")
	ErrMissingSchemaService     = errors.New("mcp: schema service is required")
	ErrMissingExtractionService = errors.New("mcp: extraction service is required")
)

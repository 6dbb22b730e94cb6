package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragextract/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for ragextract resources.
	uriScheme = "ragextract://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "schemas",
		Name:        "schemas",
		Description: "All registered extraction schemas",
		MIMEType:    "application/json",
	}, s.handleSchemasResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "schemas/{name}",
		Name:        "schema",
		Description: "A single extraction schema with its fields",
		MIMEType:    "application/json",
	}, s.handleSchemaResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "indexes",
		Name:        "indexes",
		Description: "Summaries of all ingested documents",
		MIMEType:    "application/json",
	}, s.handleIndexesResource)
}

// handleSchemasResource returns every registered schema.
func (s *Server) handleSchemasResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	schemas, err := s.ports.Schema.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing schemas: %w", err)
	}
	return jsonResource(req.Params.URI, schemas)
}

// handleSchemaResource returns one schema by name.
func (s *Server) handleSchemaResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractSchemaName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	schema, err := s.ports.Schema.Get(ctx, name)
	if errors.Is(err, domain.ErrSchemaNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting schema: %w", err)
	}
	return jsonResource(req.Params.URI, schema)
}

// handleIndexesResource returns summaries of all stored indexes.
func (s *Server) handleIndexesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	summaries, err := s.ports.Ingest.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	return jsonResource(req.Params.URI, summaries)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSchemaName extracts the name from a URI like ragextract://schemas/{name}.
func extractSchemaName(uri string) string {
	const prefix = uriScheme + "schemas/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}

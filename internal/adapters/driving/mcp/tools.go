package mcp

import (
	"context"
	"fmt"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragextract/internal/connectors/filesystem"
	"github.com/custodia-labs/ragextract/internal/core/domain"
)

// IngestInput is the input schema for the ingest_document tool.
type IngestInput struct {
	Path       string `json:"path" jsonschema:"local path of the PDF to ingest"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"identifier for the document; generated when empty"`
}

// IngestOutput is the output schema for the ingest_document tool.
type IngestOutput struct {
	DocumentID     string `json:"document_id"`
	Filename       string `json:"filename"`
	ChunkCount     int    `json:"chunk_count"`
	EmbeddingModel string `json:"embedding_model"`
}

// FieldInput describes one field of a schema being registered.
type FieldInput struct {
	Name        string `json:"name" jsonschema:"field name, unique within the schema"`
	Description string `json:"description" jsonschema:"what the field means, used to phrase the retrieval question"`
	Type        string `json:"type,omitempty" jsonschema:"one of string, number, date, boolean, list (default string)"`
	Required    bool   `json:"required,omitempty" jsonschema:"whether the field is expected in every document"`
}

// RegisterSchemaInput is the input schema for the register_schema tool.
type RegisterSchemaInput struct {
	Name        string       `json:"name" jsonschema:"schema name"`
	Description string       `json:"description,omitempty" jsonschema:"what kind of document the schema targets"`
	Fields      []FieldInput `json:"fields" jsonschema:"fields to extract, in output order"`
}

// RegisterSchemaOutput is the output schema for the register_schema tool.
type RegisterSchemaOutput struct {
	Name       string `json:"name"`
	FieldCount int    `json:"field_count"`
}

// ExtractInput is the input schema for the extract_fields tool.
type ExtractInput struct {
	DocumentID string `json:"document_id" jsonschema:"identifier of an ingested document"`
	Schema     string `json:"schema" jsonschema:"name of a registered schema"`
}

// QueryInput is the input schema for the query_document tool.
type QueryInput struct {
	DocumentID string `json:"document_id" jsonschema:"identifier of an ingested document"`
	Question   string `json:"question" jsonschema:"natural language question to retrieve passages for"`
}

// QueryOutput is the output schema for the query_document tool.
type QueryOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// ChunkOutput is a retrieved passage.
type ChunkOutput struct {
	Page    *int   `json:"page,omitempty"`
	Content string `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Index a local PDF so fields can be extracted from it",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "register_schema",
		Description: "Register or replace a named extraction schema",
	}, s.handleRegisterSchema)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_fields",
		Description: "Extract every field of a schema from an ingested document, with confidence and sources",
	}, s.handleExtract)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_document",
		Description: "Return the passages of an ingested document most relevant to a question",
	}, s.handleQuery)
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	raw, err := filesystem.Load(input.Path)
	if err != nil {
		return nil, IngestOutput{}, fmt.Errorf("reading %s: %w", input.Path, err)
	}

	index, err := s.ports.Ingest.Ingest(ctx, raw, input.DocumentID)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		DocumentID:     index.DocumentID,
		Filename:       index.Filename,
		ChunkCount:     len(index.Chunks),
		EmbeddingModel: index.EmbeddingModel,
	}, nil
}

func (s *Server) handleRegisterSchema(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RegisterSchemaInput,
) (*mcp.CallToolResult, RegisterSchemaOutput, error) {
	schema := domain.ExtractionSchema{
		Name:        input.Name,
		Description: input.Description,
		Fields:      make([]domain.ExtractionField, len(input.Fields)),
	}
	for i, f := range input.Fields {
		schema.Fields[i] = domain.ExtractionField{
			Name:        f.Name,
			Description: f.Description,
			Type:        domain.FieldType(f.Type),
			Required:    f.Required,
		}
	}

	if err := s.ports.Schema.Register(ctx, schema); err != nil {
		return nil, RegisterSchemaOutput{}, err
	}

	return nil, RegisterSchemaOutput{Name: schema.Name, FieldCount: len(schema.Fields)}, nil
}

func (s *Server) handleExtract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractInput,
) (*mcp.CallToolResult, domain.ExtractionResult, error) {
	result, err := s.ports.Extraction.Extract(ctx, input.DocumentID, input.Schema)
	if err != nil {
		return nil, domain.ExtractionResult{}, err
	}
	return nil, *result, nil
}

func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	retriever, err := s.ports.Ingest.Retriever(ctx, input.DocumentID)
	if err != nil {
		return nil, QueryOutput{}, err
	}
	if c, ok := retriever.(io.Closer); ok {
		defer c.Close()
	}

	chunks, err := retriever.Query(ctx, input.Question)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Chunks: make([]ChunkOutput, len(chunks)),
		Count:  len(chunks),
	}
	for i, c := range chunks {
		output.Chunks[i] = ChunkOutput{Page: c.Page, Content: c.Content}
	}
	return nil, output, nil
}

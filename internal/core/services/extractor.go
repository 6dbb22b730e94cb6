package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
	"github.com/custodia-labs/ragextract/internal/core/ports/driving"
	"github.com/custodia-labs/ragextract/internal/logger"
)

// Ensure FieldExtractor can use custom prompts.
var _ driven.PromptStoreAware = (*FieldExtractor)(nil)

// fieldAnswerSchemaName names the structured output for providers that require one.
const fieldAnswerSchemaName = "field_answer"

// FieldAnswerSchema returns the JSON Schema every model answer must satisfy.
func FieldAnswerSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": map[string]any{
				"type": []any{"string", "null"},
			},
			"confidence": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
			"justification": map[string]any{
				"type": []any{"string", "null"},
			},
		},
		"required":             []any{"value", "confidence", "justification"},
		"additionalProperties": false,
	}
}

// replySchema is FieldAnswerSchema with justification optional.
// Strict providers need every property listed as required in the request,
// but a reply that omits the justification is still a usable answer.
func replySchema() map[string]any {
	schema := FieldAnswerSchema()
	schema["required"] = []any{"value", "confidence"}
	return schema
}

// defaultExtractSystemPrompt is the fallback when no PromptStore is configured.
const defaultExtractSystemPrompt = `You are an assistant specialized in extracting specific fields from documents. ` +
	`Use ONLY the provided context. If you are not sure, return value = null and a low confidence.`

// defaultExtractUserPrompt is the fallback when no PromptStore is configured.
const defaultExtractUserPrompt = `Field: %s
Field description: %s
Expected type: %s

Document context:
%s

Return the field value, a confidence between 0 and 1, and a short justification.`

// FieldExtractor answers one schema field from retrieved context.
type FieldExtractor struct {
	llm           driven.LLMService
	promptStore   driven.PromptStore
	answerSchema  *jsonschema.Schema
	snippetLength int
	temperature   float64
}

// ExtractorOption configures a FieldExtractor.
type ExtractorOption func(*FieldExtractor)

// WithSnippetLength caps source snippets at n characters.
func WithSnippetLength(n int) ExtractorOption {
	return func(e *FieldExtractor) {
		if n > 0 {
			e.snippetLength = n
		}
	}
}

// WithTemperature sets the sampling temperature sent to the model.
func WithTemperature(t float64) ExtractorOption {
	return func(e *FieldExtractor) {
		e.temperature = t
	}
}

// NewFieldExtractor creates a field extractor over the given language model.
func NewFieldExtractor(llm driven.LLMService, opts ...ExtractorOption) (*FieldExtractor, error) {
	schema, err := compileSchema(replySchema())
	if err != nil {
		return nil, fmt.Errorf("compile answer schema: %w", err)
	}

	e := &FieldExtractor{
		llm:           llm,
		answerSchema:  schema,
		snippetLength: domain.DefaultSnippetLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (e *FieldExtractor) SetPromptStore(store driven.PromptStore) {
	e.promptStore = store
}

// Extract retrieves context for field and asks the model for its value.
// The returned sources are exactly the chunks the model saw.
func (e *FieldExtractor) Extract(
	ctx context.Context,
	field domain.ExtractionField,
	retriever driving.Retriever,
) (domain.FieldResult, error) {
	question := FieldQuestion(field)

	chunks, err := retriever.Query(ctx, question)
	if err != nil {
		return domain.FieldResult{}, fmt.Errorf("field %q: %w", field.Name, err)
	}

	answer, err := e.answer(ctx, field, BuildContext(chunks))
	if err != nil {
		return domain.FieldResult{}, fmt.Errorf("field %q: %w", field.Name, err)
	}

	logger.Debug("Field %q: confidence %.2f from %d chunks", field.Name, answer.Confidence, len(chunks))

	return domain.FieldResult{
		Name:          field.Name,
		Value:         answer.Value,
		Confidence:    answer.Confidence,
		Sources:       BuildSources(chunks, e.snippetLength),
		Justification: answer.Justification,
	}, nil
}

func (e *FieldExtractor) answer(ctx context.Context, field domain.ExtractionField, contextText string) (*domain.FieldAnswer, error) {
	fieldType := field.Type
	if fieldType == "" {
		fieldType = domain.FieldTypeString
	}

	system := e.loadPrompt(driven.PromptExtractSystem, defaultExtractSystemPrompt)
	user := fmt.Sprintf(
		e.loadPrompt(driven.PromptExtractUser, defaultExtractUserPrompt),
		field.Name, field.Description, fieldType, contextText,
	)

	raw, err := e.llm.StructuredChat(ctx,
		[]driven.ChatMessage{
			{Role: driven.RoleSystem, Content: system},
			{Role: driven.RoleUser, Content: user},
		},
		driven.ResponseFormat{Name: fieldAnswerSchemaName, Schema: FieldAnswerSchema()},
		driven.ChatOptions{Temperature: e.temperature},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLanguageModel, err)
	}

	return e.decodeAnswer(raw)
}

// decodeAnswer validates raw against the reply schema before decoding it.
func (e *FieldExtractor) decodeAnswer(raw string) (*domain.FieldAnswer, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", domain.ErrStructuredOutputViolation, err)
	}
	if err := e.answerSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStructuredOutputViolation, err)
	}

	var answer domain.FieldAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStructuredOutputViolation, err)
	}
	return &answer, nil
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (e *FieldExtractor) loadPrompt(name, fallback string) string {
	if e.promptStore == nil {
		return fallback
	}
	prompt, err := e.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// FieldQuestion builds the retrieval question for a field.
func FieldQuestion(field domain.ExtractionField) string {
	return fmt.Sprintf("Field: %s. %s. What is the value of this field in the document?",
		field.Name, field.Description)
}

// BuildContext renders chunks as numbered, page-labelled blocks separated by blank lines.
func BuildContext(chunks []domain.Chunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("[Chunk %d - page %s]\n%s", i+1, pageLabel(c.Page), c.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// BuildSources turns chunks into source spans with whitespace-collapsed snippets
// of at most maxLen characters.
func BuildSources(chunks []domain.Chunk, maxLen int) []domain.SourceSpan {
	sources := make([]domain.SourceSpan, len(chunks))
	for i, c := range chunks {
		var page *int
		if c.Page != nil {
			page = domain.IntPtr(*c.Page)
		}
		sources[i] = domain.SourceSpan{
			Page:        page,
			TextSnippet: Snippet(c.Content, maxLen),
		}
	}
	return sources
}

// Snippet collapses whitespace runs to single spaces and truncates to maxLen runes.
func Snippet(text string, maxLen int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if maxLen <= 0 {
		return collapsed
	}
	runes := []rune(collapsed)
	if len(runes) <= maxLen {
		return collapsed
	}
	return string(runes[:maxLen])
}

func pageLabel(page *int) string {
	if page == nil {
		return "?"
	}
	return strconv.Itoa(*page)
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return c.Compile("schema.json")
}

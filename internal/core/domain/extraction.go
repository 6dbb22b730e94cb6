package domain

// SourceSpan points at the evidence behind an answer.
type SourceSpan struct {
	Page        *int   `json:"page"`
	TextSnippet string `json:"text_snippet"`
}

// FieldAnswer is the structured output requested from the language model.
type FieldAnswer struct {
	Value         *string `json:"value"`
	Confidence    float64 `json:"confidence"`
	Justification *string `json:"justification"`
}

// FieldResult is the final per-field output.
type FieldResult struct {
	Name          string       `json:"name"`
	Value         *string      `json:"value"`
	Confidence    float64      `json:"confidence"`
	Sources       []SourceSpan `json:"sources"`
	Justification *string      `json:"justification"`
}

// ExtractionResult is the per-document output.
// Fields appear in schema declaration order.
type ExtractionResult struct {
	DocumentID string        `json:"document_id"`
	SchemaName string        `json:"schema_name"`
	Fields     []FieldResult `json:"fields"`
}

// Field returns the result with the given name.
func (r *ExtractionResult) Field(name string) (FieldResult, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldResult{}, false
}

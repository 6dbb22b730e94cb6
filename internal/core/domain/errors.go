package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown normaliser, provider or store type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Pipeline Errors.

	// ErrInvalidDocument indicates the uploaded file is unreadable or has no extractable text.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrIndexNotFound indicates no persisted index exists for the document.
	ErrIndexNotFound = errors.New("index not found")

	// ErrSchemaNotFound indicates the named extraction schema is not registered.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrEmbeddingProvider indicates the embedding capability failed or was unreachable.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrLanguageModel indicates the language model capability failed or was unreachable.
	ErrLanguageModel = errors.New("language model error")

	// ErrStructuredOutputViolation indicates the model response does not conform
	// to the FieldAnswer shape.
	ErrStructuredOutputViolation = errors.New("structured output violation")

	// Configuration Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Extraction is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Ingestion and retrieval are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// IsNotFound reports whether err denotes any kind of missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrIndexNotFound) ||
		errors.Is(err, ErrSchemaNotFound)
}

// Package domain defines the core business entities for ragextract.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Uploaded bytes before normalisation
//   - Document: Page texts after normalisation
//   - Chunk: A retrievable passage within a document
//   - DocumentIndex: The persisted chunks and embeddings of one document
//   - ExtractionSchema: A named, ordered list of fields to extract
//   - ExtractionResult: Per-field values, confidences and sources
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

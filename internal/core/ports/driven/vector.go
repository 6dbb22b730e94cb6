package driven

import "context"

// VectorIndex provides similarity search over the chunk embeddings of one document.
// Search results are ordered by descending similarity; equal scores keep
// insertion order.
type VectorIndex interface {
	// Add inserts a vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Delete removes a vector from the index.
	Delete(ctx context.Context, chunkID string) error

	// Search finds the k nearest neighbours to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of stored vectors.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the similarity score; higher is closer.
	Similarity float64
}

// VectorIndexFactory creates isolated indexes, one per document.
type VectorIndexFactory interface {
	// New returns an empty index for vectors of the given size.
	New(dimensions int) (VectorIndex, error)
}

package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
	"github.com/custodia-labs/ragextract/internal/core/ports/driving"
	"github.com/custodia-labs/ragextract/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.Retriever = (*Retriever)(nil)

// Retriever answers similarity queries against one document index.
// It holds no mutable state after construction.
type Retriever struct {
	documentID string
	embedder   driven.EmbeddingService
	vectors    driven.VectorIndex
	chunks     map[string]domain.Chunk
	k          int
}

// NewRetriever loads the chunks of index into a fresh vector index.
// Chunks without embeddings are skipped.
func NewRetriever(
	ctx context.Context,
	index *domain.DocumentIndex,
	embedder driven.EmbeddingService,
	factory driven.VectorIndexFactory,
	k int,
) (*Retriever, error) {
	if k <= 0 {
		k = domain.DefaultTopK
	}

	vectors, err := factory.New(index.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("create vector index: %w", err)
	}

	chunks := make(map[string]domain.Chunk, len(index.Chunks))
	for _, c := range index.Chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		if err := vectors.Add(ctx, c.ID, c.Embedding); err != nil {
			_ = vectors.Close()
			return nil, fmt.Errorf("add chunk %s: %w", c.ID, err)
		}
		chunks[c.ID] = c
	}

	logger.Debug("Retriever for %s: %d chunks, k=%d", index.DocumentID, len(chunks), k)

	return &Retriever{
		documentID: index.DocumentID,
		embedder:   embedder,
		vectors:    vectors,
		chunks:     chunks,
		k:          k,
	}, nil
}

// Query returns the k chunks most similar to question, most similar first.
func (r *Retriever) Query(ctx context.Context, question string) ([]domain.Chunk, error) {
	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embed question: %v", domain.ErrEmbeddingProvider, err)
	}

	hits, err := r.vectors.Search(ctx, vec, r.k)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.documentID, err)
	}

	result := make([]domain.Chunk, 0, len(hits))
	for _, hit := range hits {
		if c, ok := r.chunks[hit.ChunkID]; ok {
			result = append(result, c)
		}
	}
	logger.Debug("Retrieved %d chunks for %q", len(result), truncateForLog(question, 80))
	return result, nil
}

// Close releases the vector index.
func (r *Retriever) Close() error {
	return r.vectors.Close()
}

func truncateForLog(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// Package eino provides an embedding service adapter for OpenAI-compatible
// endpoints using the cloudwego eino embedding components.
package eino

import (
	"context"
	"fmt"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Config holds configuration for an OpenAI-compatible embedding model.
type Config struct {
	// APIKey is the provider API key (required).
	APIKey string

	// BaseURL is the OpenAI-compatible API base URL (required).
	BaseURL string

	// Model is the embedding model name (required).
	Model string

	// Dimensions is the vector size. Detected from the first response when zero.
	Dimensions int
}

// EmbeddingService adapts an eino Embedder to driven.EmbeddingService.
type EmbeddingService struct {
	embedder   embedding.Embedder
	model      string
	dimensions int
}

// NewEmbeddingService creates an eino openai embedder from cfg.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai_compatible: API key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai_compatible: base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai_compatible: model is required")
	}

	embedder, err := openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai_compatible: create embedder: %w", err)
	}
	return NewFromEmbedder(embedder, cfg.Model, cfg.Dimensions), nil
}

// NewFromEmbedder wraps an existing eino Embedder.
func NewFromEmbedder(embedder embedding.Embedder, modelName string, dimensions int) *EmbeddingService {
	return &EmbeddingService{embedder: embedder, model: modelName, dimensions: dimensions}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for texts, preserving input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := s.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("openai_compatible: embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("openai_compatible: got %d embeddings for %d inputs", len(vectors), len(texts))
	}

	out := make([][]float32, len(vectors))
	for i, vec := range vectors {
		out[i] = make([]float32, len(vec))
		for j, v := range vec {
			out[i][j] = float32(v)
		}
	}
	if s.dimensions == 0 {
		s.dimensions = len(out[0])
	}
	return out, nil
}

// Dimensions returns the embedding vector size, or 0 before the first call
// when it was not configured.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping embeds a short probe string.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("openai_compatible: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

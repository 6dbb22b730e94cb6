// Package redis provides a Redis-backed implementation of driven.IndexStore.
//
// Each index is a hash under "<prefix>index:<document_id>" holding the index
// metadata and a JSON array of chunks. A sorted set "<prefix>indexes" scored
// by creation time orders the listing.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// DefaultKeyPrefix namespaces all keys written by the store.
const DefaultKeyPrefix = "ragextract:"

// Field names in the index hash.
const (
	fieldFilename       = "filename"
	fieldEmbeddingModel = "embedding_model"
	fieldDimensions     = "dimensions"
	fieldCreatedAt      = "created_at"
	fieldChunkCount     = "chunk_count"
	fieldChunks         = "chunks"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// IndexStore persists document indexes in Redis.
type IndexStore struct {
	client *redis.Client
	prefix string
}

// storedChunk is the JSON form of a chunk, including its embedding.
type storedChunk struct {
	ID        string    `json:"id"`
	Position  int       `json:"position"`
	Page      *int      `json:"page,omitempty"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

// NewIndexStore connects to Redis and verifies the connection.
func NewIndexStore(ctx context.Context, cfg Config) (*IndexStore, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &IndexStore{client: client, prefix: cfg.KeyPrefix}, nil
}

func (s *IndexStore) indexKey(documentID string) string {
	return s.prefix + "index:" + documentID
}

func (s *IndexStore) listKey() string {
	return s.prefix + "indexes"
}

// Save replaces the index for a document atomically.
func (s *IndexStore) Save(ctx context.Context, index *domain.DocumentIndex) error {
	if index == nil || index.DocumentID == "" {
		return fmt.Errorf("%w: index requires a document id", domain.ErrInvalidInput)
	}

	chunks := make([]storedChunk, len(index.Chunks))
	for i, c := range index.Chunks {
		chunks[i] = storedChunk{ID: c.ID, Position: c.Position, Page: c.Page, Content: c.Content, Embedding: c.Embedding}
	}
	chunksJSON, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encoding chunks: %w", err)
	}

	key := s.indexKey(index.DocumentID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldFilename, index.Filename,
			fieldEmbeddingModel, index.EmbeddingModel,
			fieldDimensions, index.Dimensions,
			fieldCreatedAt, index.CreatedAt.UTC().Format(time.RFC3339Nano),
			fieldChunkCount, len(index.Chunks),
			fieldChunks, chunksJSON,
		)
		pipe.ZAdd(ctx, s.listKey(), redis.Z{
			Score:  float64(index.CreatedAt.UnixMilli()),
			Member: index.DocumentID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	return nil
}

// Load retrieves an index by document ID.
func (s *IndexStore) Load(ctx context.Context, documentID string) (*domain.DocumentIndex, error) {
	values, err := s.client.HGetAll(ctx, s.indexKey(documentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	if len(values) == 0 {
		return nil, domain.ErrIndexNotFound
	}

	var chunks []storedChunk
	if err := json.Unmarshal([]byte(values[fieldChunks]), &chunks); err != nil {
		return nil, fmt.Errorf("decoding chunks: %w", err)
	}

	dimensions, _ := strconv.Atoi(values[fieldDimensions])
	index := &domain.DocumentIndex{
		DocumentID:     documentID,
		Filename:       values[fieldFilename],
		EmbeddingModel: values[fieldEmbeddingModel],
		Dimensions:     dimensions,
		CreatedAt:      parseTime(values[fieldCreatedAt]),
		Chunks:         make([]domain.Chunk, len(chunks)),
	}
	for i, c := range chunks {
		index.Chunks[i] = domain.Chunk{
			ID:         c.ID,
			DocumentID: documentID,
			Content:    c.Content,
			Position:   c.Position,
			Page:       c.Page,
			Embedding:  c.Embedding,
		}
	}
	return index, nil
}

// Exists reports whether an index is stored for the document.
func (s *IndexStore) Exists(ctx context.Context, documentID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.indexKey(documentID)).Result()
	if err != nil {
		return false, fmt.Errorf("checking index: %w", err)
	}
	return n > 0, nil
}

// List returns summaries of all stored indexes, newest first.
func (s *IndexStore) List(ctx context.Context) ([]domain.IndexSummary, error) {
	ids, err := s.client.ZRevRange(ctx, s.listKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}

	cmds := make([]*redis.SliceCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HMGet(ctx, s.indexKey(id), fieldFilename, fieldEmbeddingModel, fieldCreatedAt, fieldChunkCount)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}

	result := make([]domain.IndexSummary, 0, len(ids))
	for i, id := range ids {
		vals := cmds[i].Val()
		if len(vals) < 4 || vals[0] == nil {
			// Listed but the hash is gone.
			continue
		}
		count, _ := strconv.Atoi(asString(vals[3]))
		result = append(result, domain.IndexSummary{
			DocumentID:     id,
			Filename:       asString(vals[0]),
			EmbeddingModel: asString(vals[1]),
			CreatedAt:      parseTime(asString(vals[2])),
			ChunkCount:     count,
		})
	}
	return result, nil
}

// Delete removes an index.
func (s *IndexStore) Delete(ctx context.Context, documentID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.indexKey(documentID))
		pipe.ZRem(ctx, s.listKey(), documentID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting index: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *IndexStore) Close() error {
	return s.client.Close()
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

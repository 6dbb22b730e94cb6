package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
// Indexes are copied on the way in and out so callers cannot mutate stored state.
type IndexStore struct {
	mu      sync.RWMutex
	indexes map[string]domain.DocumentIndex
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{
		indexes: make(map[string]domain.DocumentIndex),
	}
}

// Save stores an index, replacing any previous one for the document.
func (s *IndexStore) Save(_ context.Context, index *domain.DocumentIndex) error {
	if index == nil || index.DocumentID == "" {
		return fmt.Errorf("%w: index requires a document id", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[index.DocumentID] = cloneIndex(index)
	return nil
}

// Load retrieves an index by document ID.
func (s *IndexStore) Load(_ context.Context, documentID string) (*domain.DocumentIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[documentID]
	if !ok {
		return nil, domain.ErrIndexNotFound
	}
	out := cloneIndex(&idx)
	return &out, nil
}

// Exists reports whether an index is stored for the document.
func (s *IndexStore) Exists(_ context.Context, documentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[documentID]
	return ok, nil
}

// List returns summaries of all stored indexes, newest first.
func (s *IndexStore) List(_ context.Context) ([]domain.IndexSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.IndexSummary, 0, len(s.indexes))
	for _, idx := range s.indexes {
		result = append(result, idx.Summary())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].DocumentID < result[j].DocumentID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Delete removes an index.
func (s *IndexStore) Delete(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, documentID)
	return nil
}

func cloneIndex(idx *domain.DocumentIndex) domain.DocumentIndex {
	out := *idx
	out.Chunks = make([]domain.Chunk, len(idx.Chunks))
	for i, c := range idx.Chunks {
		if c.Page != nil {
			c.Page = domain.IntPtr(*c.Page)
		}
		if c.Embedding != nil {
			c.Embedding = append([]float32(nil), c.Embedding...)
		}
		out.Chunks[i] = c
	}
	return out
}

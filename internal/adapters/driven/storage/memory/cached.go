package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// Ensure CachedIndexStore implements the interface.
var _ driven.IndexStore = (*CachedIndexStore)(nil)

// CachedIndexStore keeps loaded indexes in memory in front of a durable store.
// Indexes are immutable once built, so a cached entry is only replaced by Save
// or dropped by Delete. A miss falls through to the backing store.
type CachedIndexStore struct {
	backing driven.IndexStore

	mu    sync.RWMutex
	cache map[string]*domain.DocumentIndex
}

// NewCachedIndexStore wraps backing with a read-through cache.
func NewCachedIndexStore(backing driven.IndexStore) *CachedIndexStore {
	return &CachedIndexStore{
		backing: backing,
		cache:   make(map[string]*domain.DocumentIndex),
	}
}

// Save writes through to the backing store, then caches the index.
func (s *CachedIndexStore) Save(ctx context.Context, index *domain.DocumentIndex) error {
	if err := s.backing.Save(ctx, index); err != nil {
		return err
	}
	cp := cloneIndex(index)
	s.mu.Lock()
	s.cache[index.DocumentID] = &cp
	s.mu.Unlock()
	return nil
}

// Load returns the cached index or loads it from the backing store.
// The returned index is shared and must be treated as read-only.
func (s *CachedIndexStore) Load(ctx context.Context, documentID string) (*domain.DocumentIndex, error) {
	s.mu.RLock()
	idx, ok := s.cache[documentID]
	s.mu.RUnlock()
	if ok {
		return idx, nil
	}

	idx, err := s.backing.Load(ctx, documentID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.cache[documentID]; ok {
		idx = existing
	} else {
		s.cache[documentID] = idx
	}
	s.mu.Unlock()
	return idx, nil
}

// Exists checks the cache, then the backing store.
func (s *CachedIndexStore) Exists(ctx context.Context, documentID string) (bool, error) {
	s.mu.RLock()
	_, ok := s.cache[documentID]
	s.mu.RUnlock()
	if ok {
		return true, nil
	}
	return s.backing.Exists(ctx, documentID)
}

// List delegates to the backing store.
func (s *CachedIndexStore) List(ctx context.Context) ([]domain.IndexSummary, error) {
	return s.backing.List(ctx)
}

// Delete removes the index from both the cache and the backing store.
func (s *CachedIndexStore) Delete(ctx context.Context, documentID string) error {
	s.mu.Lock()
	delete(s.cache, documentID)
	s.mu.Unlock()
	return s.backing.Delete(ctx, documentID)
}

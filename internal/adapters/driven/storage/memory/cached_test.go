package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragextract/internal/core/domain"
)

// countingIndexStore counts loads that reach the backing store.
type countingIndexStore struct {
	*IndexStore
	loads int
}

func (s *countingIndexStore) Load(ctx context.Context, id string) (*domain.DocumentIndex, error) {
	s.loads++
	return s.IndexStore.Load(ctx, id)
}

func TestCachedIndexStore_LoadsOnce(t *testing.T) {
	backing := &countingIndexStore{IndexStore: NewIndexStore()}
	ctx := context.Background()
	require.NoError(t, backing.Save(ctx, testIndex("doc-1", time.Now())))

	cached := NewCachedIndexStore(backing)

	first, err := cached.Load(ctx, "doc-1")
	require.NoError(t, err)
	second, err := cached.Load(ctx, "doc-1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, backing.loads)
}

func TestCachedIndexStore_MissPropagatesNotFound(t *testing.T) {
	cached := NewCachedIndexStore(NewIndexStore())

	_, err := cached.Load(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestCachedIndexStore_SaveWritesThrough(t *testing.T) {
	backing := &countingIndexStore{IndexStore: NewIndexStore()}
	cached := NewCachedIndexStore(backing)
	ctx := context.Background()

	require.NoError(t, cached.Save(ctx, testIndex("doc-1", time.Now())))

	ok, err := backing.Exists(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = cached.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 0, backing.loads)
}

func TestCachedIndexStore_Delete(t *testing.T) {
	backing := &countingIndexStore{IndexStore: NewIndexStore()}
	cached := NewCachedIndexStore(backing)
	ctx := context.Background()
	require.NoError(t, cached.Save(ctx, testIndex("doc-1", time.Now())))

	require.NoError(t, cached.Delete(ctx, "doc-1"))
	_, err := cached.Load(ctx, "doc-1")
	require.ErrorIs(t, err, domain.ErrIndexNotFound)

	ok, err := cached.Exists(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := cached.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragextract/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func testIndex(documentID string, createdAt time.Time) *domain.DocumentIndex {
	return &domain.DocumentIndex{
		DocumentID:     documentID,
		Filename:       documentID + ".pdf",
		EmbeddingModel: "nomic-embed-text",
		Dimensions:     3,
		CreatedAt:      createdAt,
		Chunks: []domain.Chunk{
			{ID: documentID + "-c0", DocumentID: documentID, Position: 0, Page: domain.IntPtr(0), Content: "Invoice 42", Embedding: []float32{1, 0, 0.5}},
			{ID: documentID + "-c1", DocumentID: documentID, Position: 1, Page: domain.IntPtr(1), Content: "Total: 100 EUR", Embedding: []float32{0, 1, -0.25}},
			{ID: documentID + "-c2", DocumentID: documentID, Position: 2, Content: "no page", Embedding: []float32{0, 0, 1}},
		},
	}
}

// ==================== Store Creation Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, dbFileName), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_MigrationsRecordedOnce(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// Reopening must not re-run migrations.
	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var versions int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 2, versions)
}

func TestFloat32Conversion(t *testing.T) {
	in := []float32{1.5, -2.25, 0, 3.4028235e38}

	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}

// ==================== Index Store Tests ====================

func TestIndexStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).IndexStore()
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, testIndex("doc-1", created)))

	loaded, err := store.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1.pdf", loaded.Filename)
	assert.Equal(t, "nomic-embed-text", loaded.EmbeddingModel)
	assert.Equal(t, 3, loaded.Dimensions)
	assert.True(t, created.Equal(loaded.CreatedAt))
	require.Len(t, loaded.Chunks, 3)
	assert.Equal(t, "Total: 100 EUR", loaded.Chunks[1].Content)
	assert.Equal(t, []float32{0, 1, -0.25}, loaded.Chunks[1].Embedding)
	require.NotNil(t, loaded.Chunks[1].Page)
	assert.Equal(t, 1, *loaded.Chunks[1].Page)
	assert.Nil(t, loaded.Chunks[2].Page)
	assert.Equal(t, "doc-1", loaded.Chunks[2].DocumentID)
}

func TestIndexStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).IndexStore()

	require.NoError(t, store.Save(ctx, testIndex("doc-1", time.Now())))

	replacement := testIndex("doc-1", time.Now())
	replacement.Chunks = replacement.Chunks[:1]
	replacement.Chunks[0].ID = "new-chunk"
	require.NoError(t, store.Save(ctx, replacement))

	loaded, err := store.Load(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, loaded.Chunks, 1)
	assert.Equal(t, "new-chunk", loaded.Chunks[0].ID)
}

func TestIndexStore_Load_NotFound(t *testing.T) {
	store := setupTestStore(t).IndexStore()

	_, err := store.Load(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestIndexStore_Save_RequiresDocumentID(t *testing.T) {
	store := setupTestStore(t).IndexStore()

	err := store.Save(context.Background(), &domain.DocumentIndex{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexStore_ListExistsDelete(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).IndexStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, testIndex("older", base)))
	require.NoError(t, store.Save(ctx, testIndex("newer", base.Add(time.Hour))))

	summaries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "newer", summaries[0].DocumentID)
	assert.Equal(t, 3, summaries[0].ChunkCount)

	exists, err := store.Exists(ctx, "older")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, "older"))
	require.NoError(t, store.Delete(ctx, "older"))

	exists, err = store.Exists(ctx, "older")
	require.NoError(t, err)
	assert.False(t, exists)

	summaries, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestIndexStore_Delete_CascadesChunks(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	require.NoError(t, s.IndexStore().Save(ctx, testIndex("doc-1", time.Now())))
	require.NoError(t, s.IndexStore().Delete(ctx, "doc-1"))

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n))
	assert.Zero(t, n)
}

// ==================== Schema Store Tests ====================

func TestSchemaStore_SaveGetPreservesFieldOrder(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).SchemaStore()
	schema := &domain.ExtractionSchema{
		Name:        "invoice",
		Description: "Supplier invoices",
		Fields: []domain.ExtractionField{
			{Name: "total", Description: "Grand total", Type: domain.FieldTypeNumber},
			{Name: "date", Description: "Issue date", Type: domain.FieldTypeDate, Required: true},
			{Name: "supplier", Description: "Supplier name", Type: domain.FieldTypeString},
		},
	}

	require.NoError(t, store.Save(ctx, schema))

	got, err := store.Get(ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, schema, got)
}

func TestSchemaStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).SchemaStore()

	require.NoError(t, store.Save(ctx, &domain.ExtractionSchema{Name: "s", Fields: []domain.ExtractionField{{Name: "a"}}}))
	require.NoError(t, store.Save(ctx, &domain.ExtractionSchema{Name: "s", Fields: []domain.ExtractionField{{Name: "b"}}}))

	got, err := store.Get(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got.Fields, 1)
	assert.Equal(t, "b", got.Fields[0].Name)
}

func TestSchemaStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).SchemaStore()

	for _, name := range []string{"zeta", "alpha"} {
		require.NoError(t, store.Save(ctx, &domain.ExtractionSchema{Name: name, Fields: []domain.ExtractionField{{Name: "f"}}}))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)

	require.NoError(t, store.Delete(ctx, "alpha"))
	assert.ErrorIs(t, store.Delete(ctx, "alpha"), domain.ErrSchemaNotFound)

	_, err = store.Get(ctx, "alpha")
	assert.ErrorIs(t, err, domain.ErrSchemaNotFound)
}

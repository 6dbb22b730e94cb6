package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// indexStore implements driven.IndexStore.
type indexStore struct {
	store *Store
}

var _ driven.IndexStore = (*indexStore)(nil)

// Save replaces the index and all chunks of a document in one transaction.
func (s *indexStore) Save(ctx context.Context, index *domain.DocumentIndex) error {
	if index == nil || index.DocumentID == "" {
		return fmt.Errorf("%w: index requires a document id", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	// Cascade removes the previous chunks.
	if _, err := tx.ExecContext(ctx, "DELETE FROM document_indexes WHERE document_id = ?", index.DocumentID); err != nil {
		return fmt.Errorf("deleting previous index: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_indexes (document_id, filename, embedding_model, dimensions, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		index.DocumentID, index.Filename, index.EmbeddingModel, index.Dimensions,
		index.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, position, page, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range index.Chunks {
		var page sql.NullInt64
		if chunk.Page != nil {
			page = sql.NullInt64{Int64: int64(*chunk.Page), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, chunk.ID, index.DocumentID, chunk.Position, page,
			chunk.Content, float32SliceToBytes(chunk.Embedding)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load retrieves an index with its chunks in position order.
func (s *indexStore) Load(ctx context.Context, documentID string) (*domain.DocumentIndex, error) {
	var (
		index     domain.DocumentIndex
		createdAt string
	)
	err := s.store.db.QueryRowContext(ctx, `
		SELECT document_id, filename, embedding_model, dimensions, created_at
		FROM document_indexes WHERE document_id = ?`, documentID,
	).Scan(&index.DocumentID, &index.Filename, &index.EmbeddingModel, &index.Dimensions, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrIndexNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	index.CreatedAt = parseTime(createdAt)

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, position, page, content, embedding
		FROM chunks WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			chunk     domain.Chunk
			page      sql.NullInt64
			embedding []byte
		)
		if err := rows.Scan(&chunk.ID, &chunk.Position, &page, &chunk.Content, &embedding); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.DocumentID = documentID
		if page.Valid {
			chunk.Page = domain.IntPtr(int(page.Int64))
		}
		chunk.Embedding = bytesToFloat32Slice(embedding)
		index.Chunks = append(index.Chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return &index, nil
}

// Exists reports whether an index is stored for the document.
func (s *indexStore) Exists(ctx context.Context, documentID string) (bool, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM document_indexes WHERE document_id = ?", documentID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking index: %w", err)
	}
	return n > 0, nil
}

// List returns summaries of all stored indexes, newest first.
func (s *indexStore) List(ctx context.Context) ([]domain.IndexSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT i.document_id, i.filename, i.embedding_model, i.created_at,
			(SELECT COUNT(*) FROM chunks c WHERE c.document_id = i.document_id)
		FROM document_indexes i
		ORDER BY i.created_at DESC, i.document_id`)
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	defer rows.Close()

	result := []domain.IndexSummary{}
	for rows.Next() {
		var (
			summary   domain.IndexSummary
			createdAt string
		)
		if err := rows.Scan(&summary.DocumentID, &summary.Filename, &summary.EmbeddingModel,
			&createdAt, &summary.ChunkCount); err != nil {
			return nil, fmt.Errorf("scanning index: %w", err)
		}
		summary.CreatedAt = parseTime(createdAt)
		result = append(result, summary)
	}
	return result, rows.Err()
}

// Delete removes an index and its chunks.
func (s *indexStore) Delete(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM document_indexes WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting index: %w", err)
	}
	return nil
}

// timeLayout is a fixed-width UTC layout so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// parseTime parses a stored timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

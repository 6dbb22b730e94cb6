// Package postgres provides a PostgreSQL implementation of driven.IndexStore.
// Chunk embeddings are stored in a pgvector column, so the vector extension
// must be available on the server.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

const schemaSQL = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS document_indexes (
	document_id     TEXT PRIMARY KEY,
	filename        TEXT NOT NULL,
	embedding_model TEXT NOT NULL,
	dimensions      INTEGER NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS document_chunks (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES document_indexes(document_id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	page        INTEGER,
	content     TEXT NOT NULL,
	embedding   vector
);

CREATE INDEX IF NOT EXISTS idx_document_chunks_document
	ON document_chunks(document_id, position);
`

// IndexStore persists document indexes in PostgreSQL.
type IndexStore struct {
	db *sqlx.DB
}

type indexRow struct {
	DocumentID     string    `db:"document_id"`
	Filename       string    `db:"filename"`
	EmbeddingModel string    `db:"embedding_model"`
	Dimensions     int       `db:"dimensions"`
	CreatedAt      time.Time `db:"created_at"`
}

type chunkRow struct {
	ID        string          `db:"id"`
	Position  int             `db:"position"`
	Page      sql.NullInt64   `db:"page"`
	Content   string          `db:"content"`
	Embedding pgvector.Vector `db:"embedding"`
}

type summaryRow struct {
	DocumentID     string    `db:"document_id"`
	Filename       string    `db:"filename"`
	EmbeddingModel string    `db:"embedding_model"`
	CreatedAt      time.Time `db:"created_at"`
	ChunkCount     int       `db:"chunk_count"`
}

// Connect opens a connection pool for the DSN and creates the tables.
func Connect(ctx context.Context, dsn string) (*IndexStore, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &IndexStore{db: db}, nil
}

// Save replaces the index and all chunks of a document in one transaction.
func (s *IndexStore) Save(ctx context.Context, index *domain.DocumentIndex) error {
	if index == nil || index.DocumentID == "" {
		return fmt.Errorf("%w: index requires a document id", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_indexes WHERE document_id = $1`, index.DocumentID); err != nil {
		return fmt.Errorf("deleting previous index: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_indexes (document_id, filename, embedding_model, dimensions, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		index.DocumentID, index.Filename, index.EmbeddingModel, index.Dimensions, index.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO document_chunks (id, document_id, position, page, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)`)
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
			chunk.Content, pgvector.NewVector(chunk.Embedding)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load retrieves an index with its chunks in position order.
func (s *IndexStore) Load(ctx context.Context, documentID string) (*domain.DocumentIndex, error) {
	var row indexRow
	err := s.db.GetContext(ctx, &row, `
		SELECT document_id, filename, embedding_model, dimensions, created_at
		FROM document_indexes WHERE document_id = $1`, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrIndexNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}

	var chunks []chunkRow
	if err := s.db.SelectContext(ctx, &chunks, `
		SELECT id, position, page, content, embedding
		FROM document_chunks WHERE document_id = $1 ORDER BY position`, documentID); err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	index := &domain.DocumentIndex{
		DocumentID:     row.DocumentID,
		Filename:       row.Filename,
		EmbeddingModel: row.EmbeddingModel,
		Dimensions:     row.Dimensions,
		CreatedAt:      row.CreatedAt.UTC(),
		Chunks:         make([]domain.Chunk, len(chunks)),
	}
	for i, c := range chunks {
		chunk := domain.Chunk{
			ID:         c.ID,
			DocumentID: documentID,
			Content:    c.Content,
			Position:   c.Position,
			Embedding:  c.Embedding.Slice(),
		}
		if c.Page.Valid {
			chunk.Page = domain.IntPtr(int(c.Page.Int64))
		}
		index.Chunks[i] = chunk
	}
	return index, nil
}

// Exists reports whether an index is stored for the document.
func (s *IndexStore) Exists(ctx context.Context, documentID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM document_indexes WHERE document_id = $1)`, documentID)
	if err != nil {
		return false, fmt.Errorf("checking index: %w", err)
	}
	return exists, nil
}

// List returns summaries of all stored indexes, newest first.
func (s *IndexStore) List(ctx context.Context) ([]domain.IndexSummary, error) {
	var rows []summaryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT i.document_id, i.filename, i.embedding_model, i.created_at,
			(SELECT COUNT(*) FROM document_chunks c WHERE c.document_id = i.document_id) AS chunk_count
		FROM document_indexes i
		ORDER BY i.created_at DESC, i.document_id`)
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}

	result := make([]domain.IndexSummary, len(rows))
	for i, r := range rows {
		result[i] = domain.IndexSummary{
			DocumentID:     r.DocumentID,
			Filename:       r.Filename,
			EmbeddingModel: r.EmbeddingModel,
			CreatedAt:      r.CreatedAt.UTC(),
			ChunkCount:     r.ChunkCount,
		}
	}
	return result, nil
}

// Delete removes an index and its chunks.
func (s *IndexStore) Delete(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM document_indexes WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("deleting index: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *IndexStore) Close() error {
	return s.db.Close()
}

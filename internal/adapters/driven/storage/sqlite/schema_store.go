package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// schemaStore implements driven.SchemaStore. Fields are stored as a JSON
// array so their order is preserved.
type schemaStore struct {
	store *Store
}

var _ driven.SchemaStore = (*schemaStore)(nil)

// Save stores a schema. Last write wins.
func (s *schemaStore) Save(ctx context.Context, schema *domain.ExtractionSchema) error {
	fieldsJSON, err := json.Marshal(schema.Fields)
	if err != nil {
		return fmt.Errorf("marshalling fields: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO extraction_schemas (name, description, fields, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			fields = excluded.fields,
			updated_at = excluded.updated_at`,
		schema.Name, schema.Description, string(fieldsJSON), time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("saving schema: %w", err)
	}
	return nil
}

// Get retrieves a schema by name.
func (s *schemaStore) Get(ctx context.Context, name string) (*domain.ExtractionSchema, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT name, description, fields FROM extraction_schemas WHERE name = ?", name)

	schema, err := scanSchema(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSchemaNotFound
	}
	if err != nil {
		return nil, err
	}
	return schema, nil
}

// List returns all schemas ordered by name.
func (s *schemaStore) List(ctx context.Context) ([]domain.ExtractionSchema, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT name, description, fields FROM extraction_schemas ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing schemas: %w", err)
	}
	defer rows.Close()

	result := []domain.ExtractionSchema{}
	for rows.Next() {
		schema, err := scanSchema(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *schema)
	}
	return result, rows.Err()
}

// Delete removes a schema.
func (s *schemaStore) Delete(ctx context.Context, name string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM extraction_schemas WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting schema: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting schema: %w", err)
	}
	if n == 0 {
		return domain.ErrSchemaNotFound
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchema(row rowScanner) (*domain.ExtractionSchema, error) {
	var (
		schema     domain.ExtractionSchema
		fieldsJSON string
	)
	if err := row.Scan(&schema.Name, &schema.Description, &fieldsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning schema: %w", err)
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &schema.Fields); err != nil {
		return nil, fmt.Errorf("unmarshalling fields for %s: %w", schema.Name, err)
	}
	return &schema, nil
}

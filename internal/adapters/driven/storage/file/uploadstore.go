// Package file provides filesystem-backed storage for uploaded documents.
package file

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// Ensure UploadStore implements the interface.
var _ driven.UploadStore = (*UploadStore)(nil)

// UploadStore keeps uploaded bytes under <dir>/<document_id>.<ext>.
type UploadStore struct {
	dir string
}

// NewUploadStore creates an upload store.
// If dir is empty, defaults to ~/.ragextract/data/uploads.
func NewUploadStore(dir string) (*UploadStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".ragextract", "data", "uploads")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &UploadStore{dir: dir}, nil
}

// Put writes the bytes for a document, replacing any previous upload.
// The write goes through a temporary file so readers never see a partial upload.
func (s *UploadStore) Put(_ context.Context, documentID string, content []byte) (string, error) {
	if err := validateID(documentID); err != nil {
		return "", err
	}
	if err := s.remove(documentID); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, documentID+extension(content))
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating upload: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("storing upload: %w", err)
	}
	return path, nil
}

// Get returns the stored bytes for a document.
func (s *UploadStore) Get(_ context.Context, documentID string) ([]byte, error) {
	if err := validateID(documentID); err != nil {
		return nil, err
	}
	path, err := s.find(documentID)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("upload %s: %w", documentID, domain.ErrNotFound)
	}
	return os.ReadFile(path)
}

// Dir returns the directory uploads are stored in.
func (s *UploadStore) Dir() string {
	return s.dir
}

func (s *UploadStore) find(documentID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, documentID+".*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0], nil
}

func (s *UploadStore) remove(documentID string) error {
	path, err := s.find(documentID)
	if err != nil || path == "" {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replacing upload: %w", err)
	}
	return nil
}

// validateID rejects IDs that would escape the upload directory or match
// other uploads through glob metacharacters.
func validateID(documentID string) error {
	if documentID == "" || strings.ContainsAny(documentID, `/\*?[]`) || strings.Contains(documentID, "..") {
		return fmt.Errorf("%w: document id %q", domain.ErrInvalidInput, documentID)
	}
	return nil
}

func extension(content []byte) string {
	if bytes.HasPrefix(content, []byte("%PDF-")) {
		return ".pdf"
	}
	return ".txt"
}

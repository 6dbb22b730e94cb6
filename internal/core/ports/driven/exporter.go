package driven

import (
	"io"

	"github.com/custodia-labs/ragextract/internal/core/domain"
)

// ResultExporter writes extraction results in a file format.
type ResultExporter interface {
	// Format returns the format name (e.g., "xlsx").
	Format() string

	// Export writes the results to w.
	Export(w io.Writer, results []*domain.ExtractionResult) error
}

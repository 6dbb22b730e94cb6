package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// Ensure JSONExporter implements the interface.
var _ driven.ResultExporter = (*JSONExporter)(nil)

// JSONExporter writes results as indented JSON. A single result is written
// as an object, several as an array.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Format returns "json".
func (e *JSONExporter) Format() string {
	return "json"
}

// Export writes the results to w.
func (e *JSONExporter) Export(w io.Writer, results []*domain.ExtractionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	var v any = results
	if len(results) == 1 {
		v = results[0]
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json write: %w", err)
	}
	return nil
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string) (driven.ResultExporter, error) {
	switch format {
	case "json":
		return NewJSONExporter(), nil
	case "xlsx":
		return NewXLSXExporter(), nil
	default:
		return nil, fmt.Errorf("%w: export format %q", domain.ErrUnsupportedType, format)
	}
}

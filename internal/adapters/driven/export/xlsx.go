// Package export writes extraction results to files.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// Ensure XLSXExporter implements the interface.
var _ driven.ResultExporter = (*XLSXExporter)(nil)

// SheetName is the worksheet results are written to.
const SheetName = "Extractions"

// snippetCellLimit keeps snippet cells readable in a spreadsheet.
const snippetCellLimit = 200

var xlsxHeaders = []string{
	"Document",
	"Schema",
	"Field",
	"Value",
	"Confidence",
	"Pages",
	"Snippet",
	"Justification",
}

// XLSXExporter writes one row per extracted field.
type XLSXExporter struct{}

// NewXLSXExporter creates an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Format returns "xlsx".
func (e *XLSXExporter) Format() string {
	return "xlsx"
}

// Export writes a workbook with a header row followed by every field of
// every result, in result and field order.
func (e *XLSXExporter) Export(w io.Writer, results []*domain.ExtractionResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}

	row := 2
	for _, result := range results {
		if result == nil {
			continue
		}
		for _, field := range result.Fields {
			values := []any{
				result.DocumentID,
				result.SchemaName,
				field.Name,
				deref(field.Value),
				field.Confidence,
				pages(field.Sources),
				firstSnippet(field.Sources),
				deref(field.Justification),
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(SheetName, cell, v); err != nil {
					return fmt.Errorf("xlsx row %d: %w", row, err)
				}
			}
			row++
		}
	}

	_ = f.SetColWidth(SheetName, "A", "B", 24) // document, schema
	_ = f.SetColWidth(SheetName, "C", "C", 20) // field
	_ = f.SetColWidth(SheetName, "D", "D", 32) // value
	_ = f.SetColWidth(SheetName, "E", "F", 12) // confidence, pages
	_ = f.SetColWidth(SheetName, "G", "H", 60) // snippet, justification

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// pages lists the distinct 1-based page numbers of the sources, in order.
func pages(sources []domain.SourceSpan) string {
	seen := make(map[int]bool)
	var out []string
	for _, s := range sources {
		if s.Page == nil || seen[*s.Page] {
			continue
		}
		seen[*s.Page] = true
		out = append(out, strconv.Itoa(*s.Page+1))
	}
	return strings.Join(out, ", ")
}

func firstSnippet(sources []domain.SourceSpan) string {
	if len(sources) == 0 {
		return ""
	}
	s := []rune(sources[0].TextSnippet)
	if len(s) <= snippetCellLimit {
		return string(s)
	}
	return string(s[:snippetCellLimit-1]) + "…"
}

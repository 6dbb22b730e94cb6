package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/ragextract/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func testResult() *domain.ExtractionResult {
	return &domain.ExtractionResult{
		DocumentID: "doc-1",
		SchemaName: "invoice",
		Fields: []domain.FieldResult{
			{
				Name:       "total",
				Value:      strPtr("100.00"),
				Confidence: 0.9,
				Sources: []domain.SourceSpan{
					{Page: domain.IntPtr(1), TextSnippet: "Total due 100.00"},
					{Page: domain.IntPtr(1), TextSnippet: "Subtotal"},
					{Page: domain.IntPtr(0), TextSnippet: "Invoice"},
				},
				Justification: strPtr("stated on page 2"),
			},
			{Name: "po_number", Confidence: 0.1},
		},
	}
}

func TestXLSXExporter_Export(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewXLSXExporter().Export(&buf, []*domain.ExtractionResult{testResult()}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, xlsxHeaders, rows[0])
	assert.Equal(t, []string{"doc-1", "invoice", "total", "100.00", "0.9", "2, 1", "Total due 100.00", "stated on page 2"}, rows[1])
	// Trailing empty cells are omitted by GetRows.
	assert.Equal(t, []string{"doc-1", "invoice", "po_number", "", "0.1"}, rows[2])
}

func TestXLSXExporter_EmptyResults(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewXLSXExporter().Export(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFirstSnippet_Truncates(t *testing.T) {
	long := strings.Repeat("é", snippetCellLimit+10)

	got := firstSnippet([]domain.SourceSpan{{TextSnippet: long}})

	assert.Equal(t, snippetCellLimit, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestJSONExporter_SingleResultIsObject(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewJSONExporter().Export(&buf, []*domain.ExtractionResult{testResult()}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "doc-1", decoded["document_id"])
	fields := decoded["fields"].([]any)
	assert.Nil(t, fields[1].(map[string]any)["value"])
}

func TestJSONExporter_ManyResultsIsArray(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewJSONExporter().Export(&buf, []*domain.ExtractionResult{testResult(), testResult()}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 2)
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"xlsx", false},
		{"csv", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exp, err := ForFormat(tt.format)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.format, exp.Format())
		})
	}
}

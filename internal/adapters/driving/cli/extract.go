package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragextract/internal/adapters/driven/export"
	"github.com/custodia-labs/ragextract/internal/core/domain"
)

var (
	extractFormat      string
	extractOutput      string
	extractShowSources bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [document-id] [schema|schema-file]",
	Short: "Extract schema fields from an indexed document",
	Long: `Extracts every field of a registered schema from an ingested document.

For each field the most relevant passages are retrieved and the language
model is asked for a value, a confidence between 0 and 1 and a short
justification. Fields that are not present in the document have no value.

The schema is a registered schema name or a .json/.toml schema file, which
is registered before extraction.

Output formats:
  table - human readable (default)
  json  - the full result including sources
  xlsx  - a spreadsheet, one row per field (requires --out)`,
	Args: cobra.ExactArgs(2),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "table", "output format: table, json, xlsx")
	extractCmd.Flags().StringVarP(&extractOutput, "out", "o", "", "write the result to a file instead of stdout")
	extractCmd.Flags().BoolVar(&extractShowSources, "sources", false, "show source passages in table output")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractionService == nil {
		return errors.New("extraction service not configured")
	}
	if extractFormat == "xlsx" && extractOutput == "" {
		return errors.New("xlsx output requires --out")
	}

	schemaName, err := resolveSchema(cmd.Context(), args[1])
	if err != nil {
		return err
	}

	result, err := extractionService.Extract(cmd.Context(), args[0], schemaName)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if extractFormat == "table" {
		if extractOutput != "" {
			return errors.New("table output cannot be written to a file, use --format json or xlsx")
		}
		outputExtractTable(cmd, result)
		return nil
	}

	exporter, err := export.ForFormat(extractFormat)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if extractOutput != "" {
		f, err := os.Create(extractOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := exporter.Export(w, []*domain.ExtractionResult{result}); err != nil {
		return fmt.Errorf("failed to write %s output: %w", exporter.Format(), err)
	}
	if extractOutput != "" {
		cmd.Printf("Wrote %s\n", extractOutput)
	}
	return nil
}

func outputExtractTable(cmd *cobra.Command, result *domain.ExtractionResult) {
	p := newPainter(cmd.OutOrStdout())
	cmd.Printf("%s %s %s\n\n", p.title("Extraction:"), result.DocumentID, p.muted("("+result.SchemaName+")"))

	width := 0
	for _, f := range result.Fields {
		width = max(width, len(f.Name))
	}

	for _, f := range result.Fields {
		name := f.Name + strings.Repeat(" ", width-len(f.Name))
		cmd.Printf("  %s  %s  %s\n", p.label(name), p.confidence(f.Confidence), p.value(f.Value))
		if f.Justification != nil && *f.Justification != "" {
			cmd.Printf("  %s  %s\n", strings.Repeat(" ", width+4), p.muted(*f.Justification))
		}
		if extractShowSources {
			for _, s := range f.Sources {
				cmd.Printf("  %s  %s %s\n", strings.Repeat(" ", width+4),
					p.muted("["+pageLabel(s.Page)+"]"), preview(s.TextSnippet, 100))
			}
		}
	}
}

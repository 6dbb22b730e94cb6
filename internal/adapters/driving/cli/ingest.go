package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragextract/internal/connectors/filesystem"
	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/normalisers/pdf"
)

var (
	ingestDocumentID string
	ingestNameAsID   bool
	ingestJSON       bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Index documents for extraction",
	Long: `Reads each file, splits it into chunks, embeds the chunks and stores the
resulting index. The printed document ID is what extract expects.

Re-ingesting with the same ID replaces the previous index.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDocumentID, "id", "", "document ID (single file only; generated when empty)")
	ingestCmd.Flags().BoolVar(&ingestNameAsID, "name-as-id", false, "use the file name without extension as the document ID")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output index summaries as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if ingestDocumentID != "" && len(args) > 1 {
		return errors.New("--id can only be used with a single file")
	}

	ctx := cmd.Context()
	p := newPainter(cmd.OutOrStdout())
	summaries := make([]domain.IndexSummary, 0, len(args))

	for _, path := range args {
		raw, err := filesystem.Load(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		documentID := ingestDocumentID
		if ingestNameAsID {
			documentID = filesystem.DocumentID(path)
		}

		index, err := ingestService.Ingest(ctx, raw, documentID)
		if errors.Is(err, pdf.ErrPDFToolNotFound) {
			return fmt.Errorf("failed to ingest %s: %w\n\n%s", path, err, pdf.InstallInstructions())
		}
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}

		summary := index.Summary()
		summaries = append(summaries, summary)
		if !ingestJSON {
			cmd.Printf("Indexed %s as %s %s\n", summary.Filename, p.label(summary.DocumentID),
				p.muted(fmt.Sprintf("(%d chunks, %s)", summary.ChunkCount, summary.EmbeddingModel)))
		}
	}

	if ingestJSON {
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summaries: %w", err)
		}
		cmd.Println(string(data))
	}
	return nil
}

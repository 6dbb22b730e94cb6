package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragextract/internal/adapters/driven/export"
	"github.com/custodia-labs/ragextract/internal/connectors/filesystem"
	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/logger"
)

var (
	watchSchema string
	watchOutDir string
	watchPrune  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Ingest documents as they appear in a directory",
	Long: `Watches a directory and ingests every new or modified document. The file
name without extension becomes the document ID, so re-saving a file
replaces its index.

With --schema each ingested document is also extracted and the result
written as <document-id>.json to --out (default: the watched directory).

Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchSchema, "schema", "s", "", "schema name or file to extract after each ingest")
	watchCmd.Flags().StringVarP(&watchOutDir, "out", "o", "", "directory for extraction results")
	watchCmd.Flags().BoolVar(&watchPrune, "prune", false, "delete the index when a file is removed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if watchSchema != "" {
		if extractionService == nil {
			return errors.New("extraction service not configured")
		}
		name, err := resolveSchema(cmd.Context(), watchSchema)
		if err != nil {
			return err
		}
		watchSchema = name
		if schemaService != nil {
			if _, err := schemaService.Get(cmd.Context(), watchSchema); err != nil {
				return fmt.Errorf("failed to get schema: %w", err)
			}
		}
	}

	dir := args[0]
	outDir := watchOutDir
	if outDir == "" {
		outDir = dir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := filesystem.NewWatcher(dir, watchMIMETypes...)
	defer w.Close()

	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	for change := range changes {
		if err := handleChange(ctx, cmd, change, outDir); err != nil {
			logger.Warn("%s: %v", change.Path, err)
			cmd.PrintErrf("Error: %s: %v\n", filepath.Base(change.Path), err)
		}
	}
	return nil
}

// handleChange ingests, extracts or prunes for one file change.
func handleChange(ctx context.Context, cmd *cobra.Command, change filesystem.Change, outDir string) error {
	documentID := filesystem.DocumentID(change.Path)

	if change.Type == filesystem.ChangeDeleted {
		if !watchPrune {
			return nil
		}
		err := ingestService.DeleteIndex(ctx, documentID)
		if err != nil && !domain.IsNotFound(err) {
			return fmt.Errorf("failed to delete index: %w", err)
		}
		cmd.Printf("Removed %s\n", documentID)
		return nil
	}

	index, err := ingestService.Ingest(ctx, change.Document, documentID)
	if err != nil {
		return fmt.Errorf("failed to ingest: %w", err)
	}
	cmd.Printf("Indexed %s (%d chunks)\n", index.DocumentID, len(index.Chunks))

	if watchSchema == "" {
		return nil
	}

	result, err := extractionService.Extract(ctx, index.DocumentID, watchSchema)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	path := filepath.Join(outDir, index.DocumentID+".json")
	if err := writeResultFile(path, result); err != nil {
		return err
	}
	cmd.Printf("Extracted %s -> %s\n", index.DocumentID, path)
	return nil
}

func writeResultFile(path string, result *domain.ExtractionResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	defer f.Close()

	if err := export.NewJSONExporter().Export(f, []*domain.ExtractionResult{result}); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}

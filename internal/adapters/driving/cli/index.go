package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage document indexes",
	Long:  `List, inspect or delete the stored indexes of ingested documents.`,
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runIndexList,
}

var indexShowCmd = &cobra.Command{
	Use:   "show [document-id]",
	Short: "Show an index and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexShow,
}

var indexDeleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Delete an index",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexDelete,
}

var (
	indexListJSON  bool
	indexShowLimit int
)

// chunkPreviewLength caps chunk text printed by index show.
const chunkPreviewLength = 120

func init() {
	indexListCmd.Flags().BoolVar(&indexListJSON, "json", false, "output as JSON")
	indexShowCmd.Flags().IntVarP(&indexShowLimit, "chunks", "n", 5, "number of chunks to preview (0 for all)")

	indexCmd.AddCommand(indexListCmd)
	indexCmd.AddCommand(indexShowCmd)
	indexCmd.AddCommand(indexDeleteCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexList(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	summaries, err := ingestService.ListIndexes(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}

	if indexListJSON {
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal indexes: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(summaries) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	p := newPainter(cmd.OutOrStdout())
	cmd.Println(p.title("Indexed documents:"))
	cmd.Println()
	for _, s := range summaries {
		cmd.Printf("  %s\n", p.label(s.DocumentID))
		cmd.Printf("    File:    %s\n", s.Filename)
		cmd.Printf("    Chunks:  %d\n", s.ChunkCount)
		cmd.Printf("    Model:   %s\n", s.EmbeddingModel)
		cmd.Printf("    Created: %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		cmd.Println()
	}
	cmd.Printf("Total: %d documents\n", len(summaries))
	return nil
}

func runIndexShow(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	index, err := ingestService.LoadIndex(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	p := newPainter(cmd.OutOrStdout())
	cmd.Printf("%s %s\n\n", p.title("Document:"), index.DocumentID)
	cmd.Printf("  File:       %s\n", index.Filename)
	cmd.Printf("  Model:      %s\n", index.EmbeddingModel)
	cmd.Printf("  Dimensions: %d\n", index.Dimensions)
	cmd.Printf("  Chunks:     %d\n", len(index.Chunks))
	cmd.Printf("  Created:    %s\n", index.CreatedAt.Local().Format("2006-01-02 15:04:05"))

	limit := indexShowLimit
	if limit <= 0 || limit > len(index.Chunks) {
		limit = len(index.Chunks)
	}
	if limit > 0 {
		cmd.Println()
	}
	for _, c := range index.Chunks[:limit] {
		cmd.Printf("  [%d] %s %s\n", c.Position, p.muted(pageLabel(c.Page)), preview(c.Content, chunkPreviewLength))
	}
	if limit < len(index.Chunks) {
		cmd.Printf("  ... %d more\n", len(index.Chunks)-limit)
	}
	return nil
}

func runIndexDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.DeleteIndex(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	cmd.Printf("Deleted index %s\n", args[0])
	return nil
}

// pageLabel formats a zero-based page number for display.
func pageLabel(page *int) string {
	if page == nil {
		return "page ?"
	}
	return fmt.Sprintf("page %d", *page+1)
}

// preview collapses whitespace and truncates to n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragextract/internal/core/domain"
)

var queryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query [document-id] [question]",
	Short: "Show the passages retrieved for a question",
	Long: `Runs retrieval only: embeds the question and prints the chunks of the
document most similar to it. Useful to check what context a field
description will pull in before running extract.`,
	Args: cobra.ExactArgs(2),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	retriever, err := ingestService.Retriever(ctx, args[0])
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if c, ok := retriever.(io.Closer); ok {
		defer c.Close()
	}

	chunks, err := retriever.Query(ctx, args[1])
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, chunks)
	}
	return outputQueryTable(cmd, chunks)
}

func outputQueryJSON(cmd *cobra.Command, chunks []domain.Chunk) error {
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chunks: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryTable(cmd *cobra.Command, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	p := newPainter(cmd.OutOrStdout())
	cmd.Println(p.title("Results:"))
	cmd.Println()
	for i, c := range chunks {
		cmd.Printf("  [%d] %s\n", i+1, p.muted(pageLabel(c.Page)))
		cmd.Printf("      %s\n", preview(c.Content, 300))
		cmd.Println()
	}
	return nil
}

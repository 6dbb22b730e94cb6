package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragextract/internal/core/domain"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage extraction schemas",
	Long: `Register, inspect and delete extraction schemas.

A schema names the fields to extract. The field name and description together
form the retrieval question, so pick a readable name and describe what the
value looks like in the document.

Example (invoice.toml):

  name = "invoice"

  [[fields]]
  name = "total"
  description = "The total amount due, including tax"
  type = "number"

  [[fields]]
  name = "due_date"
  description = "The date payment is due"
  type = "date"`,
}

var schemaRegisterCmd = &cobra.Command{
	Use:   "register [file]",
	Short: "Register a schema from a JSON or TOML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchemaRegister,
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered schemas",
	Args:  cobra.NoArgs,
	RunE:  runSchemaList,
}

var schemaGetCmd = &cobra.Command{
	Use:   "get [name]",
	Short: "Show a schema as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchemaGet,
}

var schemaDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchemaDelete,
}

var schemaRegisterName string

// ephemeralSchemas is set when the schema store does not outlive the process.
var ephemeralSchemas bool

func init() {
	schemaRegisterCmd.Flags().StringVar(&schemaRegisterName, "name", "", "override the schema name from the file")

	schemaCmd.AddCommand(schemaRegisterCmd)
	schemaCmd.AddCommand(schemaListCmd)
	schemaCmd.AddCommand(schemaGetCmd)
	schemaCmd.AddCommand(schemaDeleteCmd)
	rootCmd.AddCommand(schemaCmd)
}

func runSchemaRegister(cmd *cobra.Command, args []string) error {
	if schemaService == nil {
		return errors.New("schema service not configured")
	}

	schema, err := readSchemaFile(args[0])
	if err != nil {
		return err
	}
	if schemaRegisterName != "" {
		schema.Name = schemaRegisterName
	}

	if err := schemaService.Register(cmd.Context(), *schema); err != nil {
		return fmt.Errorf("failed to register schema: %w", err)
	}

	cmd.Printf("Registered schema %s (%d fields)\n", schema.Name, len(schema.Fields))
	if ephemeralSchemas {
		cmd.PrintErrln("Warning: schemas.persist is off, the schema is forgotten when this command exits.")
		cmd.PrintErrln("Enable it with: ragextract settings set schemas.persist true")
	}
	return nil
}

// readSchemaFile decodes a schema from JSON, or TOML for .toml files.
func readSchemaFile(path string) (*domain.ExtractionSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var schema domain.ExtractionSchema
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &schema)
	default:
		err = json.Unmarshal(data, &schema)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", domain.ErrInvalidInput, filepath.Base(path), err)
	}
	return &schema, nil
}

// resolveSchema returns the schema name to extract with. An argument naming
// a .json or .toml file registers that file first, so one-off runs work
// without persisted schemas.
func resolveSchema(ctx context.Context, arg string) (string, error) {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".json", ".toml":
	default:
		return arg, nil
	}
	if _, err := os.Stat(arg); err != nil {
		return arg, nil
	}
	if schemaService == nil {
		return "", errors.New("schema service not configured")
	}

	schema, err := readSchemaFile(arg)
	if err != nil {
		return "", err
	}
	if err := schemaService.Register(ctx, *schema); err != nil {
		return "", fmt.Errorf("failed to register schema: %w", err)
	}
	return schema.Name, nil
}

func runSchemaList(cmd *cobra.Command, _ []string) error {
	if schemaService == nil {
		return errors.New("schema service not configured")
	}

	schemas, err := schemaService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list schemas: %w", err)
	}

	if len(schemas) == 0 {
		cmd.Println("No schemas registered.")
		return nil
	}

	p := newPainter(cmd.OutOrStdout())
	cmd.Println(p.title("Schemas:"))
	cmd.Println()
	for _, s := range schemas {
		cmd.Printf("  %s %s\n", p.label(s.Name), p.muted(fmt.Sprintf("(%d fields)", len(s.Fields))))
		if s.Description != "" {
			cmd.Printf("    %s\n", s.Description)
		}
		cmd.Printf("    Fields: %s\n", strings.Join(s.FieldNames(), ", "))
		cmd.Println()
	}
	return nil
}

func runSchemaGet(cmd *cobra.Command, args []string) error {
	if schemaService == nil {
		return errors.New("schema service not configured")
	}

	schema, err := schemaService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get schema: %w", err)
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func runSchemaDelete(cmd *cobra.Command, args []string) error {
	if schemaService == nil {
		return errors.New("schema service not configured")
	}

	if err := schemaService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}
	cmd.Printf("Deleted schema %s\n", args[0])
	return nil
}

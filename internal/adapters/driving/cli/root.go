// Package cli implements the ragextract command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driving"
	"github.com/custodia-labs/ragextract/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired by the composition root.
var (
	ingestService     driving.IngestService
	schemaService     driving.SchemaService
	extractionService driving.ExtractionService
	settingsService   driving.SettingsService

	// watchMIMETypes limits which files the watch command ingests.
	watchMIMETypes = []string{domain.MIMETypePDF}

	// settableKeys is listed by settings set when no key is given.
	settableKeys []string
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ragextract",
	Short: "Extract structured fields from PDF documents",
	Long: `ragextract indexes PDF documents and extracts named fields from them
using retrieval-augmented generation. Every extracted value carries a
confidence score and the passages it was taken from.

  ragextract ingest invoice.pdf
  ragextract schema register invoice.json
  ragextract extract <document-id> invoice`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline stages to stderr")
}

// ServiceConfig holds the services the commands run against.
type ServiceConfig struct {
	Ingest     driving.IngestService
	Schema     driving.SchemaService
	Extraction driving.ExtractionService
	Settings   driving.SettingsService

	// WatchMIMETypes overrides the file types picked up by watch.
	WatchMIMETypes []string

	// SettableKeys are the config keys accepted by settings set.
	SettableKeys []string

	// EphemeralSchemas reports that registered schemas are lost on exit.
	EphemeralSchemas bool
}

// SetServices installs the services used by the commands.
func SetServices(cfg ServiceConfig) {
	ingestService = cfg.Ingest
	schemaService = cfg.Schema
	extractionService = cfg.Extraction
	settingsService = cfg.Settings
	settableKeys = cfg.SettableKeys
	ephemeralSchemas = cfg.EphemeralSchemas
	if len(cfg.WatchMIMETypes) > 0 {
		watchMIMETypes = cfg.WatchMIMETypes
	}
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

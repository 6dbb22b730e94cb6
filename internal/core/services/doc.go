// Package services implements the driving port interfaces.
// Services contain the extraction pipeline and orchestrate
// calls to driven ports (adapters).
//
// IngestService builds document indexes, SchemaService is the schema
// registry, and ExtractionService runs a FieldExtractor over every
// field of a schema.
package services

// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Embeds chunks at build time and questions at query time
//   - LLMService: Answers one field question with a structured reply
//   - VectorIndexFactory / VectorIndex: Similarity search over one document
//   - IndexStore: Durable chunks and embeddings per document
//   - SchemaStore: Registered extraction schemas
//   - NormaliserRegistry / Normaliser: PDF to page text
//   - PostProcessorPipeline: Page text to chunks
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - UploadStore: Keeps uploaded bytes. Ingestion works without it.
//   - PromptStore: Customisable prompts. Defaults are compiled in.
//   - ResultExporter: Writes results to files (xlsx).
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven

// Command ragextract indexes documents and extracts structured fields from
// them with retrieval-augmented generation.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragextract/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/ragextract/internal/adapters/driven/config/file"
	uploadfile "github.com/custodia-labs/ragextract/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/ragextract/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragextract/internal/adapters/driven/storage/postgres"
	redisstore "github.com/custodia-labs/ragextract/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/ragextract/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragextract/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/ragextract/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
	"github.com/custodia-labs/ragextract/internal/core/services"
	"github.com/custodia-labs/ragextract/internal/normalisers"
	"github.com/custodia-labs/ragextract/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

// envHome overrides the ~/.ragextract directory.
const envHome = "RAGEXTRACT_HOME"

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	ctx := context.Background()
	app, err := wire(ctx, os.Getenv(envHome))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer app.Close()

	cli.SetVersion(version)
	cli.SetServices(app.services)
	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}

// app owns every long-lived resource created at startup.
type app struct {
	services cli.ServiceConfig
	ai       *aiSession
	closers  []io.Closer
}

// Close releases provider clients and store connections.
func (a *app) Close() {
	if a.ai != nil {
		a.ai.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

// wire builds the services from persisted settings. Providers are connected
// lazily, so commands that never embed or prompt work without credentials.
func wire(ctx context.Context, home string) (*app, error) {
	var dataDir, uploadDir, promptDir string
	if home != "" {
		dataDir = filepath.Join(home, "data")
		uploadDir = filepath.Join(dataDir, "uploads")
		promptDir = filepath.Join(home, "prompts")
	}

	configStore, err := configfile.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	a := &app{}
	indexes, schemaStore, err := openStores(ctx, settings, dataDir, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	uploads, err := uploadfile.NewUploadStore(uploadDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open upload store: %w", err)
	}

	prompts, err := configfile.NewPromptStore(promptDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open prompt store: %w", err)
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := postprocessors.BuildPipeline(registry, domain.PipelineConfigFor(settings.Chunking))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build chunking pipeline: %w", err)
	}

	ingestConfig := services.IngestConfig{
		Normalisers: normalisers.NewDefaultRegistry(settings.Ingest.AcceptText),
		Pipeline:    pipeline,
		Indexes:     memory.NewCachedIndexStore(indexes),
		VectorIndex: flat.NewFactory(settings.Retrieval.Metric),
		Uploads:     uploads,
		TopK:        settings.Retrieval.TopK,
	}
	schemaService := services.NewSchemaService(schemaStore)
	ingest := services.NewIngestService(ingestConfig)

	a.ai = &aiSession{
		settings:  settings,
		ingestSvc: ingest,
		schemas:   schemaService,
		prompts:   prompts,
		connect:   ai.Initialise,
	}

	watchTypes := []string{domain.MIMETypePDF}
	if settings.Ingest.AcceptText {
		watchTypes = append(watchTypes, "text/plain", "text/markdown")
	}

	ingestService := &lazyIngestService{IngestService: ingest, ai: a.ai}
	a.services = cli.ServiceConfig{
		Ingest:           ingestService,
		Schema:           schemaService,
		Extraction:       &lazyExtractionService{indexes: ingestService, ai: a.ai},
		Settings:         settingsService,
		WatchMIMETypes:   watchTypes,
		SettableKeys:     services.SettableKeys(),
		EphemeralSchemas: !settings.Storage.PersistSchemas,
	}
	return a, nil
}

// openStores opens the index store for the configured backend and the
// schema store. Opened stores are registered with a for closing.
func openStores(
	ctx context.Context,
	settings *domain.AppSettings,
	dataDir string,
	a *app,
) (driven.IndexStore, driven.SchemaStore, error) {
	var sqliteStore *sqlite.Store
	openSQLite := func() (*sqlite.Store, error) {
		if sqliteStore != nil {
			return sqliteStore, nil
		}
		s, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, s)
		sqliteStore = s
		return s, nil
	}

	var indexes driven.IndexStore
	switch settings.Storage.Backend {
	case domain.StorageMemory:
		indexes = memory.NewIndexStore()
	case domain.StorageRedis:
		s, err := redisstore.NewIndexStore(ctx, redisstore.Config{
			Addr:     settings.Storage.RedisAddr,
			Password: settings.Storage.RedisPassword,
			DB:       settings.Storage.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, s)
		indexes = s
	case domain.StoragePostgres:
		if settings.Storage.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("%w: storage.postgres_dsn is required for the postgres backend", domain.ErrInvalidInput)
		}
		s, err := postgres.Connect(ctx, settings.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, s)
		indexes = s
	case domain.StorageSQLite, "":
		s, err := openSQLite()
		if err != nil {
			return nil, nil, err
		}
		indexes = s.IndexStore()
	default:
		return nil, nil, fmt.Errorf("%w: storage backend %q", domain.ErrUnsupportedType, settings.Storage.Backend)
	}

	if !settings.Storage.PersistSchemas {
		return indexes, memory.NewSchemaStore(), nil
	}
	s, err := openSQLite()
	if err != nil {
		return nil, nil, err
	}
	return indexes, s.SchemaStore(), nil
}

package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragextract/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragextract/internal/core/domain"
)

func noEnv(string) string { return "" }

func newTestSettingsService() (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	return NewSettingsService(store, nil).WithEnv(noEnv), store
}

func TestNewSettingsService(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service, _ := newTestSettingsService()

	settings, err := service.Get()

	require.NoError(t, err)
	require.NotNil(t, settings)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, "gpt-4.1-mini", settings.LLM.Model)
	assert.Zero(t, settings.LLM.Temperature)
	assert.Equal(t, 1000, settings.Chunking.ChunkSize)
	assert.Equal(t, 200, settings.Chunking.Overlap)
	assert.Equal(t, 5, settings.Retrieval.TopK)
	assert.Equal(t, domain.SimilarityCosine, settings.Retrieval.Metric)
	assert.Equal(t, 1, settings.Extraction.Concurrency)
	assert.Equal(t, 400, settings.Extraction.SnippetLength)
	assert.Equal(t, domain.StorageSQLite, settings.Storage.Backend)
	assert.False(t, settings.Ingest.AcceptText)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	service, store := newTestSettingsService()
	_ = store.Set("embedding.provider", "ollama")
	_ = store.Set("embedding.model", "nomic-embed-text")
	_ = store.Set("llm.temperature", 0.3)
	_ = store.Set("chunking.chunk_size", int64(500))
	_ = store.Set("chunking.overlap", int64(0))
	_ = store.Set("retrieval.top_k", int64(8))
	_ = store.Set("retrieval.metric", "dot")
	_ = store.Set("extraction.concurrency", int64(4))
	_ = store.Set("storage.backend", "redis")
	_ = store.Set("storage.redis_addr", "localhost:6379")
	_ = store.Set("schemas.persist", true)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.InDelta(t, 0.3, settings.LLM.Temperature, 1e-9)
	assert.Equal(t, 500, settings.Chunking.ChunkSize)
	assert.Equal(t, 0, settings.Chunking.Overlap)
	assert.Equal(t, 8, settings.Retrieval.TopK)
	assert.Equal(t, domain.SimilarityDot, settings.Retrieval.Metric)
	assert.Equal(t, 4, settings.Extraction.Concurrency)
	assert.Equal(t, domain.StorageRedis, settings.Storage.Backend)
	assert.Equal(t, "localhost:6379", settings.Storage.RedisAddr)
	assert.True(t, settings.Storage.PersistSchemas)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	service, store := newTestSettingsService()
	_ = store.Set("embedding.provider", "invalid_provider")
	_ = store.Set("retrieval.metric", "euclid")
	_ = store.Set("storage.backend", "mongo")
	_ = store.Set("retrieval.top_k", int64(-3))

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Retrieval.Metric, settings.Retrieval.Metric)
	assert.Equal(t, defaults.Storage.Backend, settings.Storage.Backend)
	assert.Equal(t, defaults.Retrieval.TopK, settings.Retrieval.TopK)
}

func TestSettingsService_Get_APIKeyFromEnvironment(t *testing.T) {
	store := memory.NewConfigStore()
	env := map[string]string{
		"OPENAI_API_KEY":    "sk-env",
		"ANTHROPIC_API_KEY": "sk-ant-env",
	}
	service := NewSettingsService(store, nil).WithEnv(func(k string) string { return env[k] })

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.Equal(t, "sk-env", settings.LLM.APIKey)

	_ = store.Set("llm.provider", "anthropic")
	_ = store.Set("embedding.api_key", "sk-config")

	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-config", settings.Embedding.APIKey)
	assert.Equal(t, "sk-ant-env", settings.LLM.APIKey)
}

func TestSettingsService_Save_DoesNotPersistEnvironmentKey(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil).WithEnv(func(k string) string {
		if k == "OPENAI_API_KEY" {
			return "sk-env"
		}
		return ""
	})

	settings, err := service.Get()
	require.NoError(t, err)
	require.NoError(t, service.Save(settings))

	_, exists := store.Get("llm.api_key")
	assert.False(t, exists)
	_, exists = store.Get("embedding.api_key")
	assert.False(t, exists)
}

func TestSettingsService_Save(t *testing.T) {
	service, _ := newTestSettingsService()

	settings := domain.DefaultAppSettings()
	settings.Embedding.APIKey = "sk-test-key"
	settings.LLM = domain.LLMSettings{
		Provider:          domain.AIProviderAnthropic,
		Model:             "claude-3-5-sonnet-latest",
		APIKey:            "sk-ant-test",
		Temperature:       0.2,
		RequestsPerSecond: 2,
	}
	settings.Retrieval.TopK = 7
	settings.Extraction.Concurrency = 3
	settings.Extraction.TimeoutSeconds = 60
	settings.Storage.Backend = domain.StoragePostgres
	settings.Storage.PostgresDSN = "postgres://localhost/rag"
	settings.Ingest.AcceptText = true

	require.NoError(t, service.Save(&settings))

	retrieved, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-test-key", retrieved.Embedding.APIKey)
	assert.Equal(t, domain.AIProviderAnthropic, retrieved.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", retrieved.LLM.Model)
	assert.Equal(t, "sk-ant-test", retrieved.LLM.APIKey)
	assert.InDelta(t, 0.2, retrieved.LLM.Temperature, 1e-9)
	assert.InDelta(t, 2.0, retrieved.LLM.RequestsPerSecond, 1e-9)
	assert.Equal(t, 7, retrieved.Retrieval.TopK)
	assert.Equal(t, 3, retrieved.Extraction.Concurrency)
	assert.Equal(t, 60, retrieved.Extraction.TimeoutSeconds)
	assert.Equal(t, domain.StoragePostgres, retrieved.Storage.Backend)
	assert.Equal(t, "postgres://localhost/rag", retrieved.Storage.PostgresDSN)
	assert.True(t, retrieved.Ingest.AcceptText)
}

func TestSettingsService_SetValue(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
		check   func(t *testing.T, s *domain.AppSettings)
	}{
		{
			name: "int", key: "retrieval.top_k", value: "9",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, 9, s.Retrieval.TopK) },
		},
		{
			name: "float", key: "llm.temperature", value: "0.5",
			check: func(t *testing.T, s *domain.AppSettings) { assert.InDelta(t, 0.5, s.LLM.Temperature, 1e-9) },
		},
		{
			name: "bool", key: "ingest.accept_text", value: "true",
			check: func(t *testing.T, s *domain.AppSettings) { assert.True(t, s.Ingest.AcceptText) },
		},
		{
			name: "metric", key: "retrieval.metric", value: "dot",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, domain.SimilarityDot, s.Retrieval.Metric) },
		},
		{
			name: "string", key: "llm.model", value: "gpt-4o",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, "gpt-4o", s.LLM.Model) },
		},
		{name: "unknown key", key: "search.mode", value: "hybrid", wantErr: true},
		{name: "bad int", key: "retrieval.top_k", value: "many", wantErr: true},
		{name: "negative int", key: "extraction.concurrency", value: "-1", wantErr: true},
		{name: "bad bool", key: "schemas.persist", value: "maybe", wantErr: true},
		{name: "bad metric", key: "retrieval.metric", value: "l2", wantErr: true},
		{name: "bad backend", key: "storage.backend", value: "mongo", wantErr: true},
		{name: "anthropic embeddings", key: "embedding.provider", value: "anthropic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestSettingsService()

			err := service.SetValue(tt.key, tt.value)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			settings, err := service.Get()
			require.NoError(t, err)
			tt.check(t, settings)
		})
	}
}

func TestSettableKeys_Sorted(t *testing.T) {
	keys := SettableKeys()

	require.NotEmpty(t, keys)
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "extraction.concurrency")
}

func TestSettingsService_SetEmbeddingProvider_Ollama(t *testing.T) {
	service, _ := newTestSettingsService()

	err := service.SetEmbeddingProvider(domain.AIProviderOllama, "nomic-embed-text", "")

	require.NoError(t, err)

	settings, _ := service.Get()
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	assert.Empty(t, settings.Embedding.APIKey)
}

func TestSettingsService_SetEmbeddingProvider_DefaultModel(t *testing.T) {
	service, _ := newTestSettingsService()

	err := service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test-key")

	require.NoError(t, err)

	settings, _ := service.Get()
	assert.Equal(t, domain.DefaultEmbeddingModels()[domain.AIProviderOpenAI], settings.Embedding.Model)
	assert.Equal(t, "sk-test-key", settings.Embedding.APIKey)
	assert.Empty(t, settings.Embedding.BaseURL)
}

func TestSettingsService_SetEmbeddingProvider_OpenAICompatibleKeepsBaseURL(t *testing.T) {
	service, store := newTestSettingsService()
	_ = store.Set("embedding.base_url", "http://gateway:8000/v1")

	err := service.SetEmbeddingProvider(domain.AIProviderOpenAICompatible, "bge-m3", "")

	require.NoError(t, err)
	settings, _ := service.Get()
	assert.Equal(t, "http://gateway:8000/v1", settings.Embedding.BaseURL)
	assert.Equal(t, "bge-m3", settings.Embedding.Model)
}

func TestSettingsService_SetEmbeddingProvider_Errors(t *testing.T) {
	tests := []struct {
		name     string
		provider domain.AIProvider
		apiKey   string
		want     string
	}{
		{"invalid", domain.AIProvider("invalid"), "", "invalid embedding provider"},
		{"anthropic", domain.AIProviderAnthropic, "sk-ant-test", "does not support embeddings"},
		{"missing key", domain.AIProviderOpenAI, "", "API key required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestSettingsService()

			err := service.SetEmbeddingProvider(tt.provider, "", tt.apiKey)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSettingsService_SetLLMProvider_Anthropic(t *testing.T) {
	service, _ := newTestSettingsService()

	err := service.SetLLMProvider(domain.AIProviderAnthropic, "", "sk-ant-test")

	require.NoError(t, err)

	settings, _ := service.Get()
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderAnthropic], settings.LLM.Model)
	assert.Equal(t, "sk-ant-test", settings.LLM.APIKey)
}

func TestSettingsService_SetLLMProvider_Ollama(t *testing.T) {
	service, _ := newTestSettingsService()

	err := service.SetLLMProvider(domain.AIProviderOllama, "llama3.2", "")

	require.NoError(t, err)

	settings, _ := service.Get()
	assert.Equal(t, "http://localhost:11434", settings.LLM.BaseURL)
	assert.Empty(t, settings.LLM.APIKey)
}

func TestSettingsService_SetLLMProvider_Errors(t *testing.T) {
	service, _ := newTestSettingsService()

	err := service.SetLLMProvider(domain.AIProvider("invalid"), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid LLM provider")

	err = service.SetLLMProvider(domain.AIProviderOpenAI, "gpt-4o", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key required")
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr error
	}{
		{
			name:    "missing embedding key",
			values:  map[string]any{"llm.api_key": "sk"},
			wantErr: domain.ErrEmbeddingUnavailable,
		},
		{
			name:    "missing llm key",
			values:  map[string]any{"embedding.api_key": "sk"},
			wantErr: domain.ErrLLMUnavailable,
		},
		{
			name: "local providers",
			values: map[string]any{
				"embedding.provider": "ollama",
				"llm.provider":       "ollama",
			},
		},
		{
			name: "overlap not smaller than chunk size",
			values: map[string]any{
				"embedding.provider":  "ollama",
				"llm.provider":        "ollama",
				"chunking.chunk_size": 100,
				"chunking.overlap":    100,
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "redis without address",
			values: map[string]any{
				"embedding.provider": "ollama",
				"llm.provider":       "ollama",
				"storage.backend":    "redis",
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "compatible endpoint without base url",
			values: map[string]any{
				"embedding.provider": "ollama",
				"llm.provider":       "openai_compatible",
			},
			wantErr: domain.ErrLLMUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store := newTestSettingsService()
			for k, v := range tt.values {
				_ = store.Set(k, v)
			}

			err := service.Validate()

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSettingsService_GetPipelineConfig(t *testing.T) {
	service, store := newTestSettingsService()
	_ = store.Set("chunking.chunk_size", 600)
	_ = store.Set("chunking.overlap", 50)

	cfg := service.GetPipelineConfig()

	assert.Equal(t, []string{"chunker"}, cfg.Processors)
	chunker := cfg.GetProcessorConfig("chunker")
	assert.Equal(t, 600, chunker["chunk_size"])
	assert.Equal(t, 50, chunker["overlap"])
}

type stubValidator struct {
	embedCalls int
	llmCalls   int
	err        error
}

func (v *stubValidator) ValidateEmbedding(*domain.EmbeddingSettings) error {
	v.embedCalls++
	return v.err
}

func (v *stubValidator) ValidateLLM(*domain.LLMSettings) error {
	v.llmCalls++
	return v.err
}

func TestSettingsService_ValidateProviderConfig(t *testing.T) {
	validator := &stubValidator{err: errors.New("unreachable")}
	service := NewSettingsService(memory.NewConfigStore(), validator).WithEnv(noEnv)

	assert.EqualError(t, service.ValidateEmbeddingConfig(), "unreachable")
	assert.EqualError(t, service.ValidateLLMConfig(), "unreachable")
	assert.Equal(t, 1, validator.embedCalls)
	assert.Equal(t, 1, validator.llmCalls)

	service, _ = newTestSettingsService()
	assert.NoError(t, service.ValidateEmbeddingConfig())
	assert.NoError(t, service.ValidateLLMConfig())
}

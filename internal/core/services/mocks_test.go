package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// --- Mock implementations ---

// keywordEmbedder implements driven.EmbeddingService by counting vocabulary
// words, so similar texts get similar vectors.
type keywordEmbedder struct {
	mu       sync.Mutex
	vocab    []string
	embedErr error
	calls    int
}

func newKeywordEmbedder(vocab ...string) *keywordEmbedder {
	return &keywordEmbedder{vocab: vocab}
}

func (m *keywordEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(m.vocab)+1)
	for i, word := range m.vocab {
		vec[i] = float32(strings.Count(lower, word))
	}
	vec[len(m.vocab)] = 0.01
	return vec
}

func (m *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *keywordEmbedder) Dimensions() int {
	return len(m.vocab) + 1
}

func (m *keywordEmbedder) ModelName() string {
	return "keyword-embed"
}

func (m *keywordEmbedder) Ping(_ context.Context) error {
	return nil
}

func (m *keywordEmbedder) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService for testing.
// reply decides the structured response for each call.
type mockLLMService struct {
	mu       sync.Mutex
	reply    func(messages []driven.ChatMessage) (string, error)
	calls    int
	messages [][]driven.ChatMessage
	formats  []driven.ResponseFormat
	opts     []driven.ChatOptions
}

func fixedLLM(response string) *mockLLMService {
	return &mockLLMService{reply: func([]driven.ChatMessage) (string, error) { return response, nil }}
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return m.reply(messages)
}

func (m *mockLLMService) StructuredChat(
	_ context.Context,
	messages []driven.ChatMessage,
	format driven.ResponseFormat,
	opts driven.ChatOptions,
) (string, error) {
	m.mu.Lock()
	m.calls++
	m.messages = append(m.messages, messages)
	m.formats = append(m.formats, format)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()
	return m.reply(messages)
}

func (m *mockLLMService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// staticRetriever implements driving.Retriever with fixed chunks.
type staticRetriever struct {
	mu        sync.Mutex
	chunks    []domain.Chunk
	err       error
	questions []string
}

func (r *staticRetriever) Query(_ context.Context, question string) ([]domain.Chunk, error) {
	r.mu.Lock()
	r.questions = append(r.questions, question)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.chunks, nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPromptStore) Reload() {}

// userMessage returns the content of the last user message.
func userMessage(messages []driven.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == driven.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func testChunk(id string, position int, page *int, content string) domain.Chunk {
	return domain.Chunk{
		ID:         id,
		DocumentID: "doc-1",
		Content:    content,
		Position:   position,
		Page:       page,
	}
}

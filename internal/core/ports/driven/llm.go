package driven

import "context"

// LLMService provides language model operations for field extraction.
//
// Implementations may include:
//   - OpenAI (GPT-4.1, GPT-4o)
//   - Anthropic (Claude)
//   - Ollama (local models)
//   - OpenAI-compatible inference servers
type LLMService interface {
	// Chat conducts a multi-turn conversation.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// StructuredChat conducts a conversation whose reply must be a JSON document
	// matching format.Schema. Returns the raw JSON text; callers validate it.
	StructuredChat(ctx context.Context, messages []ChatMessage, format ResponseFormat, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// ResponseFormat describes the JSON document a structured chat must return.
type ResponseFormat struct {
	// Name identifies the schema to providers that require one.
	Name string

	// Schema is a JSON Schema object.
	Schema map[string]any
}

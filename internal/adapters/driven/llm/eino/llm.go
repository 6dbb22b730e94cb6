// Package eino provides an LLM service adapter for OpenAI-compatible
// endpoints using the cloudwego eino chat model components.
package eino

import (
	"context"
	"fmt"

	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/custodia-labs/ragextract/internal/adapters/driven/llm/schemaprompt"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Config holds configuration for an OpenAI-compatible chat model.
type Config struct {
	// APIKey is the provider API key (required).
	APIKey string

	// BaseURL is the OpenAI-compatible API base URL (required).
	BaseURL string

	// Model is the chat model name (required).
	Model string
}

// LLMService adapts an eino chat model to driven.LLMService.
type LLMService struct {
	chat  model.BaseChatModel
	model string
}

// NewLLMService creates an eino openai chat model from cfg.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai_compatible: API key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai_compatible: base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai_compatible: model is required")
	}

	chat, err := openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai_compatible: create chat model: %w", err)
	}
	return NewFromChatModel(chat, cfg.Model), nil
}

// NewFromChatModel wraps an existing eino chat model.
func NewFromChatModel(chat model.BaseChatModel, modelName string) *LLMService {
	return &LLMService{chat: chat, model: modelName}
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	msg, err := s.chat.Generate(ctx, toSchemaMessages(messages), chatOptions(opts)...)
	if err != nil {
		return "", fmt.Errorf("openai_compatible: generate: %w", err)
	}
	if msg == nil {
		return "", fmt.Errorf("openai_compatible: empty response")
	}
	return msg.Content, nil
}

// StructuredChat sends the schema as a system instruction. OpenAI-compatible
// servers vary in json_schema support, so the reply is validated by callers.
func (s *LLMService) StructuredChat(
	ctx context.Context,
	messages []driven.ChatMessage,
	format driven.ResponseFormat,
	opts driven.ChatOptions,
) (string, error) {
	withSchema, err := schemaprompt.Apply(messages, format.Schema)
	if err != nil {
		return "", err
	}
	reply, err := s.Chat(ctx, withSchema, opts)
	if err != nil {
		return "", err
	}
	return schemaprompt.StripCodeFence(reply), nil
}

func toSchemaMessages(messages []driven.ChatMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case driven.RoleSystem:
			out = append(out, schema.SystemMessage(msg.Content))
		case driven.RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		default:
			out = append(out, schema.UserMessage(msg.Content))
		}
	}
	return out
}

func chatOptions(opts driven.ChatOptions) []model.Option {
	out := []model.Option{model.WithTemperature(float32(opts.Temperature))}
	if opts.MaxTokens > 0 {
		out = append(out, model.WithMaxTokens(opts.MaxTokens))
	}
	return out
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping runs a one-token generation, since the eino model exposes no
// model listing.
func (s *LLMService) Ping(ctx context.Context) error {
	_, err := s.chat.Generate(ctx, []*schema.Message{schema.UserMessage("ping")}, model.WithMaxTokens(1))
	if err != nil {
		return fmt.Errorf("openai_compatible: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

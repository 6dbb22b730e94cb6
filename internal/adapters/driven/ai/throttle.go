package ai

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// ThrottledLLM paces outbound calls to a wrapped LLM service.
type ThrottledLLM struct {
	driven.LLMService
	limiter *rate.Limiter
}

// Throttled wraps svc so that Chat and StructuredChat wait for a token from a
// limiter allowing rps requests per second. A non-positive rps returns svc
// unchanged.
func Throttled(svc driven.LLMService, rps float64) driven.LLMService {
	if rps <= 0 || svc == nil {
		return svc
	}
	burst := max(int(rps), 1)
	return &ThrottledLLM{
		LLMService: svc,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Chat waits for the limiter, then delegates.
func (t *ThrottledLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return t.LLMService.Chat(ctx, messages, opts)
}

// StructuredChat waits for the limiter, then delegates.
func (t *ThrottledLLM) StructuredChat(
	ctx context.Context,
	messages []driven.ChatMessage,
	format driven.ResponseFormat,
	opts driven.ChatOptions,
) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return t.LLMService.StructuredChat(ctx, messages, format, opts)
}

package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

type countingLLM struct {
	calls int
}

func (c *countingLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	c.calls++
	return "chat", nil
}

func (c *countingLLM) StructuredChat(context.Context, []driven.ChatMessage, driven.ResponseFormat, driven.ChatOptions) (string, error) {
	c.calls++
	return "{}", nil
}

func (c *countingLLM) ModelName() string { return "counting" }
func (c *countingLLM) Ping(context.Context) error { return nil }
func (c *countingLLM) Close() error { return nil }

func TestThrottled_ZeroRateReturnsService(t *testing.T) {
	inner := &countingLLM{}

	assert.Same(t, driven.LLMService(inner), Throttled(inner, 0))
}

func TestThrottled_Delegates(t *testing.T) {
	inner := &countingLLM{}
	svc := Throttled(inner, 100)

	reply, err := svc.StructuredChat(context.Background(), nil, driven.ResponseFormat{}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "{}", reply)

	reply, err = svc.Chat(context.Background(), nil, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "chat", reply)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, "counting", svc.ModelName())
}

func TestThrottled_WaitHonoursContext(t *testing.T) {
	inner := &countingLLM{}
	svc := Throttled(inner, 0.01)

	// The first call consumes the single burst token.
	_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.Chat(ctx, nil, driven.ChatOptions{})

	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

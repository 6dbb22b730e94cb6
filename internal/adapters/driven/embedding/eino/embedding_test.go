package eino

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	calls int
	short bool
	err   error
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), 0.5}
	}
	if f.short {
		return out[:len(out)-1], nil
	}
	return out, nil
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	fake := &fakeEmbedder{}
	svc := NewFromEmbedder(fake, "embedding-3", 0)

	out, err := svc.EmbedBatch(context.Background(), []string{"a", "abc"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0.5}, {3, 0.5}}, out)
	assert.Equal(t, 2, svc.Dimensions())
	assert.Equal(t, "embedding-3", svc.ModelName())
}

func TestEmbeddingService_EmbedBatch_Empty(t *testing.T) {
	fake := &fakeEmbedder{}
	svc := NewFromEmbedder(fake, "m", 8)

	out, err := svc.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Zero(t, fake.calls)
	assert.Equal(t, 8, svc.Dimensions())
}

func TestEmbeddingService_Errors(t *testing.T) {
	svc := NewFromEmbedder(&fakeEmbedder{short: true}, "m", 0)
	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "got 1 embeddings for 2 inputs")

	failing := NewFromEmbedder(&fakeEmbedder{err: errors.New("quota")}, "m", 0)
	assert.ErrorContains(t, failing.Ping(context.Background()), "quota")
}

func TestNewEmbeddingService_RequiresConfig(t *testing.T) {
	_, err := NewEmbeddingService(context.Background(), Config{Model: "m", BaseURL: "http://x"})

	assert.Error(t, err)
}

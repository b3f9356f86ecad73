package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	dims  int
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.calls++
	v := make([]float32, c.dims)
	for i := range v {
		v[i] = float32(len(text))
	}
	return v, nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := c.Embed(ctx, t)
		out[i] = v
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int                   { return c.dims }
func (c *countingEmbedder) ModelName() string                 { return "counting" }
func (c *countingEmbedder) Available(_ context.Context) bool { return true }
func (c *countingEmbedder) Close() error                      { return nil }

func TestCachedEmbedderAvoidsRecompute(t *testing.T) {
	inner := &countingEmbedder{dims: 4}
	cached := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "repeated text")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "repeated text")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
}

func TestCachedEmbedderBatchSplitsCachedAndUncached(t *testing.T) {
	inner := &countingEmbedder{dims: 4}
	cached := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "one")
	require.NoError(t, err)

	out, err := cached.EmbedBatch(ctx, []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, 2, inner.calls) // "one" cached, "two" fresh
}

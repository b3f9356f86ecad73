package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedderDeterministic(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	v1, err := e.Embed(ctx, "func computeHash(value string) error")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "func computeHash(value string) error")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, StaticDimensions)
}

func TestStaticEmbedderEmptyInputIsZeroVector(t *testing.T) {
	e := NewStaticEmbedder()
	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestStaticEmbedderDistinguishesUnrelatedText(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, "installing the command line interface on macOS")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "quarterly revenue projections for the finance team")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestStaticEmbedderClosedRejectsCalls(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "text")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}

func TestStaticEmbedderBatch(t *testing.T) {
	e := NewStaticEmbedder()
	out, err := e.EmbedBatch(context.Background(), []string{"alpha", "", "beta"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Len(t, out[1], StaticDimensions)
	for _, x := range out[1] {
		assert.Zero(t, x)
	}
}

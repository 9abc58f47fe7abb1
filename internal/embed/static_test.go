package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedDeterministic(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	a, err := e.Embed(context.Background(), "pipeline corrosion assessment")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "pipeline corrosion assessment")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, StaticDimensions)
}

func TestStaticEmbedNormalized(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	vec, err := e.Embed(context.Background(), "inspection report for the south segment")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestStaticEmbedEmptyTextIsZeroVector(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	require.Len(t, vec, StaticDimensions)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStaticEmbedSimilarTextsCloserThanUnrelated(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	ctx := context.Background()
	base, err := e.Embed(ctx, "corrosion found on the pipeline segment")
	require.NoError(t, err)
	similar, err := e.Embed(ctx, "pipeline segment corrosion was detected")
	require.NoError(t, err)
	unrelated, err := e.Embed(ctx, "quarterly budget meeting minutes")
	require.NoError(t, err)

	assert.Greater(t, cosine(base, similar), cosine(base, unrelated))
}

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot // inputs are unit vectors
}

func TestStaticEmbedBatchMatchesSingle(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	ctx := context.Background()
	texts := []string{"first sentence here", "", "third sentence here"}

	batch, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestStaticEmbedAfterClose(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "text")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}

func TestTokenizeFiltersStopWords(t *testing.T) {
	tokens := tokenize("The valve and the flange were replaced")
	assert.NotContains(t, tokens, "the")
	assert.NotContains(t, tokens, "and")
	assert.Contains(t, tokens, "valve")
	assert.Contains(t, tokens, "flange")
}

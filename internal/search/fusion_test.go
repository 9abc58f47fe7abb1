package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsearch/internal/store"
)

func TestFuseEmpty(t *testing.T) {
	f := NewFusion()

	results := f.Fuse(nil, nil, DefaultWeights())
	require.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFuseBothSignals(t *testing.T) {
	f := NewFusion()

	lexical := []*store.LexicalResult{
		{DocID: "inspection", Score: 4.0, MatchedTerms: []string{"corrosion"}},
		{DocID: "minutes", Score: 1.0, MatchedTerms: []string{"corrosion"}},
	}
	vector := []*store.VectorResult{
		{DocID: "inspection", Score: 0.9},
		{DocID: "handbook", Score: 0.6},
	}

	results := f.Fuse(lexical, vector, Weights{Lexical: 0.5, Vector: 0.5})
	require.Len(t, results, 3)

	// Top of both lists wins with both normalized scores at 1.0.
	assert.Equal(t, "inspection", results[0].DocID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.True(t, results[0].InBothLists)
	assert.Equal(t, 4.0, results[0].LexicalScore)
	assert.InDelta(t, 0.9, results[0].VectorScore, 1e-6)
	assert.Equal(t, []string{"corrosion"}, results[0].MatchedTerms)

	assert.False(t, results[1].InBothLists)
	assert.False(t, results[2].InBothLists)
}

func TestFuseWeightsShiftRanking(t *testing.T) {
	f := NewFusion()

	lexical := []*store.LexicalResult{
		{DocID: "exact", Score: 5.0},
		{DocID: "related", Score: 1.0},
	}
	vector := []*store.VectorResult{
		{DocID: "related", Score: 0.95},
		{DocID: "exact", Score: 0.2},
	}

	lexHeavy := f.Fuse(lexical, vector, Weights{Lexical: 0.9, Vector: 0.1})
	assert.Equal(t, "exact", lexHeavy[0].DocID)

	vecHeavy := f.Fuse(lexical, vector, Weights{Lexical: 0.1, Vector: 0.9})
	assert.Equal(t, "related", vecHeavy[0].DocID)
}

func TestFuseSingleSignal(t *testing.T) {
	f := NewFusion()

	lexical := []*store.LexicalResult{
		{DocID: "b", Score: 3.0},
		{DocID: "a", Score: 1.5},
	}

	results := f.Fuse(lexical, nil, Weights{Lexical: 0.5, Vector: 0.5})
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].DocID)
	assert.InDelta(t, 0.5, results[0].Score, 1e-9)
	assert.InDelta(t, 0.0, results[1].Score, 1e-9)
}

func TestFuseUniformScoresNormalizeToOne(t *testing.T) {
	f := NewFusion()

	lexical := []*store.LexicalResult{
		{DocID: "only", Score: 2.5},
	}

	results := f.Fuse(lexical, nil, Weights{Lexical: 1.0, Vector: 0.0})
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestFuseTieBreaks(t *testing.T) {
	f := NewFusion()

	// Equal fused scores: raw lexical score decides, then DocID.
	lexical := []*store.LexicalResult{
		{DocID: "zeta", Score: 2.0},
		{DocID: "alpha", Score: 2.0},
	}

	results := f.Fuse(lexical, nil, Weights{Lexical: 1.0, Vector: 0.0})
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].DocID)
	assert.Equal(t, "zeta", results[1].DocID)
}

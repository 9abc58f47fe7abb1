package search

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsearch/internal/embed"
	"github.com/Aman-CERP/docsearch/internal/errors"
	"github.com/Aman-CERP/docsearch/internal/store"
)

type engineFixture struct {
	lexical  *store.BleveIndex
	vector   *store.HNSWStore
	docs     *store.SQLiteStore
	embedder embed.Embedder
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	ctx := context.Background()

	lexical, err := store.NewBleveIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { lexical.Close() })

	embedder := embed.NewStaticEmbedder()
	t.Cleanup(func() { embedder.Close() })

	vector, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(embedder.Dimensions()))
	require.NoError(t, err)
	t.Cleanup(func() { vector.Close() })

	docs, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { docs.Close() })

	records := []*store.DocumentRecord{
		{
			ID:      "inspection",
			Title:   "Pipeline Corrosion Inspection",
			Content: "Ultrasonic readings show severe corrosion near weld 14 of segment A.",
		},
		{
			ID:      "budget",
			Title:   "Quarterly Budget Review",
			Content: "Maintenance spending stayed within the approved budget this quarter.",
		},
		{
			ID:      "handbook",
			Title:   "Welding Handbook",
			Content: "Guidance on weld preparation and inspection intervals for steel pipe.",
		},
	}

	for _, rec := range records {
		vec, err := embedder.Embed(ctx, rec.Title+"\n"+rec.Content)
		require.NoError(t, err)
		rec.Embedding = vec

		require.NoError(t, docs.Put(ctx, rec))
		require.NoError(t, vector.Add(ctx, []string{rec.ID}, [][]float32{vec}))
	}
	require.NoError(t, lexical.Index(ctx, records))

	require.NoError(t, docs.SetState(ctx, store.StateKeyIndexDimension,
		strconv.Itoa(embedder.Dimensions())))
	require.NoError(t, docs.SetState(ctx, store.StateKeyIndexModel, embedder.ModelName()))

	return &engineFixture{lexical: lexical, vector: vector, docs: docs, embedder: embedder}
}

func (f *engineFixture) engine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(f.lexical, f.vector, f.docs, f.embedder, DefaultEngineConfig())
	require.NoError(t, err)
	return e
}

func TestEngineSearch(t *testing.T) {
	f := newEngineFixture(t)
	e := f.engine(t)

	resp, err := e.Search(context.Background(), "corrosion", SearchOptions{Limit: 5})
	require.NoError(t, err)
	assert.False(t, resp.Degraded)
	require.NotEmpty(t, resp.Results)

	top := resp.Results[0]
	assert.Equal(t, "inspection", top.DocID)
	assert.Equal(t, "Pipeline Corrosion Inspection", top.Title)
	assert.Contains(t, top.Snippet, "corrosion")
	assert.NotEmpty(t, top.Highlights)
	assert.Greater(t, top.Score, 0.0)
}

func TestEngineSearchEmptyQuery(t *testing.T) {
	f := newEngineFixture(t)
	e := f.engine(t)

	_, err := e.Search(context.Background(), "   ", SearchOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidQuery, errors.GetCode(err))
}

func TestEngineSearchNoHits(t *testing.T) {
	f := newEngineFixture(t)
	e := f.engine(t)

	// The static embedder still returns nearest neighbors, so the
	// response is never empty, but nothing should rank confidently.
	resp, err := e.Search(context.Background(), "zirconium alloys", SearchOptions{Limit: 3})
	require.NoError(t, err)
	assert.False(t, resp.Degraded)
	assert.LessOrEqual(t, len(resp.Results), 3)
}

func TestEngineSearchLimit(t *testing.T) {
	f := newEngineFixture(t)
	e := f.engine(t)

	resp, err := e.Search(context.Background(), "weld inspection budget", SearchOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}

type failingLexical struct{}

func (failingLexical) Index(context.Context, []*store.DocumentRecord) error { return nil }
func (failingLexical) Search(context.Context, string, int) ([]*store.LexicalResult, error) {
	return nil, fmt.Errorf("index file corrupt")
}
func (failingLexical) Delete(context.Context, []string) error { return nil }
func (failingLexical) Count() (int, error)                    { return 0, nil }
func (failingLexical) Close() error                           { return nil }

type failingVector struct{}

func (failingVector) Add(context.Context, []string, [][]float32) error { return nil }
func (failingVector) Search(context.Context, []float32, int) ([]*store.VectorResult, error) {
	return nil, fmt.Errorf("vector graph unavailable")
}
func (failingVector) Delete(context.Context, []string) error { return nil }
func (failingVector) Contains(string) bool                   { return false }
func (failingVector) Count() int                             { return 0 }
func (failingVector) Save(string) error                      { return nil }
func (failingVector) Load(string) error                      { return nil }
func (failingVector) Close() error                           { return nil }

func TestEngineDegradedLexicalFailure(t *testing.T) {
	f := newEngineFixture(t)
	e, err := NewEngine(failingLexical{}, f.vector, f.docs, f.embedder, DefaultEngineConfig())
	require.NoError(t, err)

	resp, err := e.Search(context.Background(), "corrosion", SearchOptions{Limit: 5})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Contains(t, resp.DegradedReason, "lexical")
	assert.NotEmpty(t, resp.Results)
}

func TestEngineDegradedVectorFailure(t *testing.T) {
	f := newEngineFixture(t)
	e, err := NewEngine(f.lexical, failingVector{}, f.docs, f.embedder, DefaultEngineConfig())
	require.NoError(t, err)

	resp, err := e.Search(context.Background(), "corrosion", SearchOptions{Limit: 5})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Contains(t, resp.DegradedReason, "vector")
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "inspection", resp.Results[0].DocID)
}

func TestEngineBothSignalsFail(t *testing.T) {
	f := newEngineFixture(t)
	e, err := NewEngine(failingLexical{}, failingVector{}, f.docs, f.embedder, DefaultEngineConfig())
	require.NoError(t, err)

	_, err = e.Search(context.Background(), "corrosion", SearchOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeIndexUnavailable, errors.GetCode(err))
}

type timedOutLexical struct{ failingLexical }

func (timedOutLexical) Search(context.Context, string, int) ([]*store.LexicalResult, error) {
	return nil, fmt.Errorf("bleve query: %w", context.DeadlineExceeded)
}

type timedOutVector struct{ failingVector }

func (timedOutVector) Search(context.Context, []float32, int) ([]*store.VectorResult, error) {
	return nil, fmt.Errorf("graph query: %w", context.DeadlineExceeded)
}

func TestEngineDeadlineReportsTimeout(t *testing.T) {
	f := newEngineFixture(t)
	e, err := NewEngine(timedOutLexical{}, timedOutVector{}, f.docs, f.embedder, DefaultEngineConfig())
	require.NoError(t, err)

	_, err = e.Search(context.Background(), "corrosion", SearchOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTimeout, errors.GetCode(err))
}

func TestDefaultEngineConfigLimit(t *testing.T) {
	cfg := DefaultEngineConfig()
	assert.Equal(t, 20, cfg.DefaultLimit)
	assert.Equal(t, 100, cfg.MaxLimit)
}

func TestEngineDimensionMismatchFallsBackToLexical(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	// Pretend the index was built by a higher-dimensional model.
	require.NoError(t, f.docs.SetState(ctx, store.StateKeyIndexDimension, "768"))
	require.NoError(t, f.docs.SetState(ctx, store.StateKeyIndexModel, "nomic-embed-text"))

	e := f.engine(t)
	resp, err := e.Search(ctx, "corrosion", SearchOptions{Limit: 5})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Contains(t, resp.DegradedReason, "semantic search disabled")
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "inspection", resp.Results[0].DocID)
}

func TestEngineNilDependencies(t *testing.T) {
	f := newEngineFixture(t)

	_, err := NewEngine(nil, f.vector, f.docs, f.embedder, DefaultEngineConfig())
	assert.ErrorIs(t, err, ErrNilDependency)

	_, err = NewEngine(f.lexical, nil, f.docs, f.embedder, DefaultEngineConfig())
	assert.ErrorIs(t, err, ErrNilDependency)

	_, err = NewEngine(f.lexical, f.vector, nil, f.embedder, DefaultEngineConfig())
	assert.ErrorIs(t, err, ErrNilDependency)

	_, err = NewEngine(f.lexical, f.vector, f.docs, nil, DefaultEngineConfig())
	assert.ErrorIs(t, err, ErrNilDependency)
}

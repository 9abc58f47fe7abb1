package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsearch/internal/errors"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(id string) *DocumentRecord {
	return &DocumentRecord{
		ID:       id,
		Title:    "Pipeline Inspection Report",
		Path:     "/corpus/" + id + ".pdf",
		Format:   "pdf",
		Headings: []string{"1. INTRODUCTION", "2. SCOPE OF WORK"},
		Sections: map[string]string{
			"background": "This report covers the annual inspection.",
			"scope":      "Visual and ultrasonic testing of all welds.",
		},
		Content:   "This report covers the annual inspection of pipeline segment A.",
		Embedding: []float32{0.1, 0.2, 0.3, 0.4},
		Warnings:  []string{"page 3: no extractable text"},
	}
}

func TestSQLiteStorePutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("report-2024")
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx, "report-2024")
	require.NoError(t, err)
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, rec.Headings, got.Headings)
	assert.Equal(t, rec.Sections, got.Sections)
	assert.Equal(t, rec.Embedding, got.Embedding)
	assert.Equal(t, rec.Warnings, got.Warnings)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLiteStoreGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFileNotFound, errors.GetCode(err))
}

func TestSQLiteStoreUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("doc")
	require.NoError(t, s.Put(ctx, rec))

	first, err := s.Get(ctx, "doc")
	require.NoError(t, err)

	rec.Title = "Revised Report"
	rec.CreatedAt = first.CreatedAt
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "Revised Report", got.Title)
	assert.Equal(t, first.CreatedAt, got.CreatedAt)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLiteStorePutRejectsEmptyID(t *testing.T) {
	s := newTestStore(t)

	err := s.Put(context.Background(), &DocumentRecord{Title: "untitled"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestSQLiteStoreGetMany(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Put(ctx, testRecord(id)))
	}

	// Order follows the request; missing IDs are skipped.
	got, err := s.GetMany(ctx, []string{"c", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestSQLiteStoreDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testRecord("doc")))
	require.NoError(t, s.Delete(ctx, "doc"))
	require.NoError(t, s.Delete(ctx, "doc")) // Idempotent

	_, err := s.Get(ctx, "doc")
	require.Error(t, err)
}

func TestSQLiteStoreAllIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, s.Put(ctx, testRecord(id)))
	}

	ids, err := s.AllIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, ids)
}

func TestSQLiteStoreState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	val, err := s.GetState(ctx, StateKeyIndexModel)
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, s.SetState(ctx, StateKeyIndexModel, "nomic-embed-text"))
	require.NoError(t, s.SetState(ctx, StateKeyIndexModel, "all-minilm"))

	val, err = s.GetState(ctx, StateKeyIndexModel)
	require.NoError(t, err)
	assert.Equal(t, "all-minilm", val)
}

func TestSQLiteStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, testRecord("doc")))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "Pipeline Inspection Report", got.Title)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 3.75, 0}
	assert.Equal(t, vec, decodeEmbedding(encodeEmbedding(vec)))
	assert.Nil(t, encodeEmbedding(nil))
	assert.Nil(t, decodeEmbedding(nil))
}

package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsearch/internal/embed"
	"github.com/Aman-CERP/docsearch/internal/errors"
	"github.com/Aman-CERP/docsearch/internal/extract"
	"github.com/Aman-CERP/docsearch/internal/store"
)

type ingestFixture struct {
	ingester *Ingester
	docs     *store.SQLiteStore
	lexical  *store.BleveIndex
	vector   *store.HNSWStore
	embedder embed.Embedder
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	docs, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { docs.Close() })

	lexical, err := store.NewBleveIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { lexical.Close() })

	embedder := embed.NewStaticEmbedder()
	t.Cleanup(func() { embedder.Close() })

	vector, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(embedder.Dimensions()))
	require.NoError(t, err)
	t.Cleanup(func() { vector.Close() })

	ing := New(extract.NewParser(), embedder, docs, lexical, vector, DefaultConfig())
	return &ingestFixture{ingester: ing, docs: docs, lexical: lexical, vector: vector, embedder: embedder}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestTextFiles(t *testing.T) {
	f := newIngestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	p1 := writeFile(t, dir, "inspection.txt",
		"INTRODUCTION\n\nThe pipeline was inspected in March. Corrosion was found near weld 14.")
	p2 := writeFile(t, dir, "budget.txt",
		"Spending stayed within the approved maintenance budget.")

	report, err := f.ingester.Ingest(ctx, []string{p1, p2})
	require.NoError(t, err)
	assert.Equal(t, []string{"budget", "inspection"}, report.Succeeded)
	assert.Empty(t, report.Failed)

	// All three stores see the documents.
	count, err := f.docs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	lexCount, err := f.lexical.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, lexCount)
	assert.Equal(t, 2, f.vector.Count())

	rec, err := f.docs.Get(ctx, "inspection")
	require.NoError(t, err)
	assert.Equal(t, "INTRODUCTION", rec.Title)
	assert.NotEmpty(t, rec.Embedding)
	assert.Contains(t, rec.Sections["background"], "Corrosion was found")
}

func TestIngestBadFileDoesNotAbortBatch(t *testing.T) {
	f := newIngestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	good := writeFile(t, dir, "good.txt", "Valid document content.")
	bad := writeFile(t, dir, "broken.pdf", "not a pdf at all")
	unsupported := writeFile(t, dir, "image.png", "binary")

	report, err := f.ingester.Ingest(ctx, []string{good, bad, unsupported})
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, report.Succeeded)
	require.Len(t, report.Failed, 2)
	assert.Equal(t, bad, report.Failed[0].Path)
	assert.Equal(t, unsupported, report.Failed[1].Path)
}

func TestIngestMissingFile(t *testing.T) {
	f := newIngestFixture(t)

	report, err := f.ingester.Ingest(context.Background(), []string{"/nonexistent/doc.txt"})
	require.NoError(t, err)
	assert.Empty(t, report.Succeeded)
	require.Len(t, report.Failed, 1)
}

func TestIngestReplacesExisting(t *testing.T) {
	f := newIngestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	path := writeFile(t, dir, "doc.txt", "Original content about welding.")
	_, err := f.ingester.Ingest(ctx, []string{path})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("Revised content about corrosion."), 0o644))
	report, err := f.ingester.Ingest(ctx, []string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, report.Succeeded)

	count, err := f.docs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, f.vector.Count())

	rec, err := f.docs.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Contains(t, rec.Content, "Revised")
}

func TestIngestOversizedFile(t *testing.T) {
	f := newIngestFixture(t)
	f.ingester.config.MaxFileSize = 64
	dir := t.TempDir()

	big := writeFile(t, dir, "big.txt", strings.Repeat("x", 256))
	report, err := f.ingester.Ingest(context.Background(), []string{big})
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Err, "size limit")
}

func TestIngestDimensionMismatchIsFatal(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.docs.SetState(ctx, store.StateKeyIndexDimension, "768"))
	require.NoError(t, f.docs.SetState(ctx, store.StateKeyIndexModel, "nomic-embed-text"))

	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", "Some content.")

	_, err := f.ingester.Ingest(ctx, []string{path})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDimensionMismatch, errors.GetCode(err))
}

func TestIngestRecordsEmbeddingInfo(t *testing.T) {
	f := newIngestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	path := writeFile(t, dir, "doc.txt", "Some content for the index.")
	_, err := f.ingester.Ingest(ctx, []string{path})
	require.NoError(t, err)

	dim, err := f.docs.GetState(ctx, store.StateKeyIndexDimension)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(f.embedder.Dimensions()), dim)

	model, err := f.docs.GetState(ctx, store.StateKeyIndexModel)
	require.NoError(t, err)
	assert.Equal(t, f.embedder.ModelName(), model)
}

func TestIngestDelete(t *testing.T) {
	f := newIngestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	path := writeFile(t, dir, "doc.txt", "Content to be removed later.")
	_, err := f.ingester.Ingest(ctx, []string{path})
	require.NoError(t, err)

	require.NoError(t, f.ingester.Delete(ctx, []string{"doc"}))

	count, err := f.docs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, f.vector.Count())

	lexCount, err := f.lexical.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, lexCount)
}

type unwritableLexical struct {
	store.LexicalIndex
}

func (unwritableLexical) Index(context.Context, []*store.DocumentRecord) error {
	return fmt.Errorf("disk full")
}

type unwritableVector struct {
	store.VectorStore
}

func (unwritableVector) Add(context.Context, []string, [][]float32) error {
	return fmt.Errorf("disk full")
}

func TestIngestIndexFailureLeavesNoRecord(t *testing.T) {
	f := newIngestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	ing := New(extract.NewParser(), f.embedder, f.docs,
		unwritableLexical{f.lexical}, f.vector, DefaultConfig())

	path := writeFile(t, dir, "doomed.txt", "A perfectly valid document body.")
	report, err := ing.Ingest(ctx, []string{path})
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.Empty(t, report.Succeeded)

	// The document store write is unwound when indexing fails.
	count, err := f.docs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, f.vector.Count())
}

func TestIngestVectorFailureLeavesNoRecord(t *testing.T) {
	f := newIngestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	ing := New(extract.NewParser(), f.embedder, f.docs,
		f.lexical, unwritableVector{f.vector}, DefaultConfig())

	path := writeFile(t, dir, "doomed.txt", "A perfectly valid document body.")
	report, err := ing.Ingest(ctx, []string{path})
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)

	count, err := f.docs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	lexCount, err := f.lexical.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, lexCount)
}

func TestDocID(t *testing.T) {
	assert.Equal(t, "report", docID("/corpus/report.pdf"))
	assert.Equal(t, "minutes.2024", docID("minutes.2024.docx"))
	assert.Equal(t, "plain", docID("plain.txt"))
}

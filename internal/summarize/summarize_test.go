package summarize

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsearch/internal/embed"
	"github.com/Aman-CERP/docsearch/internal/errors"
	"github.com/Aman-CERP/docsearch/internal/store"
)

func newTestDocs(t *testing.T) *store.SQLiteStore {
	t.Helper()
	docs, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { docs.Close() })

	records := []*store.DocumentRecord{
		{
			ID:    "inspection",
			Title: "Pipeline Inspection",
			Content: "The annual inspection was completed in March. " +
				"Severe corrosion was observed on the pipeline near weld fourteen. " +
				"All other welds passed visual examination without findings.",
		},
		{
			ID:    "budget",
			Title: "Budget Review",
			Content: "Quarterly maintenance spending stayed within the approved budget. " +
				"Next year's forecast includes additional contingency funds.",
		},
	}
	ctx := context.Background()
	for _, rec := range records {
		require.NoError(t, docs.Put(ctx, rec))
	}
	return docs
}

func TestSummarizeFindsRelevantSentence(t *testing.T) {
	docs := newTestDocs(t)
	embedder := embed.NewStaticEmbedder()
	defer embedder.Close()

	s := New(embedder, docs, DefaultConfig())

	sentences, err := s.Summarize(context.Background(), "corrosion on the pipeline", nil)
	require.NoError(t, err)
	require.NotEmpty(t, sentences)

	top := sentences[0]
	assert.Equal(t, "inspection", top.DocID)
	assert.Contains(t, top.Text, "corrosion")
	assert.Greater(t, top.Score, 0.0)
}

func TestSummarizeScopedToDocuments(t *testing.T) {
	docs := newTestDocs(t)
	embedder := embed.NewStaticEmbedder()
	defer embedder.Close()

	s := New(embedder, docs, DefaultConfig())

	sentences, err := s.Summarize(context.Background(), "corrosion on the pipeline", []string{"budget"})
	require.NoError(t, err)
	for _, sent := range sentences {
		assert.Equal(t, "budget", sent.DocID)
	}
}

func TestSummarizeSentenceCount(t *testing.T) {
	docs := newTestDocs(t)
	embedder := embed.NewStaticEmbedder()
	defer embedder.Close()

	cfg := DefaultConfig()
	cfg.Sentences = 2
	s := New(embedder, docs, cfg)

	sentences, err := s.Summarize(context.Background(), "maintenance", nil)
	require.NoError(t, err)
	assert.Len(t, sentences, 2)

	// Relevance order.
	for i := 1; i < len(sentences); i++ {
		assert.GreaterOrEqual(t, sentences[i-1].Score, sentences[i].Score)
	}
}

func TestSummarizeEmptyQuery(t *testing.T) {
	docs := newTestDocs(t)
	embedder := embed.NewStaticEmbedder()
	defer embedder.Close()

	s := New(embedder, docs, DefaultConfig())

	_, err := s.Summarize(context.Background(), "  ", nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidQuery, errors.GetCode(err))
}

func TestSummarizeEmptyCorpus(t *testing.T) {
	docs, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	defer docs.Close()

	embedder := embed.NewStaticEmbedder()
	defer embedder.Close()

	s := New(embedder, docs, DefaultConfig())

	sentences, err := s.Summarize(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Empty(t, sentences)
}

type brokenEmbedder struct{ embed.Embedder }

func (brokenEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("backend unreachable")
}
func (brokenEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, fmt.Errorf("backend unreachable")
}

func TestSummarizeEmbeddingFailureFailsCall(t *testing.T) {
	docs := newTestDocs(t)

	s := New(brokenEmbedder{}, docs, DefaultConfig())

	_, err := s.Summarize(context.Background(), "corrosion", nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEmbeddingFailed, errors.GetCode(err))
}

func TestSummarizeShortSentencesFiltered(t *testing.T) {
	docs, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	defer docs.Close()

	ctx := context.Background()
	require.NoError(t, docs.Put(ctx, &store.DocumentRecord{
		ID:      "short",
		Content: "Yes. No. Maybe so. This sentence is long enough to be considered.",
	}))

	embedder := embed.NewStaticEmbedder()
	defer embedder.Close()

	s := New(embedder, docs, DefaultConfig())

	sentences, err := s.Summarize(ctx, "long sentence", nil)
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Contains(t, sentences[0].Text, "long enough")
}

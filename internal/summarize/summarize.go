// Package summarize builds extractive query-focused summaries by
// scoring document sentences against the query embedding.
package summarize

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/Aman-CERP/docsearch/internal/chunk"
	"github.com/Aman-CERP/docsearch/internal/embed"
	"github.com/Aman-CERP/docsearch/internal/errors"
	"github.com/Aman-CERP/docsearch/internal/store"
)

// Config holds summarizer tuning parameters.
type Config struct {
	// Sentences is the number of sentences in the summary.
	Sentences int

	// MinSentenceLen drops fragments shorter than this many runes.
	MinSentenceLen int

	// MaxCandidates caps the sentences embedded per call.
	MaxCandidates int
}

// DefaultConfig returns the standard summarizer configuration.
func DefaultConfig() Config {
	return Config{
		Sentences:      5,
		MinSentenceLen: 20,
		MaxCandidates:  500,
	}
}

// Sentence is one extracted summary sentence, verbatim from its source.
type Sentence struct {
	DocID    string  `json:"doc_id"`
	Position int     `json:"position"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// Summarizer scores sentences from stored documents against a query.
type Summarizer struct {
	embedder embed.Embedder
	adapter  *chunk.Adapter
	docs     store.DocumentStore
	config   Config
}

// New creates a summarizer.
func New(embedder embed.Embedder, docs store.DocumentStore, config Config) *Summarizer {
	if config.Sentences <= 0 {
		config.Sentences = DefaultConfig().Sentences
	}
	if config.MinSentenceLen <= 0 {
		config.MinSentenceLen = DefaultConfig().MinSentenceLen
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = DefaultConfig().MaxCandidates
	}
	return &Summarizer{
		embedder: embedder,
		adapter:  chunk.NewAdapter(embedder, 0, 0),
		docs:     docs,
		config:   config,
	}
}

// candidate tracks an embedded sentence with its origin before scoring.
type candidate struct {
	docID    string
	docOrder int
	position int
	text     string
	vector   []float32
}

// Summarize returns the top sentences across the given documents,
// ordered by relevance to the query. With no docIDs the whole corpus
// is summarized. Any embedding failure fails the call.
func (s *Summarizer) Summarize(ctx context.Context, query string, docIDs []string) ([]Sentence, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New(errors.ErrCodeInvalidQuery, "query must not be empty", nil)
	}

	if len(docIDs) == 0 {
		all, err := s.docs.AllIDs(ctx)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err)
		}
		docIDs = all
	}
	if len(docIDs) == 0 {
		return []Sentence{}, nil
	}

	records, err := s.docs.GetMany(ctx, docIDs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err)
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEmbeddingFailed, err)
	}

	candidates, err := s.collectCandidates(ctx, records)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []Sentence{}, nil
	}

	scored := make([]Sentence, len(candidates))
	order := make([]int, len(candidates))
	for i, c := range candidates {
		scored[i] = Sentence{
			DocID:    c.docID,
			Position: c.position,
			Text:     c.text,
			Score:    cosineSimilarity(queryVec, c.vector),
		}
		order[i] = c.docOrder
	}

	// Relevance order, ties broken by document order then position so
	// equal-scoring sentences come out deterministically.
	idx := make([]int, len(scored))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		sa, sb := scored[idx[a]], scored[idx[b]]
		if sa.Score != sb.Score {
			return sa.Score > sb.Score
		}
		if order[idx[a]] != order[idx[b]] {
			return order[idx[a]] < order[idx[b]]
		}
		return sa.Position < sb.Position
	})

	n := s.config.Sentences
	if n > len(idx) {
		n = len(idx)
	}
	result := make([]Sentence, n)
	for i := 0; i < n; i++ {
		result[i] = scored[idx[i]]
	}
	return result, nil
}

// collectCandidates embeds each document's sentences, keeping the ones
// long enough to carry meaning, up to MaxCandidates overall.
func (s *Summarizer) collectCandidates(ctx context.Context, records []*store.DocumentRecord) ([]candidate, error) {
	var candidates []candidate
	for docOrder, rec := range records {
		units, err := s.adapter.EmbedSentences(ctx, rec.Content)
		if err != nil {
			return nil, err
		}
		for _, u := range units {
			if len([]rune(u.Text)) <= s.config.MinSentenceLen {
				continue
			}
			candidates = append(candidates, candidate{
				docID:    rec.ID,
				docOrder: docOrder,
				position: u.Position,
				text:     u.Text,
				vector:   u.Vector,
			})
			if len(candidates) >= s.config.MaxCandidates {
				return candidates, nil
			}
		}
	}
	return candidates, nil
}

// cosineSimilarity between two vectors, 0 when either is zero length
// or zero magnitude.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

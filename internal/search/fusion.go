package search

import (
	"sort"

	"github.com/Aman-CERP/docsearch/internal/store"
)

// FusedResult is a single document after weighted score fusion.
type FusedResult struct {
	DocID        string
	Score        float64  // Weighted sum of normalized signal scores
	LexicalScore float64  // Raw BM25 score (preserved)
	VectorScore  float64  // Raw cosine score (preserved)
	InBothLists  bool     // Document appeared in both result lists
	MatchedTerms []string // Lexical matched terms (for highlighting)
}

// Fusion combines lexical and vector results with min-max normalized
// weighted scoring.
//
// Each signal's scores are normalized to [0, 1] within the current
// round, then combined: score(d) = w_lex * norm_lex(d) + w_vec * norm_vec(d).
// A document absent from a list contributes 0 from that signal.
type Fusion struct{}

// NewFusion creates a fusion instance.
func NewFusion() *Fusion {
	return &Fusion{}
}

// Fuse merges the two result lists under the given weights.
//
// Results are sorted by: fused score (desc) → raw lexical score (desc)
// → DocID (asc).
func (f *Fusion) Fuse(
	lexical []*store.LexicalResult,
	vector []*store.VectorResult,
	weights Weights,
) []*FusedResult {
	if len(lexical) == 0 && len(vector) == 0 {
		return []*FusedResult{}
	}

	scores := make(map[string]*FusedResult, len(lexical)+len(vector))

	lexNorm := normalizeLexical(lexical)
	for i, r := range lexical {
		result := f.getOrCreate(scores, r.DocID)
		result.LexicalScore = r.Score
		result.MatchedTerms = r.MatchedTerms
		result.Score += weights.Lexical * lexNorm[i]
	}

	vecNorm := normalizeVector(vector)
	for i, r := range vector {
		_, inLexical := scores[r.DocID]
		result := f.getOrCreate(scores, r.DocID)
		result.VectorScore = float64(r.Score)
		result.Score += weights.Vector * vecNorm[i]
		result.InBothLists = inLexical
	}

	return f.toSortedSlice(scores)
}

// getOrCreate returns the existing entry or creates a new one.
func (f *Fusion) getOrCreate(m map[string]*FusedResult, id string) *FusedResult {
	if r, ok := m[id]; ok {
		return r
	}
	r := &FusedResult{DocID: id}
	m[id] = r
	return r
}

// toSortedSlice converts the map to a deterministically ordered slice.
func (f *Fusion) toSortedSlice(m map[string]*FusedResult) []*FusedResult {
	results := make([]*FusedResult, 0, len(m))
	for _, r := range m {
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		return f.compare(results[i], results[j])
	})

	return results
}

// compare returns true if a should rank before b.
//
// Priority:
//  1. Higher fused score
//  2. Higher raw lexical score (exact match indicator)
//  3. Lexicographically smaller DocID (deterministic)
func (f *Fusion) compare(a, b *FusedResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.LexicalScore != b.LexicalScore {
		return a.LexicalScore > b.LexicalScore
	}
	return a.DocID < b.DocID
}

// normalizeLexical min-max scales lexical scores within this round.
// A round where every score is equal normalizes to 1.0.
func normalizeLexical(results []*store.LexicalResult) []float64 {
	norm := make([]float64, len(results))
	if len(results) == 0 {
		return norm
	}

	minScore, maxScore := results[0].Score, results[0].Score
	for _, r := range results[1:] {
		if r.Score < minScore {
			minScore = r.Score
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}

	spread := maxScore - minScore
	for i, r := range results {
		if spread == 0 {
			norm[i] = 1.0
		} else {
			norm[i] = (r.Score - minScore) / spread
		}
	}
	return norm
}

// normalizeVector min-max scales vector scores within this round.
func normalizeVector(results []*store.VectorResult) []float64 {
	norm := make([]float64, len(results))
	if len(results) == 0 {
		return norm
	}

	minScore, maxScore := float64(results[0].Score), float64(results[0].Score)
	for _, r := range results[1:] {
		s := float64(r.Score)
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}

	spread := maxScore - minScore
	for i, r := range results {
		if spread == 0 {
			norm[i] = 1.0
		} else {
			norm[i] = (float64(r.Score) - minScore) / spread
		}
	}
	return norm
}

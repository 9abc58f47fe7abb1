// Package search provides hybrid retrieval combining lexical BM25 and
// semantic vector search. Results from both signals are fused with
// min-max normalized weighted scoring.
package search

import "github.com/Aman-CERP/docsearch/internal/store"

// Weights controls the relative contribution of each signal.
type Weights struct {
	Lexical float64
	Vector  float64
}

// DefaultWeights gives both signals equal say.
func DefaultWeights() Weights {
	return Weights{Lexical: 0.5, Vector: 0.5}
}

// EngineConfig holds search engine tuning parameters.
type EngineConfig struct {
	// DefaultLimit is the result count when the caller passes none.
	DefaultLimit int

	// MaxLimit caps the requested result count.
	MaxLimit int

	// CandidateMultiplier oversamples each signal before fusion so a
	// document strong in one signal can still surface after fusing.
	CandidateMultiplier int

	// DefaultWeights is used when SearchOptions carries no weights.
	DefaultWeights Weights
}

// DefaultEngineConfig returns the standard engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultLimit:        20,
		MaxLimit:            100,
		CandidateMultiplier: 3,
		DefaultWeights:      DefaultWeights(),
	}
}

// SearchOptions configures a single search call.
type SearchOptions struct {
	// Limit is the maximum number of results to return.
	Limit int

	// Weights overrides the engine's default signal weights.
	Weights *Weights
}

// Range marks a byte span inside a snippet for highlighting.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SearchResult is a single document hit after fusion and enrichment.
type SearchResult struct {
	Document *store.DocumentRecord `json:"-"`

	DocID string `json:"doc_id"`
	Title string `json:"title"`

	// Score is the fused score in [0, 1].
	Score float64 `json:"score"`

	// LexicalScore and VectorScore are the raw per-signal scores,
	// zero when the document missed that signal's list.
	LexicalScore float64 `json:"lexical_score"`
	VectorScore  float64 `json:"vector_score"`

	// InBothLists is set when both signals returned the document.
	InBothLists bool `json:"in_both_lists"`

	// MatchedTerms are the lexical query terms found in the document.
	MatchedTerms []string `json:"matched_terms,omitempty"`

	// Snippet is a short excerpt around the first lexical match.
	Snippet string `json:"snippet"`

	// Highlights are byte ranges of matched terms inside Snippet.
	Highlights []Range `json:"highlights,omitempty"`
}

// Response wraps search results with degradation status.
type Response struct {
	Results []*SearchResult `json:"results"`

	// Degraded is set when one signal failed and results come from
	// the surviving signal only.
	Degraded bool `json:"degraded"`

	// DegradedReason explains the failed signal when Degraded is set.
	DegradedReason string `json:"degraded_reason,omitempty"`
}

package search

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/docsearch/internal/embed"
	"github.com/Aman-CERP/docsearch/internal/errors"
	"github.com/Aman-CERP/docsearch/internal/store"
)

// Engine runs hybrid search over the lexical index and the vector store.
type Engine struct {
	lexical  store.LexicalIndex
	vector   store.VectorStore
	docs     store.DocumentStore
	embedder embed.Embedder
	config   EngineConfig
	fusion   *Fusion
}

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = stderrors.New("nil dependency")

// NewEngine creates a hybrid search engine.
// Returns an error if any required dependency is nil.
func NewEngine(
	lexical store.LexicalIndex,
	vector store.VectorStore,
	docs store.DocumentStore,
	embedder embed.Embedder,
	config EngineConfig,
) (*Engine, error) {
	if lexical == nil {
		return nil, fmt.Errorf("%w: lexical index is required", ErrNilDependency)
	}
	if vector == nil {
		return nil, fmt.Errorf("%w: vector store is required", ErrNilDependency)
	}
	if docs == nil {
		return nil, fmt.Errorf("%w: document store is required", ErrNilDependency)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrNilDependency)
	}
	return &Engine{
		lexical:  lexical,
		vector:   vector,
		docs:     docs,
		embedder: embedder,
		config:   config,
		fusion:   NewFusion(),
	}, nil
}

// Search executes a hybrid search and returns fused, enriched results.
//
// Both signals run in parallel. If one fails the response carries the
// surviving signal's results with Degraded set; only when both fail is
// an error returned.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New(errors.ErrCodeInvalidQuery, "query must not be empty", nil)
	}

	opts = e.applyDefaults(opts)
	candidates := opts.Limit * e.config.CandidateMultiplier

	// An index built with a different embedder cannot be searched
	// semantically. Fall back to lexical-only rather than failing.
	if err := e.validateDimensions(ctx); err != nil {
		slog.Warn("embedding dimension mismatch, semantic search disabled",
			slog.String("error", err.Error()))

		lexResults, lexErr := e.lexical.Search(ctx, query, candidates)
		if lexErr != nil {
			if stderrors.Is(lexErr, context.DeadlineExceeded) {
				return nil, errors.New(errors.ErrCodeTimeout,
					"search timed out", lexErr)
			}
			return nil, errors.New(errors.ErrCodeIndexUnavailable,
				"both search signals unavailable", stderrors.Join(err, lexErr))
		}
		fused := e.fusion.Fuse(lexResults, nil, *opts.Weights)
		results, enrichErr := e.enrichResults(ctx, fused, query, opts.Limit)
		if enrichErr != nil {
			return nil, enrichErr
		}
		return &Response{
			Results:        results,
			Degraded:       true,
			DegradedReason: "semantic search disabled: " + err.Error(),
		}, nil
	}

	lexResults, vecResults, degradedReason, err := e.parallelSearch(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	fused := e.fusion.Fuse(lexResults, vecResults, *opts.Weights)
	results, err := e.enrichResults(ctx, fused, query, opts.Limit)
	if err != nil {
		return nil, err
	}

	return &Response{
		Results:        results,
		Degraded:       degradedReason != "",
		DegradedReason: degradedReason,
	}, nil
}

// applyDefaults fills in limit and weights, normalizing the weights so
// fused scores stay in [0, 1].
func (e *Engine) applyDefaults(opts SearchOptions) SearchOptions {
	if opts.Limit <= 0 {
		opts.Limit = e.config.DefaultLimit
	}
	if opts.Limit > e.config.MaxLimit {
		opts.Limit = e.config.MaxLimit
	}

	w := e.config.DefaultWeights
	if opts.Weights != nil {
		w = *opts.Weights
	}
	if sum := w.Lexical + w.Vector; sum > 0 {
		w.Lexical /= sum
		w.Vector /= sum
	}
	opts.Weights = &w

	return opts
}

// validateDimensions checks the current embedder against the dimension
// recorded at index time. Returns nil for a fresh index.
func (e *Engine) validateDimensions(ctx context.Context) error {
	stored, err := e.docs.GetState(ctx, store.StateKeyIndexDimension)
	if err != nil || stored == "" {
		return nil
	}

	indexDim, err := strconv.Atoi(stored)
	if err != nil {
		slog.Warn("invalid stored index dimension", slog.String("value", stored))
		return nil
	}

	if currentDim := e.embedder.Dimensions(); indexDim != currentDim {
		storedModel, _ := e.docs.GetState(ctx, store.StateKeyIndexModel)
		return fmt.Errorf("%w: index built with %q, current embedder is %q",
			store.ErrDimensionMismatch{Expected: indexDim, Got: currentDim},
			storedModel, e.embedder.ModelName())
	}

	return nil
}

// parallelSearch runs both signals concurrently. A single failure is
// reported through degradedReason; only a double failure is an error.
func (e *Engine) parallelSearch(ctx context.Context, query string, limit int) (
	lexResults []*store.LexicalResult,
	vecResults []*store.VectorResult,
	degradedReason string,
	err error,
) {
	g, gctx := errgroup.WithContext(ctx)

	var lexErr, vecErr error

	g.Go(func() error {
		var searchErr error
		lexResults, searchErr = e.lexical.Search(gctx, query, limit)
		if searchErr != nil {
			lexErr = searchErr
		}
		return nil
	})

	g.Go(func() error {
		embedding, embedErr := e.embedder.Embed(gctx, query)
		if embedErr != nil {
			vecErr = embedErr
			return nil
		}

		var searchErr error
		vecResults, searchErr = e.vector.Search(gctx, embedding, limit)
		if searchErr != nil {
			vecErr = searchErr
		}
		return nil
	})

	if waitErr := g.Wait(); waitErr != nil {
		return nil, nil, "", waitErr
	}

	if lexErr != nil && vecErr != nil {
		joined := stderrors.Join(lexErr, vecErr)
		// A deadline takes both signals down together; report it as a
		// timeout rather than an index failure.
		if stderrors.Is(joined, context.DeadlineExceeded) {
			return nil, nil, "", errors.New(errors.ErrCodeTimeout,
				"search timed out", joined)
		}
		return nil, nil, "", errors.New(errors.ErrCodeIndexUnavailable,
			"both search signals failed", joined)
	}

	if lexErr != nil {
		slog.Warn("lexical search failed, continuing with vector results",
			slog.String("error", lexErr.Error()))
		degradedReason = "lexical search failed: " + lexErr.Error()
		lexResults = nil
	}
	if vecErr != nil {
		slog.Warn("vector search failed, continuing with lexical results",
			slog.String("error", vecErr.Error()))
		degradedReason = "vector search failed: " + vecErr.Error()
		vecResults = nil
	}

	return lexResults, vecResults, degradedReason, nil
}

// enrichResults fetches full documents in one batch and builds the
// final result list, applying the limit.
func (e *Engine) enrichResults(ctx context.Context, fused []*FusedResult, query string, limit int) ([]*SearchResult, error) {
	if len(fused) > limit {
		fused = fused[:limit]
	}
	if len(fused) == 0 {
		return []*SearchResult{}, nil
	}

	ids := make([]string, len(fused))
	fusedByID := make(map[string]*FusedResult, len(fused))
	for i, f := range fused {
		ids[i] = f.DocID
		fusedByID[f.DocID] = f
	}

	records, err := e.docs.GetMany(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSearchFailed, err)
	}

	results := make([]*SearchResult, 0, len(records))
	for _, rec := range records {
		f, ok := fusedByID[rec.ID]
		if !ok {
			continue
		}

		snippet, highlights := buildSnippet(rec.Content, f.MatchedTerms, query)
		results = append(results, &SearchResult{
			Document:     rec,
			DocID:        rec.ID,
			Title:        rec.Title,
			Score:        f.Score,
			LexicalScore: f.LexicalScore,
			VectorScore:  f.VectorScore,
			InBothLists:  f.InBothLists,
			MatchedTerms: f.MatchedTerms,
			Snippet:      snippet,
			Highlights:   highlights,
		})
	}

	return results, nil
}

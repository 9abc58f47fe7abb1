// Package ingest runs the document indexing pipeline: extract, embed,
// and write to the document store and both search indices.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/docsearch/internal/chunk"
	"github.com/Aman-CERP/docsearch/internal/embed"
	"github.com/Aman-CERP/docsearch/internal/errors"
	"github.com/Aman-CERP/docsearch/internal/extract"
	"github.com/Aman-CERP/docsearch/internal/store"
)

// Config holds ingestion settings.
type Config struct {
	// Workers is the number of documents processed concurrently.
	Workers int

	// MaxFileSize in bytes; larger files fail with FileTooLarge.
	MaxFileSize int64

	// ChunkSentences and ChunkOverlap shape the leading sentence
	// window used for the document-level embedding.
	ChunkSentences int
	ChunkOverlap   int
}

// DefaultConfig returns the standard ingestion configuration.
func DefaultConfig() Config {
	return Config{
		Workers:     runtime.NumCPU(),
		MaxFileSize: 50 * 1024 * 1024,
	}
}

// Failure records one document that could not be ingested.
type Failure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Report summarizes an ingestion run.
type Report struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []Failure     `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Ingester drives the per-document pipeline.
type Ingester struct {
	parser   *extract.Parser
	embedder embed.Embedder
	adapter  *chunk.Adapter
	docs     store.DocumentStore
	lexical  store.LexicalIndex
	vector   store.VectorStore
	config   Config
}

// New creates an ingester.
func New(
	parser *extract.Parser,
	embedder embed.Embedder,
	docs store.DocumentStore,
	lexical store.LexicalIndex,
	vector store.VectorStore,
	config Config,
) *Ingester {
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = DefaultConfig().MaxFileSize
	}
	return &Ingester{
		parser:   parser,
		embedder: embedder,
		adapter:  chunk.NewAdapter(embedder, config.ChunkSentences, config.ChunkOverlap),
		docs:     docs,
		lexical:  lexical,
		vector:   vector,
		config:   config,
	}
}

// Ingest processes the given files. One bad document never aborts the
// batch; each failure lands in the report. Re-ingesting a path
// replaces the previous record under the same document ID.
//
// A corpus indexed with a different embedding dimension is a fatal
// error for the whole run: mixing dimensions would corrupt the vector
// index.
func (ing *Ingester) Ingest(ctx context.Context, paths []string) (*Report, error) {
	start := time.Now()

	if err := ing.checkDimensions(ctx); err != nil {
		return nil, err
	}

	report := &Report{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.config.Workers)

	for _, path := range paths {
		g.Go(func() error {
			id, err := ing.ingestOne(gctx, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("document failed",
					slog.String("path", path),
					slog.String("error", err.Error()))
				report.Failed = append(report.Failed, Failure{Path: path, Err: err.Error()})
			} else {
				report.Succeeded = append(report.Succeeded, id)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ing.recordEmbeddingInfo(ctx); err != nil {
		slog.Warn("failed to record index embedding info",
			slog.String("error", err.Error()))
	}

	sort.Strings(report.Succeeded)
	sort.Slice(report.Failed, func(i, j int) bool {
		return report.Failed[i].Path < report.Failed[j].Path
	})
	report.Duration = time.Since(start)

	slog.Info("ingestion complete",
		slog.Int("succeeded", len(report.Succeeded)),
		slog.Int("failed", len(report.Failed)),
		slog.Duration("duration", report.Duration))

	return report, nil
}

// ingestOne runs the pipeline for a single file and returns its
// document ID.
func (ing *Ingester) ingestOne(ctx context.Context, path string) (string, error) {
	format, err := extract.DetectFormat(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", errors.IOError(fmt.Sprintf("cannot stat %s", path), err)
	}
	if info.Size() > ing.config.MaxFileSize {
		return "", errors.New(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s exceeds size limit (%d > %d bytes)", path, info.Size(), ing.config.MaxFileSize), nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.IOError(fmt.Sprintf("cannot read %s", path), err)
	}

	name := filepath.Base(path)
	doc, err := ing.parser.Extract(data, format, name)
	if err != nil {
		return "", err
	}

	id := docID(path)
	embedding, err := ing.adapter.EmbedDocument(ctx, doc.Title, doc.Text)
	if err != nil {
		return "", err
	}

	rec := &store.DocumentRecord{
		ID:        id,
		Title:     doc.Title,
		Path:      path,
		Format:    string(format),
		Headings:  doc.Headings,
		Sections:  doc.Sections,
		Content:   doc.Text,
		Embedding: embedding,
		Warnings:  doc.Warnings,
	}

	// A failed document must not stay visible in any store, so each
	// later failure unwinds the writes that already landed.
	if err := ing.docs.Put(ctx, rec); err != nil {
		return "", errors.Wrap(errors.ErrCodeIngestFailed, err)
	}
	if err := ing.lexical.Index(ctx, []*store.DocumentRecord{rec}); err != nil {
		ing.unwind(ctx, id, false)
		return "", errors.Wrap(errors.ErrCodeIngestFailed, err)
	}
	if err := ing.vector.Add(ctx, []string{id}, [][]float32{embedding}); err != nil {
		ing.unwind(ctx, id, true)
		return "", errors.Wrap(errors.ErrCodeIngestFailed, err)
	}

	slog.Debug("document ingested",
		slog.String("id", id),
		slog.String("title", doc.Title),
		slog.Int("warnings", len(doc.Warnings)))

	return id, nil
}

// unwind removes the partial writes of a failed document. Cleanup is
// best effort; a failure here is logged, not returned, because the
// caller already has the pipeline error to report.
func (ing *Ingester) unwind(ctx context.Context, id string, indexed bool) {
	if indexed {
		if err := ing.lexical.Delete(ctx, []string{id}); err != nil {
			slog.Warn("cleanup of failed document left a stale index entry",
				slog.String("id", id),
				slog.String("error", err.Error()))
		}
	}
	if err := ing.docs.Delete(ctx, id); err != nil {
		slog.Warn("cleanup of failed document left a stale record",
			slog.String("id", id),
			slog.String("error", err.Error()))
	}
}

// Delete removes documents from all three stores.
func (ing *Ingester) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := ing.lexical.Delete(ctx, ids); err != nil {
		return errors.Wrap(errors.ErrCodeIngestFailed, err)
	}
	if err := ing.vector.Delete(ctx, ids); err != nil {
		return errors.Wrap(errors.ErrCodeIngestFailed, err)
	}
	for _, id := range ids {
		if err := ing.docs.Delete(ctx, id); err != nil {
			return errors.Wrap(errors.ErrCodeIngestFailed, err)
		}
	}
	return nil
}

// checkDimensions fails the run when the index was built with a
// different embedding dimension.
func (ing *Ingester) checkDimensions(ctx context.Context) error {
	stored, err := ing.docs.GetState(ctx, store.StateKeyIndexDimension)
	if err != nil || stored == "" {
		return nil
	}

	indexDim, err := strconv.Atoi(stored)
	if err != nil {
		return nil
	}

	if currentDim := ing.embedder.Dimensions(); indexDim != currentDim {
		storedModel, _ := ing.docs.GetState(ctx, store.StateKeyIndexModel)
		wrapped := errors.New(errors.ErrCodeDimensionMismatch,
			fmt.Sprintf("index was built with %d dimensions (%s), current embedder produces %d (%s)",
				indexDim, storedModel, currentDim, ing.embedder.ModelName()),
			store.ErrDimensionMismatch{Expected: indexDim, Got: currentDim})
		return wrapped.WithSuggestion("re-ingest the corpus with the original model, or reset the index")
	}

	return nil
}

// recordEmbeddingInfo stores the dimension and model used for the
// index so later runs can detect a changed embedder.
func (ing *Ingester) recordEmbeddingInfo(ctx context.Context) error {
	dim := strconv.Itoa(ing.embedder.Dimensions())
	if err := ing.docs.SetState(ctx, store.StateKeyIndexDimension, dim); err != nil {
		return err
	}
	return ing.docs.SetState(ctx, store.StateKeyIndexModel, ing.embedder.ModelName())
}

// docID derives the document ID from the file name stem.
func docID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

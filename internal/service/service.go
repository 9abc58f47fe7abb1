// Package service wires the extractor, embedder, stores, search
// engine, ingester, and summarizer into one facade for the CLI.
package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/docsearch/internal/config"
	"github.com/Aman-CERP/docsearch/internal/embed"
	"github.com/Aman-CERP/docsearch/internal/errors"
	"github.com/Aman-CERP/docsearch/internal/extract"
	"github.com/Aman-CERP/docsearch/internal/ingest"
	"github.com/Aman-CERP/docsearch/internal/search"
	"github.com/Aman-CERP/docsearch/internal/source"
	"github.com/Aman-CERP/docsearch/internal/store"
	"github.com/Aman-CERP/docsearch/internal/summarize"
)

// Store file names under the data directory.
const (
	documentsFile = "documents.db"
	lexicalDir    = "lexical.bleve"
	vectorsFile   = "vectors.hnsw"
)

// Service owns the component lifecycle and exposes the operations the
// CLI calls.
type Service struct {
	cfg        *config.Config
	docs       store.DocumentStore
	lexical    store.LexicalIndex
	vector     *store.HNSWStore
	embedder   embed.Embedder
	engine     *search.Engine
	ingester   *ingest.Ingester
	summarizer *summarize.Summarizer
	vectorPath string
}

// Status reports the state of the index and its components.
type Status struct {
	DataDir        string `json:"data_dir"`
	Documents      int    `json:"documents"`
	Vectors        int    `json:"vectors"`
	EmbedModel     string `json:"embed_model"`
	EmbedDims      int    `json:"embed_dims"`
	EmbedAvailable bool   `json:"embed_available"`
	IndexModel     string `json:"index_model,omitempty"`
	IndexDims      string `json:"index_dims,omitempty"`
}

// New builds a service from configuration. An existing vector index on
// disk is loaded; its dimensions take precedence over the embedder's
// so a model switch is detected at search time instead of corrupting
// the graph.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		return nil, errors.IOError("cannot create data directory", err)
	}

	embedder, err := embed.New(ctx, embed.FactoryConfig{
		Provider: cfg.Embeddings.Provider,
		Ollama: embed.OllamaConfig{
			Host:  cfg.Embeddings.OllamaHost,
			Model: cfg.Embeddings.Model,
		},
		CacheSize: cfg.Embeddings.CacheSize,
	})
	if err != nil {
		return nil, err
	}

	docs, err := store.NewSQLiteStore(filepath.Join(cfg.Paths.DataDir, documentsFile))
	if err != nil {
		embedder.Close()
		return nil, errors.IOError("cannot open document store", err)
	}

	lexical, err := store.NewBleveIndex(filepath.Join(cfg.Paths.DataDir, lexicalDir))
	if err != nil {
		embedder.Close()
		docs.Close()
		return nil, errors.IOError("cannot open lexical index", err)
	}

	vectorPath := filepath.Join(cfg.Paths.DataDir, vectorsFile)
	dims := embedder.Dimensions()
	if saved, err := store.ReadHNSWStoreDimensions(vectorPath); err == nil && saved > 0 {
		dims = saved
	}

	vector, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(dims))
	if err != nil {
		embedder.Close()
		docs.Close()
		lexical.Close()
		return nil, err
	}
	if _, statErr := os.Stat(vectorPath); statErr == nil {
		if loadErr := vector.Load(vectorPath); loadErr != nil {
			slog.Warn("vector index load failed, starting empty",
				slog.String("path", vectorPath),
				slog.String("error", loadErr.Error()))
		}
	}

	engineCfg := search.DefaultEngineConfig()
	engineCfg.DefaultLimit = cfg.Search.MaxResults
	engineCfg.CandidateMultiplier = cfg.Search.CandidateMultiplier
	lw, vw := cfg.NormalizedWeights()
	engineCfg.DefaultWeights = search.Weights{Lexical: lw, Vector: vw}

	engine, err := search.NewEngine(lexical, vector, docs, embedder, engineCfg)
	if err != nil {
		embedder.Close()
		docs.Close()
		lexical.Close()
		vector.Close()
		return nil, err
	}

	ingester := ingest.New(extract.NewParser(), embedder, docs, lexical, vector, ingest.Config{
		Workers:        cfg.Ingest.Workers,
		MaxFileSize:    int64(cfg.Ingest.MaxFileSizeMB) * 1024 * 1024,
		ChunkSentences: cfg.Ingest.ChunkSentences,
		ChunkOverlap:   cfg.Ingest.ChunkOverlap,
	})

	summarizer := summarize.New(embedder, docs, summarize.Config{
		Sentences:      cfg.Summary.Sentences,
		MinSentenceLen: cfg.Summary.MinSentenceLen,
		MaxCandidates:  cfg.Summary.MaxCandidates,
	})

	return &Service{
		cfg:        cfg,
		docs:       docs,
		lexical:    lexical,
		vector:     vector,
		embedder:   embedder,
		engine:     engine,
		ingester:   ingester,
		summarizer: summarizer,
		vectorPath: vectorPath,
	}, nil
}

// Search runs a hybrid query.
func (s *Service) Search(ctx context.Context, query string, limit int) (*search.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Search.Timeout)
	defer cancel()
	return s.engine.Search(ctx, query, search.SearchOptions{Limit: limit})
}

// Ingest indexes the given files and persists the vector index.
func (s *Service) Ingest(ctx context.Context, paths []string) (*ingest.Report, error) {
	report, err := s.ingester.Ingest(ctx, paths)
	if err != nil {
		return nil, err
	}
	if err := s.vector.Save(s.vectorPath); err != nil {
		slog.Warn("vector index save failed",
			slog.String("path", s.vectorPath),
			slog.String("error", err.Error()))
	}
	return report, nil
}

// IngestDir walks a directory and ingests every supported document.
func (s *Service) IngestDir(ctx context.Context, dir string) (*ingest.Report, error) {
	src, err := source.NewFSSource(dir, int64(s.cfg.Ingest.MaxFileSizeMB)*1024*1024)
	if err != nil {
		return nil, errors.IOError("cannot open corpus directory", err)
	}
	paths, err := src.ListPaths()
	if err != nil {
		return nil, errors.IOError("cannot list corpus directory", err)
	}
	return s.Ingest(ctx, paths)
}

// Summarize builds a query-focused extractive summary.
func (s *Service) Summarize(ctx context.Context, query string, docIDs []string) ([]summarize.Sentence, error) {
	return s.summarizer.Summarize(ctx, query, docIDs)
}

// Status reports index counts and embedder state.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	docCount, err := s.docs.Count(ctx)
	if err != nil {
		return nil, err
	}

	indexModel, _ := s.docs.GetState(ctx, store.StateKeyIndexModel)
	indexDims, _ := s.docs.GetState(ctx, store.StateKeyIndexDimension)

	return &Status{
		DataDir:        s.cfg.Paths.DataDir,
		Documents:      docCount,
		Vectors:        s.vector.Count(),
		EmbedModel:     s.embedder.ModelName(),
		EmbedDims:      s.embedder.Dimensions(),
		EmbedAvailable: s.embedder.Available(ctx),
		IndexModel:     indexModel,
		IndexDims:      indexDims,
	}, nil
}

// Reset drops every document from all stores and clears the recorded
// embedding state.
func (s *Service) Reset(ctx context.Context) error {
	ids, err := s.docs.AllIDs(ctx)
	if err != nil {
		return err
	}
	if err := s.ingester.Delete(ctx, ids); err != nil {
		return err
	}
	if err := s.docs.SetState(ctx, store.StateKeyIndexDimension, ""); err != nil {
		return err
	}
	if err := s.docs.SetState(ctx, store.StateKeyIndexModel, ""); err != nil {
		return err
	}
	if err := os.Remove(s.vectorPath); err != nil && !os.IsNotExist(err) {
		return errors.IOError("cannot remove vector index", err)
	}
	if err := os.Remove(s.vectorPath + ".meta"); err != nil && !os.IsNotExist(err) {
		return errors.IOError("cannot remove vector index metadata", err)
	}
	return nil
}

// Close persists the vector index and releases everything.
func (s *Service) Close() error {
	var errs []error

	if s.vector.Count() > 0 {
		if err := s.vector.Save(s.vectorPath); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.lexical.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.vector.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.docs.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.embedder.Close(); err != nil {
		errs = append(errs, err)
	}

	return stderrors.Join(errs...)
}

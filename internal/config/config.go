// Package config loads and validates docsearch configuration.
//
// Configuration is applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. Config file (.docsearch.yaml in the working directory)
//  3. Environment variables (DOCSEARCH_*)
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete docsearch configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Ingest     IngestConfig     `yaml:"ingest" json:"ingest"`
	Summary    SummaryConfig    `yaml:"summary" json:"summary"`
	LogLevel   string           `yaml:"log_level" json:"log_level"`
}

// PathsConfig configures where the index and document corpus live.
type PathsConfig struct {
	// DataDir holds the lexical index, vector store, and document store.
	// Defaults to ~/.docsearch/index.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Corpus is the directory scanned for documents by `docsearch ingest`.
	Corpus string `yaml:"corpus" json:"corpus"`
}

// SearchConfig configures hybrid search parameters.
//
// Weights are configurable via .docsearch.yaml or env vars
// (DOCSEARCH_LEXICAL_WEIGHT, DOCSEARCH_VECTOR_WEIGHT); they must be
// non-negative and sum to a positive value.
type SearchConfig struct {
	// LexicalWeight is the weight for BM25 keyword matching.
	LexicalWeight float64 `yaml:"lexical_weight" json:"lexical_weight"`

	// VectorWeight is the weight for embedding similarity.
	VectorWeight float64 `yaml:"vector_weight" json:"vector_weight"`

	// MaxResults is the default result limit when the caller passes none.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// CandidateMultiplier controls how many candidates each signal
	// fetches relative to the requested limit before fusion.
	CandidateMultiplier int `yaml:"candidate_multiplier" json:"candidate_multiplier"`

	// Timeout bounds a single search request.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the backend: "ollama" or "static".
	// Empty triggers auto-detection (Ollama if reachable, else static).
	Provider string `yaml:"provider" json:"provider"`

	// Model is the embedding model name for the Ollama provider.
	Model string `yaml:"model" json:"model"`

	// Dimensions is the expected vector width. 0 auto-detects from the
	// provider on first use.
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// BatchSize is the number of texts embedded per backend call.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// OllamaHost is the Ollama API endpoint. Empty uses
	// http://localhost:11434.
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`

	// CacheSize is the LRU embedding cache capacity (entries).
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// IngestConfig configures document ingestion.
type IngestConfig struct {
	// Workers is the number of documents processed concurrently.
	Workers int `yaml:"workers" json:"workers"`

	// MaxFileSizeMB skips files larger than this (default: 50).
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`

	// ChunkSentences is the number of sentences per chunk.
	ChunkSentences int `yaml:"chunk_sentences" json:"chunk_sentences"`

	// ChunkOverlap is the number of sentences shared between adjacent chunks.
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`
}

// SummaryConfig configures extractive summarization.
type SummaryConfig struct {
	// Sentences is the number of sentences in a summary.
	Sentences int `yaml:"sentences" json:"sentences"`

	// MinSentenceLen filters out fragments shorter than this many runes.
	MinSentenceLen int `yaml:"min_sentence_len" json:"min_sentence_len"`

	// MaxCandidates caps how many sentences are scored per document.
	MaxCandidates int `yaml:"max_candidates" json:"max_candidates"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir: defaultDataDir(),
			Corpus:  ".",
		},
		Search: SearchConfig{
			LexicalWeight:       0.5,
			VectorWeight:        0.5,
			MaxResults:          20,
			CandidateMultiplier: 3,
			Timeout:             10 * time.Second,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "", // Auto-detect: Ollama if reachable, else static
			Model:      "nomic-embed-text",
			Dimensions: 0, // Auto-detect from embedder
			BatchSize:  32,
			OllamaHost: "",
			CacheSize:  10000,
		},
		Ingest: IngestConfig{
			Workers:        runtime.NumCPU(),
			MaxFileSizeMB:  50,
			ChunkSentences: 8,
			ChunkOverlap:   1,
		},
		Summary: SummaryConfig{
			Sentences:      5,
			MinSentenceLen: 20,
			MaxCandidates:  500,
		},
		LogLevel: "info",
	}
}

// defaultDataDir returns the default index storage path.
func defaultDataDir() string {
	if home := os.Getenv("DOCSEARCH_HOME"); home != "" {
		return filepath.Join(home, "index")
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".docsearch", "index")
	}
	return filepath.Join(userHome, ".docsearch", "index")
}

// Load loads configuration from the specified directory.
func Load(dir string) (*Config, error) {
	// A .env file next to the config supplies env vars without
	// polluting the shell. Missing files are ignored.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .docsearch.yaml or .docsearch.yml.
func (c *Config) loadFromFile(dir string) error {
	// Try .yaml first (takes precedence)
	yamlPath := filepath.Join(dir, ".docsearch.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	// Try .yml as fallback
	ymlPath := filepath.Join(dir, ".docsearch.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Paths.DataDir != "" {
		c.Paths.DataDir = other.Paths.DataDir
	}
	if other.Paths.Corpus != "" {
		c.Paths.Corpus = other.Paths.Corpus
	}

	if other.Search.LexicalWeight != 0 {
		c.Search.LexicalWeight = other.Search.LexicalWeight
	}
	if other.Search.VectorWeight != 0 {
		c.Search.VectorWeight = other.Search.VectorWeight
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.CandidateMultiplier != 0 {
		c.Search.CandidateMultiplier = other.Search.CandidateMultiplier
	}
	if other.Search.Timeout != 0 {
		c.Search.Timeout = other.Search.Timeout
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}

	if other.Ingest.Workers != 0 {
		c.Ingest.Workers = other.Ingest.Workers
	}
	if other.Ingest.MaxFileSizeMB != 0 {
		c.Ingest.MaxFileSizeMB = other.Ingest.MaxFileSizeMB
	}
	if other.Ingest.ChunkSentences != 0 {
		c.Ingest.ChunkSentences = other.Ingest.ChunkSentences
	}
	if other.Ingest.ChunkOverlap != 0 {
		c.Ingest.ChunkOverlap = other.Ingest.ChunkOverlap
	}

	if other.Summary.Sentences != 0 {
		c.Summary.Sentences = other.Summary.Sentences
	}
	if other.Summary.MinSentenceLen != 0 {
		c.Summary.MinSentenceLen = other.Summary.MinSentenceLen
	}
	if other.Summary.MaxCandidates != 0 {
		c.Summary.MaxCandidates = other.Summary.MaxCandidates
	}

	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// applyEnvOverrides applies DOCSEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCSEARCH_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("DOCSEARCH_LEXICAL_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.LexicalWeight = f
		}
	}
	if v := os.Getenv("DOCSEARCH_VECTOR_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.VectorWeight = f
		}
	}
	if v := os.Getenv("DOCSEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv("DOCSEARCH_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("DOCSEARCH_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("DOCSEARCH_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("DOCSEARCH_INGEST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Ingest.Workers = n
		}
	}
	if v := os.Getenv("DOCSEARCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.LexicalWeight < 0 || c.Search.VectorWeight < 0 {
		return fmt.Errorf("search weights must be non-negative (lexical=%.2f, vector=%.2f)",
			c.Search.LexicalWeight, c.Search.VectorWeight)
	}

	sum := c.Search.LexicalWeight + c.Search.VectorWeight
	if sum <= 0 || math.IsNaN(sum) {
		return fmt.Errorf("search weights must sum to a positive value, got %.2f", sum)
	}

	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", c.Search.MaxResults)
	}

	if c.Search.CandidateMultiplier < 1 {
		return fmt.Errorf("candidate_multiplier must be at least 1, got %d", c.Search.CandidateMultiplier)
	}

	switch c.Embeddings.Provider {
	case "", "ollama", "static":
	default:
		return fmt.Errorf("unknown embeddings provider %q (want ollama or static)", c.Embeddings.Provider)
	}

	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest workers must be positive, got %d", c.Ingest.Workers)
	}

	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSentences {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_sentences (%d)",
			c.Ingest.ChunkOverlap, c.Ingest.ChunkSentences)
	}

	if c.Summary.Sentences <= 0 {
		return fmt.Errorf("summary sentences must be positive, got %d", c.Summary.Sentences)
	}

	return nil
}

// NormalizedWeights returns lexical and vector weights scaled to sum to 1.
func (c *Config) NormalizedWeights() (lexical, vector float64) {
	sum := c.Search.LexicalWeight + c.Search.VectorWeight
	if sum <= 0 {
		return 0.5, 0.5
	}
	return c.Search.LexicalWeight / sum, c.Search.VectorWeight / sum
}

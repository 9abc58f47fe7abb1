package embed

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Aman-CERP/docsearch/internal/errors"
)

// Ollama API constants
const (
	// DefaultOllamaHost is the default Ollama API endpoint
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is the default embedding model for prose documents
	DefaultOllamaModel = "nomic-embed-text"

	// OllamaConnectTimeout for initial health check
	OllamaConnectTimeout = 5 * time.Second

	// OllamaPoolSize for connection pool
	OllamaPoolSize = 4
)

// FallbackOllamaModels are tried in order if the primary model is not
// installed. All are general-purpose text embedding models.
var FallbackOllamaModels = []string{
	"mxbai-embed-large",
	"all-minilm",
}

// OllamaConfig configures the Ollama embedder
type OllamaConfig struct {
	// Host is the Ollama API endpoint (default: http://localhost:11434)
	Host string

	// Model is the embedding model to use (default: nomic-embed-text)
	Model string

	// FallbackModels are tried in order if primary model unavailable
	FallbackModels []string

	// Dimensions can be set to override auto-detection (0 = auto-detect)
	Dimensions int

	// BatchSize for batch embedding requests (default: 32)
	BatchSize int

	// Timeout for API requests (default: 60s)
	Timeout time.Duration

	// MaxRetries for transient failures (default: 3)
	MaxRetries int

	// PoolSize for HTTP connection pool (default: 4)
	PoolSize int

	// SkipHealthCheck skips initial Ollama availability check (for testing)
	SkipHealthCheck bool
}

// DefaultOllamaConfig returns sensible defaults
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:           DefaultOllamaHost,
		Model:          DefaultOllamaModel,
		FallbackModels: FallbackOllamaModels,
		Dimensions:     0, // Auto-detect
		BatchSize:      DefaultBatchSize,
		Timeout:        DefaultTimeout,
		MaxRetries:     DefaultMaxRetries,
		PoolSize:       OllamaPoolSize,
	}
}

// ollamaEmbedRequest is the Ollama /api/embed request
type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"` // string or []string for batch
}

// ollamaEmbedResponse is the Ollama /api/embed response
type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// ollamaModelListResponse is the Ollama /api/tags response
type ollamaModelListResponse struct {
	Models []ollamaModelInfo `json:"models"`
}

// ollamaModelInfo describes an installed model
type ollamaModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}

// OllamaEmbedder generates embeddings using Ollama's HTTP API
type OllamaEmbedder struct {
	client    *http.Client
	transport *http.Transport // Store for connection cleanup
	config    OllamaConfig
	modelName string
	dims      int

	mu     sync.RWMutex
	closed bool
}

// Verify interface implementation at compile time
var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder creates a new Ollama embedder. It verifies the
// server is reachable, resolves the model name against installed
// models, and auto-detects dimensions unless configured.
func NewOllamaEmbedder(ctx context.Context, cfg OllamaConfig) (*OllamaEmbedder, error) {
	// Apply defaults
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.FallbackModels == nil {
		cfg.FallbackModels = FallbackOllamaModels
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = OllamaPoolSize
	}

	// IdleConnTimeout is short because ingestion runs are short-lived;
	// connections should not linger after the CLI exits.
	transport := &http.Transport{
		MaxIdleConns:        cfg.PoolSize,
		MaxIdleConnsPerHost: cfg.PoolSize,
		MaxConnsPerHost:     cfg.PoolSize * 2,
		IdleConnTimeout:     10 * time.Second,
		DisableKeepAlives:   false,
	}

	// No http.Client.Timeout: per-request context timeouts control the
	// deadline so a caller-supplied context can cancel early.
	client := &http.Client{
		Transport: transport,
	}

	e := &OllamaEmbedder{
		client:    client,
		transport: transport,
		config:    cfg,
		modelName: cfg.Model,
		dims:      cfg.Dimensions,
	}

	if !cfg.SkipHealthCheck {
		checkCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		modelName, err := e.findAvailableModel(checkCtx)
		if err != nil {
			transport.CloseIdleConnections()
			return nil, errors.New(errors.ErrCodeEmbeddingUnavailable,
				fmt.Sprintf("ollama not usable at %s: %v", cfg.Host, err), err).
				WithSuggestion("start Ollama and pull an embedding model (ollama pull nomic-embed-text)")
		}
		e.modelName = modelName

		// Auto-detect dimensions from a probe embedding
		if cfg.Dimensions == 0 {
			dims, err := e.detectDimensions(checkCtx)
			if err != nil {
				transport.CloseIdleConnections()
				return nil, errors.New(errors.ErrCodeEmbeddingUnavailable,
					fmt.Sprintf("dimension detection failed: %v", err), err)
			}
			e.dims = dims
		}
	}

	if e.dims == 0 {
		e.dims = StaticDimensions
	}

	return e, nil
}

// listModels gets available models from Ollama
func (e *OllamaEmbedder) listModels(ctx context.Context) ([]ollamaModelInfo, error) {
	url := e.config.Host + "/api/tags"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result ollamaModelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Models, nil
}

// findAvailableModel resolves the configured model against installed
// models, trying fallbacks in order. Matches with or without tag.
func (e *OllamaEmbedder) findAvailableModel(ctx context.Context) (string, error) {
	models, err := e.listModels(ctx)
	if err != nil {
		return "", err
	}

	// Build set of available model names (normalized)
	available := make(map[string]string) // normalized -> actual
	for _, m := range models {
		name := strings.ToLower(m.Name)
		available[name] = m.Name
		base := strings.Split(name, ":")[0]
		if _, exists := available[base]; !exists {
			available[base] = m.Name
		}
	}

	candidates := append([]string{e.config.Model}, e.config.FallbackModels...)
	for _, candidate := range candidates {
		name := strings.ToLower(candidate)
		if actual, ok := available[name]; ok {
			return actual, nil
		}
		base := strings.Split(name, ":")[0]
		if actual, ok := available[base]; ok {
			return actual, nil
		}
	}

	return "", fmt.Errorf("no embedding model available (tried %s and %v)",
		e.config.Model, e.config.FallbackModels)
}

// detectDimensions learns the vector width from a probe embedding.
func (e *OllamaEmbedder) detectDimensions(ctx context.Context) (int, error) {
	embeddings, err := e.doEmbed(ctx, []string{"dimension detection"})
	if err != nil {
		return 0, err
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return 0, fmt.Errorf("empty embedding returned")
	}
	return len(embeddings[0]), nil
}

// Embed generates embedding for a single text
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	// Handle empty/whitespace input
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, e.dims), nil
	}

	embeddings, err := e.doEmbedWithRetry(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts using Ollama's batch API
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	// Blank texts get zero vectors without an API call.
	type indexedText struct {
		idx  int
		text string
	}
	var nonEmpty []indexedText
	results := make([][]float32, len(texts))

	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			results[i] = make([]float32, e.dims)
		} else {
			nonEmpty = append(nonEmpty, indexedText{i, text})
		}
	}

	if len(nonEmpty) == 0 {
		return results, nil
	}

	// Process in batches
	for start := 0; start < len(nonEmpty); start += e.config.BatchSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := start + e.config.BatchSize
		if end > len(nonEmpty) {
			end = len(nonEmpty)
		}

		batch := nonEmpty[start:end]
		batchTexts := make([]string, len(batch))
		for i, it := range batch {
			batchTexts[i] = it.text
		}

		embeddings, err := e.doEmbedWithRetry(ctx, batchTexts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch: %w", err)
		}

		for i, emb := range embeddings {
			results[batch[i].idx] = emb
		}
	}

	return results, nil
}

// doEmbedWithRetry performs embedding with exponential backoff on
// transient failures.
func (e *OllamaEmbedder) doEmbedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	retryCfg := errors.RetryConfig{
		MaxRetries:   e.config.MaxRetries - 1,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}

	embeddings, err := errors.RetryWithResult(ctx, retryCfg, func() ([][]float32, error) {
		timeoutCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()

		result, attemptErr := e.doEmbed(timeoutCtx, texts)
		if attemptErr != nil {
			slog.Debug("embedding_attempt_failed",
				slog.Int("texts_count", len(texts)),
				slog.String("error", attemptErr.Error()))
		}
		return result, attemptErr
	})
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.New(errors.ErrCodeTimeout,
				"embedding request timed out", err)
		}
		return nil, err
	}
	return embeddings, nil
}

// doEmbed performs a single batch embedding request.
func (e *OllamaEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	url := e.config.Host + "/api/embed"

	// Use array input for batch, single string for single text
	var input any
	if len(texts) == 1 {
		input = texts[0]
	} else {
		input = texts
	}

	body, err := json.Marshal(ollamaEmbedRequest{
		Model: e.modelName,
		Input: input,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResult ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResult); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Convert float64 to float32 and normalize
	embeddings := make([][]float32, len(apiResult.Embeddings))
	for i, emb := range apiResult.Embeddings {
		embedding := make([]float32, len(emb))
		for j, v := range emb {
			embedding[j] = float32(v)
		}
		embeddings[i] = normalizeVector(embedding)
	}

	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the resolved model identifier.
func (e *OllamaEmbedder) ModelName() string {
	return e.modelName
}

// Available checks if the Ollama server answers /api/tags.
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return false
	}
	e.mu.RUnlock()

	checkCtx, cancel := context.WithTimeout(ctx, OllamaConnectTimeout)
	defer cancel()

	_, err := e.listModels(checkCtx)
	return err == nil
}

// Close releases the HTTP connection pool.
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.transport.CloseIdleConnections()
	return nil
}

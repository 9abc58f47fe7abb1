package embed

import (
	"context"
	"log/slog"
)

// FactoryConfig selects and configures the embedding backend.
type FactoryConfig struct {
	// Provider is "ollama", "static", or "" for auto-detection.
	Provider string

	// Ollama configures the Ollama backend when selected.
	Ollama OllamaConfig

	// CacheSize is the LRU cache capacity for the caching wrapper.
	CacheSize int
}

// New builds the embedder stack: the selected backend wrapped in an LRU
// cache. With auto-detection, Ollama is preferred and the static
// embedder is the offline fallback.
func New(ctx context.Context, cfg FactoryConfig) (Embedder, error) {
	var base Embedder

	switch cfg.Provider {
	case "static":
		base = NewStaticEmbedder()

	case "ollama":
		ollama, err := NewOllamaEmbedder(ctx, cfg.Ollama)
		if err != nil {
			return nil, err
		}
		base = ollama

	default:
		ollama, err := NewOllamaEmbedder(ctx, cfg.Ollama)
		if err != nil {
			slog.Warn("ollama unavailable, using static embedder",
				slog.String("error", err.Error()))
			base = NewStaticEmbedder()
		} else {
			base = ollama
		}
	}

	slog.Info("embedder ready",
		slog.String("model", base.ModelName()),
		slog.Int("dimensions", base.Dimensions()))

	return NewCachedEmbedder(base, cfg.CacheSize), nil
}

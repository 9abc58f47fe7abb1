package chunk

import (
	"context"
	"strings"

	"github.com/Aman-CERP/docsearch/internal/embed"
	"github.com/Aman-CERP/docsearch/internal/errors"
)

// SentenceUnit is one embedded sentence. Ephemeral: built per request,
// never persisted.
type SentenceUnit struct {
	Text     string
	Position int
	Vector   []float32
}

// Adapter pairs sentence splitting with the embedding backend. The
// document-level vector comes from the title plus the leading sentence
// window, which carries the abstract and introduction.
type Adapter struct {
	embedder embed.Embedder
	splitter *Splitter
}

// NewAdapter creates an adapter. sentencesPerChunk and overlap follow
// Splitter defaults when non-positive.
func NewAdapter(embedder embed.Embedder, sentencesPerChunk, overlap int) *Adapter {
	return &Adapter{
		embedder: embedder,
		splitter: NewSplitter(sentencesPerChunk, overlap),
	}
}

// EmbedDocument returns the document-level vector for a title and body.
func (a *Adapter) EmbedDocument(ctx context.Context, title, text string) ([]float32, error) {
	head := text
	if chunks := a.splitter.Split("doc", text); len(chunks) > 0 {
		head = chunks[0].Text
	}

	input := head
	if title != "" {
		input = title + "\n" + head
	}

	vec, err := a.embedder.Embed(ctx, input)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEmbeddingFailed, err)
	}
	return vec, nil
}

// EmbedSentences splits text into sentences and embeds each, in
// document order. Blank fragments are dropped before embedding. Single
// calls and the batch produce identical vectors; batching is only a
// performance measure.
func (a *Adapter) EmbedSentences(ctx context.Context, text string) ([]SentenceUnit, error) {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	units := make([]SentenceUnit, 0, len(sentences))
	texts := make([]string, 0, len(sentences))
	for i, s := range sentences {
		if strings.TrimSpace(s) == "" {
			continue
		}
		units = append(units, SentenceUnit{Text: s, Position: i})
		texts = append(texts, s)
	}

	vectors, err := a.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEmbeddingFailed, err)
	}
	for i := range units {
		units[i].Vector = vectors[i]
	}
	return units, nil
}

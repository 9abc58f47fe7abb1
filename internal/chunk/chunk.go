// Package chunk splits extracted document text into sentences and
// sentence-window chunks for embedding.
package chunk

import (
	"fmt"
	"regexp"
	"strings"
)

// sentenceRe matches one sentence: a run of non-terminator characters
// followed by ., ! or ?. Non-greedy so each terminator closes a sentence.
var sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// Sentences splits text into trimmed sentences in document order.
// Text with no sentence terminator at all comes back as one sentence.
// Empty fragments are dropped.
func Sentences(text string) []string {
	matches := sentenceRe.FindAllString(text, -1)
	if len(matches) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		sentences = append(sentences, m)
	}
	return sentences
}

// Chunk is a window of consecutive sentences from one document.
type Chunk struct {
	// ID is docID + ":" + index, stable across re-chunking of the
	// same text.
	ID string

	// DocumentID is the owning document.
	DocumentID string

	// Index is the chunk's position within the document.
	Index int

	// Text is the sentences joined with single spaces.
	Text string
}

// Splitter produces overlapping sentence-window chunks.
type Splitter struct {
	sentencesPerChunk int
	overlap           int
}

// NewSplitter creates a Splitter. Non-positive sentencesPerChunk falls
// back to 5; negative overlap falls back to 0. Overlap is clamped below
// sentencesPerChunk so every chunk advances.
func NewSplitter(sentencesPerChunk, overlap int) *Splitter {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= sentencesPerChunk {
		overlap = sentencesPerChunk - 1
	}
	return &Splitter{sentencesPerChunk: sentencesPerChunk, overlap: overlap}
}

// Split chunks text for the given document. Returns nil for blank text.
func (s *Splitter) Split(docID, text string) []Chunk {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []Chunk
	i := 0
	for i < len(sentences) {
		end := i + s.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}

		idx := len(chunks)
		chunks = append(chunks, Chunk{
			ID:         fmt.Sprintf("%s:%d", docID, idx),
			DocumentID: docID,
			Index:      idx,
			Text:       strings.Join(sentences[i:end], " "),
		})

		if end == len(sentences) {
			break
		}
		i = end - s.overlap
	}
	return chunks
}

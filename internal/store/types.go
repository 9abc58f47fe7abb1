// Package store provides the persistence layer: a bleve BM25 index for
// lexical search, an HNSW vector store for semantic search, and a
// SQLite document store for canonical records and runtime state.
package store

import (
	"context"
	"fmt"
	"time"
)

// State keys for the document store's key-value state table.
const (
	// StateKeyIndexDimension stores the embedding dimension used for the index
	StateKeyIndexDimension = "index_embedding_dimension"
	// StateKeyIndexModel stores the embedding model name used for the index
	StateKeyIndexModel = "index_embedding_model"
)

// DocumentRecord is the canonical stored form of an ingested document.
type DocumentRecord struct {
	// ID is the deterministic document identifier (file name stem).
	ID string

	// Title is the detected document title.
	Title string

	// Path is the source file path at ingestion time.
	Path string

	// Format is the source format: "pdf", "docx", or "txt".
	Format string

	// Headings lists detected headings in document order.
	Headings []string

	// Sections maps section names to their text.
	Sections map[string]string

	// Content is the full extracted text.
	Content string

	// Embedding is the document-level vector (title + leading content).
	Embedding []float32

	// Warnings records non-fatal extraction problems.
	Warnings []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LexicalResult is a single BM25 hit.
type LexicalResult struct {
	DocID        string
	Score        float64
	MatchedTerms []string
}

// VectorResult is a single nearest-neighbor hit.
type VectorResult struct {
	DocID string
	Score float32 // Similarity in [0, 1], higher is better
}

// LexicalIndex provides keyword search over title, sections, and content.
type LexicalIndex interface {
	// Index adds or replaces documents in the index.
	Index(ctx context.Context, docs []*DocumentRecord) error

	// Search returns documents matching query, scored by BM25.
	Search(ctx context.Context, query string, limit int) ([]*LexicalResult, error)

	// Delete removes documents from the index.
	Delete(ctx context.Context, docIDs []string) error

	// Count returns the number of indexed documents.
	Count() (int, error)

	Close() error
}

// VectorStore provides semantic search over document embeddings.
type VectorStore interface {
	// Add inserts vectors with their IDs. If an ID exists, it is replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search finds k nearest neighbors to query vector.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)

	// Delete removes vectors by ID.
	Delete(ctx context.Context, ids []string) error

	// Contains checks if ID exists.
	Contains(id string) bool

	// Count returns number of vectors.
	Count() int

	// Persistence
	Save(path string) error
	Load(path string) error
	Close() error
}

// DocumentStore persists canonical document records and runtime state.
type DocumentStore interface {
	// Put inserts or replaces a record atomically.
	Put(ctx context.Context, rec *DocumentRecord) error

	// Get returns one record, or a FileNotFound error.
	Get(ctx context.Context, id string) (*DocumentRecord, error)

	// GetMany returns the records that exist, in the order requested.
	// Missing IDs are skipped.
	GetMany(ctx context.Context, ids []string) ([]*DocumentRecord, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// AllIDs returns all document IDs, sorted.
	AllIDs(ctx context.Context) ([]string, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// State operations (key-value store for runtime state)
	GetState(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, key, value string) error

	Close() error
}

// ErrDimensionMismatch indicates vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (re-ingest with the original model or reset the index)", e.Expected, e.Got)
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
)

// Field boosts for multi-field lexical search. A title match is worth
// more than the same term buried in the body.
const (
	titleBoost    = 2.0
	sectionsBoost = 1.5
)

// BleveIndex wraps Bleve v2 for BM25 keyword search over documents.
type BleveIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

var _ LexicalIndex = (*BleveIndex)(nil)

// bleveDocument is the indexed shape of a DocumentRecord.
type bleveDocument struct {
	Title    string `json:"title"`
	Sections string `json:"sections"`
	Content  string `json:"content"`
}

// validateIndexIntegrity checks if a Bleve index is valid before opening.
// Returns nil if valid, error describing corruption if not.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Index doesn't exist, will be created
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}

	return nil
}

// isCorruptionError checks if an error indicates Bleve index corruption.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// NewBleveIndex creates or opens a lexical index.
// If path is empty, creates an in-memory index (used in tests).
// A corrupted on-disk index is cleared and recreated; the caller has to
// re-ingest in that case.
func NewBleveIndex(path string) (*BleveIndex, error) {
	indexMapping := createIndexMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateIndexIntegrity(path); validErr != nil {
			slog.Warn("lexical_index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, fmt.Errorf("lexical index corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			slog.Info("lexical_index_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, please re-ingest"))
		}

		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("lexical_index_open_failed",
				slog.String("path", path),
				slog.String("error", err.Error()))

			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, fmt.Errorf("lexical index corrupted, cannot clear: %w (original: %v)", removeErr, err)
			}
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	return &BleveIndex{
		index: idx,
		path:  path,
	}, nil
}

// createIndexMapping builds the mapping: three text fields analyzed
// with the standard analyzer.
func createIndexMapping() *mapping.IndexMappingImpl {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("title", textField)
	docMapping.AddFieldMappingsAt("sections", textField)
	docMapping.AddFieldMappingsAt("content", textField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name
	indexMapping.DefaultMapping = docMapping

	return indexMapping
}

// Index adds or replaces documents in the index.
func (b *BleveIndex) Index(ctx context.Context, docs []*DocumentRecord) error {
	if len(docs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, toBleveDocument(doc)); err != nil {
			return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
	}

	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	return nil
}

// toBleveDocument flattens a record for indexing. Section texts are
// concatenated in stable name order.
func toBleveDocument(doc *DocumentRecord) bleveDocument {
	names := make([]string, 0, len(doc.Sections))
	for name := range doc.Sections {
		names = append(names, name)
	}
	sort.Strings(names)

	var sections strings.Builder
	for _, name := range names {
		sections.WriteString(doc.Sections[name])
		sections.WriteString("\n")
	}

	return bleveDocument{
		Title:    doc.Title,
		Sections: sections.String(),
		Content:  doc.Content,
	}
}

// Search returns documents matching query, scored by BM25 and boosted
// per field.
func (b *BleveIndex) Search(ctx context.Context, queryStr string, limit int) ([]*LexicalResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}

	if strings.TrimSpace(queryStr) == "" {
		return []*LexicalResult{}, nil
	}

	titleQuery := bleve.NewMatchQuery(queryStr)
	titleQuery.SetField("title")
	titleQuery.SetBoost(titleBoost)

	sectionsQuery := bleve.NewMatchQuery(queryStr)
	sectionsQuery.SetField("sections")
	sectionsQuery.SetBoost(sectionsBoost)

	contentQuery := bleve.NewMatchQuery(queryStr)
	contentQuery.SetField("content")

	searchRequest := bleve.NewSearchRequest(
		bleve.NewDisjunctionQuery(titleQuery, sectionsQuery, contentQuery))
	searchRequest.Size = limit
	searchRequest.IncludeLocations = true // For matched terms

	result, err := b.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]*LexicalResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		results = append(results, &LexicalResult{
			DocID:        hit.ID,
			Score:        hit.Score,
			MatchedTerms: extractMatchedTerms(hit),
		})
	}

	return results, nil
}

// extractMatchedTerms collects the analyzed terms that matched, across
// all fields, sorted for determinism.
func extractMatchedTerms(hit *search.DocumentMatch) []string {
	terms := make(map[string]struct{})
	for _, locations := range hit.Locations {
		for term := range locations {
			terms[term] = struct{}{}
		}
	}

	result := make([]string, 0, len(terms))
	for term := range terms {
		result = append(result, term)
	}
	sort.Strings(result)
	return result
}

// Delete removes documents from the index.
func (b *BleveIndex) Delete(ctx context.Context, docIDs []string) error {
	if len(docIDs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, id := range docIDs {
		batch.Delete(id)
	}

	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	return nil
}

// Count returns the number of indexed documents.
func (b *BleveIndex) Count() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, fmt.Errorf("index is closed")
	}

	count, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(count), nil
}

// Close releases the index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/docsearch/internal/errors"
)

// SQLiteStore implements DocumentStore on SQLite.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

var _ DocumentStore = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	path       TEXT NOT NULL,
	format     TEXT NOT NULL,
	headings   TEXT NOT NULL,
	sections   TEXT NOT NULL,
	content    TEXT NOT NULL,
	embedding  BLOB,
	warnings   TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// NewSQLiteStore opens or creates the document database.
// An empty path opens an in-memory database (used in tests).
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: modernc.org/sqlite serializes writers anyway,
	// and one connection keeps the in-memory database coherent.
	db.SetMaxOpenConns(1)

	// WAL must be set via PRAGMA for modernc.org/sqlite; DSN params
	// are not honored.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Put inserts or replaces a record in one transaction. A replace keeps
// the original created_at.
func (s *SQLiteStore) Put(ctx context.Context, rec *DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}
	if rec == nil || rec.ID == "" {
		return errors.ValidationError("document record must have an id", nil)
	}

	headings, err := json.Marshal(rec.Headings)
	if err != nil {
		return fmt.Errorf("failed to marshal headings: %w", err)
	}
	sections, err := json.Marshal(rec.Sections)
	if err != nil {
		return fmt.Errorf("failed to marshal sections: %w", err)
	}
	warnings, err := json.Marshal(rec.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	now := time.Now().Unix()
	createdAt := now
	if !rec.CreatedAt.IsZero() {
		createdAt = rec.CreatedAt.Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, path, format, headings, sections, content, embedding, warnings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			path       = excluded.path,
			format     = excluded.format,
			headings   = excluded.headings,
			sections   = excluded.sections,
			content    = excluded.content,
			embedding  = excluded.embedding,
			warnings   = excluded.warnings,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Title, rec.Path, rec.Format,
		string(headings), string(sections), rec.Content,
		encodeEmbedding(rec.Embedding), string(warnings),
		createdAt, now)
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", rec.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Get returns one record, or a FileNotFound error.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, path, format, headings, sections, content, embedding, warnings, created_at, updated_at
		FROM documents WHERE id = ?`, id)

	rec, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeFileNotFound,
			fmt.Sprintf("document %q not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return rec, nil
}

// GetMany returns the records that exist, in the order requested.
func (s *SQLiteStore) GetMany(ctx context.Context, ids []string) ([]*DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}
	if len(ids) == 0 {
		return []*DocumentRecord{}, nil
	}

	stmt, err := s.db.PrepareContext(ctx, `
		SELECT id, title, path, format, headings, sections, content, embedding, warnings, created_at, updated_at
		FROM documents WHERE id = ?`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query: %w", err)
	}
	defer stmt.Close()

	results := make([]*DocumentRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := scanDocument(stmt.QueryRowContext(ctx, id))
		if err == sql.ErrNoRows {
			continue // Missing IDs are skipped
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get document %s: %w", id, err)
		}
		results = append(results, rec)
	}
	return results, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*DocumentRecord, error) {
	var (
		rec        DocumentRecord
		headings   string
		sections   string
		warnings   string
		embedding  []byte
		createdAt  int64
		updatedAt  int64
	)

	err := row.Scan(&rec.ID, &rec.Title, &rec.Path, &rec.Format,
		&headings, &sections, &rec.Content, &embedding, &warnings,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(headings), &rec.Headings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal headings: %w", err)
	}
	if err := json.Unmarshal([]byte(sections), &rec.Sections); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sections: %w", err)
	}
	if err := json.Unmarshal([]byte(warnings), &rec.Warnings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
	}

	rec.Embedding = decodeEmbedding(embedding)
	rec.CreatedAt = time.Unix(createdAt, 0)
	rec.UpdatedAt = time.Unix(updatedAt, 0)
	return &rec, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return nil
}

// AllIDs returns all document IDs, sorted.
func (s *SQLiteStore) AllIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list document ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of stored documents.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("store is closed")
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// GetState returns the value for key, or empty string if unset.
func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", fmt.Errorf("store is closed")
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get state %s: %w", key, err)
	}
	return value, nil
}

// SetState sets the value for key.
func (s *SQLiteStore) SetState(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set state %s: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// encodeEmbedding packs float32s as little-endian bytes. Nil stays nil.
func encodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding is the inverse of encodeEmbedding.
func decodeEmbedding(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// Package source enumerates and reads documents to ingest.
package source

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxFileSize caps readable documents at 50MB.
const DefaultMaxFileSize = 50 * 1024 * 1024

// DocumentSource lists and reads ingestible documents.
type DocumentSource interface {
	// ListPaths returns the paths of all ingestible documents, sorted.
	ListPaths() ([]string, error)

	// Read returns the raw bytes of one document.
	Read(path string) ([]byte, error)
}

// supportedExtensions are the file types the extractor understands.
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// FSSource walks a directory tree for supported document files.
// Symlinks are not followed and oversized files are skipped.
type FSSource struct {
	root        string
	maxFileSize int64
}

var _ DocumentSource = (*FSSource)(nil)

// NewFSSource creates a source rooted at dir. maxFileSize <= 0 uses
// the default cap.
func NewFSSource(dir string, maxFileSize int64) (*FSSource, error) {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	return &FSSource{root: abs, maxFileSize: maxFileSize}, nil
}

// ListPaths walks the root and returns supported files, sorted.
func (s *FSSource) ListPaths() ([]string, error) {
	var paths []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Debug("skipping unreadable entry",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			// Hidden directories hold no corpus documents.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > s.maxFileSize {
			slog.Warn("skipping oversized file",
				slog.String("path", path),
				slog.Int64("size", info.Size()),
				slog.Int64("limit", s.maxFileSize))
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", s.root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// Read returns the file contents, enforcing the size cap.
func (s *FSSource) Read(path string) ([]byte, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return nil, fmt.Errorf("%s is a symlink", path)
	}
	if info.Size() > s.maxFileSize {
		return nil, fmt.Errorf("%s exceeds size limit (%d > %d bytes)",
			path, info.Size(), s.maxFileSize)
	}
	return os.ReadFile(path)
}

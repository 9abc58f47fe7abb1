package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the directory where log files are stored.
// Honors DOCSEARCH_HOME when set, otherwise uses ~/.docsearch/logs.
func DefaultLogDir() string {
	if home := os.Getenv("DOCSEARCH_HOME"); home != "" {
		return filepath.Join(home, "logs")
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		// Fall back to a relative path when the home dir is unknown.
		return ".docsearch/logs"
	}
	return filepath.Join(userHome, ".docsearch", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "docsearch.log")
}

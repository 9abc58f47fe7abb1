// Package cmd provides the CLI commands for docsearch.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsearch/internal/config"
	"github.com/Aman-CERP/docsearch/internal/logging"
	"github.com/Aman-CERP/docsearch/pkg/version"
)

var (
	debugMode      bool
	dataDirFlag    string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the docsearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docsearch",
		Short: "Hybrid search over a local document corpus",
		Long: `docsearch indexes PDF, DOCX, and plain-text documents and answers
queries with hybrid search: BM25 keyword matching fused with semantic
embedding similarity. It can also build query-focused extractive
summaries from the indexed corpus.

Everything runs locally; embeddings come from Ollama when it is
available and fall back to an offline hash-based model otherwise.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("docsearch version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.docsearch/logs/")
	cmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Index storage directory (default from config)")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSummarizeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging routes slog to the log file, at debug level when requested.
func startLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if debugMode {
		cfg = logging.DebugConfig()
	}
	cfg.WriteToStderr = false

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)

	if debugMode {
		slog.Info("debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()))
	}
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig loads configuration from the working directory, applying
// the --data-dir override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}
	if dataDirFlag != "" {
		cfg.Paths.DataDir = dataDirFlag
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsearch/internal/ingest"
	"github.com/Aman-CERP/docsearch/internal/output"
	"github.com/Aman-CERP/docsearch/internal/service"
)

func newIngestCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Index documents into the corpus",
		Long: `Index documents into the corpus.

Each path may be a file or a directory; directories are walked for
.pdf, .docx, and .txt files. Re-ingesting a file replaces its previous
version. One bad document never aborts the batch.

Examples:
  docsearch ingest ./reports
  docsearch ingest contract.pdf minutes.docx
  docsearch ingest --reset ./reports`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd, args, reset)
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the existing index before ingesting")

	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, paths []string, reset bool) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := service.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if reset {
		if err := svc.Reset(ctx); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		out.Status("🗑️ ", "index cleared")
	}

	total := &ingest.Report{}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			total.Failed = append(total.Failed, ingest.Failure{Path: path, Err: err.Error()})
			continue
		}

		var report *ingest.Report
		if info.IsDir() {
			report, err = svc.IngestDir(ctx, path)
		} else {
			report, err = svc.Ingest(ctx, []string{path})
		}
		if err != nil {
			return err
		}
		total.Succeeded = append(total.Succeeded, report.Succeeded...)
		total.Failed = append(total.Failed, report.Failed...)
		total.Duration += report.Duration
	}

	out.Successf("%d document(s) indexed in %s", len(total.Succeeded), total.Duration.Round(time.Millisecond))
	for _, f := range total.Failed {
		out.Warningf("%s: %s", f.Path, f.Err)
	}
	if len(total.Failed) > 0 {
		out.Statusf("", "%d document(s) failed", len(total.Failed))
	}

	return nil
}

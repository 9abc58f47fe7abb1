package cmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsearch/internal/output"
	"github.com/Aman-CERP/docsearch/internal/service"
)

type summarizeOptions struct {
	docs   []string
	format string
}

func newSummarizeCmd() *cobra.Command {
	var opts summarizeOptions

	cmd := &cobra.Command{
		Use:   "summarize <query>",
		Short: "Build a query-focused extractive summary",
		Long: `Build a query-focused extractive summary.

Sentences from the indexed documents are scored against the query
embedding; the most relevant ones are returned verbatim, tagged with
their source document and position.

Examples:
  docsearch summarize "corrosion findings"
  docsearch summarize "project scope" --doc contract --doc proposal`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSummarize(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.docs, "doc", "d", nil, "Restrict to document ID (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSummarize(ctx context.Context, cmd *cobra.Command, query string, opts summarizeOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := service.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	sentences, err := svc.Summarize(ctx, query, opts.docs)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sentences)
	}

	out := output.New(cmd.OutOrStdout())
	if len(sentences) == 0 {
		out.Statusf("", "nothing to summarize for %q", query)
		return nil
	}

	for _, s := range sentences {
		out.Statusf("", "• %s", s.Text)
		out.Statusf("", "  (%s, sentence %d, score %.3f)", s.DocID, s.Position+1, s.Score)
	}
	return nil
}

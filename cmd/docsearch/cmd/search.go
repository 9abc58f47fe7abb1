package cmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsearch/internal/output"
	"github.com/Aman-CERP/docsearch/internal/search"
	"github.com/Aman-CERP/docsearch/internal/service"
)

type searchOptions struct {
	limit  int
	format string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed corpus",
		Long: `Search the indexed corpus with hybrid retrieval.

Combines BM25 keyword matching with semantic embedding similarity and
fuses both signals into a single ranking.

Examples:
  docsearch search "corrosion findings"
  docsearch search "scope of work" --limit 5
  docsearch search "inspection schedule" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := service.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	resp, err := svc.Search(ctx, query, opts.limit)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	return formatSearchResults(cmd, resp, query)
}

func formatSearchResults(cmd *cobra.Command, resp *search.Response, query string) error {
	out := output.New(cmd.OutOrStdout())

	if resp.Degraded {
		out.Warningf("degraded results: %s", resp.DegradedReason)
	}

	if len(resp.Results) == 0 {
		out.Statusf("", "no results for %q", query)
		return nil
	}

	for i, r := range resp.Results {
		out.Statusf("", "%d. %s (%s, score %.3f)", i+1, r.Title, r.DocID, r.Score)
		if r.Snippet != "" {
			out.Excerpt(r.Snippet)
		}
		if len(r.MatchedTerms) > 0 {
			out.Statusf("", "   matched: %s", strings.Join(r.MatchedTerms, ", "))
		}
		out.Newline()
	}

	out.Statusf("", "%d result(s)", len(resp.Results))
	return nil
}

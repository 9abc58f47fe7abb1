package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsearch/internal/output"
	"github.com/Aman-CERP/docsearch/internal/service"
)

func newStatusCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and embedder status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, format string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := service.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	status, err := svc.Status(ctx)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	out := output.New(cmd.OutOrStdout())
	out.Field("data dir", status.DataDir)
	out.Field("documents", status.Documents)
	out.Field("vectors", status.Vectors)
	out.Field("embed model", status.EmbedModel)
	out.Field("embed dims", status.EmbedDims)
	out.Field("embed available", status.EmbedAvailable)
	if status.IndexModel != "" {
		out.Field("index model", status.IndexModel)
		out.Field("index dims", status.IndexDims)
	}
	return nil
}

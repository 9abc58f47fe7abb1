package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsearch/internal/output"
	"github.com/Aman-CERP/docsearch/internal/service"
)

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the index and all stored documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReset(cmd.Context(), cmd)
		},
	}
}

func runReset(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := service.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Reset(ctx); err != nil {
		return err
	}

	output.New(cmd.OutOrStdout()).Success("index cleared")
	return nil
}

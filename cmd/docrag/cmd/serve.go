package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/coderag/docrag/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	return cmd
}

func runServe(ctx context.Context) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.cleanup()

	srv := mcpserver.New(a.store, a.cfg, a.embedder, a.info, a.logger)
	return srv.Serve(ctx)
}

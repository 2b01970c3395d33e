package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solohub/braind/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve braind tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func runMCP() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.store.Close()

	srv := mcp.NewBrainServer(mcp.BrainServerDeps{
		Store:    d.store,
		Executor: d.executor,
		Engine:   d.engine,
		Logger:   d.logger,
	})

	d.logger.Info("braind MCP server on stdio")
	return srv.Serve(ctx)
}

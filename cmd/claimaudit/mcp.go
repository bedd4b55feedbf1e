package main

import (
	"os"
	"os/signal"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"claimaudit/internal/app"
	"claimaudit/internal/platform/config"
	"claimaudit/internal/platform/logger"
	"claimaudit/internal/tool"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the review_claim_package tool over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cfg := config.FromEnv()
			// stdout carries the protocol; logs go to stderr
			log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel)
			application, err := app.Build(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer application.Close()

			go func() {
				if err := application.WatchRulebook(ctx); err != nil {
					log.Error("rulebook watcher stopped", "error", err)
				}
			}()

			server := tool.NewServer(application.Service, version)
			return server.Run(ctx, &mcp.StdioTransport{})
		},
	}
}

package main

import (
	"context"

	"github.com/spf13/cobra"

	"fermi/internal/logging"
	mcpserver "fermi/internal/mcp"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Long: `Starts an MCP server over stdin/stdout exposing list_configs,
describe_config and generate_examples. Splits are fetched through the
download cache.

The server exits when its parent process goes away, so a client that
restarts without a clean shutdown does not leave it running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.manager(false)
			if err != nil {
				return err
			}
			defer m.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			mcpserver.WatchParent(ctx, cancel)

			logging.New("mcp").Info("starting fermi MCP server over stdio", "cache_dir", a.settings.CacheDir)
			return mcpserver.NewServer(m, version).Run(ctx)
		},
	}
}

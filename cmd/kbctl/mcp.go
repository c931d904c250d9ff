package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/starford/kbhost/internal"
	"github.com/starford/kbhost/internal/mcpserver"
)

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the knowledge base and bookmark actions over MCP stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			h, closeCatalog := internal.NewHostServer(e.cfg, e.logger)
			defer closeCatalog()

			return mcpserver.New(h, version).ServeStdio()
		},
	}
}

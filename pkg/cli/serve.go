package cli

import (
	"context"
	"net/http"

	mcpservice "github.com/m-mizutani/engram/pkg/service/mcp"
	"github.com/m-mizutani/engram/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg       config
		transport string
		addr      string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "transport",
			Aliases:     []string{"t"},
			Usage:       "MCP transport (stdio or http)",
			Value:       "stdio",
			Sources:     cli.EnvVars("ENGRAM_TRANSPORT"),
			Destination: &transport,
		},
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address for the http transport",
			Value:       "127.0.0.1:3939",
			Sources:     cli.EnvVars("ENGRAM_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP memory server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			// A backend that cannot initialize aborts startup; this is
			// the only failure allowed to take the process down
			backend, err := cfg.readyBackend(ctx)
			if err != nil {
				return err
			}

			server := mcpservice.New(backend, version)
			logger := logging.From(ctx)

			switch transport {
			case "stdio":
				logger.Info("starting MCP server on stdio", "backend", backend.Info().BackendType)
				return server.Run(ctx, &mcp.StdioTransport{})

			case "http":
				logger.Info("starting MCP server on http", "addr", addr, "backend", backend.Info().BackendType)
				httpServer := &http.Server{
					Addr:    addr,
					Handler: server.HTTPHandler(),
				}
				return httpServer.ListenAndServe()

			default:
				return goerr.New("unknown transport", goerr.V("transport", transport))
			}
		},
	}
}

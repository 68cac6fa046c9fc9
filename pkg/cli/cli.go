package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:    "engram",
		Usage:   "Persistent memory tools for AI assistants over MCP",
		Version: version,
		Commands: []*cli.Command{
			serveCommand(),
			rememberCommand(),
			recallCommand(),
			searchCommand(),
			forgetCommand(),
			listCommand(),
			statusCommand(),
			consoleCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

func statusCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "status",
		Usage: "Show the active memory backend and its capabilities",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			backend, err := cfg.readyBackend(ctx)
			if err != nil {
				return err
			}

			info := backend.Info()
			fmt.Fprintf(c.Root().Writer, "Backend:   %s\n", info.BackendType)
			fmt.Fprintf(c.Root().Writer, "Connected: %t\n", info.Connected)
			fmt.Fprintf(c.Root().Writer, "Features:  %s\n", strings.Join(info.SupportedFeatures, ", "))
			return nil
		},
	}
}

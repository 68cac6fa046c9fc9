package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func listCommand() *cli.Command {
	var (
		cfg    config
		limit  int64
		offset int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of memories to list",
			Value:       10,
			Destination: &limit,
		},
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "Offset for pagination",
			Value:       0,
			Destination: &offset,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List recent memories",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			backend, err := cfg.readyBackend(ctx)
			if err != nil {
				return err
			}

			memories, err := backend.List(ctx, int(offset), int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to list memories")
			}

			if len(memories) == 0 {
				fmt.Fprintf(c.Root().Writer, "No memories stored yet.\n")
				return nil
			}

			for _, m := range memories {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%.2f\t%s\n", m.ID, m.Type, m.Importance, m.Content)
			}
			return nil
		},
	}
}

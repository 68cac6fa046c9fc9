package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/engram/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func forgetCommand() *cli.Command {
	var (
		cfg    config
		reason string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "reason",
			Aliases:     []string{"r"},
			Usage:       "Reason for deleting the memory",
			Destination: &reason,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "forget",
		Usage:     "Delete a memory by ID",
		ArgsUsage: "<memory-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			memoryID := c.Args().First()
			if memoryID == "" {
				return goerr.New("memory-id is required")
			}

			backend, err := cfg.readyBackend(ctx)
			if err != nil {
				return err
			}

			removed, err := backend.Forget(ctx, model.MemoryID(memoryID), reason)
			if err != nil {
				return goerr.Wrap(err, "failed to forget memory")
			}

			if removed {
				fmt.Fprintf(c.Root().Writer, "Forgot memory %s\n", memoryID)
			} else {
				fmt.Fprintf(c.Root().Writer, "No memory found with ID %s\n", memoryID)
			}
			return nil
		},
	}
}

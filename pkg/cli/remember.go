package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/engram/pkg/model"
	"github.com/m-mizutani/engram/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func rememberCommand() *cli.Command {
	var (
		cfg        config
		memType    string
		importance float64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "type",
			Usage:       "Memory type (fact, preference, task, event, context, reflection)",
			Value:       string(model.DefaultMemoryType),
			Sources:     cli.EnvVars("ENGRAM_MEMORY_TYPE"),
			Destination: &memType,
		},
		&cli.FloatFlag{
			Name:        "importance",
			Usage:       "Importance from 0.0 to 1.0",
			Value:       model.DefaultImportance,
			Destination: &importance,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "remember",
		Usage:     "Store a memory",
		ArgsUsage: "<content>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			content := strings.Join(c.Args().Slice(), " ")
			if content == "" {
				return goerr.New("content is required")
			}
			if err := model.MemoryType(memType).Validate(); err != nil {
				return err
			}

			backend, err := cfg.readyBackend(ctx)
			if err != nil {
				return err
			}

			var memory *model.Memory
			err = withSpinner("storing memory...", func() error {
				var rememberErr error
				memory, rememberErr = backend.Remember(ctx, repository.RememberInput{
					Content:    content,
					Type:       model.MemoryType(memType),
					Importance: &importance,
				})
				return rememberErr
			})
			if err != nil {
				return goerr.Wrap(err, "failed to store memory")
			}

			fmt.Fprintf(c.Root().Writer, "Stored memory %s (type: %s, importance: %.2f)\n",
				memory.ID, memory.Type, memory.Importance)
			return nil
		},
	}
}

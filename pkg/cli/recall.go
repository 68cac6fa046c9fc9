package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/m-mizutani/engram/pkg/model"
	"github.com/m-mizutani/engram/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func recallCommand() *cli.Command {
	var (
		cfg   config
		limit int64
		types []string
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of memories to return",
			Value:       5,
			Destination: &limit,
		},
		&cli.StringSliceFlag{
			Name:        "types",
			Usage:       "Restrict results to these memory types",
			Destination: &types,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "recall",
		Usage:     "Search memories by relevance",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			query := strings.Join(c.Args().Slice(), " ")
			if query == "" {
				return goerr.New("query is required")
			}

			backend, err := cfg.readyBackend(ctx)
			if err != nil {
				return err
			}

			var results []*model.SearchResult
			err = withSpinner("searching memories...", func() error {
				var recallErr error
				results, recallErr = backend.Recall(ctx, query, repository.QueryOptions{
					Limit: int(limit),
					Types: toMemoryTypes(types),
				})
				return recallErr
			})
			if err != nil {
				return goerr.Wrap(err, "failed to recall memories")
			}

			printSearchResults(c, results)
			return nil
		},
	}
}

func toMemoryTypes(types []string) []model.MemoryType {
	var result []model.MemoryType
	for _, t := range types {
		result = append(result, model.MemoryType(t))
	}
	return result
}

func printSearchResults(c *cli.Command, results []*model.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintf(c.Root().Writer, "No relevant memories found.\n")
		return
	}

	for i, r := range results {
		fmt.Fprintf(c.Root().Writer, "%d. [%d%%] %s (type: %s, id: %s)\n",
			i+1, int(math.Round(r.Score*100)), r.Memory.Content, r.Memory.Type, r.Memory.ID)
	}
}

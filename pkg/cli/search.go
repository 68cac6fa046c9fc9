package cli

import (
	"context"
	"strings"

	"github.com/m-mizutani/engram/pkg/model"
	"github.com/m-mizutani/engram/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg           config
		limit         int64
		types         []string
		minScore      float64
		minImportance float64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of memories to return",
			Value:       10,
			Destination: &limit,
		},
		&cli.StringSliceFlag{
			Name:        "types",
			Usage:       "Restrict results to these memory types",
			Destination: &types,
		},
		&cli.FloatFlag{
			Name:        "min-score",
			Usage:       "Drop results scoring below this value",
			Destination: &minScore,
		},
		&cli.FloatFlag{
			Name:        "min-importance",
			Usage:       "Drop memories with importance below this value",
			Destination: &minImportance,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Search memories with score and importance floors",
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

			opts := repository.QueryOptions{
				Limit: int(limit),
				Types: toMemoryTypes(types),
			}
			if c.IsSet("min-score") {
				opts.MinScore = &minScore
			}
			if c.IsSet("min-importance") {
				opts.MinImportance = &minImportance
			}

			var results []*model.SearchResult
			err = withSpinner("searching memories...", func() error {
				var searchErr error
				results, searchErr = backend.Search(ctx, query, opts)
				return searchErr
			})
			if err != nil {
				return goerr.Wrap(err, "failed to search memories")
			}

			printSearchResults(c, results)
			return nil
		},
	}
}

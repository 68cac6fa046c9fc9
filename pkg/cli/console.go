package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/engram/pkg/model"
	"github.com/m-mizutani/engram/pkg/repository"
	"github.com/urfave/cli/v3"
)

func consoleCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "console",
		Usage: "Interactive memory shell",
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

			rl, err := readline.NewEx(&readline.Config{
				Prompt: "engram> ",
			})
			if err != nil {
				return err
			}
			defer rl.Close()

			w := c.Root().Writer
			fmt.Fprintf(w, "Memory console (%s backend). Type 'help' for commands, 'exit' to quit.\n",
				backend.Info().BackendType)

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) || err != nil {
					break
				}

				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					break
				}

				if err := runConsoleCommand(ctx, w, backend, line); err != nil {
					fmt.Fprintf(w, "error: %s\n", err)
				}
			}

			return nil
		},
	}
}

func runConsoleCommand(ctx context.Context, w io.Writer, backend repository.Backend, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "help":
		fmt.Fprint(w, ""+
			"  remember <content>  store a memory\n"+
			"  recall <query>      search memories\n"+
			"  forget <id>         delete a memory\n"+
			"  list                show recent memories\n"+
			"  status              show backend info\n"+
			"  exit                leave the console\n")
		return nil

	case "remember":
		memory, err := backend.Remember(ctx, repository.RememberInput{Content: rest})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Stored memory %s\n", memory.ID)
		return nil

	case "recall":
		results, err := backend.Recall(ctx, rest, repository.QueryOptions{})
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Fprintln(w, "No relevant memories found.")
			return nil
		}
		for i, r := range results {
			fmt.Fprintf(w, "%d. [%d%%] %s (id: %s)\n",
				i+1, int(math.Round(r.Score*100)), r.Memory.Content, r.Memory.ID)
		}
		return nil

	case "forget":
		removed, err := backend.Forget(ctx, model.MemoryID(rest), "")
		if err != nil {
			return err
		}
		if removed {
			fmt.Fprintf(w, "Forgot memory %s\n", rest)
		} else {
			fmt.Fprintf(w, "No memory found with ID %s\n", rest)
		}
		return nil

	case "list":
		memories, err := backend.List(ctx, 0, 10)
		if err != nil {
			return err
		}
		if len(memories) == 0 {
			fmt.Fprintln(w, "No memories stored yet.")
			return nil
		}
		for _, m := range memories {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Type, m.Content)
		}
		return nil

	case "status":
		info := backend.Info()
		fmt.Fprintf(w, "Backend: %s (connected: %t)\n", info.BackendType, info.Connected)
		fmt.Fprintf(w, "Features: %s\n", strings.Join(info.SupportedFeatures, ", "))
		return nil

	default:
		fmt.Fprintf(w, "unknown command %q, type 'help'\n", cmd)
		return nil
	}
}

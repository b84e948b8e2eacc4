package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/levels"
)

const playHelp = `Commands:
  w/a/s/d or up/left/down/right   move (several letters, e.g. "ddw", run in order; d is right)
  r   restart level
  n   next level (after completing one)
  q   quit`

var wasd = map[rune]engine.Direction{
	'w': engine.Up,
	'a': engine.Left,
	's': engine.Down,
	'd': engine.Right,
}

func playAction(ctx context.Context, cmd *cli.Command) error {
	packs, err := levels.NewManager(cmd.String("level-dir"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	pack := packs.GetDefault()
	if id := cmd.String("pack"); id != "" {
		if pack, err = packs.LoadPack(id); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	return runPlay(os.Stdin, os.Stdout, pack, int(cmd.Int("level")))
}

// parseMoves reads a line of wasd letters or a single direction name
func parseMoves(line string) ([]engine.Direction, error) {
	var moves []engine.Direction
	for _, r := range line {
		dir, ok := wasd[r]
		if !ok {
			moves = nil
			break
		}
		moves = append(moves, dir)
	}
	if moves != nil {
		return moves, nil
	}

	dir, err := engine.ParseDirection(line)
	if err != nil {
		return nil, err
	}
	return []engine.Direction{dir}, nil
}

// runPlay drives a game from line-based input until the pack is finished,
// the player quits, or the input ends
func runPlay(in io.Reader, out io.Writer, pack *levels.Pack, level int) error {
	game, err := engine.NewEngineAtLevel(pack, level)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n%s\n\n", pack.Name, playHelp)
	show := func() {
		fmt.Fprintln(out, game.String())
		fmt.Fprintln(out, game.State().Message)
	}
	show()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch line {
		case "":
			continue
		case "q", "quit":
			fmt.Fprintln(out, "Bye")
			return nil
		case "r", "restart":
			if err := game.RestartLevel(); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
		case "n", "next":
			if err := game.LoadNextLevel(); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
		case "h", "help", "?":
			fmt.Fprintln(out, playHelp)
			continue
		default:
			moves, err := parseMoves(line)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			results, err := game.BulkMove(moves)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			for _, r := range results {
				if !r.Accepted() {
					fmt.Fprintf(out, "Blocked moving %s\n", r.Direction)
				}
			}
		}

		show()
		if game.IsTerminated() {
			return nil
		}
	}
	return scanner.Err()
}

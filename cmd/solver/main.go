// Command solver plays a Sokoban session through the REST API. It solves each
// level from the session's current placement with a breadth-first search and
// submits the moves as bulk requests, so browsers watching the session see
// the solution play out.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/solver"
)

const sessionFile = ".session"

// options carries the solver flags
type options struct {
	PackID   string
	Session  string
	All      bool
	Limit    int
	Delay    time.Duration
	Verbose  bool
	SaveFile string
}

func main() {
	cmd := &cli.Command{
		Name:  "solver",
		Usage: "Solve Sokoban levels through the game server API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("SOKOBAN_API_URL")},
			&cli.StringFlag{Name: "pack", Usage: "Level pack for a new session"},
			&cli.StringFlag{Name: "continue", Usage: "Resume an existing session by ID"},
			&cli.BoolFlag{Name: "all", Usage: "Keep solving until every level of the pack is completed"},
			&cli.IntFlag{Name: "limit", Value: solver.DefaultLimit, Usage: "Maximum search states per level"},
			&cli.DurationFlag{Name: "delay", Usage: "Pause between levels"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log.Printf("Connecting to game server at %s", cmd.String("url"))
			client := NewClient(cmd.String("url"))

			err := run(ctx, client, options{
				PackID:   cmd.String("pack"),
				Session:  cmd.String("continue"),
				All:      cmd.Bool("all"),
				Limit:    int(cmd.Int("limit")),
				Delay:    cmd.Duration("delay"),
				Verbose:  cmd.Bool("v"),
				SaveFile: sessionFile,
			})
			if client.SessionID() != "" {
				log.Printf("Session: %s", client.SessionID())
			}
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// openSession resumes the requested or saved session, creating a new one when
// neither is usable
func openSession(ctx context.Context, client *Client, opts options) (*engine.GameState, error) {
	sessionID := opts.Session
	if sessionID == "" && opts.SaveFile != "" {
		if data, err := os.ReadFile(opts.SaveFile); err == nil {
			sessionID = string(bytes.TrimSpace(data))
		}
	}

	if sessionID != "" {
		info, err := client.Resume(ctx, sessionID)
		if err == nil {
			log.Printf("Resuming session %s on pack %s", info.ID, info.PackName)
			return info.GameState, nil
		}
		log.Printf("Failed to resume session %s (may be expired): %v", sessionID, err)
	}

	info, err := client.CreateSession(ctx, opts.PackID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	log.Printf("Session created: %s (pack %s, %d levels)", info.ID, info.PackName, info.GameState.LevelCount)

	if opts.SaveFile != "" {
		if err := os.WriteFile(opts.SaveFile, []byte(info.ID), 0644); err != nil {
			log.Printf("Warning: Failed to save session ID: %v", err)
		}
	}
	return info.GameState, nil
}

// solveLevel solves the current level from where the session stands and plays the solution
func solveLevel(ctx context.Context, client *Client, state *engine.GameState, opts options) (*engine.GameState, error) {
	data, err := solver.LevelFromState(state)
	if err != nil {
		return nil, err
	}
	m, err := engine.NewGridMapFromLevel(data)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	moves, err := solver.Solve(ctx, m, opts.Limit)
	if err != nil && !errors.Is(err, solver.ErrSearchLimit) && !errors.Is(err, solver.ErrNoSolution) {
		return nil, err
	}
	if err != nil {
		// The session may have been left in a dead end; try again from the start of the level
		log.Printf("Level %d: %v, restarting level", state.Level, err)
		if state, err = client.Restart(ctx); err != nil {
			return nil, err
		}
		if data, err = solver.LevelFromState(state); err != nil {
			return nil, err
		}
		if m, err = engine.NewGridMapFromLevel(data); err != nil {
			return nil, err
		}
		if moves, err = solver.Solve(ctx, m, opts.Limit); err != nil {
			return nil, fmt.Errorf("level %d: %w", state.Level, err)
		}
	}
	log.Printf("Level %d (%s): found %d moves in %s", state.Level, state.LevelName, len(moves), time.Since(started).Round(time.Millisecond))

	if opts.Verbose {
		log.Printf("Moves: %v", moves)
	}

	result, err := client.BulkMove(ctx, moves)
	if err != nil {
		return nil, err
	}
	if result == nil || !result.LevelCompleted {
		return nil, fmt.Errorf("level %d: solution did not complete the level", state.Level)
	}
	return result.GameState, nil
}

// run solves levels until the current one is done, or the whole pack with opts.All
func run(ctx context.Context, client *Client, opts options) error {
	state, err := openSession(ctx, client, opts)
	if err != nil {
		return err
	}

	for {
		if state.LevelCompleted {
			if state.Terminated {
				log.Printf("All %d levels completed!", state.LevelCount)
				return nil
			}
			if !opts.All {
				log.Printf("Level %d already completed", state.Level)
				return nil
			}
			if state, err = client.NextLevel(ctx); err != nil {
				return err
			}
		}

		if state, err = solveLevel(ctx, client, state, opts); err != nil {
			return err
		}
		log.Printf("Level %d completed in %d moves", state.Level, state.MoveCount)

		if !opts.All {
			return nil
		}
		if opts.Delay > 0 && !state.Terminated {
			time.Sleep(opts.Delay)
		}
	}
}

package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zyedidia/generic/mapset"
)

var (
	ErrInvalidConfiguration = errors.New("invalid map configuration")
	ErrInvalidOperation     = errors.New("invalid operation")
	ErrInvalidDirection     = errors.New("invalid direction")
	ErrLevelOutOfRange      = errors.New("level out of range")
)

// Engine provides the main interface for game operations
type Engine interface {
	// Level geometry
	Rows() int
	Columns() int
	IsOccupiable(row, col int) bool

	// Dynamic state
	PlayerPosition() Position
	BoxPositions() []Position
	GoalPositions() []Position
	LastDirection() Direction
	MoveCount() int
	Level() int
	LevelCount() int

	// Movement
	Move(dir Direction) (MoveResult, error)
	CanMove(dir Direction) bool
	PossibleMoves() []Direction

	// Completion and level transitions
	LevelCompleted() bool
	IsTerminated() bool
	LoadNextLevel() error
	RestartLevel() error

	// Snapshots
	State() *GameState
	History() []MoveRecord
}

// levelState is everything that belongs to the level being played.
// It is rebuilt as a whole whenever a level is loaded or restarted.
type levelState struct {
	name          string
	grid          *GridMap
	player        Position
	boxes         []Position
	boxSet        mapset.Set[Position]
	goals         []Position
	goalSet       mapset.Set[Position]
	moves         int
	lastDirection Direction
}

// GameEngine implements the Engine interface
type GameEngine struct {
	provider LevelProvider
	level    int
	current  *levelState
	history  []MoveRecord
	attempts int
}

// NewEngine creates a game positioned at the first level of the provider
func NewEngine(provider LevelProvider) (*GameEngine, error) {
	return NewEngineAtLevel(provider, 1)
}

// NewEngineAtLevel creates a game positioned at the given 1-based level
func NewEngineAtLevel(provider LevelProvider, level int) (*GameEngine, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: level provider is nil", ErrInvalidConfiguration)
	}

	st, err := buildLevelState(provider, level)
	if err != nil {
		return nil, err
	}

	return &GameEngine{
		provider: provider,
		level:    level,
		current:  st,
		history:  []MoveRecord{},
	}, nil
}

// buildLevelState fetches a level from the provider and prepares a fresh state for it
func buildLevelState(provider LevelProvider, level int) (*levelState, error) {
	if count := provider.LevelCount(); level < 1 || level > count {
		return nil, fmt.Errorf("%w: level %d, provider has %d", ErrLevelOutOfRange, level, count)
	}

	data, err := provider.Level(level)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch level %d: %w", level, err)
	}

	grid, err := NewGridMapFromLevel(data)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", level, err)
	}

	boxes := grid.InitialBoxes()
	goals := grid.InitialGoals()

	return &levelState{
		name:          data.Name,
		grid:          grid,
		player:        grid.InitialPlayer(),
		boxes:         boxes,
		boxSet:        positionSet(boxes),
		goals:         goals,
		goalSet:       positionSet(goals),
		lastDirection: DefaultDirection,
	}, nil
}

// LevelCompleted reports whether the set of box positions equals the set of goal positions
func (e *GameEngine) LevelCompleted() bool {
	st := e.current
	// A smaller set than slice means two boxes share a cell
	if st.boxSet.Size() != len(st.boxes) || st.boxSet.Size() != st.goalSet.Size() {
		return false
	}
	for _, g := range st.goals {
		if !st.boxSet.Has(g) {
			return false
		}
	}
	return true
}

// IsTerminated reports whether the last level of the provider has been completed
func (e *GameEngine) IsTerminated() bool {
	return e.LevelCompleted() && e.level == e.provider.LevelCount()
}

// LoadNextLevel advances to the following level. The current level must be
// completed and must not be the last one.
func (e *GameEngine) LoadNextLevel() error {
	if !e.LevelCompleted() {
		return fmt.Errorf("%w: level %d is not completed", ErrInvalidOperation, e.level)
	}
	if e.IsTerminated() {
		return fmt.Errorf("%w: level %d is the last level", ErrInvalidOperation, e.level)
	}

	st, err := buildLevelState(e.provider, e.level+1)
	if err != nil {
		return err
	}

	e.level++
	e.current = st
	return nil
}

// RestartLevel restores the current level to its original layout
func (e *GameEngine) RestartLevel() error {
	st, err := buildLevelState(e.provider, e.level)
	if err != nil {
		return err
	}
	e.current = st
	return nil
}

// Rows returns the number of rows of the current map
func (e *GameEngine) Rows() int {
	return e.current.grid.Rows()
}

// Columns returns the number of columns of the current map
func (e *GameEngine) Columns() int {
	return e.current.grid.Columns()
}

// IsOccupiable reports whether the cell is free of walls and inside the map
func (e *GameEngine) IsOccupiable(row, col int) bool {
	return e.current.grid.IsOccupiable(row, col)
}

// Map returns the immutable layout of the current level
func (e *GameEngine) Map() *GridMap {
	return e.current.grid
}

// PlayerPosition returns the current player position
func (e *GameEngine) PlayerPosition() Position {
	return e.current.player
}

// BoxPositions returns a copy of the current box positions
func (e *GameEngine) BoxPositions() []Position {
	return copyPositions(e.current.boxes)
}

// GoalPositions returns a copy of the goal positions
func (e *GameEngine) GoalPositions() []Position {
	return copyPositions(e.current.goals)
}

// HasBox reports whether a box occupies p
func (e *GameEngine) HasBox(p Position) bool {
	return e.current.boxSet.Has(p)
}

// IsGoal reports whether p is a goal cell
func (e *GameEngine) IsGoal(p Position) bool {
	return e.current.goalSet.Has(p)
}

// LastDirection returns the direction of the most recent move attempt
func (e *GameEngine) LastDirection() Direction {
	return e.current.lastDirection
}

// MoveCount returns the number of accepted moves on the current level
func (e *GameEngine) MoveCount() int {
	return e.current.moves
}

// Level returns the 1-based current level
func (e *GameEngine) Level() int {
	return e.level
}

// LevelCount returns the number of levels known to the provider
func (e *GameEngine) LevelCount() int {
	return e.provider.LevelCount()
}

// LevelName returns the provider's name for the current level, if any
func (e *GameEngine) LevelName() string {
	return e.current.name
}

// History returns a copy of every move attempt made in this game
func (e *GameEngine) History() []MoveRecord {
	return slices.Clone(e.history)
}

// LastMove returns the most recent move attempt, or nil if none was made
func (e *GameEngine) LastMove() *MoveRecord {
	if len(e.history) == 0 {
		return nil
	}
	last := e.history[len(e.history)-1]
	return &last
}

// State returns a serializable snapshot of the game
func (e *GameEngine) State() *GameState {
	st := e.current
	completed := e.LevelCompleted()
	return &GameState{
		Level:          e.level,
		LevelCount:     e.provider.LevelCount(),
		LevelName:      st.name,
		Rows:           st.grid.Rows(),
		Columns:        st.grid.Columns(),
		Player:         st.player,
		Boxes:          copyPositions(st.boxes),
		Goals:          copyPositions(st.goals),
		BoxesOnGoals:   CountBoxesOnGoals(st.boxes, st.goals),
		MoveCount:      st.moves,
		LastDirection:  st.lastDirection,
		LevelCompleted: completed,
		Terminated:     completed && e.level == e.provider.LevelCount(),
		Board:          e.Board(),
		Message:        e.statusMessage(),
	}
}

func (e *GameEngine) statusMessage() string {
	switch {
	case e.IsTerminated():
		return fmt.Sprintf("All %d levels completed!", e.provider.LevelCount())
	case e.LevelCompleted():
		return fmt.Sprintf("Level %d completed in %d moves", e.level, e.current.moves)
	default:
		return fmt.Sprintf("Level %d: %d/%d boxes on goals",
			e.level, CountBoxesOnGoals(e.current.boxes, e.current.goals), len(e.current.goals))
	}
}

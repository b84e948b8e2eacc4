package engine

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MinDimension is the smallest row/column count strictly exceeded by a valid map
	MinDimension = 2

	// MaxBulkMoves caps the number of moves accepted in one bulk request
	MaxBulkMoves = 50

	// DefaultDirection is the facing reported before any move and after a level (re)load
	DefaultDirection = Down
)

// Direction is one of the four orthogonal player moves
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// AllDirections returns the directions in a stable order
func AllDirections() []Direction {
	return []Direction{Up, Down, Left, Right}
}

// Delta returns the unit grid offset for the direction
func (d Direction) Delta() Position {
	switch d {
	case Up:
		return Position{Row: -1, Col: 0}
	case Down:
		return Position{Row: 1, Col: 0}
	case Left:
		return Position{Row: 0, Col: -1}
	case Right:
		return Position{Row: 0, Col: 1}
	}
	return Position{}
}

// IsValid reports whether d is one of the four declared directions
func (d Direction) IsValid() bool {
	return d >= Up && d <= Right
}

// String returns the lowercase direction name
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection converts a direction name (up, down, left, right) into a Direction
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// MarshalText encodes the direction as its name
func (d Direction) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Position represents row,column grid coordinates
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add returns the component-wise sum of two positions
func (p Position) Add(o Position) Position {
	return Position{Row: p.Row + o.Row, Col: p.Col + o.Col}
}

// Step returns the position n cells away in direction d
func (p Position) Step(d Direction, n int) Position {
	delta := d.Delta()
	return Position{Row: p.Row + n*delta.Row, Col: p.Col + n*delta.Col}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// LevelData is the raw layout of one level as supplied by a LevelProvider
type LevelData struct {
	Name       string     `json:"name,omitempty"`
	Rows       int        `json:"rows"`
	Columns    int        `json:"columns"`
	Occupiable [][]bool   `json:"occupiable"`
	Goals      []Position `json:"goals"`
	Boxes      []Position `json:"boxes"`
	Player     Position   `json:"player"`
}

// LevelProvider supplies level layouts by 1-based level number
type LevelProvider interface {
	// LevelCount returns how many levels the provider holds
	LevelCount() int

	// Level returns the layout of level n (1-based)
	Level(n int) (*LevelData, error)
}

// Outcome classifies the effect of a single move attempt
type Outcome string

const (
	OutcomeStepped Outcome = "stepped"
	OutcomePushed  Outcome = "pushed"
	OutcomeBlocked Outcome = "blocked"
)

// BlockReason explains why a move was rejected
type BlockReason string

const (
	BlockedByBoundary BlockReason = "boundary"
	BlockedByWall     BlockReason = "wall"
	BlockedByBox      BlockReason = "box"
)

// MoveResult describes what a call to Move did
type MoveResult struct {
	Direction Direction   `json:"direction"`
	Outcome   Outcome     `json:"outcome"`
	From      Position    `json:"from"`
	To        Position    `json:"to"`
	BoxFrom   *Position   `json:"box_from,omitempty"`
	BoxTo     *Position   `json:"box_to,omitempty"`
	Blocked   BlockReason `json:"blocked_by,omitempty"`
	MoveCount int         `json:"move_count"`
}

// Accepted reports whether the move changed the game state
func (r MoveResult) Accepted() bool {
	return r.Outcome == OutcomeStepped || r.Outcome == OutcomePushed
}

// MoveRecord is a single entry in a game's move history
type MoveRecord struct {
	Attempt   int         `json:"attempt"`
	Level     int         `json:"level"`
	Direction Direction   `json:"direction"`
	From      Position    `json:"from"`
	To        Position    `json:"to"`
	Outcome   Outcome     `json:"outcome"`
	Blocked   BlockReason `json:"blocked_by,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func newMoveRecord(attempt, level int, r MoveResult) MoveRecord {
	return MoveRecord{
		Attempt:   attempt,
		Level:     level,
		Direction: r.Direction,
		From:      r.From,
		To:        r.To,
		Outcome:   r.Outcome,
		Blocked:   r.Blocked,
		Timestamp: time.Now().Unix(),
	}
}

// GameState is a serializable snapshot of a game
type GameState struct {
	Level          int        `json:"level"`
	LevelCount     int        `json:"level_count"`
	LevelName      string     `json:"level_name,omitempty"`
	Rows           int        `json:"rows"`
	Columns        int        `json:"columns"`
	Player         Position   `json:"player"`
	Boxes          []Position `json:"boxes"`
	Goals          []Position `json:"goals"`
	BoxesOnGoals   int        `json:"boxes_on_goals"`
	MoveCount      int        `json:"move_count"`
	LastDirection  Direction  `json:"last_direction"`
	LevelCompleted bool       `json:"level_completed"`
	Terminated     bool       `json:"terminated"`
	Board          []string   `json:"board"`
	Message        string     `json:"message,omitempty"`
}

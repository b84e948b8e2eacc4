package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testProvider serves a fixed list of levels
type testProvider struct {
	levels []*LevelData
	fetches int
}

func (p *testProvider) LevelCount() int {
	return len(p.levels)
}

func (p *testProvider) Level(n int) (*LevelData, error) {
	p.fetches++
	if n < 1 || n > len(p.levels) {
		return nil, ErrLevelOutOfRange
	}
	src := p.levels[n-1]
	return &LevelData{
		Name:       src.Name,
		Rows:       src.Rows,
		Columns:    src.Columns,
		Occupiable: copyGrid(src.Occupiable),
		Goals:      copyPositions(src.Goals),
		Boxes:      copyPositions(src.Boxes),
		Player:     src.Player,
	}, nil
}

func openGrid(rows, cols int) [][]bool {
	grid := make([][]bool, rows)
	for r := range grid {
		grid[r] = make([]bool, cols)
		for c := range grid[r] {
			grid[r][c] = true
		}
	}
	return grid
}

func walledGrid(rows, cols int) [][]bool {
	grid := openGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if r == 0 || c == 0 || r == rows-1 || c == cols-1 {
				grid[r][c] = false
			}
		}
	}
	return grid
}

func pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

// openLevel is a 5x5 map where every cell is occupiable
func openLevel(goals, boxes []Position, player Position) *LevelData {
	return &LevelData{
		Name:       "open",
		Rows:       5,
		Columns:    5,
		Occupiable: openGrid(5, 5),
		Goals:      goals,
		Boxes:      boxes,
		Player:     player,
	}
}

func newTestEngine(t *testing.T, levels ...*LevelData) (*GameEngine, *testProvider) {
	t.Helper()
	provider := &testProvider{levels: levels}
	e, err := NewEngine(provider)
	require.NoError(t, err)
	return e, provider
}

func TestNewEngine(t *testing.T) {
	e, _ := newTestEngine(t, openLevel([]Position{pos(3, 3)}, []Position{pos(2, 3)}, pos(1, 3)))

	assert.Equal(t, 1, e.Level())
	assert.Equal(t, 1, e.LevelCount())
	assert.Equal(t, 0, e.MoveCount())
	assert.Equal(t, Down, e.LastDirection())
	assert.Equal(t, pos(1, 3), e.PlayerPosition())
	assert.Equal(t, []Position{pos(2, 3)}, e.BoxPositions())
	assert.Equal(t, []Position{pos(3, 3)}, e.GoalPositions())
	assert.Equal(t, 5, e.Rows())
	assert.Equal(t, 5, e.Columns())
	assert.Equal(t, "open", e.LevelName())
}

func TestNewEngine_Errors(t *testing.T) {
	t.Run("nil provider", func(t *testing.T) {
		_, err := NewEngine(nil)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("empty provider", func(t *testing.T) {
		_, err := NewEngine(&testProvider{})
		assert.ErrorIs(t, err, ErrLevelOutOfRange)
	})

	t.Run("invalid level data", func(t *testing.T) {
		bad := openLevel([]Position{pos(3, 3)}, []Position{pos(1, 3)}, pos(1, 3))
		_, err := NewEngine(&testProvider{levels: []*LevelData{bad}})
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("level beyond count", func(t *testing.T) {
		lvl := openLevel([]Position{pos(3, 3)}, []Position{pos(2, 3)}, pos(1, 3))
		_, err := NewEngineAtLevel(&testProvider{levels: []*LevelData{lvl}}, 2)
		assert.ErrorIs(t, err, ErrLevelOutOfRange)
	})
}

func TestGameEngine_ReturnsCopies(t *testing.T) {
	e, _ := newTestEngine(t, openLevel([]Position{pos(3, 3)}, []Position{pos(2, 3)}, pos(1, 3)))

	boxes := e.BoxPositions()
	boxes[0] = pos(0, 0)
	goals := e.GoalPositions()
	goals[0] = pos(0, 0)

	assert.Equal(t, []Position{pos(2, 3)}, e.BoxPositions())
	assert.Equal(t, []Position{pos(3, 3)}, e.GoalPositions())
}

func TestLevelCompleted_PermutationOfGoals(t *testing.T) {
	goals := []Position{pos(1, 1), pos(2, 2), pos(3, 3)}
	boxes := []Position{pos(3, 3), pos(1, 1), pos(2, 2)}
	e, _ := newTestEngine(t, openLevel(goals, boxes, pos(0, 0)))

	assert.True(t, e.LevelCompleted())
}

func TestLevelCompleted_PartialCoverage(t *testing.T) {
	goals := []Position{pos(1, 1), pos(3, 3)}
	boxes := []Position{pos(1, 1), pos(3, 2)}
	e, _ := newTestEngine(t, openLevel(goals, boxes, pos(0, 0)))

	assert.False(t, e.LevelCompleted())
	assert.False(t, e.IsTerminated())
	assert.Equal(t, 1, e.State().BoxesOnGoals)
}

func TestIsTerminated(t *testing.T) {
	done := openLevel([]Position{pos(3, 3)}, []Position{pos(3, 3)}, pos(1, 1))
	open := openLevel([]Position{pos(3, 3)}, []Position{pos(2, 3)}, pos(1, 3))

	t.Run("completed last level", func(t *testing.T) {
		e, _ := newTestEngine(t, done)
		assert.True(t, e.IsTerminated())
	})

	t.Run("completed non-final level", func(t *testing.T) {
		e, _ := newTestEngine(t, done, open)
		assert.True(t, e.LevelCompleted())
		assert.False(t, e.IsTerminated())
	})

	t.Run("last level not completed", func(t *testing.T) {
		e, _ := newTestEngine(t, open)
		assert.False(t, e.IsTerminated())
	})
}

func TestLoadNextLevel(t *testing.T) {
	first := openLevel([]Position{pos(3, 3)}, []Position{pos(2, 3)}, pos(1, 3))
	second := openLevel([]Position{pos(1, 1), pos(3, 1)}, []Position{pos(2, 2), pos(2, 3)}, pos(4, 4))
	second.Name = "second"
	e, _ := newTestEngine(t, first, second)

	err := e.LoadNextLevel()
	require.ErrorIs(t, err, ErrInvalidOperation)
	assert.Equal(t, 1, e.Level())

	_, err = e.Move(Right)
	require.NoError(t, err)
	_, err = e.Move(Left)
	require.NoError(t, err)
	_, err = e.Move(Down)
	require.NoError(t, err)
	require.True(t, e.LevelCompleted())
	require.Equal(t, 3, e.MoveCount())

	require.NoError(t, e.LoadNextLevel())
	assert.Equal(t, 2, e.Level())
	assert.Equal(t, 0, e.MoveCount())
	assert.Equal(t, Down, e.LastDirection())
	assert.Equal(t, pos(4, 4), e.PlayerPosition())
	assert.Equal(t, []Position{pos(2, 2), pos(2, 3)}, e.BoxPositions())
	assert.Equal(t, "second", e.LevelName())
	assert.False(t, e.LevelCompleted())
}

func TestLoadNextLevel_WhenTerminated(t *testing.T) {
	done := openLevel([]Position{pos(3, 3)}, []Position{pos(3, 3)}, pos(1, 1))
	e, _ := newTestEngine(t, done)

	require.True(t, e.IsTerminated())
	err := e.LoadNextLevel()
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.Equal(t, 1, e.Level())
}

func TestLoadNextLevel_InvalidNextLevelKeepsState(t *testing.T) {
	done := openLevel([]Position{pos(3, 3)}, []Position{pos(3, 3)}, pos(1, 1))
	broken := openLevel([]Position{pos(3, 3), pos(3, 3)}, []Position{pos(2, 3), pos(2, 2)}, pos(1, 3))
	e, _ := newTestEngine(t, done, broken)

	err := e.LoadNextLevel()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	assert.Equal(t, 1, e.Level())
	assert.True(t, e.LevelCompleted())
	assert.Equal(t, pos(1, 1), e.PlayerPosition())
}

func TestRestartLevel(t *testing.T) {
	lvl := openLevel([]Position{pos(1, 1), pos(3, 1)}, []Position{pos(2, 2), pos(2, 3)}, pos(4, 4))
	e, provider := newTestEngine(t, lvl)

	for _, dir := range []Direction{Up, Up, Left, Up} {
		_, err := e.Move(dir)
		require.NoError(t, err)
	}
	require.NotEqual(t, pos(4, 4), e.PlayerPosition())
	require.Greater(t, e.MoveCount(), 0)
	fetchesBefore := provider.fetches

	require.NoError(t, e.RestartLevel())

	assert.Equal(t, pos(4, 4), e.PlayerPosition())
	assert.Equal(t, []Position{pos(2, 2), pos(2, 3)}, e.BoxPositions())
	assert.Equal(t, 0, e.MoveCount())
	assert.Equal(t, Down, e.LastDirection())
	assert.Equal(t, 1, e.Level())
	assert.Equal(t, fetchesBefore+1, provider.fetches, "restart re-fetches the layout")
}

func TestState(t *testing.T) {
	e, _ := newTestEngine(t, openLevel([]Position{pos(3, 3)}, []Position{pos(2, 3)}, pos(1, 3)))

	_, err := e.Move(Down)
	require.NoError(t, err)

	state := e.State()
	assert.Equal(t, 1, state.Level)
	assert.Equal(t, 1, state.LevelCount)
	assert.Equal(t, pos(2, 3), state.Player)
	assert.Equal(t, []Position{pos(3, 3)}, state.Boxes)
	assert.Equal(t, 1, state.MoveCount)
	assert.Equal(t, Down, state.LastDirection)
	assert.True(t, state.LevelCompleted)
	assert.True(t, state.Terminated)
	assert.Equal(t, 1, state.BoxesOnGoals)
	assert.Len(t, state.Board, 5)
	assert.Contains(t, state.Message, "All 1 levels completed")
}

func TestHistory(t *testing.T) {
	e, _ := newTestEngine(t, openLevel([]Position{pos(3, 3)}, []Position{pos(2, 3)}, pos(0, 0)))

	assert.Nil(t, e.LastMove())

	_, err := e.Move(Up)
	require.NoError(t, err)
	_, err = e.Move(Right)
	require.NoError(t, err)

	history := e.History()
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Attempt)
	assert.Equal(t, OutcomeBlocked, history[0].Outcome)
	assert.Equal(t, BlockedByBoundary, history[0].Blocked)
	assert.Equal(t, OutcomeStepped, history[1].Outcome)
	assert.Equal(t, pos(0, 1), history[1].To)

	last := e.LastMove()
	require.NotNil(t, last)
	assert.Equal(t, Right, last.Direction)
}

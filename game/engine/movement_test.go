package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove_PushCompletesLevel(t *testing.T) {
	e, _ := newTestEngine(t, openLevel([]Position{pos(3, 3)}, []Position{pos(2, 3)}, pos(1, 3)))

	result, err := e.Move(Down)
	require.NoError(t, err)

	assert.Equal(t, OutcomePushed, result.Outcome)
	require.NotNil(t, result.BoxFrom)
	require.NotNil(t, result.BoxTo)
	assert.Equal(t, pos(2, 3), *result.BoxFrom)
	assert.Equal(t, pos(3, 3), *result.BoxTo)

	assert.Equal(t, pos(2, 3), e.PlayerPosition())
	assert.Equal(t, []Position{pos(3, 3)}, e.BoxPositions())
	assert.Equal(t, 1, e.MoveCount())
	assert.True(t, e.LevelCompleted())
	assert.True(t, e.IsTerminated())
}

func TestMove_PushOffGridRejected(t *testing.T) {
	e, _ := newTestEngine(t, openLevel([]Position{pos(3, 3)}, []Position{pos(4, 3)}, pos(3, 3)))
	e.current.lastDirection = Up

	result, err := e.Move(Down)
	require.NoError(t, err)

	assert.Equal(t, OutcomeBlocked, result.Outcome)
	assert.Equal(t, BlockedByBoundary, result.Blocked)
	assert.False(t, result.Accepted())
	assert.Equal(t, pos(3, 3), e.PlayerPosition())
	assert.Equal(t, []Position{pos(4, 3)}, e.BoxPositions())
	assert.Equal(t, 0, e.MoveCount())
	assert.Equal(t, Down, e.LastDirection())
}

func TestMove_Step(t *testing.T) {
	tests := []struct {
		dir  Direction
		want Position
	}{
		{Up, pos(1, 2)},
		{Down, pos(3, 2)},
		{Left, pos(2, 1)},
		{Right, pos(2, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			e, _ := newTestEngine(t, openLevel([]Position{pos(0, 0)}, []Position{pos(4, 4)}, pos(2, 2)))

			result, err := e.Move(tt.dir)
			require.NoError(t, err)

			assert.Equal(t, OutcomeStepped, result.Outcome)
			assert.True(t, result.Accepted())
			assert.Equal(t, pos(2, 2), result.From)
			assert.Equal(t, tt.want, result.To)
			assert.Equal(t, tt.want, e.PlayerPosition())
			assert.Equal(t, 1, e.MoveCount())
			assert.Equal(t, tt.dir, e.LastDirection())
			assert.Equal(t, []Position{pos(4, 4)}, e.BoxPositions())
		})
	}
}

func TestMove_Blocked(t *testing.T) {
	grid := walledGrid(5, 5)
	grid[2][3] = false
	level := &LevelData{
		Rows:       5,
		Columns:    5,
		Occupiable: grid,
		Goals:      []Position{pos(3, 3), pos(1, 3)},
		Boxes:      []Position{pos(2, 2), pos(3, 2)},
		Player:     pos(1, 2),
	}

	tests := []struct {
		name   string
		player Position
		dir    Direction
		reason BlockReason
	}{
		{"walk into wall", pos(1, 2), Up, BlockedByWall},
		{"push box into box", pos(1, 2), Down, BlockedByBox},
		{"push box into wall", pos(2, 1), Right, BlockedByWall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lvl := *level
			lvl.Player = tt.player
			e, _ := newTestEngine(t, &lvl)

			result, err := e.Move(tt.dir)
			require.NoError(t, err)

			assert.Equal(t, OutcomeBlocked, result.Outcome)
			assert.Equal(t, tt.reason, result.Blocked)
			assert.Equal(t, tt.player, e.PlayerPosition())
			assert.Equal(t, []Position{pos(2, 2), pos(3, 2)}, e.BoxPositions())
			assert.Equal(t, 0, e.MoveCount())
			assert.Equal(t, tt.dir, e.LastDirection())
		})
	}
}

func TestMove_OffGrid(t *testing.T) {
	e, _ := newTestEngine(t, openLevel([]Position{pos(3, 3)}, []Position{pos(2, 3)}, pos(0, 0)))

	for _, dir := range []Direction{Up, Left} {
		result, err := e.Move(dir)
		require.NoError(t, err)
		assert.Equal(t, BlockedByBoundary, result.Blocked)
		assert.Equal(t, dir, e.LastDirection())
	}
	assert.Equal(t, pos(0, 0), e.PlayerPosition())
	assert.Equal(t, 0, e.MoveCount())
}

func TestMove_PushAlongRow(t *testing.T) {
	e, _ := newTestEngine(t, openLevel([]Position{pos(2, 4), pos(0, 0)}, []Position{pos(2, 1), pos(4, 4)}, pos(2, 0)))

	for i := 0; i < 3; i++ {
		result, err := e.Move(Right)
		require.NoError(t, err)
		assert.Equal(t, OutcomePushed, result.Outcome)
	}

	assert.Equal(t, pos(2, 3), e.PlayerPosition())
	assert.Equal(t, []Position{pos(2, 4), pos(4, 4)}, e.BoxPositions())
	assert.Equal(t, 3, e.MoveCount())

	// Box is now against the right edge
	result, err := e.Move(Right)
	require.NoError(t, err)
	assert.Equal(t, BlockedByBoundary, result.Blocked)
	assert.Equal(t, 3, e.MoveCount())
	assert.False(t, e.LevelCompleted())
}

func TestMove_AfterCompletion(t *testing.T) {
	e, _ := newTestEngine(t,
		openLevel([]Position{pos(3, 3)}, []Position{pos(3, 3)}, pos(1, 1)),
		openLevel([]Position{pos(3, 3)}, []Position{pos(2, 3)}, pos(1, 3)),
	)

	_, err := e.Move(Right)
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.Equal(t, pos(1, 1), e.PlayerPosition())
	assert.Equal(t, Down, e.LastDirection())
	assert.Empty(t, e.History())
}

func TestMove_InvalidDirection(t *testing.T) {
	e, _ := newTestEngine(t, openLevel([]Position{pos(3, 3)}, []Position{pos(2, 3)}, pos(1, 3)))

	_, err := e.Move(Direction(9))
	assert.ErrorIs(t, err, ErrInvalidDirection)
	assert.Equal(t, Down, e.LastDirection())
	assert.Equal(t, 0, e.MoveCount())
}

func TestCanMoveAndPossibleMoves(t *testing.T) {
	// Player in the corner with a box to the right that is pinned against another box
	e, _ := newTestEngine(t, openLevel(
		[]Position{pos(3, 3), pos(4, 4)},
		[]Position{pos(0, 1), pos(0, 2)},
		pos(0, 0),
	))

	assert.False(t, e.CanMove(Up))
	assert.False(t, e.CanMove(Left))
	assert.False(t, e.CanMove(Right))
	assert.True(t, e.CanMove(Down))
	assert.False(t, e.CanMove(Direction(-1)))
	assert.Equal(t, []Direction{Down}, e.PossibleMoves())
}

func TestBulkMove(t *testing.T) {
	e, _ := newTestEngine(t, openLevel([]Position{pos(3, 3)}, []Position{pos(2, 3)}, pos(1, 1)))

	results, err := e.BulkMove([]Direction{Right, Right, Down, Down, Left})
	require.NoError(t, err)

	// Stops once the box lands on the goal
	require.Len(t, results, 3)
	assert.Equal(t, OutcomePushed, results[2].Outcome)
	assert.True(t, e.LevelCompleted())
	assert.Equal(t, pos(2, 3), e.PlayerPosition())

	_, err = e.BulkMove([]Direction{Up})
	assert.NoError(t, err)
}

func TestBulkMove_InvalidDirection(t *testing.T) {
	e, _ := newTestEngine(t, openLevel([]Position{pos(3, 3)}, []Position{pos(2, 3)}, pos(1, 1)))

	results, err := e.BulkMove([]Direction{Right, Direction(7), Right})
	assert.ErrorIs(t, err, ErrInvalidDirection)
	assert.Len(t, results, 1)
	assert.Equal(t, pos(1, 2), e.PlayerPosition())
}

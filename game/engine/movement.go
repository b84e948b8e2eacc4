package engine

import (
	"fmt"
	"slices"
)

// Move attempts to move the player one cell in dir, pushing a box when one is in the way.
// A move into a wall, off the grid, or against an immovable box is not an error: it is
// reported as OutcomeBlocked and only the last direction changes.
func (e *GameEngine) Move(dir Direction) (MoveResult, error) {
	if !dir.IsValid() {
		return MoveResult{}, fmt.Errorf("%w: %d", ErrInvalidDirection, int(dir))
	}
	if e.LevelCompleted() {
		return MoveResult{}, fmt.Errorf("%w: level %d is already completed", ErrInvalidOperation, e.level)
	}

	result := e.current.move(dir)

	e.attempts++
	e.history = append(e.history, newMoveRecord(e.attempts, e.level, result))

	return result, nil
}

// move applies the push rule to the level state
func (st *levelState) move(dir Direction) MoveResult {
	st.lastDirection = dir

	from := st.player
	next := from.Step(dir, 1)
	beyond := from.Step(dir, 2)

	result := MoveResult{
		Direction: dir,
		From:      from,
		To:        from,
		Outcome:   OutcomeBlocked,
	}

	if reason, ok := st.blockedAt(next); ok {
		result.Blocked = reason
		result.MoveCount = st.moves
		return result
	}

	if !st.boxSet.Has(next) {
		st.player = next
		st.moves++
		result.Outcome = OutcomeStepped
		result.To = next
		result.MoveCount = st.moves
		return result
	}

	// Push: the cell behind the box must be free floor
	if reason, ok := st.blockedAt(beyond); ok {
		result.Blocked = reason
		result.MoveCount = st.moves
		return result
	}
	if st.boxSet.Has(beyond) {
		result.Blocked = BlockedByBox
		result.MoveCount = st.moves
		return result
	}

	idx := slices.Index(st.boxes, next)
	st.boxes[idx] = beyond
	st.boxSet.Remove(next)
	st.boxSet.Put(beyond)
	st.player = next
	st.moves++

	boxFrom, boxTo := next, beyond
	result.Outcome = OutcomePushed
	result.To = next
	result.BoxFrom = &boxFrom
	result.BoxTo = &boxTo
	result.MoveCount = st.moves
	return result
}

// blockedAt reports whether p can never hold the player or a box
func (st *levelState) blockedAt(p Position) (BlockReason, bool) {
	if !st.grid.InBounds(p) {
		return BlockedByBoundary, true
	}
	if !st.grid.IsOccupiable(p.Row, p.Col) {
		return BlockedByWall, true
	}
	return "", false
}

// CanMove reports whether a move in dir would currently be accepted
func (e *GameEngine) CanMove(dir Direction) bool {
	if !dir.IsValid() || e.LevelCompleted() {
		return false
	}
	st := e.current
	next := st.player.Step(dir, 1)
	if _, blocked := st.blockedAt(next); blocked {
		return false
	}
	if !st.boxSet.Has(next) {
		return true
	}
	beyond := st.player.Step(dir, 2)
	if _, blocked := st.blockedAt(beyond); blocked {
		return false
	}
	return !st.boxSet.Has(beyond)
}

// PossibleMoves returns every direction that would currently be accepted
func (e *GameEngine) PossibleMoves() []Direction {
	var possible []Direction
	for _, dir := range AllDirections() {
		if e.CanMove(dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}

// BulkMove executes moves in order and stops at the first error or once the level is completed
func (e *GameEngine) BulkMove(moves []Direction) ([]MoveResult, error) {
	results := make([]MoveResult, 0, len(moves))
	for _, dir := range moves {
		if e.LevelCompleted() {
			break
		}
		r, err := e.Move(dir)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

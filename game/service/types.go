package service

import (
	"time"

	"github.com/wricardo/sokoban-game/game/engine"
)

// Stop reason codes reported by BulkMove
const (
	StopBlockedBoundary  = "blocked_boundary"
	StopBlockedWall      = "blocked_wall"
	StopBlockedBox       = "blocked_box"
	StopLevelCompleted   = "level_completed"
	StopInvalidDirection = "invalid_direction"
)

// Event types
const (
	EventMove           = "move"
	EventPush           = "push"
	EventBlocked        = "blocked"
	EventRestart        = "restart"
	EventNextLevel      = "next_level"
	EventLevelCompleted = "level_completed"
	EventGameCompleted  = "game_completed"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	PackID         string            `json:"pack_id"`
	PackName       string            `json:"pack_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success   bool              `json:"success"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
	Step      *StepInfo         `json:"step,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // blocked_boundary|blocked_wall|blocked_box|level_completed|invalid_direction
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos    engine.Position `json:"start_pos"`
	EndPos      engine.Position `json:"end_pos"`
	BoxesPushed int             `json:"boxes_pushed"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Final status aids
	LevelCompleted bool     `json:"level_completed"`
	Terminated     bool     `json:"terminated"`
	Message        string   `json:"message,omitempty"`
	PossibleMoves  []string `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record for one move attempt
type StepInfo struct {
	Idx       int                `json:"idx"`
	Dir       string             `json:"dir"`
	From      engine.Position    `json:"from"`
	To        engine.Position    `json:"to"`
	Outcome   engine.Outcome     `json:"outcome"`
	BoxFrom   *engine.Position   `json:"box_from,omitempty"`
	BoxTo     *engine.Position   `json:"box_to,omitempty"`
	BlockedBy engine.BlockReason `json:"blocked_by,omitempty"`
	Success   bool               `json:"success"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "move", "push", "blocked", "restart", "next_level", "level_completed", "game_completed"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveRecord `json:"moves"`
	TotalMoves  int                 `json:"total_moves"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

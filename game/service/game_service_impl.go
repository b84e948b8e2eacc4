package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/levels"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	packs    PackManager
	// mu guards session state. Anything that calls lookup holds it exclusively.
	mu sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, packs PackManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		packs:    packs,
	}
}

// CreateSession creates a new game session on the given pack, or the default pack when packID is empty
func (s *gameServiceImpl) CreateSession(ctx context.Context, packID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pack *levels.Pack
	if packID != "" {
		var err error
		pack, err = s.packs.LoadPack(packID)
		if err != nil {
			if errors.Is(err, levels.ErrPackNotFound) {
				if ids := s.availablePackIDs(); len(ids) > 0 {
					return nil, fmt.Errorf("%w: '%s' (available packs: %s)", levels.ErrPackNotFound, packID, strings.Join(ids, ", "))
				}
				return nil, fmt.Errorf("%w: '%s' (use /api/packs to list available packs)", levels.ErrPackNotFound, packID)
			}
			return nil, fmt.Errorf("failed to load pack %s: %w", packID, err)
		}
	} else {
		pack = s.packs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", pack)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	return nil
}

// Move executes a single move for a session, optionally restarting the level first
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, restart bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}
	if restart {
		if err := sess.Engine.RestartLevel(); err != nil {
			return nil, fmt.Errorf("failed to restart level: %w", err)
		}
		events = append(events, restartEvent(sess.Engine))
	}

	r, err := sess.Engine.Move(dir)
	if err != nil {
		return nil, err
	}
	events = append(events, moveEvents(sess.Engine, r)...)

	state := sess.Engine.State()
	step := stepInfo(1, r)

	message := state.Message
	if !r.Accepted() {
		message = fmt.Sprintf("Can't move %s: blocked by %s", dir, r.Blocked)
	}

	return &MoveResult{
		Success:   r.Accepted(),
		GameState: state,
		Message:   message,
		Events:    events,
		Step:      &step,
	}, nil
}

// BulkMove executes up to engine.MaxBulkMoves moves in sequence. It stops at the
// first blocked move, at an unparseable direction, or once the level is completed.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, restart bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	game := sess.Engine

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if restart {
		if err := game.RestartLevel(); err != nil {
			return nil, fmt.Errorf("failed to restart level: %w", err)
		}
		result.Events = append(result.Events, restartEvent(game))
	}

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	result.StartPos = game.PlayerPosition()

	for i, raw := range moves {
		if game.LevelCompleted() {
			result.Success = false
			result.StoppedReason = "level already completed"
			result.StopReasonCode = StopLevelCompleted
			result.StoppedOnMove = i + 1
			break
		}

		dir, err := engine.ParseDirection(raw)
		if err != nil {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d: invalid direction %q", i+1, raw)
			result.StopReasonCode = StopInvalidDirection
			result.StoppedOnMove = i + 1
			break
		}

		r, err := game.Move(dir)
		if err != nil {
			return nil, err
		}

		result.Steps = append(result.Steps, stepInfo(i+1, r))
		result.Events = append(result.Events, moveEvents(game, r)...)

		if !r.Accepted() {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d blocked: %s by %s", i+1, dir, r.Blocked)
			result.StopReasonCode = blockedCode(r.Blocked)
			result.StoppedOnMove = i + 1
			break
		}

		result.MovesExecuted++
		if r.Outcome == engine.OutcomePushed {
			result.BoxesPushed++
		}

		if game.LevelCompleted() {
			result.StoppedReason = fmt.Sprintf("level completed on move %d", i+1)
			result.StopReasonCode = StopLevelCompleted
			result.StoppedOnMove = i + 1
			break
		}
	}

	state := game.State()
	result.GameState = state
	result.EndPos = state.Player
	result.LevelCompleted = state.LevelCompleted
	result.Terminated = state.Terminated
	result.Message = state.Message
	result.PossibleMoves = directionNames(game.PossibleMoves())

	return result, nil
}

// RestartLevel restores the session's current level to its initial layout
func (s *gameServiceImpl) RestartLevel(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.Engine.RestartLevel(); err != nil {
		return nil, fmt.Errorf("failed to restart level: %w", err)
	}
	return sess.Engine.State(), nil
}

// NextLevel advances a session whose current level is completed
func (s *gameServiceImpl) NextLevel(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.Engine.LoadNextLevel(); err != nil {
		return nil, err
	}
	return sess.Engine.State(), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.State(), nil
}

// RenderBoard returns the framed text view of a session
func (s *gameServiceImpl) RenderBoard(ctx context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return "", err
	}
	return sess.Engine.String(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.History()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveRecord{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListPacks returns available level packs
func (s *gameServiceImpl) ListPacks(ctx context.Context) ([]*levels.PackInfo, error) {
	return s.packs.ListPacks()
}

// LoadPack loads a specific level pack
func (s *gameServiceImpl) LoadPack(ctx context.Context, packID string) (*levels.Pack, error) {
	return s.packs.LoadPack(packID)
}

// SavePack validates and stores a level pack
func (s *gameServiceImpl) SavePack(ctx context.Context, packID string, pack *levels.Pack) error {
	return s.packs.SavePack(packID, pack)
}

// lookup fetches a session and marks it as accessed. Callers must hold s.mu for writing.
func (s *gameServiceImpl) lookup(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) availablePackIDs() []string {
	infos, err := s.packs.ListPacks()
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.PackID)
	}
	return ids
}

func sessionInfo(sess *Session) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.State(),
	}
	if sess.Pack != nil {
		info.PackID = sess.Pack.ID
		info.PackName = sess.Pack.Name
	}
	return info
}

func stepInfo(idx int, r engine.MoveResult) StepInfo {
	return StepInfo{
		Idx:       idx,
		Dir:       r.Direction.String(),
		From:      r.From,
		To:        r.To,
		Outcome:   r.Outcome,
		BoxFrom:   r.BoxFrom,
		BoxTo:     r.BoxTo,
		BlockedBy: r.Blocked,
		Success:   r.Accepted(),
	}
}

// moveEvents generates events from a move
func moveEvents(game *engine.GameEngine, r engine.MoveResult) []GameEvent {
	now := time.Now()
	var events []GameEvent

	switch r.Outcome {
	case engine.OutcomeStepped:
		events = append(events, GameEvent{
			Type:      EventMove,
			Message:   fmt.Sprintf("Moved %s to %s", r.Direction, r.To),
			Timestamp: now,
			Position:  r.To,
		})
	case engine.OutcomePushed:
		events = append(events, GameEvent{
			Type:      EventPush,
			Message:   fmt.Sprintf("Pushed box %s from %s to %s", r.Direction, *r.BoxFrom, *r.BoxTo),
			Timestamp: now,
			Position:  *r.BoxTo,
		})
	default:
		events = append(events, GameEvent{
			Type:      EventBlocked,
			Message:   fmt.Sprintf("Move %s blocked by %s", r.Direction, r.Blocked),
			Timestamp: now,
			Position:  r.From,
		})
		return events
	}

	if game.IsTerminated() {
		events = append(events, GameEvent{
			Type:      EventGameCompleted,
			Message:   fmt.Sprintf("All %d levels completed!", game.LevelCount()),
			Timestamp: now,
		})
	} else if game.LevelCompleted() {
		events = append(events, GameEvent{
			Type:      EventLevelCompleted,
			Message:   fmt.Sprintf("Level %d completed in %d moves", game.Level(), game.MoveCount()),
			Timestamp: now,
		})
	}

	return events
}

func restartEvent(game *engine.GameEngine) GameEvent {
	return GameEvent{
		Type:      EventRestart,
		Message:   fmt.Sprintf("Level %d restarted", game.Level()),
		Timestamp: time.Now(),
		Position:  game.PlayerPosition(),
	}
}

func blockedCode(reason engine.BlockReason) string {
	switch reason {
	case engine.BlockedByBoundary:
		return StopBlockedBoundary
	case engine.BlockedByWall:
		return StopBlockedWall
	default:
		return StopBlockedBox
	}
}

func directionNames(dirs []engine.Direction) []string {
	names := make([]string, 0, len(dirs))
	for _, d := range dirs {
		names = append(names, d.String())
	}
	return names
}

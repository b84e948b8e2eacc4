package service

import (
	"context"
	"time"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/levels"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, packID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID, direction string, restart bool) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string, restart bool) (*BulkMoveResult, error)
	RestartLevel(ctx context.Context, sessionID string) (*engine.GameState, error)
	NextLevel(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	RenderBoard(ctx context.Context, sessionID string) (string, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Level Packs
	ListPacks(ctx context.Context) ([]*levels.PackInfo, error)
	LoadPack(ctx context.Context, packID string) (*levels.Pack, error)
	SavePack(ctx context.Context, packID string, pack *levels.Pack) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, pack *levels.Pack) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, pack *levels.Pack) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// PackManager handles level pack loading
type PackManager interface {
	LoadPack(id string) (*levels.Pack, error)
	ListPacks() ([]*levels.PackInfo, error)
	GetDefault() *levels.Pack
	SavePack(id string, pack *levels.Pack) error
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Pack           *levels.Pack
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/tiletris/game/engine"
	"github.com/wricardo/mcp-training/tiletris/game/runner"
	"github.com/wricardo/mcp-training/tiletris/game/scores"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName, playerID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Command(ctx context.Context, sessionID, command string) (*CommandResult, error)
	BulkCommands(ctx context.Context, sessionID string, commands []string, reset bool) (*BulkCommandResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)
	Pause(ctx context.Context, sessionID string) (*SessionInfo, error)
	Resume(ctx context.Context, sessionID string) (*SessionInfo, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	PlacementOptions(ctx context.Context, sessionID string) ([]engine.PlacementOption, error)

	// Scores
	SubmitScore(ctx context.Context, sessionID, username string) (*scores.Profile, error)
	Rankings(ctx context.Context, limit int) ([]scores.RankingEntry, error)
	GetPlayer(ctx context.Context, uid string) (*PlayerInfo, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
	Catalog(ctx context.Context, configName string) ([]TileInfo, error)
	DescribeTile(ctx context.Context, kind string) (*TileInfo, error)
}

// HookFactory builds the runner hooks of a session
type HookFactory func(sess *Session) runner.Hooks

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig, opts ...SessionOption) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
	SetHooks(f HookFactory)
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Notifier pushes session updates to connected clients
type Notifier interface {
	BroadcastToSession(sessionID string, state *engine.GameState)
	BroadcastEvent(sessionID string, event string, data interface{})
}

// Session represents an active game session. The runner is the only way to
// reach its engine.
type Session struct {
	ID             string
	Runner         *runner.Runner
	Config         *engine.GameConfig
	ConfigID       string
	PlayerID       string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// SessionOption sets optional session metadata at creation
type SessionOption func(*Session)

// WithConfigID records the identifier the configuration was loaded by
func WithConfigID(id string) SessionOption {
	return func(s *Session) { s.ConfigID = id }
}

// WithPlayer attaches the session to a player uid
func WithPlayer(uid string) SessionOption {
	return func(s *Session) { s.PlayerID = uid }
}

// UserID is the uid finished games and scores are recorded under
func (s *Session) UserID() string {
	if s.PlayerID != "" {
		return s.PlayerID
	}
	return s.ID
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/tiletris/game/engine"
	"github.com/wricardo/mcp-training/tiletris/game/runner"
	"github.com/wricardo/mcp-training/tiletris/game/scores"
)

// ErrGameInProgress is returned when a score is submitted before the game
// ended and its last resolution was applied
var ErrGameInProgress = errors.New("game is still in progress")

// Option configures the game service
type Option func(*gameServiceImpl)

// WithNotifier pushes session updates to n
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) { s.notifier = n }
}

// WithScores records finished games and serves rankings through sc
func WithScores(sc *scores.Service) Option {
	return func(s *gameServiceImpl) { s.scores = sc }
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	scores   *scores.Service
	notifier Notifier
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance and installs its
// hooks on every session of sessions. Without WithScores, scores are kept in
// memory.
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scores == nil {
		s.scores = scores.NewService(scores.NewMemoryStore())
	}
	sessions.SetHooks(s.hooksFor)
	return s
}

// hooksFor builds the runner hooks of one session. They run on the
// session's runner goroutine and only log, notify and record.
func (s *gameServiceImpl) hooksFor(sess *Session) runner.Hooks {
	return runner.Hooks{
		OnUpdate: func(state *engine.GameState, events []engine.Event) {
			for _, ev := range events {
				switch ev.Type {
				case engine.EventPlaced:
					if ev.Piece != nil {
						log.Printf("[PLACE] session=%s tile=%d kind=%s at=(%d,%d) rot=%d",
							sess.ID, ev.TileID, ev.Piece.Kind, ev.Piece.Position.X, ev.Piece.Position.Y, ev.Piece.Rotation)
					}
				case engine.EventResolved:
					if ev.Resolution == nil || ev.Resolution.Empty() {
						continue
					}
					log.Printf("[RESOLVE] session=%s cities=%d specials=%d delta=+%d score=%d",
						sess.ID, len(ev.Resolution.Features), len(ev.Resolution.Specials), ev.Resolution.ScoreDelta, state.Score)
					if s.notifier != nil {
						s.notifier.BroadcastEvent(sess.ID, "resolution", ev.Resolution)
					}
				case engine.EventReset:
					log.Printf("[RESET] session=%s", sess.ID)
				}
			}
			if s.notifier != nil {
				s.notifier.BroadcastToSession(sess.ID, state)
			}
		},
		OnGameOver: func(state *engine.GameState) {
			log.Printf("[GAME OVER] session=%s score=%d placements=%d", sess.ID, state.Score, state.Stats.Placements)
			if _, err := s.scores.RecordGame(sess.UserID(), sess.ID, state); err != nil {
				log.Printf("Warning: Failed to record game of session %s: %v", sess.ID, err)
			}
			if s.notifier != nil {
				s.notifier.BroadcastEvent(sess.ID, "game_over", map[string]interface{}{
					"score": state.Score,
					"stats": state.Stats,
				})
			}
		},
	}
}

// getConfigID returns the config_id of a session, used for consistent API responses
func (s *gameServiceImpl) getConfigID(sess *Session) string {
	if sess.ConfigID != "" {
		return sess.ConfigID
	}
	return s.configIDByName(sess.Config.Name)
}

// configIDByName looks up the config_id of a display name
func (s *gameServiceImpl) configIDByName(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

// sessionInfo snapshots a session
func (s *gameServiceImpl) sessionInfo(sess *Session) (*SessionInfo, error) {
	state, err := sess.Runner.State()
	if err != nil {
		return nil, fmt.Errorf("session %s is not running: %w", sess.ID, err)
	}
	paused, err := sess.Runner.Paused()
	if err != nil {
		return nil, fmt.Errorf("session %s is not running: %w", sess.ID, err)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess), // Return the config_id, not the display name
		PlayerID:       sess.PlayerID,
		Paused:         paused,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      state,
		GameConfig:     sess.Config,
	}, nil
}

// session fetches a session and marks it accessed
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// persist saves a session, logging failures
func (s *gameServiceImpl) persist(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after %s: %v", sessionID, after, err)
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName, playerID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v", configName, configIDs)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations", configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Prefer the requested identifier, otherwise look it up by display name
	configID := configName
	if configID == "" {
		configID = s.configIDByName(config.Name)
	}

	opts := []SessionOption{WithConfigID(configID)}
	if playerID != "" {
		opts = append(opts, WithPlayer(playerID))
		if _, err := s.scores.EnsureProfile(playerID); err != nil {
			log.Printf("Warning: Failed to create profile %s: %v", playerID, err)
		}
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(sess)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess)
}

// ListSessions returns all active sessions, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		info, err := s.sessionInfo(sess)
		if err != nil {
			// Deleted while listing
			continue
		}
		result = append(result, info)
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Command applies one command to a session
func (s *gameServiceImpl) Command(ctx context.Context, sessionID, command string) (*CommandResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	cmd, err := engine.ParseCommand(command)
	if err != nil {
		return nil, err
	}

	var (
		prev, state *engine.GameState
		changed     bool
	)
	err = sess.Runner.Do(func(e *engine.GameEngine) {
		prev = e.GetState()
		changed, _ = e.Apply(cmd)
		state = e.GetState()
	})
	if err != nil {
		return nil, fmt.Errorf("session %s is not running: %w", sessionID, err)
	}

	result := &CommandResult{
		Success:   changed,
		Command:   cmd,
		GameState: state,
		Message:   state.Message,
		Events:    commandEvents(prev, state),
	}
	if !changed && !state.GameOver {
		result.Message = fmt.Sprintf("Command %s had no effect", cmd)
	}

	s.persist(sessionID, "command")
	return result, nil
}

// BulkCommands applies commands in order on the session loop, stopping at
// the first one that is unknown, has no effect, or meets a finished game
func (s *gameServiceImpl) BulkCommands(ctx context.Context, sessionID string, commands []string, reset bool) (*BulkCommandResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkCommandResult{
		RequestedCommands: len(commands),
		Events:            make([]GameEvent, 0),
		Success:           true,
	}

	// Limit commands to prevent abuse
	if len(commands) > engine.MaxBulkCommands {
		result.Truncated = true
		result.Limit = engine.MaxBulkCommands
		commands = commands[:engine.MaxBulkCommands]
	}

	err = sess.Runner.Do(func(e *engine.GameEngine) {
		if reset {
			e.Reset()
			result.Events = append(result.Events, GameEvent{
				Type:      "reset",
				Message:   "Game reset to initial state",
				Timestamp: time.Now(),
			})
		}

		start := e.GetState()
		result.StartScore = start.Score

		for i, raw := range commands {
			if e.IsGameOver() {
				result.StoppedReason = "game_over"
				result.StopReasonCode = "game_over"
				result.StoppedOnCommand = i + 1
				break
			}

			cmd, perr := engine.ParseCommand(raw)
			if perr != nil {
				result.Success = false
				result.StoppedReason = fmt.Sprintf("command %d unknown: %s", i+1, raw)
				result.StopReasonCode = "unknown_command"
				result.StoppedOnCommand = i + 1
				break
			}

			prev := e.GetState()
			changed, _ := e.Apply(cmd)
			if !changed {
				result.Success = false
				result.StoppedReason = fmt.Sprintf("command %d blocked: %s", i+1, cmd)
				result.StopReasonCode = "blocked"
				result.StoppedOnCommand = i + 1
				break
			}

			result.CommandsExecuted++
			curr := e.GetState()
			result.Events = append(result.Events, commandEvents(prev, curr)...)
			result.Steps = append(result.Steps, StepInfo{
				Idx:     i + 1,
				Command: cmd,
				Success: true,
				Piece:   curr.Piece,
				Placed:  curr.Stats.Placements > prev.Stats.Placements,
				Score:   curr.Score,
			})
		}

		end := e.GetState()
		result.GameState = end
		result.EndScore = end.Score
		result.ScoreDelta = end.Score - start.Score
		result.Placements = end.Stats.Placements - start.Stats.Placements
		result.GameOver = end.GameOver
		result.Message = end.Message
	})
	if err != nil {
		return nil, fmt.Errorf("session %s is not running: %w", sessionID, err)
	}

	// If we ended due to game over without explicit stop reason code
	if result.GameOver && result.StopReasonCode == "" {
		result.StopReasonCode = "game_over"
	}

	s.persist(sessionID, "bulk commands")
	return result, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	state, err := sess.Runner.Reset()
	if err != nil {
		return nil, fmt.Errorf("session %s is not running: %w", sessionID, err)
	}

	s.persist(sessionID, "reset")
	return state, nil
}

// Pause stops automatic descent of a session
func (s *gameServiceImpl) Pause(ctx context.Context, sessionID string) (*SessionInfo, error) {
	return s.setPaused(sessionID, true)
}

// Resume restarts automatic descent of a session
func (s *gameServiceImpl) Resume(ctx context.Context, sessionID string) (*SessionInfo, error) {
	return s.setPaused(sessionID, false)
}

func (s *gameServiceImpl) setPaused(sessionID string, paused bool) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if paused {
		err = sess.Runner.Pause()
	} else {
		err = sess.Runner.Resume()
	}
	if err != nil {
		return nil, fmt.Errorf("session %s is not running: %w", sessionID, err)
	}
	return s.sessionInfo(sess)
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	state, err := sess.Runner.State()
	if err != nil {
		return nil, fmt.Errorf("session %s is not running: %w", sessionID, err)
	}
	return state, nil
}

// PlacementOptions lists where the falling piece can settle, best first
func (s *gameServiceImpl) PlacementOptions(ctx context.Context, sessionID string) ([]engine.PlacementOption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var options []engine.PlacementOption
	if err := sess.Runner.Do(func(e *engine.GameEngine) { options = e.PlacementOptions() }); err != nil {
		return nil, fmt.Errorf("session %s is not running: %w", sessionID, err)
	}
	if options == nil {
		options = []engine.PlacementOption{}
	}
	return options, nil
}

// SubmitScore publishes the final score of a finished session under username
func (s *gameServiceImpl) SubmitScore(ctx context.Context, sessionID, username string) (*scores.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	state, err := sess.Runner.State()
	if err != nil {
		return nil, fmt.Errorf("session %s is not running: %w", sessionID, err)
	}
	if !state.Settled() {
		return nil, ErrGameInProgress
	}

	return s.scores.SubmitScore(sess.UserID(), username, state.Score)
}

// Rankings returns the leaderboard
func (s *gameServiceImpl) Rankings(ctx context.Context, limit int) ([]scores.RankingEntry, error) {
	return s.scores.Rankings(limit)
}

// GetPlayer returns a profile and its recorded games
func (s *gameServiceImpl) GetPlayer(ctx context.Context, uid string) (*PlayerInfo, error) {
	profile, err := s.scores.Profile(uid)
	if err != nil {
		return nil, fmt.Errorf("player %s: %w", uid, err)
	}
	games, err := s.scores.Games(uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list games of %s: %w", uid, err)
	}
	if games == nil {
		games = []*scores.GameRecord{}
	}
	return &PlayerInfo{Profile: profile, Games: games}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// Catalog describes every tile kind a configuration can draw, with its
// weight and probability under that configuration
func (s *gameServiceImpl) Catalog(ctx context.Context, configName string) ([]TileInfo, error) {
	config := s.configs.GetDefault()
	if configName != "" {
		var err error
		if config, err = s.configs.LoadConfig(configName); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	}

	catalog, err := config.Catalog()
	if err != nil {
		return nil, err
	}

	defs := catalog.Definitions()
	tiles := make([]TileInfo, 0, len(defs))
	for _, def := range defs {
		tiles = append(tiles, tileInfo(catalog, def))
	}
	return tiles, nil
}

// DescribeTile describes one tile kind of the standard catalog
func (s *gameServiceImpl) DescribeTile(ctx context.Context, kind string) (*TileInfo, error) {
	catalog := engine.DefaultCatalog()
	def, ok := catalog.Definition(engine.TileKind(strings.ToLower(strings.TrimSpace(kind))))
	if !ok {
		return nil, fmt.Errorf("tile kind '%s' not found", kind)
	}
	info := tileInfo(catalog, def)
	return &info, nil
}

func tileInfo(catalog *engine.Catalog, def engine.TileDefinition) TileInfo {
	rotations := make([]string, 0, 4)
	for _, r := range []engine.Rotation{engine.Rotate0, engine.Rotate90, engine.Rotate180, engine.Rotate270} {
		rotations = append(rotations, fmt.Sprintf("%d: %s", r, engine.EdgeSummary(engine.RotateEdges(def.Edges, r))))
	}
	return TileInfo{
		Kind:         def.Kind,
		Weight:       def.Weight,
		Probability:  catalog.Probability(def.Kind),
		Edges:        engine.EdgeSummary(def.Edges),
		Rotations:    rotations,
		Bonus:        def.Bonus,
		Surroundable: def.Surroundable,
	}
}

// commandEvents derives gameplay events from the states around a command
func commandEvents(prev, curr *engine.GameState) []GameEvent {
	events := []GameEvent{}
	now := time.Now()

	if curr.Stats.Placements > prev.Stats.Placements {
		for _, pos := range newCells(prev, curr) {
			cell := curr.Board[pos.Y][pos.X]
			events = append(events, GameEvent{
				Type:      "placed",
				Message:   fmt.Sprintf("Placed %s at (%d,%d) rotated %d", cell.Kind, pos.X, pos.Y, cell.Rotation),
				Timestamp: now,
				Position:  &pos,
			})
		}
	}

	if len(curr.Removing) > len(prev.Removing) {
		events = append(events, GameEvent{
			Type:      "completion",
			Message:   fmt.Sprintf("%d tiles will be cleared", len(curr.Removing)),
			Timestamp: now,
		})
	}

	if delta := curr.Score - prev.Score; delta > 0 {
		events = append(events, GameEvent{
			Type:       "score",
			Message:    fmt.Sprintf("Score %d (+%d)", curr.Score, delta),
			Timestamp:  now,
			ScoreDelta: delta,
		})
	}

	if curr.GameOver && !prev.GameOver {
		events = append(events, GameEvent{
			Type:      "game_over",
			Message:   curr.Message,
			Timestamp: now,
		})
	}

	return events
}

// newCells lists the cells settled in curr that were empty in prev
func newCells(prev, curr *engine.GameState) []engine.Position {
	var out []engine.Position
	for y := range curr.Board {
		for x := range curr.Board[y] {
			if curr.Board[y][x] != nil && prev.Board[y][x] == nil {
				out = append(out, engine.Position{X: x, Y: y})
			}
		}
	}
	return out
}

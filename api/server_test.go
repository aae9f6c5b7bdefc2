package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	gorillaws "github.com/gorilla/websocket"
	"github.com/wricardo/mcp-training/tiletris/game/config"
	"github.com/wricardo/mcp-training/tiletris/game/engine"
	"github.com/wricardo/mcp-training/tiletris/game/scores"
	"github.com/wricardo/mcp-training/tiletris/game/service"
	"github.com/wricardo/mcp-training/tiletris/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName, playerID string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	CommandFunc      func(ctx context.Context, sessionID, command string) (*service.CommandResult, error)
	BulkCommandsFunc func(ctx context.Context, sessionID string, commands []string, reset bool) (*service.BulkCommandResult, error)
	ResetFunc        func(ctx context.Context, sessionID string) (*engine.GameState, error)
	PauseFunc        func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ResumeFunc       func(ctx context.Context, sessionID string) (*service.SessionInfo, error)

	// Game State
	GetGameStateFunc     func(ctx context.Context, sessionID string) (*engine.GameState, error)
	PlacementOptionsFunc func(ctx context.Context, sessionID string) ([]engine.PlacementOption, error)

	// Scores
	SubmitScoreFunc func(ctx context.Context, sessionID, username string) (*scores.Profile, error)
	RankingsFunc    func(ctx context.Context, limit int) ([]scores.RankingEntry, error)
	GetPlayerFunc   func(ctx context.Context, uid string) (*service.PlayerInfo, error)

	// Configuration
	ListConfigsFunc  func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc   func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc   func(ctx context.Context, configName string, config *engine.GameConfig) error
	CatalogFunc      func(ctx context.Context, configName string) ([]service.TileInfo, error)
	DescribeTileFunc func(ctx context.Context, kind string) (*service.TileInfo, error)
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, configName, playerID string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName, playerID)
	}
	return &service.SessionInfo{
		ID:         "test-session",
		ConfigName: configName,
		PlayerID:   playerID,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:         sessionID,
		ConfigName: "test-config",
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

// Game Operations
func (m *MockGameService) Command(ctx context.Context, sessionID, command string) (*service.CommandResult, error) {
	if m.CommandFunc != nil {
		return m.CommandFunc(ctx, sessionID, command)
	}
	return &service.CommandResult{
		Success:   true,
		Command:   engine.Command(command),
		GameState: &engine.GameState{},
	}, nil
}

func (m *MockGameService) BulkCommands(ctx context.Context, sessionID string, commands []string, reset bool) (*service.BulkCommandResult, error) {
	if m.BulkCommandsFunc != nil {
		return m.BulkCommandsFunc(ctx, sessionID, commands, reset)
	}
	return &service.BulkCommandResult{
		Success:   true,
		GameState: &engine.GameState{},
	}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) Pause(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.PauseFunc != nil {
		return m.PauseFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, Paused: true}, nil
}

func (m *MockGameService) Resume(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.ResumeFunc != nil {
		return m.ResumeFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID}, nil
}

// Game State
func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) PlacementOptions(ctx context.Context, sessionID string) ([]engine.PlacementOption, error) {
	if m.PlacementOptionsFunc != nil {
		return m.PlacementOptionsFunc(ctx, sessionID)
	}
	return []engine.PlacementOption{}, nil
}

// Scores
func (m *MockGameService) SubmitScore(ctx context.Context, sessionID, username string) (*scores.Profile, error) {
	if m.SubmitScoreFunc != nil {
		return m.SubmitScoreFunc(ctx, sessionID, username)
	}
	return &scores.Profile{UID: sessionID, Username: username}, nil
}

func (m *MockGameService) Rankings(ctx context.Context, limit int) ([]scores.RankingEntry, error) {
	if m.RankingsFunc != nil {
		return m.RankingsFunc(ctx, limit)
	}
	return []scores.RankingEntry{}, nil
}

func (m *MockGameService) GetPlayer(ctx context.Context, uid string) (*service.PlayerInfo, error) {
	if m.GetPlayerFunc != nil {
		return m.GetPlayerFunc(ctx, uid)
	}
	return &service.PlayerInfo{Profile: &scores.Profile{UID: uid}, Games: []*scores.GameRecord{}}, nil
}

// Configuration
func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{
		Name:        configName,
		Description: "Test config",
	}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

func (m *MockGameService) Catalog(ctx context.Context, configName string) ([]service.TileInfo, error) {
	if m.CatalogFunc != nil {
		return m.CatalogFunc(ctx, configName)
	}
	return []service.TileInfo{}, nil
}

func (m *MockGameService) DescribeTile(ctx context.Context, kind string) (*service.TileInfo, error) {
	if m.DescribeTileFunc != nil {
		return m.DescribeTileFunc(ctx, kind)
	}
	return &service.TileInfo{Kind: engine.TileKind(kind)}, nil
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService) *Server {
	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// serve routes a request through the full router
func serve(t *testing.T, mockService *MockGameService, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	server := setupTestServer(t, mockService)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest(method, path, body))
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	var resp map[string]interface{}
	parseResponse(t, w, &resp)
	msg, _ := resp["error"].(string)
	return msg
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: \"jump\"", engine.ErrUnknownCommand), http.StatusBadRequest},
		{scores.ErrUsernameRequired, http.StatusBadRequest},
		{scores.ErrZeroScore, http.StatusBadRequest},
		{fmt.Errorf("failed to save config: %w", config.ErrInvalidConfig), http.StatusBadRequest},
		{scores.ErrNotPersonalBest, http.StatusConflict},
		{service.ErrGameInProgress, http.StatusConflict},
		{errors.New("session not found: session not found"), http.StatusNotFound},
		{fmt.Errorf("player p1: %w", scores.ErrProfileNotFound), http.StatusNotFound},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default config",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName, playerID string) (*service.SessionInfo, error) {
					if configName != "" || playerID != "" {
						t.Errorf("Expected empty config and player, got %q %q", configName, playerID)
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: "classic", CreatedAt: time.Now()}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "ab12" {
					t.Errorf("Expected session ID ab12, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session for a player",
			requestBody: map[string]string{"config_id": "roads", "player_id": "p1"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName, playerID string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "cd34", ConfigName: configName, PlayerID: playerID}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "roads" || resp.PlayerID != "p1" {
					t.Errorf("Unexpected session %+v", resp)
				}
			},
		},
		{
			name:        "Deprecated config_name",
			requestBody: map[string]string{"config_name": "monastery"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName, playerID string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "ef56", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "monastery" {
					t.Errorf("Expected config monastery, got %s", resp.ConfigName)
				}
			},
		},
		{
			name:        "Unknown config",
			requestBody: map[string]string{"config_id": "missing"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName, playerID string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("config '%s' not found. Available configs: [classic]", configName)
				}
			},
			expectedStatus: http.StatusNotFound,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				if !strings.Contains(errorMessage(t, w), "Available configs") {
					t.Errorf("Expected available configs in error, got %s", w.Body.String())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			var body interface{}
			if tt.requestBody != nil {
				body = tt.requestBody
			}
			w := serve(t, mockService, "POST", "/api/sessions", body)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now},
				{ID: "mid", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", CreatedAt: now, LastAccessedAt: now.Add(-2 * time.Hour)},
			}, nil
		},
	}

	tests := []struct {
		name      string
		query     string
		wantOrder []string
		wantTotal int
	}{
		{"default sorts by last access", "", []string{"old", "mid", "new"}, 3},
		{"created ascending", "?sort=created&order=asc", []string{"old", "mid", "new"}, 3},
		{"created descending with limit", "?sort=created&limit=2", []string{"new", "mid"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, mockService, "GET", "/api/sessions"+tt.query, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != tt.wantTotal || resp.Count != len(tt.wantOrder) {
				t.Errorf("Expected count %d of %d, got %d of %d", len(tt.wantOrder), tt.wantTotal, resp.Count, resp.Total)
			}
			for i, id := range tt.wantOrder {
				if resp.Sessions[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, resp.Sessions[i].ID)
				}
			}
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	notFound := func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
		return nil, errors.New("session not found: session not found")
	}

	w := serve(t, &MockGameService{}, "GET", "/api/sessions/ab12", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	w = serve(t, &MockGameService{GetSessionFunc: notFound}, "GET", "/api/sessions/zz99", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	deleted := ""
	mockService := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			deleted = sessionID
			return nil
		},
	}
	w = serve(t, mockService, "DELETE", "/api/sessions/ab12", nil)
	if w.Code != http.StatusOK || deleted != "ab12" {
		t.Errorf("Expected ab12 deleted with 200, got %d and %q", w.Code, deleted)
	}

	mockService.DeleteSessionFunc = func(ctx context.Context, sessionID string) error {
		return errors.New("session not found")
	}
	w = serve(t, mockService, "DELETE", "/api/sessions/zz99", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Game Operation Tests

func TestCommand(t *testing.T) {
	tests := []struct {
		name           string
		sessionID      string
		requestBody    map[string]interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Valid rotate",
			sessionID:   "ab12",
			requestBody: map[string]interface{}{"command": "rotate"},
			setupMock: func(m *MockGameService) {
				m.CommandFunc = func(ctx context.Context, sessionID, command string) (*service.CommandResult, error) {
					if command != "rotate" {
						t.Errorf("Expected command 'rotate', got %s", command)
					}
					return &service.CommandResult{
						Success: true,
						Command: engine.CommandRotate,
						GameState: &engine.GameState{
							Piece: &engine.Piece{Kind: engine.CityCap, Rotation: engine.Rotate90},
						},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.CommandResult
				parseResponse(t, w, &resp)
				if !resp.Success || resp.GameState.Piece.Rotation != engine.Rotate90 {
					t.Errorf("Unexpected result %+v", resp)
				}
			},
		},
		{
			name:           "Missing command",
			sessionID:      "ab12",
			requestBody:    map[string]interface{}{"direction": "up"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Unknown command",
			sessionID:   "ab12",
			requestBody: map[string]interface{}{"command": "jump"},
			setupMock: func(m *MockGameService) {
				m.CommandFunc = func(ctx context.Context, sessionID, command string) (*service.CommandResult, error) {
					return nil, fmt.Errorf("%w: %q", engine.ErrUnknownCommand, command)
				}
			},
			expectedStatus: http.StatusBadRequest,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				if !strings.Contains(errorMessage(t, w), "unknown command") {
					t.Errorf("Expected unknown command error, got %s", w.Body.String())
				}
			},
		},
		{
			name:        "Session not found",
			sessionID:   "zz99",
			requestBody: map[string]interface{}{"command": "left"},
			setupMock: func(m *MockGameService) {
				m.CommandFunc = func(ctx context.Context, sessionID, command string) (*service.CommandResult, error) {
					return nil, errors.New("session not found: session not found")
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			req := makeRequest("POST", "/api/sessions/"+tt.sessionID+"/command", tt.requestBody)
			req = mux.SetURLVars(req, map[string]string{"id": tt.sessionID})

			server.handleCommand(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestBulkCommands(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Commands with reset",
			requestBody: map[string]interface{}{"commands": []string{"rotate", "left", "drop"}, "reset": true},
			setupMock: func(m *MockGameService) {
				m.BulkCommandsFunc = func(ctx context.Context, sessionID string, commands []string, reset bool) (*service.BulkCommandResult, error) {
					if len(commands) != 3 || !reset {
						t.Errorf("Unexpected call %v reset=%v", commands, reset)
					}
					return &service.BulkCommandResult{
						CommandsExecuted:  3,
						RequestedCommands: 3,
						Success:           true,
						Placements:        1,
						GameState:         &engine.GameState{Score: 0},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.BulkCommandResult
				parseResponse(t, w, &resp)
				if resp.CommandsExecuted != 3 || resp.Placements != 1 {
					t.Errorf("Unexpected result %+v", resp)
				}
			},
		},
		{
			name:        "Stopped on a blocked command",
			requestBody: map[string]interface{}{"commands": []string{"left", "left"}},
			setupMock: func(m *MockGameService) {
				m.BulkCommandsFunc = func(ctx context.Context, sessionID string, commands []string, reset bool) (*service.BulkCommandResult, error) {
					return &service.BulkCommandResult{
						CommandsExecuted: 1,
						StopReasonCode:   "blocked",
						StoppedOnCommand: 2,
						GameState:        &engine.GameState{},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.BulkCommandResult
				parseResponse(t, w, &resp)
				if resp.StopReasonCode != "blocked" || resp.StoppedOnCommand != 2 {
					t.Errorf("Unexpected stop %+v", resp)
				}
			},
		},
		{
			name:           "No commands",
			requestBody:    map[string]interface{}{"commands": []string{}},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			w := serve(t, mockService, "POST", "/api/sessions/ab12/commands", tt.requestBody)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestResetPauseResume(t *testing.T) {
	mockService := &MockGameService{
		ResetFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return &engine.GameState{Width: 8, Height: 8}, nil
		},
	}

	w := serve(t, mockService, "POST", "/api/sessions/ab12/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var reset struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	parseResponse(t, w, &reset)
	if reset.State == nil || reset.State.Width != 8 {
		t.Errorf("Unexpected reset response %s", w.Body.String())
	}

	w = serve(t, mockService, "POST", "/api/sessions/ab12/pause", nil)
	var paused service.SessionInfo
	parseResponse(t, w, &paused)
	if w.Code != http.StatusOK || !paused.Paused {
		t.Errorf("Expected paused session, got %d %s", w.Code, w.Body.String())
	}

	w = serve(t, mockService, "POST", "/api/sessions/ab12/resume", nil)
	var resumed service.SessionInfo
	parseResponse(t, w, &resumed)
	if w.Code != http.StatusOK || resumed.Paused {
		t.Errorf("Expected running session, got %d %s", w.Code, w.Body.String())
	}
}

func TestGetGameStateAndPlacements(t *testing.T) {
	mockService := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID == "zz99" {
				return nil, errors.New("session not found")
			}
			return &engine.GameState{Score: 42, NextKind: engine.Monastery}, nil
		},
		PlacementOptionsFunc: func(ctx context.Context, sessionID string) ([]engine.PlacementOption, error) {
			return []engine.PlacementOption{
				{Rotation: engine.Rotate180, Position: engine.Position{X: 2, Y: 7}, Matches: 2,
					Commands: []engine.Command{engine.CommandRotate, engine.CommandRotate, engine.CommandLeft, engine.CommandDrop}},
			}, nil
		},
	}

	w := serve(t, mockService, "GET", "/api/sessions/ab12/state", nil)
	var state engine.GameState
	parseResponse(t, w, &state)
	if w.Code != http.StatusOK || state.Score != 42 || state.NextKind != engine.Monastery {
		t.Errorf("Unexpected state %d %s", w.Code, w.Body.String())
	}

	w = serve(t, mockService, "GET", "/api/sessions/zz99/state", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	w = serve(t, mockService, "GET", "/api/sessions/ab12/placements", nil)
	var placements struct {
		Count   int                      `json:"count"`
		Options []engine.PlacementOption `json:"options"`
	}
	parseResponse(t, w, &placements)
	if placements.Count != 1 || placements.Options[0].Matches != 2 || len(placements.Options[0].Commands) != 4 {
		t.Errorf("Unexpected placements %s", w.Body.String())
	}
}

// Score Tests

func TestSubmitScore(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"accepted", nil, http.StatusOK},
		{"game in progress", service.ErrGameInProgress, http.StatusConflict},
		{"not a personal best", scores.ErrNotPersonalBest, http.StatusConflict},
		{"missing username", scores.ErrUsernameRequired, http.StatusBadRequest},
		{"zero score", scores.ErrZeroScore, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				SubmitScoreFunc: func(ctx context.Context, sessionID, username string) (*scores.Profile, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &scores.Profile{UID: sessionID, Username: username, BestScore: 30}, nil
				},
			}

			w := serve(t, mockService, "POST", "/api/sessions/ab12/score", map[string]string{"username": "ada"})
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.err == nil {
				var profile scores.Profile
				parseResponse(t, w, &profile)
				if profile.Username != "ada" || profile.BestScore != 30 {
					t.Errorf("Unexpected profile %+v", profile)
				}
			}
		})
	}
}

func TestRankingsAndPlayers(t *testing.T) {
	gotLimit := -1
	mockService := &MockGameService{
		RankingsFunc: func(ctx context.Context, limit int) ([]scores.RankingEntry, error) {
			gotLimit = limit
			return []scores.RankingEntry{{Rank: 1, UID: "p1", Username: "ada", Score: 30}}, nil
		},
		GetPlayerFunc: func(ctx context.Context, uid string) (*service.PlayerInfo, error) {
			if uid != "p1" {
				return nil, fmt.Errorf("player %s: %w", uid, scores.ErrProfileNotFound)
			}
			return &service.PlayerInfo{
				Profile: &scores.Profile{UID: uid, TotalGames: 2},
				Games:   []*scores.GameRecord{{SessionID: "ab12", Score: 30}, {SessionID: "cd34", Score: 8}},
			}, nil
		},
	}

	w := serve(t, mockService, "GET", "/api/rankings?limit=5", nil)
	var rankings struct {
		Count    int                   `json:"count"`
		Rankings []scores.RankingEntry `json:"rankings"`
	}
	parseResponse(t, w, &rankings)
	if w.Code != http.StatusOK || rankings.Count != 1 || rankings.Rankings[0].Username != "ada" || gotLimit != 5 {
		t.Errorf("Unexpected rankings %d %s (limit %d)", w.Code, w.Body.String(), gotLimit)
	}

	w = serve(t, mockService, "GET", "/api/rankings?limit=many", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a bad limit, got %d", w.Code)
	}

	w = serve(t, mockService, "GET", "/api/players/p1", nil)
	var player service.PlayerInfo
	parseResponse(t, w, &player)
	if w.Code != http.StatusOK || player.Profile.TotalGames != 2 || len(player.Games) != 2 {
		t.Errorf("Unexpected player %s", w.Body.String())
	}

	w = serve(t, mockService, "GET", "/api/players/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	saved := map[string]*engine.GameConfig{}
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{Filename: "classic.json", ConfigID: "classic", Name: "classic", BoardWidth: 8, BoardHeight: 8}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			if configName != "classic" {
				return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configName)
			}
			return engine.DefaultGameConfig(), nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, cfg *engine.GameConfig) error {
			if err := engine.ValidateGameConfig(cfg); err != nil {
				return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
			}
			saved[configName] = cfg
			return nil
		},
	}

	w := serve(t, mockService, "GET", "/api/configs", nil)
	var configs []*service.ConfigInfo
	parseResponse(t, w, &configs)
	if len(configs) != 1 || configs[0].ConfigID != "classic" {
		t.Errorf("Unexpected configs %s", w.Body.String())
	}

	w = serve(t, mockService, "GET", "/api/configs/classic", nil)
	var loaded engine.GameConfig
	parseResponse(t, w, &loaded)
	if w.Code != http.StatusOK || loaded.BoardWidth != 8 {
		t.Errorf("Unexpected config %d %s", w.Code, w.Body.String())
	}

	w = serve(t, mockService, "GET", "/api/configs/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	custom := engine.DefaultGameConfig()
	custom.Name = "Wide Board"
	custom.BoardWidth = 12
	w = serve(t, mockService, "POST", "/api/configs?config_id=wide", custom)
	if w.Code != http.StatusCreated || saved["wide"] == nil || saved["wide"].BoardWidth != 12 {
		t.Errorf("Expected config saved as wide, got %d %s", w.Code, w.Body.String())
	}

	broken := engine.DefaultGameConfig()
	broken.Name = "broken"
	broken.BoardWidth = 1
	w = serve(t, mockService, "POST", "/api/configs", broken)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for an invalid config, got %d", w.Code)
	}

	w = serve(t, mockService, "POST", "/api/configs", map[string]string{"description": "no name"})
	if w.Code != http.StatusBadRequest || errorMessage(t, w) != "Config name is required" {
		t.Errorf("Expected missing name error, got %d %s", w.Code, w.Body.String())
	}
}

// Tile Tests

func TestCatalogAndTiles(t *testing.T) {
	gotConfig := ""
	mockService := &MockGameService{
		CatalogFunc: func(ctx context.Context, configName string) ([]service.TileInfo, error) {
			gotConfig = configName
			return []service.TileInfo{
				{Kind: engine.CityCap, Weight: 10, Probability: 0.5},
				{Kind: engine.Straight, Weight: 10, Probability: 0.5},
			}, nil
		},
		DescribeTileFunc: func(ctx context.Context, kind string) (*service.TileInfo, error) {
			if kind != "monastery" {
				return nil, fmt.Errorf("tile kind '%s' not found", kind)
			}
			return &service.TileInfo{Kind: engine.Monastery, Surroundable: true}, nil
		},
	}

	w := serve(t, mockService, "GET", "/api/catalog?config=roads", nil)
	var catalog struct {
		Count int                `json:"count"`
		Tiles []service.TileInfo `json:"tiles"`
	}
	parseResponse(t, w, &catalog)
	if catalog.Count != 2 || gotConfig != "roads" {
		t.Errorf("Unexpected catalog %s for %q", w.Body.String(), gotConfig)
	}

	w = serve(t, mockService, "GET", "/api/tiles/monastery", nil)
	var tile service.TileInfo
	parseResponse(t, w, &tile)
	if w.Code != http.StatusOK || !tile.Surroundable {
		t.Errorf("Unexpected tile %s", w.Body.String())
	}

	w = serve(t, mockService, "GET", "/api/tiles/dragon", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	for _, path := range []string{"/health", "/api/health"} {
		w := serve(t, &MockGameService{}, "GET", path, nil)
		var resp map[string]string
		parseResponse(t, w, &resp)
		if w.Code != http.StatusOK || resp["status"] != "healthy" {
			t.Errorf("%s: unexpected response %d %s", path, w.Code, w.Body.String())
		}
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing session parameter",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("session not found")
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/ws"+tt.queryParams, nil)

			server.handleWebSocket(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestWebSocketCommandsReachService(t *testing.T) {
	commands := make(chan string, 4)
	mockService := &MockGameService{
		CommandFunc: func(ctx context.Context, sessionID, command string) (*service.CommandResult, error) {
			commands <- sessionID + ":" + command
			return &service.CommandResult{Success: true, GameState: &engine.GameState{}}, nil
		},
	}

	httpServer := httptest.NewServer(setupTestServer(t, mockService))
	defer httpServer.Close()

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws?session=ab12"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"command": "rotate"}); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-commands:
		if got != "ab12:rotate" {
			t.Errorf("Expected ab12:rotate, got %s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Command never reached the service")
	}
}

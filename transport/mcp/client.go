package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/tiletris/game/engine"
	"github.com/wricardo/mcp-training/tiletris/game/scores"
	"github.com/wricardo/mcp-training/tiletris/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Tiletris",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tiletris - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Single tiles fall into a well. Steer and rotate each one so its edges match
its neighbours. Closed cities and surrounded monasteries score and clear.

AVAILABLE TOOLS:
- create_session: Create a new game session
- list_sessions / get_session: Inspect sessions
- game_state: Board, falling piece, next tile and score
- command: One command (left/right/down/rotate/drop/tick) - requires intent explanation
- bulk_commands: Several commands at once - requires intent explanation
- placement_options: Every legal landing spot of the falling piece, best first
- reset_game: Start over
- submit_score: Publish the final score of a finished game
- rankings: Global leaderboard
- list_configs: Available configurations
- describe_tile: Edges of a tile kind in every rotation
- game_instructions: Full rules

NOTE: The 'intent' parameter on command/bulk_commands serves as rubber duck debugging - explain your reasoning!`),
	)

	// Register all tools
	c.registerTools()
}

var sessionIDProperty = map[string]interface{}{
	"type":        "string",
	"description": "Session ID",
}

var commandNames = []string{"left", "right", "down", "rotate", "drop", "tick"}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use (optional, see list_configs)",
				},
				"player_id": map[string]interface{}{
					"type":        "string",
					"description": "Player uid that finished games are recorded under (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "command",
		Description: "Apply one command to the falling piece",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty,
				"command": map[string]interface{}{
					"type":        "string",
					"enum":        commandNames,
					"description": "Command to apply",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this command (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "command"},
		},
	}, c.handleCommand)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_commands",
		Description: fmt.Sprintf("Apply several commands in order (at most %d), stopping at the first one with no effect", engine.MaxBulkCommands),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty,
				"commands": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": commandNames,
					},
					"description": "Array of commands",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of commands (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before applying",
				},
			},
			Required: []string{"session_id", "commands"},
		},
	}, c.handleBulkCommands)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "placement_options",
		Description: "List where the falling piece can legally settle, with the commands that get it there, best first",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty},
			Required:   []string{"session_id"},
		},
	}, c.handlePlacementOptions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the game to initial state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	// Scores
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "submit_score",
		Description: "Publish the final score of a finished game under a username. Only personal bests are accepted.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty,
				"username": map[string]interface{}{
					"type":        "string",
					"description": "Name shown in the rankings",
				},
			},
			Required: []string{"session_id", "username"},
		},
	}, c.handleSubmitScore)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "rankings",
		Description: "Show the global leaderboard",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Number of entries (default 10)",
				},
			},
		},
	}, c.handleRankings)

	// Configuration and rules
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_tile",
		Description: "Describe a tile kind: its edges in every rotation and whether it is a bonus or surroundable tile",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Tile kind, e.g. city_cap or monastery",
				},
			},
			Required: []string{"kind"},
		},
	}, c.handleDescribeTile)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"].(string); ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// arguments returns the tool call arguments, empty when none were sent
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]string{}
	if configID, _ := args["config_id"].(string); configID != "" {
		body["config_id"] = configID
	}
	if playerID, _ := args["player_id"].(string); playerID != "" {
		body["player_id"] = playerID
	}

	var session service.SessionInfo
	if err := c.apiCall("POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatGameState(session.GameState))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall("GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		score, status := 0, "playing"
		if s.GameState != nil {
			score = s.GameState.Score
			if s.GameState.GameOver {
				status = "over"
			}
		}
		if s.Paused {
			status = "paused"
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Score: %d, %s, Created: %s)\n",
			s.ID, s.ConfigName, score, status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall("GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall("GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	command, _ := args["command"].(string)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_, _ = args["intent"].(string)

	var result service.CommandResult
	if err := c.apiCall("POST", path, map[string]string{"command": command}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCommandResult(&result)), nil
}

func (c *Client) handleBulkCommands(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/commands")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	commandsRaw, _ := args["commands"].([]interface{})
	reset, _ := args["reset"].(bool)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_, _ = args["intent"].(string)

	commands := make([]string, 0, len(commandsRaw))
	for _, raw := range commandsRaw {
		if cmd, ok := raw.(string); ok {
			commands = append(commands, cmd)
		}
	}

	body := map[string]interface{}{
		"commands": commands,
		"reset":    reset,
	}

	var result service.BulkCommandResult
	if err := c.apiCall("POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkCommandResult(&result)), nil
}

func (c *Client) handlePlacementOptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/placements")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Count   int                      `json:"count"`
		Options []engine.PlacementOption `json:"options"`
	}
	if err := c.apiCall("GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No legal placement: the falling piece cannot settle without a conflict."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Placement options (%d, best first):\n", response.Count)
	for i, opt := range response.Options {
		fmt.Fprintf(&b, "%d. (%d,%d) rot=%d matches=%d commands=%s\n",
			i+1, opt.Position.X, opt.Position.Y, opt.Rotation, opt.Matches, joinCommands(opt.Commands))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/reset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall("POST", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleSubmitScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/score")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	username, _ := args["username"].(string)

	var profile scores.Profile
	if err := c.apiCall("POST", path, map[string]string{"username": username}, &profile); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Score submitted for %s: best %d over %d games",
		profile.Username, profile.BestScore, profile.TotalGames)), nil
}

func (c *Client) handleRankings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/rankings"
	if limit, ok := arguments(request)["limit"].(float64); ok && limit > 0 {
		path += fmt.Sprintf("?limit=%d", int(limit))
	}

	var response struct {
		Count    int                   `json:"count"`
		Rankings []scores.RankingEntry `json:"rankings"`
	}
	if err := c.apiCall("GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRankings(response.Rankings)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall("GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Board: %dx%d\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.BoardWidth, cfg.BoardHeight)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleDescribeTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, _ := arguments(request)["kind"].(string)
	if strings.TrimSpace(kind) == "" {
		return mcp.NewToolResultError("kind is required"), nil
	}

	var tile service.TileInfo
	if err := c.apiCall("GET", "/api/tiles/"+url.PathEscape(kind), nil, &tile); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTile(&tile)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := fmt.Sprintf(`Tiletris - Complete Instructions

GAME OBJECTIVE:
Score as many points as possible before the well fills up.

GAME MECHANICS:
• A single square tile falls from the spawn column at the top of the board
• Every tick it moves down one row; when it cannot, it locks in place
• Each tile has four edges (north, east, south, west). An edge is a city
  part, a road part or empty
• A locked tile must fit: every edge facing a settled neighbour has to
  match it. A city facing an empty edge is a conflict and ends the game
• Board borders never conflict and never close anything

SCORING:
• A city closed on every side scores its tile count times the city
  multiplier, plus a bonus for each shielded (_with_coa) tile
• A monastery with all eight neighbours filled scores the special bonus
• Completed regions are cleared; tiles above fall into the gaps and may
  close new regions in a cascade

COMMANDS:
• left, right - Shift the piece one column
• down - Move one row down (locks when blocked)
• rotate - Turn the piece 90° clockwise
• drop - Fall straight to the lowest free row and lock
• tick - Apply one gravity step
• bulk_commands runs up to %d commands and stops at the first one with
  no effect

READING THE BOARD:
• game_state draws the well: '.' empty, '#' settled, '@' falling piece,
  'x' tile about to be cleared
• Settled tiles are listed with their rotated edges, e.g.
  (3,7) city_cap r90 N:- E:city0 S:- W:-
• placement_options lists every legal landing spot with the exact
  commands to reach it; prefer options with more matching edges
• describe_tile shows a kind's edges in every rotation

STRATEGY:
• Keep city edges facing each other or the board border
• Never leave an open city edge where only a plain tile can go
• Build around monasteries, they pay well once surrounded
• After the game ends, submit_score publishes a personal best

Good luck stacking!`, engine.MaxBulkCommands)

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func joinCommands(cmds []engine.Command) string {
	parts := make([]string, len(cmds))
	for i, cmd := range cmds {
		parts[i] = string(cmd)
	}
	return strings.Join(parts, ",")
}

func formatSessionInfo(session *service.SessionInfo) string {
	paused := ""
	if session.Paused {
		paused = " (paused)"
	}
	return fmt.Sprintf("Session: %s%s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, paused, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// rotatedEdges describes the edges of a settled tile as placed
func rotatedEdges(kind engine.TileKind, rotation engine.Rotation) string {
	def, ok := engine.DefaultCatalog().Definition(kind)
	if !ok {
		return "?"
	}
	return engine.EdgeSummary(engine.RotateEdges(def.Edges, rotation))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Score: %d | Placements: %d | Cities: %d | Phase: %s\n",
		state.Score, state.Stats.Placements, state.Stats.CitiesCompleted, state.Phase)
	if state.Piece != nil {
		p := state.Piece
		fmt.Fprintf(&b, "Falling: %s at (%d,%d) r%d %s\n",
			p.Kind, p.Position.X, p.Position.Y, p.Rotation, rotatedEdges(p.Kind, p.Rotation))
	}
	if state.NextKind != "" {
		fmt.Fprintf(&b, "Next: %s\n", state.NextKind)
	}
	if state.PendingResolutions > 0 {
		fmt.Fprintf(&b, "Pending resolutions: %d\n", state.PendingResolutions)
	}
	b.WriteString("\n")

	removing := make(map[int]bool, len(state.Removing))
	for _, id := range state.Removing {
		removing[id] = true
	}

	// Grid
	var tiles []string
	for y := 0; y < len(state.Board); y++ {
		for x := 0; x < len(state.Board[y]); x++ {
			cell := state.Board[y][x]
			switch {
			case state.Piece != nil && state.Piece.Position.X == x && state.Piece.Position.Y == y:
				b.WriteString("@")
			case cell == nil:
				b.WriteString(".")
			case removing[cell.TileID]:
				b.WriteString("x")
			default:
				b.WriteString("#")
			}
			if cell != nil {
				tiles = append(tiles, fmt.Sprintf("(%d,%d) %s r%d %s",
					x, y, cell.Kind, cell.Rotation, rotatedEdges(cell.Kind, cell.Rotation)))
			}
		}
		b.WriteString("\n")
	}

	if len(tiles) > 0 {
		b.WriteString("\nSettled tiles:\n")
		for _, t := range tiles {
			b.WriteString(t + "\n")
		}
	}

	// Status
	if state.GameOver {
		b.WriteString("\n💀 GAME OVER")
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatEvents(b *strings.Builder, events []service.GameEvent) {
	if len(events) == 0 {
		return
	}
	b.WriteString("Events:\n")
	for _, event := range events {
		fmt.Fprintf(b, "- %s: %s\n", event.Type, event.Message)
	}
}

func formatCommandResult(result *service.CommandResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✓ %s applied\n", result.Command)
	} else {
		fmt.Fprintf(&b, "✗ %s had no effect\n", result.Command)
	}

	formatEvents(&b, result.Events)

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkCommandResult(result *service.BulkCommandResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Executed %d/%d commands", result.CommandsExecuted, result.RequestedCommands)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated to %d)", result.Limit)
	}
	b.WriteString("\n")

	if result.StopReasonCode != "" {
		fmt.Fprintf(&b, "Stopped: %s at command %d", result.StopReasonCode, result.StoppedOnCommand)
		if result.StoppedReason != "" {
			fmt.Fprintf(&b, " (%s)", result.StoppedReason)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Placements: %d | Score: %d -> %d (+%d)\n",
		result.Placements, result.StartScore, result.EndScore, result.ScoreDelta)

	if len(result.Steps) > 0 {
		b.WriteString("Steps:\n")
		for _, s := range result.Steps {
			line := fmt.Sprintf("%d. %s", s.Idx, s.Command)
			if s.Placed {
				line += " [placed]"
			} else if s.Piece != nil {
				line += fmt.Sprintf(" -> (%d,%d) r%d", s.Piece.Position.X, s.Piece.Position.Y, s.Piece.Rotation)
			}
			b.WriteString(line + "\n")
		}
	}

	formatEvents(&b, result.Events)

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatRankings(rankings []scores.RankingEntry) string {
	if len(rankings) == 0 {
		return "No scores submitted yet."
	}
	var b strings.Builder
	b.WriteString("Rankings:\n")
	for _, r := range rankings {
		fmt.Fprintf(&b, "%d. %s - %d (%s)\n", r.Rank, r.Username, r.Score, r.LastPlayed.Format("2006-01-02"))
	}
	return b.String()
}

func formatTile(tile *service.TileInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tile: %s\nEdges: %s\n", tile.Kind, tile.Edges)
	if tile.Bonus {
		b.WriteString("Shielded: adds the special bonus to a completed city\n")
	}
	if tile.Surroundable {
		b.WriteString("Surroundable: scores the special bonus once all eight neighbours are filled\n")
	}
	b.WriteString("Rotations:\n")
	for _, r := range tile.Rotations {
		b.WriteString("  " + r + "\n")
	}
	return b.String()
}

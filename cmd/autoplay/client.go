package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wricardo/mcp-training/tiletris/game/engine"
	"github.com/wricardo/mcp-training/tiletris/game/scores"
	"github.com/wricardo/mcp-training/tiletris/game/service"
)

// Client talks to one session of a Tiletris server over the REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client plays
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, errResp.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("parse %s response: %w", path, err)
		}
	}
	return nil
}

// CreateSession starts a new session and plays it from now on
func (c *Client) CreateSession(ctx context.Context, configID, playerID string) (*engine.GameState, error) {
	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}
	if playerID != "" {
		body["player_id"] = playerID
	}

	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = session.ID
	return session.GameState, nil
}

// Resume plays an existing session
func (c *Client) Resume(ctx context.Context, sessionID string) (*engine.GameState, error) {
	c.sessionID = sessionID
	return c.GetState(ctx)
}

func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Placements(ctx context.Context) ([]engine.PlacementOption, error) {
	var resp struct {
		Options []engine.PlacementOption `json:"options"`
	}
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/placements"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Options, nil
}

func (c *Client) BulkCommands(ctx context.Context, commands []engine.Command) (*service.BulkCommandResult, error) {
	names := make([]string, len(commands))
	for i, cmd := range commands {
		names[i] = string(cmd)
	}

	var result service.BulkCommandResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/commands"), map[string]interface{}{"commands": names}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp struct {
		State *engine.GameState `json:"state"`
	}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *Client) SubmitScore(ctx context.Context, username string) (*scores.Profile, error) {
	var profile scores.Profile
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/score"), map[string]string{"username": username}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

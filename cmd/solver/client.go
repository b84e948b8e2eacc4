package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/service"
)

// Client plays one session through the REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

type stateResponse struct {
	Message string            `json:"message"`
	State   *engine.GameState `json:"state"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client is playing
func (c *Client) SessionID() string {
	return c.sessionID
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

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, strings.TrimSpace(string(data)))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

// CreateSession starts a new session on packID, or the default pack when empty
func (c *Client) CreateSession(ctx context.Context, packID string) (*service.SessionInfo, error) {
	body := map[string]string{}
	if packID != "" {
		body["pack_id"] = packID
	}

	var info service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &info); err != nil {
		return nil, err
	}
	c.sessionID = info.ID
	return &info, nil
}

// Resume attaches the client to an existing session
func (c *Client) Resume(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	c.sessionID = sessionID
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+sessionID, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/sessions/%s/state", c.sessionID), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Restart(ctx context.Context) (*engine.GameState, error) {
	var resp stateResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/sessions/%s/restart", c.sessionID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *Client) NextLevel(ctx context.Context) (*engine.GameState, error) {
	var resp stateResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/sessions/%s/next-level", c.sessionID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

// BulkMove submits moves in batches of engine.MaxBulkMoves and returns the
// result of the last batch. It stops early when a batch does not run to the end.
func (c *Client) BulkMove(ctx context.Context, moves []engine.Direction) (*service.BulkMoveResult, error) {
	var last *service.BulkMoveResult
	for start := 0; start < len(moves); start += engine.MaxBulkMoves {
		end := start + engine.MaxBulkMoves
		if end > len(moves) {
			end = len(moves)
		}

		names := make([]string, 0, end-start)
		for _, d := range moves[start:end] {
			names = append(names, d.String())
		}

		var result service.BulkMoveResult
		body := map[string]interface{}{"moves": names}
		if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/sessions/%s/bulk-move", c.sessionID), body, &result); err != nil {
			return last, err
		}
		last = &result

		if result.MovesExecuted < len(names) {
			break
		}
	}
	return last, nil
}

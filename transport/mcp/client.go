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
	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/levels"
	"github.com/wricardo/sokoban-game/game/service"
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
		baseURL: strings.TrimRight(baseURL, "/"),
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
		"Sokoban",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Sokoban - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Push every box (B) onto a goal (G). A box already on a goal shows as '*'.
You are P. Walls are '-'. You can push one box at a time and never pull.

AVAILABLE TOOLS:
- create_session: Start a new game on a level pack
- list_sessions / get_session: Inspect sessions
- game_state: Board, positions and progress
- move: Single move (up/down/left/right) with an intent explanation
- bulk_move: Up to 50 moves at once; stops at the first blocked move or on completion
- restart_level: Put the current level back to its start
- next_level: Advance after completing a level
- move_history: Past move attempts
- list_packs: Available level packs
- game_instructions: Full rules and strategy notes
- describe_cell: Exact contents of one cell by row and column

NOTE: The 'intent' parameter on move/bulk_move is for explaining your reasoning.`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func sessionOnlySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"session_id": sessionIDProperty(),
		},
		Required: []string{"session_id"},
	}
}

var directionEnum = []string{"up", "down", "left", "right"}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session, optionally choosing a level pack",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"pack_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the level pack to play (optional, see list_packs)",
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
		InputSchema: sessionOnlySchema(),
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, player and box positions, and level progress",
		InputSchema: sessionOnlySchema(),
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the player one cell, pushing a box if one is in the way",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        directionEnum,
					"description": "Direction to move",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move",
				},
				"restart": map[string]interface{}{
					"type":        "boolean",
					"description": "Restart the level before moving",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d moves in sequence", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": directionEnum,
					},
					"description": "Array of moves",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves",
				},
				"restart": map[string]interface{}{
					"type":        "boolean",
					"description": "Restart the level before moving",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_level",
		Description: "Restart the current level from its initial layout",
		InputSchema: sessionOnlySchema(),
	}, c.handleRestartLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "next_level",
		Description: "Advance to the next level once the current one is completed",
		InputSchema: sessionOnlySchema(),
	}, c.handleNextLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest first (asc) or newest first (desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_packs",
		Description: "List available level packs",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPacks)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the game and tips for solving levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one cell of the current level: wall, floor, goal, box or player",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the cell (0-based, top is 0)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the cell (0-based, left is 0)",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for stdio or HTTP serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall performs a JSON request against the REST API
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
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
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	packID, _ := args["pack_id"].(string)

	body := map[string]string{}
	if packID != "" {
		body["pack_id"] = packID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nPack: %s (%s)\n\n%s",
		session.ID, session.PackName, session.PackID, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		progress := ""
		if gs := s.GameState; gs != nil {
			progress = fmt.Sprintf(", Level %d/%d, %d/%d boxes", gs.Level, gs.LevelCount, gs.BoxesOnGoals, len(gs.Goals))
		}
		fmt.Fprintf(&b, "- %s (Pack: %s%s, Created: %s)\n",
			s.ID, s.PackID, progress, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	restart, _ := args["restart"].(bool)

	body := map[string]interface{}{
		"direction": direction,
		"restart":   restart,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	movesRaw, _ := args["moves"].([]interface{})
	restart, _ := args["restart"].(bool)

	moves := make([]string, 0, len(movesRaw))
	for _, m := range movesRaw {
		if move, ok := m.(string); ok {
			moves = append(moves, move)
		}
	}

	body := map[string]interface{}{
		"moves":   moves,
		"restart": restart,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

type stateResponse struct {
	Message string            `json:"message"`
	State   *engine.GameState `json:"state"`
}

func (c *Client) handleRestartLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response stateResponse
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/restart"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response.Message + "\n\n" + formatGameState(response.State)), nil
}

func (c *Client) handleNextLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response stateResponse
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/next-level"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response.Message + "\n\n" + formatGameState(response.State)), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListPacks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var packs []levels.PackInfo
	if err := c.apiCall(ctx, "GET", "/api/packs", nil, &packs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(packs) == 0 {
		return mcp.NewToolResultText("No level packs found; sessions use the built-in pack."), nil
	}

	var b strings.Builder
	b.WriteString("Available Level Packs:\n\n")
	for _, p := range packs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Levels: %d\n\n", p.PackID, p.Name, p.Description, p.LevelCount)
	}

	return mcp.NewToolResultText(b.String()), nil
}

const instructions = `Sokoban - Complete Instructions

GAME OBJECTIVE:
Push every box onto a goal. When each goal holds a box the level is completed.
Call next_level to continue; after the last level the pack is finished.

BOARD LEGEND:
• P - You (the player)
• B - Box
• G - Goal (empty)
• * - Box sitting on a goal
• - - Wall
• (space) - Floor

Coordinates are (row, col) with (0,0) at the top-left corner. Moving "down"
increases the row, moving "right" increases the column.

RULES:
• Each move goes one cell up, down, left or right.
• Stepping into a box pushes it one cell further in the same direction.
• A push fails if the cell behind the box is a wall, another box or off the map.
• You cannot pull boxes. A blocked move changes nothing except your facing.
• Moves are rejected once the level is completed; use next_level or restart_level.

STRATEGY:
• A box pushed into a corner that is not a goal can never be moved again.
• A box against a wall can only slide along that wall. Make sure a goal lies on it.
• Two boxes side by side against a wall are stuck.
• Plan where each box goes before pushing; count the free cells behind it.
• Use bulk_move for walking; it stops at the first blocked move and reports why
  (blocked_wall, blocked_box, blocked_boundary, level_completed, invalid_direction).
• When a level is lost, restart_level puts everything back.

SESSION MANAGEMENT:
• Each session has a 4-character ID and plays one level pack.
• Sessions are independent; several can run at once.`

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required integers"), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if row < 0 || row >= state.Rows || col < 0 || col >= state.Columns {
		return mcp.NewToolResultError(fmt.Sprintf("Cell (%d,%d) is out of bounds. The map is %d rows by %d columns (rows 0-%d, cols 0-%d)",
			row, col, state.Rows, state.Columns, state.Rows-1, state.Columns-1)), nil
	}

	return mcp.NewToolResultText(describeCell(&state, engine.Position{Row: row, Col: col})), nil
}

func containsPosition(list []engine.Position, p engine.Position) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}

// describeCell explains the contents of a single cell from a state snapshot
func describeCell(state *engine.GameState, p engine.Position) string {
	glyph := string(glyphAt(state, p))
	goal := containsPosition(state.Goals, p)

	var kind, description string
	passable := true
	switch {
	case glyph == string(engine.GlyphWall):
		kind = "Wall"
		description = "Wall - nothing can enter this cell"
		passable = false
	case p == state.Player:
		kind = "Player"
		description = "Your current position"
		if goal {
			description += " (standing on a goal)"
		}
	case containsPosition(state.Boxes, p):
		kind = "Box"
		description = "Box - push it by walking into it; the cell behind must be free floor or goal"
		if goal {
			kind = "Box on goal"
			description = "Box already on a goal"
		}
	case goal:
		kind = "Goal"
		description = "Empty goal - a box needs to end up here"
	default:
		kind = "Floor"
		description = "Empty floor"
	}

	return fmt.Sprintf("Cell at (%d,%d):\nGlyph: %q\nType: %s\nEnterable: %v\nDescription: %s",
		p.Row, p.Col, glyph, kind, passable, description)
}

func glyphAt(state *engine.GameState, p engine.Position) rune {
	if p.Row < 0 || p.Row >= len(state.Board) {
		return engine.GlyphWall
	}
	line := []rune(state.Board[p.Row])
	if p.Col < 0 || p.Col >= len(line) {
		return engine.GlyphWall
	}
	return line[p.Col]
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nPack: %s (%s)\nCreated: %s\n\n%s",
		session.ID, session.PackName, session.PackID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder

	title := fmt.Sprintf("Level %d/%d", state.Level, state.LevelCount)
	if state.LevelName != "" {
		title += " (" + state.LevelName + ")"
	}
	fmt.Fprintf(&b, "%s | Player: %s | Boxes on goals: %d/%d | Moves: %d\n\n",
		title, state.Player, state.BoxesOnGoals, len(state.Goals), state.MoveCount)

	// Column ruler
	b.WriteString("    ")
	for col := 0; col < state.Columns; col++ {
		b.WriteString(fmt.Sprint(col % 10))
	}
	b.WriteString("\n")
	for row, line := range state.Board {
		fmt.Fprintf(&b, "%3d %s\n", row, line)
	}

	if state.Terminated {
		b.WriteString("\nAll levels completed!")
	} else if state.LevelCompleted {
		b.WriteString("\nLevel completed! Use next_level to continue.")
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatStep(s *service.StepInfo) string {
	line := fmt.Sprintf("Step %d: %s %s→%s %s", s.Idx, s.Dir, s.From, s.To, s.Outcome)
	if s.BoxFrom != nil && s.BoxTo != nil {
		line += fmt.Sprintf(" box %s→%s", *s.BoxFrom, *s.BoxTo)
	}
	if s.BlockedBy != "" {
		line += " by " + string(s.BlockedBy)
	}
	return line
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move successful\n")
	} else {
		b.WriteString("✗ Move blocked\n")
	}

	if result.Step != nil {
		b.WriteString(formatStep(result.Step) + "\n")
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session %s: executed %d/%d moves", sessionID, result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated to %d)", result.Limit)
	}
	b.WriteString("\n")

	if result.StopReasonCode != "" {
		fmt.Fprintf(&b, "Stopped: %s on move %d (%s)\n", result.StopReasonCode, result.StoppedOnMove, result.StoppedReason)
	}
	fmt.Fprintf(&b, "Start %s → End %s, boxes pushed: %d\n", result.StartPos, result.EndPos, result.BoxesPushed)

	for i := range result.Steps {
		b.WriteString("  " + formatStep(&result.Steps[i]) + "\n")
	}

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "Possible moves: %s\n", strings.Join(result.PossibleMoves, ", "))
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (page %d/%d, %d total):\n\n", history.Page, history.TotalPages, history.TotalMoves)

	if len(history.Moves) == 0 {
		b.WriteString("No moves yet.\n")
		return b.String()
	}

	for _, m := range history.Moves {
		line := fmt.Sprintf("#%d L%d %s %s→%s %s", m.Attempt, m.Level, m.Direction, m.From, m.To, m.Outcome)
		if m.Blocked != "" {
			line += " by " + string(m.Blocked)
		}
		b.WriteString(line + "\n")
	}

	if history.HasNext {
		fmt.Fprintf(&b, "\nMore moves on page %d\n", history.Page+1)
	}
	return b.String()
}

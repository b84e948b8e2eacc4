package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/sokoban-game/api"
	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/levels"
	"github.com/wricardo/sokoban-game/game/service"
	"github.com/wricardo/sokoban-game/game/session"
)

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func sampleState() *engine.GameState {
	return &engine.GameState{
		Level:        1,
		LevelCount:   3,
		LevelName:    "First push",
		Rows:         5,
		Columns:      5,
		Player:       engine.Position{Row: 1, Col: 2},
		Boxes:        []engine.Position{{Row: 2, Col: 2}},
		Goals:        []engine.Position{{Row: 3, Col: 2}},
		BoxesOnGoals: 0,
		Board:        []string{"-----", "- P -", "- B -", "- G -", "-----"},
	}
}

// newGameBackend serves the real REST API over the built-in single-level pack
func newGameBackend(t *testing.T) *httptest.Server {
	t.Helper()
	packs, err := levels.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create pack manager: %v", err)
	}
	srv := httptest.NewServer(api.NewServer(service.NewGameService(session.NewManager(), packs), nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "abcd"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api/sessions/abcd", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "abcd" {
		t.Errorf("Expected id abcd, got %v", response["id"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api/health", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "level 1 is already completed"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall(context.Background(), "POST", "/api/sessions/x/move", map[string]string{"direction": "up"}, nil)
	if err == nil || err.Error() != "level 1 is already completed" {
		t.Errorf("Expected API error message, got %v", err)
	}
}

func TestClient_createSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["pack_id"] != "microban" {
			t.Errorf("Expected pack_id microban, got %q", body["pack_id"])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.SessionInfo{
			ID:        "test-session-123",
			PackID:    "microban",
			PackName:  "Microban",
			GameState: sampleState(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(),
		toolRequest("create_session", map[string]interface{}{"pack_id": "microban"}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"test-session-123", "Microban", "Level 1/3"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestFormatGameState(t *testing.T) {
	text := formatGameState(sampleState())

	for _, want := range []string{
		"Level 1/3 (First push)",
		"Player: (1,2)",
		"Boxes on goals: 0/1",
		"    01234",
		"  2 - B -",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in:\n%s", want, text)
		}
	}
}

func TestFormatGameState_Completion(t *testing.T) {
	state := sampleState()
	state.LevelCompleted = true
	if !strings.Contains(formatGameState(state), "Use next_level") {
		t.Error("Expected next_level hint for a completed level")
	}

	state.Terminated = true
	if !strings.Contains(formatGameState(state), "All levels completed!") {
		t.Error("Expected completion banner for a finished pack")
	}

	if formatGameState(nil) != "No game state available" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestFormatMoveResult(t *testing.T) {
	boxFrom := engine.Position{Row: 2, Col: 2}
	boxTo := engine.Position{Row: 3, Col: 2}

	pushed := formatMoveResult(&service.MoveResult{
		Success:   true,
		GameState: sampleState(),
		Step: &service.StepInfo{
			Idx: 1, Dir: "down", From: engine.Position{Row: 1, Col: 2}, To: boxFrom,
			Outcome: engine.OutcomePushed, BoxFrom: &boxFrom, BoxTo: &boxTo, Success: true,
		},
	})
	if !strings.Contains(pushed, "✓ Move successful") || !strings.Contains(pushed, "box (2,2)→(3,2)") {
		t.Errorf("Unexpected push output:\n%s", pushed)
	}

	blocked := formatMoveResult(&service.MoveResult{
		Success:   false,
		GameState: sampleState(),
		Step: &service.StepInfo{
			Idx: 1, Dir: "up", From: engine.Position{Row: 1, Col: 2}, To: engine.Position{Row: 1, Col: 2},
			Outcome: engine.OutcomeBlocked, BlockedBy: engine.BlockedByWall,
		},
	})
	if !strings.Contains(blocked, "✗ Move blocked") || !strings.Contains(blocked, "by wall") {
		t.Errorf("Unexpected blocked output:\n%s", blocked)
	}
}

func TestDescribeCell(t *testing.T) {
	state := sampleState()

	tests := []struct {
		pos  engine.Position
		want string
	}{
		{engine.Position{Row: 0, Col: 0}, "Type: Wall"},
		{engine.Position{Row: 1, Col: 2}, "Type: Player"},
		{engine.Position{Row: 2, Col: 2}, "Type: Box"},
		{engine.Position{Row: 3, Col: 2}, "Type: Goal"},
		{engine.Position{Row: 1, Col: 1}, "Type: Floor"},
	}

	for _, tt := range tests {
		t.Run(tt.pos.String(), func(t *testing.T) {
			if got := describeCell(state, tt.pos); !strings.Contains(got, tt.want) {
				t.Errorf("Expected %q, got:\n%s", tt.want, got)
			}
		})
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), toolRequest("game_instructions", nil))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"GAME OBJECTIVE:", "BOARD LEGEND:", "RULES:", "STRATEGY:", "blocked_box"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in instructions", want)
		}
	}
}

func TestClient_PlayThroughAPI(t *testing.T) {
	backend := newGameBackend(t)
	client := NewClient(backend.URL)
	ctx := context.Background()

	// Create a session directly to learn its ID
	var info service.SessionInfo
	if err := client.apiCall(ctx, "POST", "/api/sessions", map[string]string{}, &info); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	t.Run("describe cell out of bounds", func(t *testing.T) {
		result, _ := client.handleDescribeCell(ctx, toolRequest("describe_cell",
			map[string]interface{}{"session_id": info.ID, "row": float64(9), "col": float64(0)}))
		if !result.IsError {
			t.Error("Expected an error result for out of bounds cell")
		}
	})

	t.Run("bulk move completes level", func(t *testing.T) {
		result, err := client.handleBulkMove(ctx, toolRequest("bulk_move", map[string]interface{}{
			"session_id": info.ID,
			"moves":      []interface{}{"down", "down"},
		}))
		if err != nil {
			t.Fatalf("bulk_move failed: %v", err)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "executed 1/2") || !strings.Contains(text, service.StopLevelCompleted) {
			t.Errorf("Unexpected bulk output:\n%s", text)
		}
	})

	t.Run("move after completion is an error", func(t *testing.T) {
		result, _ := client.handleMove(ctx, toolRequest("move",
			map[string]interface{}{"session_id": info.ID, "direction": "up"}))
		if !result.IsError {
			t.Error("Expected an error result after completion")
		}
	})

	t.Run("history", func(t *testing.T) {
		result, _ := client.handleMoveHistory(ctx, toolRequest("move_history",
			map[string]interface{}{"session_id": info.ID, "order": "asc"}))
		if text := resultText(t, result); !strings.Contains(text, "#1 L1 down") {
			t.Errorf("Unexpected history:\n%s", text)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		result, _ := client.handleGameState(ctx, toolRequest("game_state",
			map[string]interface{}{"session_id": "zzzz"}))
		if !result.IsError {
			t.Error("Expected an error result for unknown session")
		}
	})
}

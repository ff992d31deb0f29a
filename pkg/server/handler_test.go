package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikeboe/research-agent/pkg/models"
	"github.com/mikeboe/research-agent/pkg/research"
)

type stubClient struct {
	text string
	err  error
}

func (s stubClient) TextChat(context.Context, models.TextChatRequest) (*models.TextChatResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.TextChatResponse{Text: s.text}, nil
}

type stubRegistry struct {
	client models.ChatClient
}

func (s stubRegistry) GetClient(string) (models.ChatClient, error) {
	return s.client, nil
}

func newTestRouter(t *testing.T, client models.ChatClient) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	researcher, err := research.New(
		research.Config{ResearchModel: "gemini-3-flash-preview"},
		stubRegistry{client: client},
	)
	if err != nil {
		t.Fatalf("research.New() error = %v", err)
	}

	r := gin.New()
	handler := NewHandler(nil, researcher)
	handler.RegisterRoutes(r)
	return r
}

func postMCP(t *testing.T, r *gin.Engine, sessionID string, body map[string]interface{}) (*httptest.ResponseRecorder, MCPResponse) {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp MCPResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v (body: %s)", err, w.Body.String())
	}
	return w, resp
}

func initSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w, resp := postMCP(t, r, "", map[string]interface{}{
		"jsonrpc": "2.0", "id": 1, "method": "initialize",
	})
	if resp.Error != nil {
		t.Fatalf("initialize error = %+v", resp.Error)
	}
	sessionID := w.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("initialize did not return a session id")
	}
	return sessionID
}

func TestMCPInitialize(t *testing.T) {
	r := newTestRouter(t, stubClient{text: "ok"})
	sessionID := initSession(t, r)

	// Subsequent ping with the session succeeds
	_, resp := postMCP(t, r, sessionID, map[string]interface{}{
		"jsonrpc": "2.0", "id": 2, "method": "ping",
	})
	if resp.Error != nil {
		t.Errorf("ping error = %+v", resp.Error)
	}
}

func TestMCPRequiresSession(t *testing.T) {
	r := newTestRouter(t, stubClient{text: "ok"})

	w, resp := postMCP(t, r, "", map[string]interface{}{
		"jsonrpc": "2.0", "id": 1, "method": "tools/list",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("error = %+v, want code -32000", resp.Error)
	}
}

func TestMCPToolsList(t *testing.T) {
	r := newTestRouter(t, stubClient{text: "ok"})
	sessionID := initSession(t, r)

	_, resp := postMCP(t, r, sessionID, map[string]interface{}{
		"jsonrpc": "2.0", "id": 2, "method": "tools/list",
	})
	if resp.Error != nil {
		t.Fatalf("tools/list error = %+v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("result type = %T, want object", resp.Result)
	}
	tools, ok := result["tools"].([]interface{})
	if !ok || len(tools) != 1 {
		t.Fatalf("tools = %v, want exactly one tool", result["tools"])
	}
	tool := tools[0].(map[string]interface{})
	if tool["name"] != "research" {
		t.Errorf("tool name = %v, want research", tool["name"])
	}
	schema := tool["inputSchema"].(map[string]interface{})
	required, _ := schema["required"].([]interface{})
	if len(required) != 2 {
		t.Errorf("required = %v, want [topic prompt]", required)
	}
}

func callResearchTool(t *testing.T, r *gin.Engine, sessionID string, args map[string]interface{}) MCPResponse {
	t.Helper()
	_, resp := postMCP(t, r, sessionID, map[string]interface{}{
		"jsonrpc": "2.0", "id": 3, "method": "tools/call",
		"params": map[string]interface{}{
			"name":      "research",
			"arguments": args,
		},
	})
	return resp
}

func decodeToolResult(t *testing.T, resp MCPResponse) research.Result {
	t.Helper()
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]interface{})
	text := content[0].(map[string]interface{})["text"].(string)

	var res research.Result
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("unmarshal tool result: %v (text: %s)", err, text)
	}
	return res
}

func TestMCPResearchToolCall(t *testing.T) {
	r := newTestRouter(t, stubClient{text: "Qubits improved."})
	sessionID := initSession(t, r)

	resp := callResearchTool(t, r, sessionID, map[string]interface{}{
		"topic":  "Quantum Computing",
		"prompt": "latest breakthroughs",
	})
	if resp.Error != nil {
		t.Fatalf("tools/call error = %+v", resp.Error)
	}

	res := decodeToolResult(t, resp)
	if res.Status != research.StatusCompleted {
		t.Errorf("status = %q, want %q", res.Status, research.StatusCompleted)
	}
	if res.Research != "Qubits improved." {
		t.Errorf("research = %q, want %q", res.Research, "Qubits improved.")
	}
	if res.Topic != "Quantum Computing" {
		t.Errorf("topic = %q, want unchanged input", res.Topic)
	}
}

func TestMCPResearchToolValidation(t *testing.T) {
	r := newTestRouter(t, stubClient{text: "unused"})
	sessionID := initSession(t, r)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"Missing topic", map[string]interface{}{"prompt": "q"}},
		{"Missing prompt", map[string]interface{}{"topic": "t"}},
		{"Empty strings", map[string]interface{}{"topic": "", "prompt": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callResearchTool(t, r, sessionID, tt.args)
			if resp.Error == nil || resp.Error.Code != -32602 {
				t.Errorf("error = %+v, want code -32602", resp.Error)
			}
		})
	}
}

func TestMCPResearchToolModelFailure(t *testing.T) {
	r := newTestRouter(t, stubClient{err: errors.New("provider down")})
	sessionID := initSession(t, r)

	resp := callResearchTool(t, r, sessionID, map[string]interface{}{
		"topic":  "AI Safety",
		"prompt": "current state",
	})
	// Model failures come back as a structured error result, not a JSON-RPC error.
	if resp.Error != nil {
		t.Fatalf("tools/call error = %+v, want result", resp.Error)
	}

	res := decodeToolResult(t, resp)
	if res.Status != research.StatusError {
		t.Errorf("status = %q, want %q", res.Status, research.StatusError)
	}
	if res.Error != "provider down" {
		t.Errorf("error = %q, want %q", res.Error, "provider down")
	}
}

func TestMCPUnknownTool(t *testing.T) {
	r := newTestRouter(t, stubClient{text: "ok"})
	sessionID := initSession(t, r)

	_, resp := postMCP(t, r, sessionID, map[string]interface{}{
		"jsonrpc": "2.0", "id": 4, "method": "tools/call",
		"params": map[string]interface{}{
			"name":      "nope",
			"arguments": map[string]interface{}{},
		},
	})
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Errorf("error = %+v, want code -32601", resp.Error)
	}
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mikeboe/research-agent/pkg/research"
)

// MCPSession represents an MCP session
type MCPSession struct {
	ID      string
	Created int64
}

var (
	mcpSessions = make(map[string]*MCPSession)
	sessionMu   sync.RWMutex
)

// MCPRequest represents an MCP JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an MCP JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents an MCP error
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Handler struct {
	Service  *Service
	Research *research.Handler
}

func NewHandler(s *Service, r *research.Handler) *Handler {
	return &Handler{Service: s, Research: r}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/mcp", h.MCPHandler)
	api := r.Group("/api")
	{
		api.POST("/research", h.createRun)
		api.GET("/research", h.listRuns)
		api.GET("/research/:id", h.getRun)
		api.GET("/research/:id/logs", h.getRunLogs)
		api.GET("/research/:id/artifacts", h.getRunArtifacts)
	}
}

// MCPHandler handles MCP protocol requests
func (h *Handler) MCPHandler(c *gin.Context) {
	sessionID := c.GetHeader("Mcp-Session-Id")

	var req MCPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MCPResponse{
			JSONRPC: "2.0",
			ID:      nil,
			Error: &MCPError{
				Code:    -32700,
				Message: "Parse error",
			},
		})
		return
	}

	// Handle initialize request
	if req.Method == "initialize" {
		if sessionID == "" {
			sessionID = uuid.New().String()
			c.Header("Mcp-Session-Id", sessionID)

			sessionMu.Lock()
			mcpSessions[sessionID] = &MCPSession{
				ID:      sessionID,
				Created: time.Now().Unix(),
			}
			sessionMu.Unlock()
		}

		c.JSON(http.StatusOK, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: map[string]interface{}{
				"protocolVersion": "2024-11-05",
				"serverInfo": map[string]interface{}{
					"name":    "research-agent-mcp",
					"version": "1.0.0",
				},
				"capabilities": map[string]interface{}{
					"tools": map[string]interface{}{},
				},
			},
		})
		return
	}

	// Validate session for other requests
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32000,
				Message: "Bad Request: No valid session ID provided",
			},
		})
		return
	}

	sessionMu.RLock()
	_, exists := mcpSessions[sessionID]
	sessionMu.RUnlock()

	if !exists {
		c.JSON(http.StatusBadRequest, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32000,
				Message: "Invalid session ID",
			},
		})
		return
	}

	switch req.Method {
	case "tools/list":
		h.handleToolsList(c, req)
	case "tools/call":
		h.handleToolsCall(c, req)
	case "ping":
		c.JSON(http.StatusOK, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		})
	default:
		c.JSON(http.StatusOK, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: "Method not found",
			},
		})
	}
}

func (h *Handler) handleToolsList(c *gin.Context, req MCPRequest) {
	c.JSON(http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": []map[string]interface{}{
				{
					"name":        "research",
					"description": "Research a topic using a web-search-capable AI model and return the generated text.",
					"inputSchema": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"topic": map[string]interface{}{
								"type":        "string",
								"description": "The topic to research.",
							},
							"prompt": map[string]interface{}{
								"type":        "string",
								"description": "The question to focus the research on.",
							},
						},
						"required": []string{"topic", "prompt"},
					},
				},
			},
		},
	})
}

type researchToolArgs struct {
	Topic  string `json:"topic"`
	Prompt string `json:"prompt"`
}

func (h *Handler) handleToolsCall(c *gin.Context, req MCPRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.sendError(c, req.ID, -32602, "Invalid params")
		return
	}

	switch params.Name {
	case "research":
		var args researchToolArgs
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			h.sendError(c, req.ID, -32602, "Invalid arguments")
			return
		}

		result, err := h.Research.Run(c.Request.Context(), args.Topic, args.Prompt)
		if err != nil {
			// Only validation failures surface as errors; model failures come
			// back inside the result.
			if errors.Is(err, research.ErrMissingTopic) || errors.Is(err, research.ErrMissingPrompt) {
				h.sendError(c, req.ID, -32602, err.Error())
				return
			}
			h.sendError(c, req.ID, -32603, err.Error())
			return
		}
		h.sendResult(c, req.ID, result)

	default:
		h.sendError(c, req.ID, -32601, "Tool not found: "+params.Name)
	}
}

func (h *Handler) sendError(c *gin.Context, id interface{}, code int, msg string) {
	c.JSON(http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: msg,
		},
	})
}

func (h *Handler) sendResult(c *gin.Context, id interface{}, result *research.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		h.sendError(c, id, -32603, "Failed to serialize result")
		return
	}

	c.JSON(http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": string(data),
				},
			},
			"isError": result.Status == research.StatusError,
		},
	})
}

func (h *Handler) createRun(c *gin.Context) {
	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.Service.CreateRun(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, research.ErrMissingTopic) || errors.Is(err, research.ErrMissingPrompt) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, run)
}

func (h *Handler) listRuns(c *gin.Context) {
	runs, err := h.Service.ListRuns(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// Return empty list instead of null
	if runs == nil {
		runs = []Run{}
	}
	c.JSON(http.StatusOK, runs)
}

func (h *Handler) getRun(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	run, err := h.Service.GetRun(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, run)
}

func (h *Handler) getRunLogs(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	logs, err := h.Service.GetRunLogs(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if logs == nil {
		logs = []LogEntry{}
	}
	c.JSON(http.StatusOK, logs)
}

func (h *Handler) getRunArtifacts(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	artifacts, err := h.Service.GetRunArtifacts(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if artifacts == nil {
		artifacts = []ArtifactRecord{}
	}
	c.JSON(http.StatusOK, artifacts)
}

package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Chative-support-router/server/internal/agent/graph"
	"github.com/Chative-support-router/server/internal/agent/model"
	errx "github.com/Chative-support-router/server/internal/core/error"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

// Pinger is a dependency checked by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest accepts either a single message or a chat-style message list,
// in which case the last user message is answered.
type ChatRequest struct {
	Message  string        `json:"message"`
	Messages []ChatMessage `json:"messages"`
	ThreadID string        `json:"thread_id"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	ThreadID  string `json:"thread_id"`
	Intent    string `json:"intent"`
	Branch    string `json:"branch,omitempty"`
	Fallback  string `json:"fallback,omitempty"`
	ToolCalls int    `json:"tool_calls"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Handlers struct {
	runner  graph.Runner
	pingers map[string]Pinger
}

func NewHandlers(runner graph.Runner, pingers map[string]Pinger) *Handlers {
	return &Handlers{runner: runner, pingers: pingers}
}

// HandleChat runs one turn.
func (h *Handlers) HandleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	message := req.latestMessage()
	if message == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
		return
	}

	reply, err := h.runner.Invoke(c.Request.Context(), model.QueryInput{
		ConversationID: strings.TrimSpace(req.ThreadID),
		Query:          message,
	})
	if err != nil {
		logx.Warn().Err(err).Str("conversation_id", req.ThreadID).Msg("Chat turn aborted")
		c.JSON(errx.StatusOf(err), ErrorResponse{Error: errx.SystemErrorMessage})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Response:  reply.Content,
		ThreadID:  reply.ConversationID,
		Intent:    reply.Intent.String(),
		Branch:    reply.Branch,
		Fallback:  reply.FallbackKind,
		ToolCalls: reply.ToolCalls,
	})
}

func (r ChatRequest) latestMessage() string {
	if msg := strings.TrimSpace(r.Message); msg != "" {
		return msg
	}
	for i := len(r.Messages) - 1; i >= 0; i-- {
		m := r.Messages[i]
		if (m.Role == "" || m.Role == "user") && strings.TrimSpace(m.Content) != "" {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}

// HandleHealth pings every registered dependency.
func (h *Handlers) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK
	for name, p := range h.pingers {
		if resp.Checks == nil {
			resp.Checks = map[string]string{}
		}
		if err := p.Ping(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	c.JSON(status, resp)
}

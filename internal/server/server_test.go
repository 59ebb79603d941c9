package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-support-router/server/internal/agent/model"
	"github.com/Chative-support-router/server/internal/metrics"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logx.Disable()
}

type stubRunner struct {
	last model.QueryInput
	err  error
}

func (s *stubRunner) Invoke(_ context.Context, in model.QueryInput) (model.Reply, error) {
	s.last = in
	if s.err != nil {
		return model.Reply{}, s.err
	}
	id := in.ConversationID
	if id == "" {
		id = "generated"
	}
	return model.Reply{
		ConversationID: id,
		Content:        "echo: " + in.Query,
		Intent:         model.IntentGeneralChat,
		Branch:         "general_branch",
	}, nil
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatWithMessage(t *testing.T) {
	runner := &stubRunner{}
	r := NewEngine(NewHandlers(runner, nil), nil)

	w := doJSON(t, r, http.MethodPost, "/chat", ChatRequest{Message: " Привет! ", ThreadID: "th-1"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "echo: Привет!", resp.Response)
	assert.Equal(t, "th-1", resp.ThreadID)
	assert.Equal(t, "general_chat", resp.Intent)
	assert.Equal(t, "th-1", runner.last.ConversationID)
}

func TestChatWithMessageList(t *testing.T) {
	runner := &stubRunner{}
	r := NewEngine(NewHandlers(runner, nil), nil)

	w := doJSON(t, r, http.MethodPost, "/chat", ChatRequest{Messages: []ChatMessage{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "answer"},
		{Role: "user", Content: "Где мой заказ 1001?"},
		{Role: "assistant", Content: ""},
	}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Где мой заказ 1001?", runner.last.Query)
}

func TestChatRejectsEmptyAndMalformed(t *testing.T) {
	r := NewEngine(NewHandlers(&stubRunner{}, nil), nil)

	w := doJSON(t, r, http.MethodPost, "/chat", ChatRequest{Message: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatRunnerError(t *testing.T) {
	r := NewEngine(NewHandlers(&stubRunner{err: context.Canceled}, nil), nil)
	w := doJSON(t, r, http.MethodPost, "/chat", ChatRequest{Message: "hi"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealth(t *testing.T) {
	ok := NewEngine(NewHandlers(&stubRunner{}, map[string]Pinger{
		"store": pingFunc(func(context.Context) error { return nil }),
	}), nil)
	w := doJSON(t, ok, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["store"])

	bad := NewEngine(NewHandlers(&stubRunner{}, map[string]Pinger{
		"redis": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	}), nil)
	w = doJSON(t, bad, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := metrics.New()
	rec.Turn("general_chat", "general_branch", 0)
	r := NewEngine(NewHandlers(&stubRunner{}, nil), rec)

	w := doJSON(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `supportbot_turns_total{branch="general_branch",intent="general_chat"} 1`)

	noMetrics := NewEngine(NewHandlers(&stubRunner{}, nil), nil)
	w = doJSON(t, noMetrics, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

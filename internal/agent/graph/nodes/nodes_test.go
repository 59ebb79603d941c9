package nodes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-support-router/server/internal/agent/model"
	errx "github.com/Chative-support-router/server/internal/core/error"
)

func TestRouteForLabel(t *testing.T) {
	cases := map[model.IntentLabel]string{
		model.IntentKnowledgeQuery: BranchRAG,
		model.IntentDataQuery:      BranchAgent,
		model.IntentGeneralChat:    BranchGeneral,
		model.IntentOutOfScope:     BranchDecline,
		"":                         BranchDecline,
		"refund_request":           BranchDecline,
	}
	for label, want := range cases {
		assert.Equal(t, want, RouteForLabel(label), "label %q", label)
		assert.True(t, BranchNodes()[RouteForLabel(label)])
	}
}

func TestCannedGeneralReply(t *testing.T) {
	cases := []struct {
		query string
		want  string
		ok    bool
	}{
		{"Привет!", MsgGreeting, true},
		{"Добрый день", MsgGreeting, true},
		{"hi there", MsgGreeting, true},
		{"Что ты умеешь?", MsgCapabilities, true},
		{"help", MsgCapabilities, true},
		{"Спасибо большое", MsgThanks, true},
		{"Расскажешь что-нибудь?", MsgInteresting, true},
		{"history of shipping", "", false},
		{"Как у тебя дела?", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := CannedGeneralReply(tc.query)
		assert.Equal(t, tc.ok, ok, tc.query)
		assert.Equal(t, tc.want, got, tc.query)
	}
}

func TestBudgetSummary(t *testing.T) {
	out := BudgetSummary([]model.ToolResult{
		{ToolName: "get_order_status", Success: true, Payload: map[string]any{"status": "Shipped"}},
		{ToolName: "track_shipment", Success: false, Error: "Отправление не найдено"},
		{ToolName: "search_knowledge_base", Success: true, Payload: strings.Repeat("я", 400)},
	})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, msgBudgetHeader, lines[0])
	assert.Equal(t, "• get_order_status: status=Shipped", lines[1])
	assert.Equal(t, "• track_shipment: ошибка: Отправление не найдено", lines[2])
	assert.True(t, strings.HasSuffix(lines[3], "…"))

	empty := BudgetSummary(nil)
	assert.Contains(t, empty, msgBudgetNone)
}

func TestBudgetSummaryKeepsKeyFactsOfLargePayloads(t *testing.T) {
	events := make([]map[string]any, 0, 10)
	for i := 0; i < 10; i++ {
		events = append(events, map[string]any{"status": "InTransit", "location": "Sorting center", "details": strings.Repeat("x", 40)})
	}
	out := BudgetSummary([]model.ToolResult{{
		ToolName: "get_order_status",
		Success:  true,
		Payload: map[string]any{
			"customer_id":     501,
			"found":           true,
			"latest_tracking": map[string]any{"status": "InTransit", "events": events},
			"order":           map[string]any{"order_id": 1001, "tracking_no": "TRK1001", "total_amount": 129.99, "currency": "USD"},
			"status":          "Shipped",
		},
	}})

	assert.Contains(t, out, "status=Shipped")
	assert.Contains(t, out, "tracking_no=TRK1001")
	assert.Contains(t, out, "total_amount=129.99")
	assert.Contains(t, out, "order_id=1001")
	assert.NotContains(t, out, "Sorting center")
}

func TestBudgetSummaryFallsBackToJSON(t *testing.T) {
	out := BudgetSummary([]model.ToolResult{{ToolName: "delivery_options", Success: true, Payload: map[string]any{"options": []string{"Standard"}}}})
	assert.Contains(t, out, `• delivery_options: {"options":["Standard"]}`)
}

func TestFinalAnswer(t *testing.T) {
	results := []model.ToolResult{{ToolName: "get_my_orders", Success: true, Payload: "[]"}}

	text, kind := finalAnswer(schema.AssistantMessage("Готово", nil), results)
	assert.Equal(t, "Готово", text)
	assert.Empty(t, kind)

	pending := schema.AssistantMessage("", []schema.ToolCall{{ID: "call_1", Function: schema.FunctionCall{Name: "get_my_orders"}}})
	text, kind = finalAnswer(pending, results)
	assert.Equal(t, string(errx.KindBudget), kind)
	assert.Contains(t, text, "get_my_orders")

	text, kind = finalAnswer(failedCompletion(errors.New("timeout")), nil)
	assert.Equal(t, MsgServiceUnavailable, text)
	assert.Equal(t, string(errx.KindCompletion), kind)

	text, kind = finalAnswer(schema.AssistantMessage("  ", nil), results)
	assert.Equal(t, string(errx.KindCompletion), kind)
	assert.Contains(t, text, msgBudgetHeader)
}

type stubModel struct {
	generate func(ctx context.Context) (*schema.Message, error)
	tools    []*schema.ToolInfo
}

func (s *stubModel) Generate(ctx context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	return s.generate(ctx)
}

func (s *stubModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not used")
}

func (s *stubModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return &stubModel{generate: s.generate, tools: tools}, nil
}

func TestGuardedModelDegradesErrors(t *testing.T) {
	var stages []string
	g := NewGuardedModel(&stubModel{generate: func(context.Context) (*schema.Message, error) {
		return nil, errors.New("boom")
	}}, 0, func(stage string, _ error) { stages = append(stages, stage) }).ForStage(StageRAG)

	out, err := g.Generate(context.Background(), nil)
	require.NoError(t, err)
	reason, failed := CompletionFailed(out)
	assert.True(t, failed)
	assert.Equal(t, "boom", reason)
	assert.Equal(t, schema.Assistant, out.Role)
	assert.Equal(t, []string{StageRAG}, stages)
}

func TestGuardedModelTimeout(t *testing.T) {
	g := NewGuardedModel(&stubModel{generate: func(ctx context.Context) (*schema.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}, 20*time.Millisecond, nil)

	out, err := g.Generate(context.Background(), nil)
	require.NoError(t, err)
	_, failed := CompletionFailed(out)
	assert.True(t, failed)
}

func TestGuardedModelPanicAndNilInner(t *testing.T) {
	g := NewGuardedModel(&stubModel{generate: func(context.Context) (*schema.Message, error) {
		panic("provider bug")
	}}, 0, nil)
	out, err := g.Generate(context.Background(), nil)
	require.NoError(t, err)
	reason, failed := CompletionFailed(out)
	assert.True(t, failed)
	assert.Contains(t, reason, "provider bug")

	out, err = NewGuardedModel(nil, 0, nil).Generate(context.Background(), nil)
	require.NoError(t, err)
	_, failed = CompletionFailed(out)
	assert.True(t, failed)
}

func TestGuardedModelReturnsCancellation(t *testing.T) {
	g := NewGuardedModel(&stubModel{generate: func(ctx context.Context) (*schema.Message, error) {
		return nil, ctx.Err()
	}}, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGuardedModelWithToolsAndStream(t *testing.T) {
	inner := &stubModel{generate: func(context.Context) (*schema.Message, error) {
		return schema.AssistantMessage("ok", nil), nil
	}}
	g := NewGuardedModel(inner, time.Second, nil)

	bound, err := g.WithTools([]*schema.ToolInfo{{Name: "get_my_orders"}})
	require.NoError(t, err)
	guarded, ok := bound.(*GuardedModel)
	require.True(t, ok)
	assert.Len(t, guarded.inner.(*stubModel).tools, 1)
	assert.Empty(t, inner.tools)

	sr, err := g.Stream(context.Background(), nil)
	require.NoError(t, err)
	msg, err := sr.Recv()
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
}

func TestAgentModelPreHandler(t *testing.T) {
	pre := NewAgentModelPreHandler()
	state := &model.AppState{MaxIterations: 2}

	first := []*schema.Message{schema.SystemMessage("sys"), schema.UserMessage("Где заказ 1001?")}
	out, err := pre(context.Background(), first, state)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 1, state.Iterations)

	state.History = append(state.History, schema.AssistantMessage("", []schema.ToolCall{{ID: "call_1", Function: schema.FunctionCall{Name: "get_order_status"}}}))
	toolMsg := schema.ToolMessage(`{"tool":"get_order_status","success":true,"payload":{"status":"Shipped"}}`, "")
	out, err = pre(context.Background(), []*schema.Message{toolMsg}, state)
	require.NoError(t, err)

	assert.Equal(t, 2, state.Iterations)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	require.Len(t, state.ToolResults, 1)
	assert.True(t, state.ToolResults[0].Success)
	last := out[len(out)-1]
	assert.Equal(t, schema.System, last.Role)
	assert.Contains(t, last.Content, "last step (2 of 2)")
}

func TestAgentModelPreHandlerWarnsOnSingleIterationBudget(t *testing.T) {
	pre := NewAgentModelPreHandler()
	state := &model.AppState{MaxIterations: 1}

	out, err := pre(context.Background(), []*schema.Message{schema.SystemMessage("sys"), schema.UserMessage("Где заказ 1001?")}, state)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, schema.System, out[2].Role)
	assert.Contains(t, out[2].Content, "last step (1 of 1)")
}

func TestAgentModelPostHandlerFillsCallIDs(t *testing.T) {
	post := NewAgentModelPostHandler("gpt-4o-mini")
	state := &model.AppState{}
	msg := schema.AssistantMessage("", []schema.ToolCall{
		{Function: schema.FunctionCall{Name: "a"}},
		{ID: "given", Function: schema.FunctionCall{Name: "b"}},
	})
	msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 0}}

	out, err := post(context.Background(), msg, state)
	require.NoError(t, err)
	assert.Equal(t, "call_1", out.ToolCalls[0].ID)
	assert.Equal(t, "given", out.ToolCalls[1].ID)
	assert.Len(t, state.History, 1)
	assert.InDelta(t, 0.15, state.TotalCostUSD, 1e-9)

	_, err = post(context.Background(), failedCompletion(errors.New("x")), state)
	require.NoError(t, err)
	assert.Len(t, state.History, 1)
}

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Chative-support-router/server/internal/agent/model"
	errx "github.com/Chative-support-router/server/internal/core/error"
	"github.com/Chative-support-router/server/internal/retrieval"
	"github.com/Chative-support-router/server/internal/store"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCustomer = int64(501)

func openSeededStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{Path: filepath.Join(t.TempDir(), "tools.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if _, err := s.Seed(context.Background()); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return s
}

func newTestRegistry(t *testing.T, customerID int64, now time.Time) *Registry {
	t.Helper()
	ix, err := retrieval.NewKnowledgeBaseIndex(retrieval.DefaultChunkSize, retrieval.DefaultChunkOverlap)
	require.NoError(t, err)

	reg, err := NewRegistry(customerID, Catalog(Deps{
		Store:       openSeededStore(t),
		Searcher:    ix,
		Now:         func() time.Time { return now },
		NewLabelRef: func() string { return "RL-TEST" },
	}))
	require.NoError(t, err)
	return reg
}

func decode(t *testing.T, res model.ToolResult) map[string]any {
	t.Helper()
	require.True(t, res.Success, "tool failed: %s (%s)", res.Error, res.Kind)
	raw, err := json.Marshal(res.Payload)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func call(reg *Registry, name string, args map[string]any) model.ToolResult {
	return reg.Execute(context.Background(), model.ToolCallRequest{ToolName: name, Arguments: args})
}

type scopeSet map[string]bool

func (s scopeSet) IsCustomerScoped(name string) bool { return s[name] }

func TestBinderOverwritesCustomerForScopedTools(t *testing.T) {
	b := NewBinder(501, scopeSet{ToolGetOrderStatus: true})

	in := map[string]any{"order_id": 1001, "customer_id": 999}
	out := b.Bind(ToolGetOrderStatus, in)
	assert.Equal(t, int64(501), out[CustomerIDParam])
	assert.Equal(t, 1001, out["order_id"])
	assert.Equal(t, 999, in["customer_id"], "input must not be mutated")

	out = b.Bind(ToolGetOrderStatus, nil)
	assert.Equal(t, int64(501), out[CustomerIDParam])
}

func TestBinderPassesGlobalToolsThrough(t *testing.T) {
	b := NewBinder(501, scopeSet{ToolGetOrderStatus: true})

	in := map[string]any{"region": "US", "customer_id": 7}
	out := b.Bind(ToolDeliveryOptions, in)
	assert.Equal(t, in, out)
}

func TestCatalogScopeFlags(t *testing.T) {
	global := map[string]bool{
		ToolSearchKnowledgeBase:  true,
		ToolDeliveryOptions:      true,
		ToolCheapestDelivery:     true,
		ToolEstimateDeliveryCost: true,
	}
	for _, s := range Catalog(Deps{}) {
		assert.Equal(t, !global[s.Name], s.CustomerScoped, s.Name)
		if s.CustomerScoped {
			assert.Equal(t, CustomerIDParam, s.Params[0].Name, s.Name)
		}
	}
}

func TestToolInfosHideCustomerID(t *testing.T) {
	reg := newTestRegistry(t, testCustomer, time.Now())
	infos := reg.ToolInfos()
	require.Len(t, infos, len(reg.Specs()))

	for _, s := range reg.Specs() {
		for _, p := range visibleParams(s) {
			assert.NotEqual(t, CustomerIDParam, p.Name, s.Name)
		}
	}
	spec, ok := reg.Lookup(ToolGetOrderStatus)
	require.True(t, ok)
	assert.Equal(t, []string{"order_id"}, paramNames(visibleParams(spec)))
}

func paramNames(ps []Param) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	exec := func(context.Context, map[string]any) (any, error) { return nil, nil }
	_, err := NewRegistry(1, []Spec{{Name: "a", Exec: exec}, {Name: "a", Exec: exec}})
	assert.Error(t, err)

	_, err = NewRegistry(1, []Spec{{Name: "b"}})
	assert.Error(t, err)
}

func TestExecuteUnknownTool(t *testing.T) {
	reg := newTestRegistry(t, testCustomer, time.Now())
	res := call(reg, "drop_tables", nil)
	assert.False(t, res.Success)
	assert.Equal(t, string(errx.KindToolValidation), res.Kind)
	assert.Contains(t, res.Error, "unknown tool")
}

func TestExecuteMissingArgument(t *testing.T) {
	reg := newTestRegistry(t, testCustomer, time.Now())
	res := call(reg, ToolGetOrderStatus, map[string]any{})
	assert.False(t, res.Success)
	assert.Equal(t, string(errx.KindToolValidation), res.Kind)
	assert.Contains(t, res.Error, "order_id")
}

func TestExecuteWrongTypes(t *testing.T) {
	reg := newTestRegistry(t, testCustomer, time.Now())

	res := call(reg, ToolGetOrderStatus, map[string]any{"order_id": "abc"})
	assert.False(t, res.Success)
	assert.Equal(t, string(errx.KindToolValidation), res.Kind)

	res = call(reg, ToolGetOrderStatus, map[string]any{"order_id": 10.5})
	assert.False(t, res.Success)

	res = call(reg, ToolEstimateDeliveryCost, map[string]any{"region": "US", "method_name": "Teleport"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "method_name")

	res = call(reg, ToolRequestReturnLabel, map[string]any{"order_id": 1001, "email": "not-an-email"})
	assert.False(t, res.Success)
	assert.Equal(t, string(errx.KindToolValidation), res.Kind)
}

func TestExecuteSanitizesNumericStrings(t *testing.T) {
	reg := newTestRegistry(t, testCustomer, time.Now())
	out := decode(t, call(reg, ToolGetOrderStatus, map[string]any{"order_id": "#1001"}))
	assert.Equal(t, true, out["found"])
}

func TestExecuteRecordsExecutionFailures(t *testing.T) {
	var seen []model.ToolResult
	reg, err := NewRegistry(1, []Spec{
		{Name: "boom", Exec: func(context.Context, map[string]any) (any, error) { return nil, errors.New("db down") }},
		{Name: "panic", Exec: func(context.Context, map[string]any) (any, error) { panic("nil map") }},
		{Name: "slow", Exec: func(ctx context.Context, _ map[string]any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}},
	}, WithTimeout(20*time.Millisecond), WithResultHook(func(r model.ToolResult) { seen = append(seen, r) }))
	require.NoError(t, err)

	for _, name := range []string{"boom", "panic", "slow"} {
		res := call(reg, name, nil)
		assert.False(t, res.Success, name)
		assert.Equal(t, string(errx.KindToolExecution), res.Kind, name)
	}
	assert.Len(t, seen, 3)
}

func TestInvokableRunReturnsEnvelope(t *testing.T) {
	reg := newTestRegistry(t, testCustomer, time.Now())
	var status tool.InvokableTool
	for _, bt := range reg.InvokableTools() {
		info, err := bt.Info(context.Background())
		require.NoError(t, err)
		if info.Name == ToolGetOrderStatus {
			status = bt.(tool.InvokableTool)
		}
	}
	require.NotNil(t, status)

	out, err := status.InvokableRun(context.Background(), `{"order_id": 1001, "customer_id": 502}`)
	require.NoError(t, err)
	res := model.ParseToolResult(ToolGetOrderStatus, out)
	payload := decode(t, res)
	assert.Equal(t, "Shipped", payload["status"])
	assert.Equal(t, "TRK1001", payload["tracking_no"])
	assert.Equal(t, float64(501), payload["customer_id"])

	out, err = status.InvokableRun(context.Background(), `{not json`)
	require.NoError(t, err)
	res = model.ParseToolResult(ToolGetOrderStatus, out)
	assert.False(t, res.Success)
	assert.Equal(t, string(errx.KindToolValidation), res.Kind)
}

func TestGetOrderStatusScopedToCustomer(t *testing.T) {
	reg := newTestRegistry(t, testCustomer, time.Now())

	out := decode(t, call(reg, ToolGetOrderStatus, map[string]any{"order_id": 1001}))
	assert.Equal(t, "2025-08-05", out["eta_date"])
	latest := out["latest_tracking"].(map[string]any)
	assert.Equal(t, "Newark, NJ", latest["location"])

	out = decode(t, call(reg, ToolGetOrderStatus, map[string]any{"order_id": 1003, "customer_id": 503}))
	assert.Equal(t, false, out["found"])
	assert.Equal(t, msgOrderNotOwned, out["message"])
}

func TestTrackShipment(t *testing.T) {
	reg := newTestRegistry(t, 504, time.Now())

	out := decode(t, call(reg, ToolTrackShipment, map[string]any{"tracking_no": "TRK1004"}))
	assert.Equal(t, true, out["found"])
	assert.Len(t, out["events"], 2)
	last := out["last_event"].(map[string]any)
	assert.Equal(t, "Shipment on Hold", last["status"])

	out = decode(t, call(reg, ToolTrackShipment, map[string]any{"tracking_no": "TRK1001"}))
	assert.Equal(t, false, out["found"])
}

func TestGetMyOrders(t *testing.T) {
	reg := newTestRegistry(t, testCustomer, time.Now())
	out := decode(t, call(reg, ToolGetMyOrders, nil))
	assert.Equal(t, float64(1), out["count"])
}

func TestSearchKnowledgeBaseAddsContext(t *testing.T) {
	reg := newTestRegistry(t, testCustomer, time.Now())
	out := decode(t, call(reg, ToolSearchKnowledgeBase, map[string]any{"query": "политика возвратов 30 дней"}))
	passages := out["passages"].([]any)
	require.NotEmpty(t, passages)
	first := passages[0].(map[string]any)
	assert.Contains(t, first["source_id"], "returns.md")

	out = decode(t, call(reg, ToolSearchKnowledgeBase, map[string]any{"query": "квантовая хромодинамика"}))
	assert.Equal(t, float64(0), out["count"])
	assert.NotEmpty(t, out["message"])
}

func TestDeliveryTools(t *testing.T) {
	reg := newTestRegistry(t, testCustomer, time.Now())

	out := decode(t, call(reg, ToolDeliveryOptions, map[string]any{"region": "US"}))
	assert.Equal(t, float64(3), out["count"])

	out = decode(t, call(reg, ToolCheapestDelivery, map[string]any{"region": "US", "max_days": 2}))
	assert.Equal(t, "Express", out["option"].(map[string]any)["name"])

	out = decode(t, call(reg, ToolCheapestDelivery, map[string]any{"region": "ES", "max_days": 3}))
	assert.Equal(t, false, out["found"])

	out = decode(t, call(reg, ToolEstimateDeliveryCost, map[string]any{"region": "CA"}))
	assert.Equal(t, "International", out["estimate"].(map[string]any)["name"])
}

func TestPaymentRetry(t *testing.T) {
	justAfter := time.Date(2025, 8, 1, 14, 10, 0, 0, time.UTC)
	reg := newTestRegistry(t, 502, justAfter)

	out := decode(t, call(reg, ToolCanRetryPayment, map[string]any{"order_id": 1002}))
	assert.Equal(t, false, out["allowed"])
	assert.Equal(t, "2025-08-01T14:30:00Z", out["next_retry_after"])

	out = decode(t, call(reg, ToolCanRetryPayment, map[string]any{"order_id": 1002, "cooldown_minutes": 5}))
	assert.Equal(t, true, out["allowed"])

	out = decode(t, call(reg, ToolPaymentRetrySteps, map[string]any{"order_id": 1002}))
	assert.Equal(t, true, out["ok"])
	steps := out["steps"].([]any)
	require.Len(t, steps, 4)
	assert.Equal(t, "Выберите метод оплаты (рекомендуется: CreditCard).", steps[2])
	assert.Equal(t, "card_declined", out["failure_code"])

	out = decode(t, call(reg, ToolGetPaymentStatus, map[string]any{"order_id": 1001}))
	assert.Equal(t, false, out["found"])
}

func TestReturnEligibility(t *testing.T) {
	now := time.Date(2025, 8, 9, 18, 45, 0, 0, time.UTC)
	reg := newTestRegistry(t, 503, now)

	out := decode(t, call(reg, ToolCheckReturnEligibility, map[string]any{"order_id": 1003}))
	assert.Equal(t, true, out["eligible"])
	assert.Equal(t, float64(20), out["days_since_delivery"])
	assert.Equal(t, float64(DefaultReturnPolicyDays), out["policy_days"])

	out = decode(t, call(reg, ToolCheckReturnEligibility, map[string]any{"order_id": 1003, "policy_days": 14}))
	assert.Equal(t, false, out["eligible"])

	out = decode(t, call(reg, ToolRequestReturnLabel, map[string]any{"order_id": 1003, "email": "carlos@example.com"}))
	assert.Equal(t, true, out["created"])
	assert.Equal(t, "RL-TEST", out["label_ref"])

	out = decode(t, call(reg, ToolGetReturnStatus, map[string]any{"order_id": 1003}))
	ret := out["return"].(map[string]any)
	assert.Equal(t, "Running Shoes", ret["product_title"])
}

func TestReturnLabelRefusedWhenNotDelivered(t *testing.T) {
	reg := newTestRegistry(t, testCustomer, time.Now())
	out := decode(t, call(reg, ToolRequestReturnLabel, map[string]any{"order_id": 1001, "email": "alice@example.com"}))
	assert.Equal(t, false, out["created"])
	assert.Equal(t, false, out["eligible"])
}

func TestParamTypesAreSchemaTypes(t *testing.T) {
	for _, s := range Catalog(Deps{}) {
		for _, p := range s.Params {
			assert.Contains(t, []schema.DataType{schema.String, schema.Integer, schema.Number, schema.Boolean}, p.Type, s.Name+"."+p.Name)
		}
	}
}

func TestMalformedArgumentsReachResultHook(t *testing.T) {
	var seen []model.ToolResult
	reg, err := NewRegistry(1, []Spec{
		{Name: "echo", Exec: func(_ context.Context, args map[string]any) (any, error) { return args, nil }},
	}, WithResultHook(func(r model.ToolResult) { seen = append(seen, r) }))
	require.NoError(t, err)

	tools := reg.InvokableTools()
	require.Len(t, tools, 1)
	echo := tools[0].(tool.InvokableTool)

	out, err := echo.InvokableRun(context.Background(), `{"text": `)
	require.NoError(t, err)
	res := model.ParseToolResult("echo", out)
	assert.False(t, res.Success)

	require.Len(t, seen, 1)
	assert.Equal(t, "echo", seen[0].ToolName)
	assert.Equal(t, string(errx.KindToolValidation), seen[0].Kind)

	_, err = echo.InvokableRun(context.Background(), `{"text": "hi"}`)
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.True(t, seen[1].Success)
}

package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-support-router/server/internal/agent/model"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

// DefaultMaxIterations bounds the agent loop: the model is called at most
// this many times per turn.
const DefaultMaxIterations = 5

func normalizeMaxIterations(n int) int {
	if n <= 0 {
		return DefaultMaxIterations
	}
	return n
}

// withState runs fn against the turn's local state.
func withState(ctx context.Context, fn func(*model.AppState)) {
	err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
		fn(s)
		return nil
	})
	if err != nil {
		logx.Warn().Err(err).Msg("Graph state unavailable")
	}
}

// setOutcome records which branch answered and, once, why it degraded.
func setOutcome(s *model.AppState, branch, kind string) {
	s.Branch = branch
	if kind != "" && s.FallbackKind == "" {
		s.FallbackKind = kind
	}
}

// recordUsage logs token usage of one completion and adds its cost to the
// turn total.
func recordUsage(s *model.AppState, node, modelName string, out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
	s.TotalCostUSD += totalC

	logx.Debug().
		Str("conversation_id", s.ConversationID).
		Str("node", node).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

// NewUsagePostHandler records usage for chat model nodes.
func NewUsagePostHandler(node, modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		recordUsage(state, node, modelName, out)
		return out, nil
	}
}

func withHistory(system string, history []*schema.Message, query string) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(system))
	msgs = append(msgs, history...)
	return append(msgs, schema.UserMessage(query))
}

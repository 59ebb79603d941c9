package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-support-router/server/internal/agent/graph/prompts"
	"github.com/Chative-support-router/server/internal/agent/model"
	errx "github.com/Chative-support-router/server/internal/core/error"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

// NewAgentPrepareNode seeds the agent transcript with the system prompt,
// recent turns and the user message.
func NewAgentPrepareNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.IntentLabel) ([]*schema.Message, error) {
		var conversationID, query string
		maxIterations := normalizeMaxIterations(d.MaxIterations)
		withState(ctx, func(s *model.AppState) {
			conversationID, query = s.ConversationID, s.Query
			s.Branch = BranchAgent
			s.History = nil
			s.MaxIterations = maxIterations
		})

		systemPrompt, err := prompts.RenderAgentSystem(ctx, d.CustomerID, maxIterations)
		if err != nil {
			return nil, fmt.Errorf("render agent prompt: %w", err)
		}
		return withHistory(systemPrompt, d.Messages.History(ctx, conversationID), query), nil
	})
}

// NewAgentModelPreHandler appends new input to the transcript, records tool
// results and counts the iteration. The last allowed iteration gets a notice
// to answer with what is already known.
func NewAgentModelPreHandler() func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		pending := pendingCallIDs(state.History)
		for i, msg := range in {
			if msg == nil || msg.Role != schema.Tool {
				continue
			}
			// some OpenAI-compatible gateways drop tool_call_id
			if strings.TrimSpace(msg.ToolCallID) == "" && i < len(pending) {
				msg.ToolCallID = pending[i]
			}
			state.ToolResults = append(state.ToolResults, model.ParseToolResult(msg.ToolName, msg.Content))
		}

		state.History = append(state.History, in...)
		state.Iterations++
		if state.MaxIterations <= 0 {
			state.MaxIterations = DefaultMaxIterations
		}

		if state.Iterations == state.MaxIterations {
			state.History = append(state.History, schema.SystemMessage(fmt.Sprintf(
				"SYSTEM NOTICE: This is the last step (%d of %d). Do not call tools. "+
					"Answer now using the information you already have and say what you could not check.",
				state.Iterations, state.MaxIterations,
			)))
		}

		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Int("iteration", state.Iterations).
			Int("max_iterations", state.MaxIterations).
			Msg("Agent thinking")

		return state.History, nil
	}
}

// pendingCallIDs returns the tool call IDs of the last assistant message.
func pendingCallIDs(history []*schema.Message) []string {
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg == nil || msg.Role != schema.Assistant {
			continue
		}
		ids := make([]string, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			ids = append(ids, tc.ID)
		}
		return ids
	}
	return nil
}

// NewAgentModelPostHandler records usage, fills missing tool call IDs and
// appends the model output to the transcript.
func NewAgentModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if _, failed := CompletionFailed(out); failed {
			return out, nil
		}
		recordUsage(state, NodeAgentModel, modelName, out)

		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}
		state.History = append(state.History, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("Agent answer ready")
		}
		return out, nil
	}
}

// NewAgentCondition loops back to the tools while the model asks for them
// and budget remains; otherwise it finalizes.
func NewAgentCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, out *schema.Message) (string, error) {
		var iterations, maxIterations int
		withState(ctx, func(s *model.AppState) {
			iterations, maxIterations = s.Iterations, s.MaxIterations
		})

		if _, failed := CompletionFailed(out); failed {
			return NodeAgentFinalize, nil
		}
		if len(out.ToolCalls) > 0 && iterations < maxIterations {
			return NodeAgentTools, nil
		}
		if len(out.ToolCalls) > 0 {
			logx.Warn().Int("iterations", iterations).Msg("Agent budget exhausted with pending tool calls")
		}
		return NodeAgentFinalize, nil
	}
}

func NewAgentToolsPreHandler() func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		for _, tc := range in.ToolCalls {
			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Str("tool", tc.Function.Name).
				Str("call_id", tc.ID).
				Int("iteration", state.Iterations).
				Msg("Tool execution attempt")
		}
		return in, nil
	}
}

// NewAgentFinalizeNode turns the last model output into the branch's single
// assistant message. It never leaves a pending tool call.
func NewAgentFinalizeNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, out *schema.Message) (*schema.Message, error) {
		var (
			results    []model.ToolResult
			iterations int
		)
		withState(ctx, func(s *model.AppState) {
			results = append(results, s.ToolResults...)
			iterations = s.Iterations
		})
		d.Recorder.AgentIterations(iterations)

		text, kind := finalAnswer(out, results)
		final := schema.AssistantMessage(text, nil)
		withState(ctx, func(s *model.AppState) {
			setOutcome(s, BranchAgent, kind)
			if kind != "" {
				s.History = append(s.History, final)
			}
		})
		return final, nil
	})
}

func finalAnswer(out *schema.Message, results []model.ToolResult) (string, string) {
	if _, failed := CompletionFailed(out); failed || (len(out.ToolCalls) == 0 && strings.TrimSpace(out.Content) == "") {
		if len(results) > 0 {
			return BudgetSummary(results), string(errx.KindCompletion)
		}
		return MsgServiceUnavailable, string(errx.KindCompletion)
	}
	if len(out.ToolCalls) > 0 {
		return BudgetSummary(results), string(errx.KindBudget)
	}
	return out.Content, ""
}

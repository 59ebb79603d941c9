package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-support-router/server/internal/agent/graph/conversations"
	"github.com/Chative-support-router/server/internal/agent/graph/parsers"
	"github.com/Chative-support-router/server/internal/agent/graph/prompts"
	"github.com/Chative-support-router/server/internal/agent/model"
	errx "github.com/Chative-support-router/server/internal/core/error"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

// NewClassifyInputPreHandler starts every turn from a clean state.
func NewClassifyInputPreHandler(maxIterations int) func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		in.Query = strings.TrimSpace(in.Query)
		*s = model.AppState{
			ConversationID: in.ConversationID,
			Query:          in.Query,
			MaxIterations:  normalizeMaxIterations(maxIterations),
		}
		return in, nil
	}
}

// NewClassifyInputNode builds the classifier prompt from recent turns and the
// current message.
func NewClassifyInputNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) ([]*schema.Message, error) {
		systemPrompt, err := prompts.RenderClassifierSystem(ctx)
		if err != nil {
			return nil, fmt.Errorf("render classifier prompt: %w", err)
		}
		return []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(mm.ClassifierContext(ctx, in.ConversationID, in.Query)),
		}, nil
	})
}

// NewIntentParserNode validates the classifier output against the closed
// label set. Invalid output and completion faults both become out_of_scope.
func NewIntentParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.IntentLabel, error) {
		if reason, failed := CompletionFailed(resp); failed {
			withState(ctx, func(s *model.AppState) {
				s.ClassifierDegraded = true
				s.FallbackKind = string(errx.KindCompletion)
			})
			logx.Warn().Str("reason", reason).Msg("Classifier unavailable; declining turn")
			return model.IntentOutOfScope, nil
		}

		label, ok := parsers.ParseIntent(resp.Content)
		if !ok {
			withState(ctx, func(s *model.AppState) {
				s.FallbackKind = string(errx.KindClassification)
			})
			logx.Warn().Str("raw", resp.Content).Msg("Classifier output outside label set")
		}
		return label, nil
	})
}

func NewIntentParserPostHandler() func(context.Context, model.IntentLabel, *model.AppState) (model.IntentLabel, error) {
	return func(ctx context.Context, out model.IntentLabel, state *model.AppState) (model.IntentLabel, error) {
		state.Intent = out
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Str("intent", out.String()).
			Msg("Intent classified")
		return out, nil
	}
}

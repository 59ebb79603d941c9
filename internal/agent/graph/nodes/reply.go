package nodes

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-support-router/server/internal/agent/model"
	errx "github.com/Chative-support-router/server/internal/core/error"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

// NewReplyNode closes the turn: it guarantees a non-empty answer, stores the
// exchange and reports how the answer was produced.
func NewReplyNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (model.Reply, error) {
		content := ""
		if msg != nil {
			content = strings.TrimSpace(msg.Content)
		}

		var (
			reply model.Reply
			query string
		)
		withState(ctx, func(s *model.AppState) {
			if content == "" {
				content = MsgServiceUnavailable
				setOutcome(s, s.Branch, string(errx.KindCompletion))
			}
			query = s.Query
			reply = model.Reply{
				ConversationID: s.ConversationID,
				Content:        content,
				Intent:         s.Intent,
				Branch:         s.Branch,
				FallbackKind:   s.FallbackKind,
				ToolCalls:      len(s.ToolResults),
				CostUSD:        s.TotalCostUSD,
			}
		})

		if err := d.Messages.SaveTurn(ctx, reply.ConversationID, query, reply.Content); err != nil {
			logx.Error().Err(err).Str("conversation_id", reply.ConversationID).Msg("Error saving turn")
		}
		d.Recorder.Fallback(reply.Branch, reply.FallbackKind)

		logx.Debug().
			Str("conversation_id", reply.ConversationID).
			Str("intent", reply.Intent.String()).
			Str("branch", reply.Branch).
			Str("fallback", reply.FallbackKind).
			Int("tool_calls", reply.ToolCalls).
			Float64("cost_usd", reply.CostUSD).
			Msg("Turn complete")
		return reply, nil
	})
}

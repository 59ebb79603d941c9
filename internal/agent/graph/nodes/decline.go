package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-support-router/server/internal/agent/model"
)

// NewDeclineNode returns the fixed refusal. When the classifier itself was
// unavailable the turn was never really classified, so it apologises instead.
func NewDeclineNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.IntentLabel) (*schema.Message, error) {
		text := MsgDecline
		withState(ctx, func(s *model.AppState) {
			if s.ClassifierDegraded {
				text = MsgServiceUnavailable
			}
			setOutcome(s, BranchDecline, "")
		})
		return schema.AssistantMessage(text, nil), nil
	})
}

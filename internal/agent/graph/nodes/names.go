package nodes

import (
	"context"

	"github.com/Chative-support-router/server/internal/agent/model"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

// Branch names double as the graph keys of each branch's entry node.
const (
	BranchRAG     = "rag_branch"
	BranchAgent   = "agent_branch"
	BranchGeneral = "general_branch"
	BranchDecline = "decline_branch"
)

const (
	NodeClassifyInput = "classify_input"
	NodeClassifyModel = "classify_model"
	NodeIntentParser  = "intent_parser"

	NodeRAG     = BranchRAG
	NodeGeneral = BranchGeneral
	NodeDecline = BranchDecline

	NodeAgentPrepare  = BranchAgent
	NodeAgentModel    = "agent_model"
	NodeAgentTools    = "agent_tools"
	NodeAgentFinalize = "agent_finalize"

	NodeReply = "reply"
)

// Stages label completion failures by the node that called the model.
const (
	StageClassify = "classify"
	StageRAG      = "rag"
	StageAgent    = "agent"
	StageGeneral  = "general"
)

// RouteForLabel is the router's transition table. Anything outside the
// closed label set falls through to the decline branch.
func RouteForLabel(label model.IntentLabel) string {
	switch label {
	case model.IntentKnowledgeQuery:
		return BranchRAG
	case model.IntentDataQuery:
		return BranchAgent
	case model.IntentGeneralChat:
		return BranchGeneral
	default:
		return BranchDecline
	}
}

// BranchNodes lists the possible targets of the intent branch.
func BranchNodes() map[string]bool {
	return map[string]bool{
		BranchRAG:     true,
		BranchAgent:   true,
		BranchGeneral: true,
		BranchDecline: true,
	}
}

// NewIntentCondition creates the branch condition after intent parsing.
func NewIntentCondition() func(context.Context, model.IntentLabel) (string, error) {
	return func(ctx context.Context, label model.IntentLabel) (string, error) {
		branch := RouteForLabel(label)
		logx.Debug().Str("intent", label.String()).Str("branch", branch).Msg("Routing turn")
		return branch, nil
	}
}

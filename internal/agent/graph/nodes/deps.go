package nodes

import (
	"github.com/Chative-support-router/server/internal/agent/graph/conversations"
	"github.com/Chative-support-router/server/internal/metrics"
	"github.com/Chative-support-router/server/internal/retrieval"
)

// Deps are the collaborators shared by the branch handlers.
type Deps struct {
	// Response answers RAG and general turns. It must not have tools bound.
	Response          *GuardedModel
	ResponseModelName string

	Messages *conversations.MessagesManager
	Searcher retrieval.Searcher
	TopK     int

	CustomerID    int64
	MaxIterations int

	Recorder *metrics.Recorder
}

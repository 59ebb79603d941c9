package model

import (
	"github.com/cloudwego/eino/schema"
)

// AppState stores per-turn state for the router graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState, so every
//     Invoke gets its own instance and concurrent turns never share one.
//   - Read and written only inside eino state handlers or compose.ProcessState,
//     which serialize access; no extra locking is needed.
type AppState struct {
	ConversationID string
	Query          string

	Intent IntentLabel
	// ClassifierDegraded is set when the completion service failed during
	// classification, so the decline branch apologises instead of refusing.
	ClassifierDegraded bool

	// History is the agent transcript for this turn: system prompt, prior
	// turns, user message, then assistant/tool messages in causal order.
	History       []*schema.Message
	Iterations    int
	MaxIterations int
	ToolResults   []ToolResult
	ToolCallIDSeq int

	// Branch and FallbackKind describe how the reply was produced.
	Branch       string
	FallbackKind string

	TotalCostUSD float64
}

// QueryInput is the graph input for one turn.
type QueryInput struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
}

// Reply is what a turn hands to the presentation layer.
type Reply struct {
	ConversationID string      `json:"thread_id"`
	Content        string      `json:"response"`
	Intent         IntentLabel `json:"intent"`
	Branch         string      `json:"branch"`
	FallbackKind   string      `json:"fallback,omitempty"`
	ToolCalls      int         `json:"tool_calls"`
	CostUSD        float64     `json:"cost_usd,omitempty"`
}

package model

import "encoding/json"

// ToolCallRequest is one tool invocation proposed by the completion service.
type ToolCallRequest struct {
	ID        string         `json:"id,omitempty"`
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is what a tool invocation produced. Failures are data, never
// Go errors: Error carries the reason and Kind the failure class.
type ToolResult struct {
	ToolName string `json:"tool"`
	Success  bool   `json:"success"`
	Payload  any    `json:"payload,omitempty"`
	Error    string `json:"error,omitempty"`
	Kind     string `json:"kind,omitempty"`
}

// JSON renders the envelope that is fed back to the model as a tool message.
func (r ToolResult) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		fallback, _ := json.Marshal(ToolResult{ToolName: r.ToolName, Success: false, Error: "result not serializable: " + err.Error()})
		return string(fallback)
	}
	return string(b)
}

// ParseToolResult decodes a tool message produced by JSON. Content that is
// not an envelope is kept as a successful raw payload.
func ParseToolResult(toolName, content string) ToolResult {
	var r ToolResult
	if err := json.Unmarshal([]byte(content), &r); err != nil || r.ToolName == "" {
		return ToolResult{ToolName: toolName, Success: true, Payload: content}
	}
	return r
}

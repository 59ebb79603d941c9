package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Chative-support-router/server/internal/agent/model"
	errx "github.com/Chative-support-router/server/internal/core/error"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// invokableTool exposes one registry entry to an eino ToolsNode.
type invokableTool struct {
	reg  *Registry
	spec Spec
}

var _ tool.InvokableTool = (*invokableTool)(nil)

func (r *Registry) InvokableTools() []tool.BaseTool {
	out := make([]tool.BaseTool, 0, len(r.order))
	for _, s := range r.Specs() {
		out = append(out, &invokableTool{reg: r, spec: s})
	}
	return out
}

// ToolInfos is what the completion service sees. customer_id is hidden on
// scoped tools because the Binder supplies it.
func (r *Registry) ToolInfos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(r.order))
	for _, s := range r.Specs() {
		out = append(out, toolInfo(s))
	}
	return out
}

// visibleParams drops the parameters the Binder fills in.
func visibleParams(s Spec) []Param {
	out := make([]Param, 0, len(s.Params))
	for _, p := range s.Params {
		if s.CustomerScoped && p.Name == CustomerIDParam {
			continue
		}
		out = append(out, p)
	}
	return out
}

func toolInfo(s Spec) *schema.ToolInfo {
	visible := visibleParams(s)
	params := make(map[string]*schema.ParameterInfo, len(visible))
	for _, p := range visible {
		params[p.Name] = &schema.ParameterInfo{
			Type:     p.Type,
			Desc:     p.Desc,
			Required: p.Required,
			Enum:     p.Enum,
		}
	}
	return &schema.ToolInfo{
		Name:        s.Name,
		Desc:        s.Desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

func (t *invokableTool) Info(context.Context) (*schema.ToolInfo, error) {
	return toolInfo(t.spec), nil
}

func (t *invokableTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	args := map[string]any{}
	if s := strings.TrimSpace(argumentsInJSON); s != "" && s != "null" {
		if err := json.Unmarshal([]byte(s), &args); err != nil {
			return t.reg.Reject(model.ToolCallRequest{ToolName: t.spec.Name}, errx.KindToolValidation,
				fmt.Sprintf("arguments are not a JSON object: %v", err)).JSON(), nil
		}
	}
	res := t.reg.Execute(ctx, model.ToolCallRequest{ToolName: t.spec.Name, Arguments: args})
	return res.JSON(), nil
}

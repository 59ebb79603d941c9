package prompts

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-support-router/server/internal/agent/model"
	"github.com/Chative-support-router/server/internal/retrieval"
)

//go:embed template/*.txt
var templateFS embed.FS

var templates = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).ParseFS(templateFS, "template/*.txt"))

// RenderClassifierSystem renders the intent classifier system prompt.
func RenderClassifierSystem(ctx context.Context) (string, error) {
	return render(ctx, "classifier.txt", map[string]any{
		"Labels": model.IntentLabels,
	})
}

// RenderAgentSystem renders the tool-calling agent system prompt.
func RenderAgentSystem(ctx context.Context, customerID int64, maxIterations int) (string, error) {
	return render(ctx, "agent.txt", map[string]any{
		"CustomerID":    customerID,
		"MaxIterations": maxIterations,
	})
}

// RenderRAGSystem renders the grounding prompt with numbered passages.
func RenderRAGSystem(ctx context.Context, passages []retrieval.Passage) (string, error) {
	return render(ctx, "rag.txt", map[string]any{
		"Passages": passages,
	})
}

func RenderGeneralSystem(ctx context.Context) (string, error) {
	return render(ctx, "general.txt", nil)
}

// render executes the named template and then passes the result through an
// Eino prompt template so prompt callbacks fire for every system prompt.
func render(ctx context.Context, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(buf.String())},
	})
	if err != nil {
		return "", fmt.Errorf("%s prompt callbacks: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt callbacks: empty result", name)
	}
	return msgs[0].Content, nil
}

package nodes

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-support-router/server/internal/agent/graph/prompts"
	"github.com/Chative-support-router/server/internal/agent/model"
	errx "github.com/Chative-support-router/server/internal/core/error"
)

type cannedRule struct {
	words   []string // whole words
	phrases []string // substrings
	reply   string
}

// Checked in order; the first match wins.
var generalRules = []cannedRule{
	{
		words:   []string{"hi", "hello", "hey"},
		phrases: []string{"привет", "здравствуй", "добрый день", "добрый вечер", "доброе утро"},
		reply:   MsgGreeting,
	},
	{
		words:   []string{"help", "помощь"},
		phrases: []string{"что ты можешь", "что можешь", "умеешь", "возможности", "помоги"},
		reply:   MsgCapabilities,
	},
	{
		phrases: []string{"спасибо", "благодарю", "thanks", "thank you"},
		reply:   MsgThanks,
	},
	{
		phrases: []string{"интересного", "interesting", "расскажешь", "tell me"},
		reply:   MsgInteresting,
	},
}

// CannedGeneralReply answers common small talk without a model call.
func CannedGeneralReply(query string) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(query))
	if text == "" {
		return "", false
	}
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, rule := range generalRules {
		for _, p := range rule.phrases {
			if strings.Contains(text, p) {
				return rule.reply, true
			}
		}
		for _, w := range words {
			for _, want := range rule.words {
				if w == want {
					return rule.reply, true
				}
			}
		}
	}
	return "", false
}

// NewGeneralNode handles small talk: canned replies first, then one model
// call, then the capabilities text when the model is unavailable.
func NewGeneralNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.IntentLabel) (*schema.Message, error) {
		var conversationID, query string
		withState(ctx, func(s *model.AppState) {
			conversationID, query = s.ConversationID, s.Query
		})

		if reply, ok := CannedGeneralReply(query); ok {
			withState(ctx, func(s *model.AppState) { setOutcome(s, BranchGeneral, "") })
			return schema.AssistantMessage(reply, nil), nil
		}

		systemPrompt, err := prompts.RenderGeneralSystem(ctx)
		if err != nil {
			return nil, fmt.Errorf("render general prompt: %w", err)
		}
		out, err := d.Response.Generate(ctx, withHistory(systemPrompt, d.Messages.History(ctx, conversationID), query))
		if err != nil {
			return nil, err
		}
		if _, failed := CompletionFailed(out); failed || strings.TrimSpace(out.Content) == "" {
			withState(ctx, func(s *model.AppState) {
				setOutcome(s, BranchGeneral, string(errx.KindCompletion))
			})
			return schema.AssistantMessage(MsgCapabilities, nil), nil
		}

		withState(ctx, func(s *model.AppState) {
			recordUsage(s, NodeGeneral, d.ResponseModelName, out)
			setOutcome(s, BranchGeneral, "")
		})
		return schema.AssistantMessage(out.Content, nil), nil
	})
}

package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-support-router/server/internal/agent/model"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

const DefaultMaxTurns = 6

// MessagesManager reads and writes the user/assistant exchange of a
// conversation. History is advisory: a failing repository degrades to an
// empty history instead of failing the turn.
type MessagesManager struct {
	conversationRepo model.ConversationRepository
	maxTurns         int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	maxTurns := config.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &MessagesManager{
		conversationRepo: conversationRepo,
		maxTurns:         maxTurns,
	}
}

// History returns the most recent stored messages, oldest first.
func (cm *MessagesManager) History(ctx context.Context, conversationID string) []*schema.Message {
	if cm == nil || cm.conversationRepo == nil || conversationID == "" {
		return nil
	}
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		logx.Warn().Err(err).Str("conversation_id", conversationID).Msg("Load history failed; continuing without it")
		return nil
	}
	if history == nil {
		return nil
	}
	return trimTail(history.Messages, cm.maxTurns)
}

// ClassifierContext renders recent turns plus the current message in the
// tagged form the classifier prompt expects.
func (cm *MessagesManager) ClassifierContext(ctx context.Context, conversationID, query string) string {
	var b strings.Builder
	b.WriteString("<conversation_context>\n")
	for _, msg := range cm.History(ctx, conversationID) {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			b.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	b.WriteString("</conversation_context>\n")
	b.WriteString("<current_message_to_analyze>\n")
	b.WriteString("UserMessage(" + query + ")\n")
	b.WriteString("</current_message_to_analyze>")
	return b.String()
}

// SaveTurn stores the user message and the final answer of one turn.
func (cm *MessagesManager) SaveTurn(ctx context.Context, conversationID, query, answer string) error {
	if cm == nil || cm.conversationRepo == nil || conversationID == "" {
		return nil
	}
	return cm.conversationRepo.Append(ctx, conversationID,
		schema.UserMessage(query),
		schema.AssistantMessage(answer, nil),
	)
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}

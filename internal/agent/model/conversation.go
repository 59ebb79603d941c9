package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository keeps the user/assistant exchange of one chat
// session so that the classifier and handlers see recent turns. Tool traffic
// is turn-local and never stored here.
type ConversationRepository interface {
	// Append stores messages at the end of the conversation in order.
	Append(ctx context.Context, conversationID string, messages ...*schema.Message) error

	// LoadHistory returns the stored messages, oldest first. An unknown
	// conversation yields an empty history, not an error.
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	ClearHistory(ctx context.Context, conversationID string) error

	MessageCount(ctx context.Context, conversationID string) (int, error)
}

type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}

package repo

import (
	"context"
	"sync"

	"github.com/Chative-support-router/server/internal/agent/model"
	"github.com/cloudwego/eino/schema"
)

// MemoryConversationRepository keeps conversations in process memory. It is
// the default when no Redis URL is configured; history dies with the process.
type MemoryConversationRepository struct {
	mu    sync.RWMutex
	convs map[string][]*schema.Message
	// maxMessages caps each conversation; older messages are dropped first.
	maxMessages int
}

func NewMemoryConversationRepository(maxMessages int) *MemoryConversationRepository {
	return &MemoryConversationRepository{
		convs:       make(map[string][]*schema.Message),
		maxMessages: maxMessages,
	}
}

func (r *MemoryConversationRepository) Append(_ context.Context, conversationID string, messages ...*schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.convs[conversationID]
	for _, m := range messages {
		if m == nil {
			continue
		}
		cp := *m
		msgs = append(msgs, &cp)
	}
	if r.maxMessages > 0 && len(msgs) > r.maxMessages {
		msgs = append([]*schema.Message(nil), msgs[len(msgs)-r.maxMessages:]...)
	}
	r.convs[conversationID] = msgs
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, conversationID string) (*model.ConversationHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.convs[conversationID]
	msgs := make([]*schema.Message, len(src))
	for i, m := range src {
		cp := *m
		msgs[i] = &cp
	}
	return &model.ConversationHistory{ConversationID: conversationID, Messages: msgs}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.convs, conversationID)
	return nil
}

func (r *MemoryConversationRepository) MessageCount(_ context.Context, conversationID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.convs[conversationID]), nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)

package conversations

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-support-router/server/internal/agent/model"
	"github.com/Chative-support-router/server/internal/agent/repo"
)

type brokenRepo struct{ model.ConversationRepository }

func (brokenRepo) LoadHistory(context.Context, string) (*model.ConversationHistory, error) {
	return nil, errors.New("redis down")
}

func TestSaveTurnAndHistory(t *testing.T) {
	ctx := context.Background()
	mm := NewMessagesManager(repo.NewMemoryConversationRepository(0), model.ConversationConfig{MaxTurns: 4})

	for i := 0; i < 3; i++ {
		require.NoError(t, mm.SaveTurn(ctx, "c1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}

	history := mm.History(ctx, "c1")
	require.Len(t, history, 4)
	assert.Equal(t, "q1", history[0].Content)
	assert.Equal(t, schema.User, history[0].Role)
	assert.Equal(t, "a2", history[3].Content)
	assert.Equal(t, schema.Assistant, history[3].Role)
}

func TestClassifierContext(t *testing.T) {
	ctx := context.Background()
	mm := NewMessagesManager(repo.NewMemoryConversationRepository(0), model.ConversationConfig{})
	require.NoError(t, mm.SaveTurn(ctx, "c1", "Где мой заказ?", "Укажите номер заказа"))

	out := mm.ClassifierContext(ctx, "c1", "1001")
	assert.Equal(t,
		"<conversation_context>\nUserMessage(Где мой заказ?)\nAssistantMessage(Укажите номер заказа)\n</conversation_context>\n"+
			"<current_message_to_analyze>\nUserMessage(1001)\n</current_message_to_analyze>",
		out)
}

func TestHistoryDegradesOnRepositoryError(t *testing.T) {
	mm := NewMessagesManager(brokenRepo{}, model.ConversationConfig{})
	assert.Empty(t, mm.History(context.Background(), "c1"))
	assert.Contains(t, mm.ClassifierContext(context.Background(), "c1", "hi"), "UserMessage(hi)")
}

func TestNilManagerIsNoop(t *testing.T) {
	var mm *MessagesManager
	assert.Nil(t, mm.History(context.Background(), "c1"))
	assert.NoError(t, mm.SaveTurn(context.Background(), "c1", "q", "a"))
}

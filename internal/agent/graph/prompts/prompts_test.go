package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-support-router/server/internal/retrieval"
)

func TestClassifierListsEveryLabel(t *testing.T) {
	out, err := RenderClassifierSystem(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "knowledge_query, data_query, general_chat, out_of_scope.")
}

func TestAgentPromptCarriesBudgetAndCustomer(t *testing.T) {
	out, err := RenderAgentSystem(context.Background(), 501, 5)
	require.NoError(t, err)
	assert.Contains(t, out, "customer #501")
	assert.Contains(t, out, "at most 5 model turns")
}

func TestRAGPromptNumbersPassages(t *testing.T) {
	out, err := RenderRAGSystem(context.Background(), []retrieval.Passage{
		{SourceID: "returns#0", Text: "Вы можете вернуть товар в течение 30 дней"},
		{SourceID: "orders#2", Text: "Отмена заказа"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "[1] (returns#0)\nВы можете вернуть товар в течение 30 дней")
	assert.Contains(t, out, "[2] (orders#2)")
}

func TestGeneralPrompt(t *testing.T) {
	out, err := RenderGeneralSystem(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

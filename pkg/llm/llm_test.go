package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidates(t *testing.T) {
	_, err := New(context.Background(), Options{Model: "gpt-4o-mini"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")

	_, err = New(context.Background(), Options{APIKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model name")
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Options{Provider: "ark", APIKey: "k", Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "ark"`)
}

func TestNewOpenAIBuildsWithoutNetwork(t *testing.T) {
	m, err := New(context.Background(), Options{
		Provider:    "OpenAI",
		APIKey:      "sk-test",
		BaseURL:     "http://127.0.0.1:1/v1/",
		Model:       "gpt-4o-mini",
		MaxTokens:   16,
		Temperature: 0,
	})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

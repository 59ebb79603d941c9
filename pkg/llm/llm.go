package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Options describes one chat model. Provider, APIKey and BaseURL are shared
// by the classifier and the response model; the rest differs per role.
type Options struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

func (o Options) validate() error {
	if strings.TrimSpace(o.APIKey) == "" {
		return fmt.Errorf("llm: api key is required")
	}
	if strings.TrimSpace(o.Model) == "" {
		return fmt.Errorf("llm: model name is required")
	}
	return nil
}

// New builds a tool-calling chat model for the configured provider.
// OpenAI-compatible endpoints go through the openai component and Gemini
// through the native genai client. Gemini calls are bounded by the caller's
// context deadline only.
func New(ctx context.Context, o Options) (model.ToolCallingChatModel, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(o.Provider)) {
	case "", ProviderOpenAI:
		return newOpenAI(ctx, o)
	case ProviderGemini:
		return newGemini(ctx, o)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", o.Provider)
	}
}

func newOpenAI(ctx context.Context, o Options) (model.ToolCallingChatModel, error) {
	temperature := o.Temperature
	conf := &openaimodel.ChatModelConfig{
		BaseURL:     strings.TrimRight(strings.TrimSpace(o.BaseURL), "/"),
		APIKey:      strings.TrimSpace(o.APIKey),
		Model:       strings.TrimSpace(o.Model),
		Temperature: &temperature,
		Timeout:     o.Timeout,
	}
	if o.MaxTokens > 0 {
		maxTokens := o.MaxTokens
		conf.MaxTokens = &maxTokens
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("openai: create chat model: %w", err)
	}
	return m, nil
}

func newGemini(ctx context.Context, o Options) (model.ToolCallingChatModel, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(o.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if o.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = o.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	temperature := o.Temperature
	conf := &gemini.Config{
		Client:      client,
		Model:       strings.TrimSpace(o.Model),
		Temperature: &temperature,
	}
	if o.MaxTokens > 0 {
		maxTokens := o.MaxTokens
		conf.MaxTokens = &maxTokens
	}

	m, err := gemini.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("gemini: create chat model: %w", err)
	}
	return m, nil
}

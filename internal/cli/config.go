package cli

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Chative-support-router/server/internal/agent/model"
	"github.com/Chative-support-router/server/pkg/config"
	pkgredis "github.com/Chative-support-router/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the bot, sourced from
// environment variables and an optional config file.
type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis pkgredis.Config
	Store model.StoreConfig

	// LLM provider
	LLM        model.LLMConfig
	Classifier model.ClassifierModelConfig
	Response   model.ResponseModelConfig

	// Agent configs
	Conversation model.ConversationConfig
	Agent        model.AgentConfig
	Retrieval    model.RetrievalConfig
	Customer     model.CustomerConfig
	Server       model.ServerConfig
}

type configLimits struct {
	CustomerID    int64  `validate:"gt=0"`
	TopK          int    `validate:"gte=1,lte=20"`
	MaxIterations int    `validate:"gte=1,lte=20"`
	ChunkSize     int    `validate:"gte=50"`
	ChunkOverlap  int    `validate:"gte=0,ltfield=ChunkSize"`
	Backend       string `validate:"oneof=memory weaviate"`
	WeaviateURL   string `validate:"omitempty,url"`
	Provider      string `validate:"oneof=openai gemini"`
	StorePath     string `validate:"required"`
	MaxTurns      int    `validate:"gte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads AppConfig from file (optional) and the environment.
func LoadConfig(file string) (*AppConfig, error) {
	cfg, err := config.Load[AppConfig]("", file)
	if err != nil {
		return nil, err
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Retrieval.Backend = strings.ToLower(strings.TrimSpace(cfg.Retrieval.Backend))
	return cfg, nil
}

// Validate checks the values the wiring depends on.
func (c *AppConfig) Validate() error {
	limits := configLimits{
		CustomerID:    c.Customer.ID,
		TopK:          c.Retrieval.TopK,
		MaxIterations: c.Agent.MaxIterations,
		ChunkSize:     c.Retrieval.ChunkSize,
		ChunkOverlap:  c.Retrieval.ChunkOverlap,
		Backend:       c.Retrieval.Backend,
		WeaviateURL:   c.Retrieval.WeaviateURL,
		Provider:      c.LLM.Provider,
		StorePath:     c.Store.Path,
		MaxTurns:      c.Conversation.MaxTurns,
	}
	if err := validate.Struct(limits); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidateLLM is checked only by commands that talk to the model.
func (c *AppConfig) ValidateLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("invalid config: LLM_API_KEY is required")
	}
	return nil
}

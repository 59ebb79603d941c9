package model

import "time"

// ================ Config ================

type LLMConfig struct {
	Provider string        `envconfig:"LLM_PROVIDER" default:"openai"`
	APIKey   string        `envconfig:"LLM_API_KEY"`
	BaseURL  string        `envconfig:"LLM_BASE_URL"`
	Timeout  time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
}

type ClassifierModelConfig struct {
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gpt-4o-mini"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"16"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0"`
}

type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gpt-4o-mini"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"1500"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.1"`
}

type ConversationConfig struct {
	TTL      time.Duration `envconfig:"CONVERSATION_TTL" default:"15m"`
	MaxTurns int           `envconfig:"CONVERSATION_MAX_TURNS" default:"6"`
}

type AgentConfig struct {
	MaxIterations int           `envconfig:"AGENT_MAX_ITERATIONS" default:"5"`
	ToolTimeout   time.Duration `envconfig:"AGENT_TOOL_TIMEOUT" default:"10s"`
}

type RetrievalConfig struct {
	Backend       string `envconfig:"RETRIEVAL_BACKEND" default:"memory"`
	TopK          int    `envconfig:"RETRIEVAL_TOP_K" default:"3"`
	ChunkSize     int    `envconfig:"RETRIEVAL_CHUNK_SIZE" default:"400"`
	ChunkOverlap  int    `envconfig:"RETRIEVAL_CHUNK_OVERLAP" default:"40"`
	WeaviateURL   string `envconfig:"WEAVIATE_URL" default:"http://localhost:8080"`
	WeaviateClass string `envconfig:"WEAVIATE_CLASS" default:"SupportChunk"`
}

type StoreConfig struct {
	Path          string `envconfig:"STORE_PATH" default:"supportbot.db"`
	BusyTimeoutMS int    `envconfig:"STORE_BUSY_TIMEOUT_MS" default:"5000"`
	Seed          bool   `envconfig:"STORE_SEED" default:"true"`
}

// CustomerConfig holds the single "current customer" every customer-scoped
// tool is bound to.
type CustomerConfig struct {
	ID int64 `envconfig:"CUSTOMER_ID" default:"501"`
}

type ServerConfig struct {
	Addr string `envconfig:"SERVER_ADDR" default:":8000"`
}

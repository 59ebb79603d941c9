package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Chative-support-router/server/internal/agent/graph"
	"github.com/Chative-support-router/server/internal/agent/graph/conversations"
	"github.com/Chative-support-router/server/internal/agent/graph/tools"
	"github.com/Chative-support-router/server/internal/agent/model"
	"github.com/Chative-support-router/server/internal/agent/repo"
	"github.com/Chative-support-router/server/internal/metrics"
	"github.com/Chative-support-router/server/internal/retrieval"
	"github.com/Chative-support-router/server/internal/store"
	"github.com/Chative-support-router/server/pkg/llm"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

// memoryHistoryLimit caps messages per conversation in the in-memory repo.
const memoryHistoryLimit = 200

// App is the wired object graph shared by the commands.
type App struct {
	Config   *AppConfig
	Store    *store.Store
	Index    *retrieval.LexicalIndex
	Searcher retrieval.Searcher
	Registry *tools.Registry
	Recorder *metrics.Recorder

	redis *goredis.Client
}

// openApp wires everything that does not need the completion service.
func openApp(ctx context.Context, cfg *AppConfig) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Recorder: metrics.New()}

	st, err := store.Open(ctx, store.Config{
		Path:        cfg.Store.Path,
		BusyTimeout: time.Duration(cfg.Store.BusyTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	app.Store = st
	if cfg.Store.Seed {
		seeded, err := st.Seed(ctx)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("seed store: %w", err)
		}
		if seeded {
			logx.Info().Str("path", cfg.Store.Path).Msg("Seeded demo data")
		}
	}

	app.Index, err = retrieval.NewKnowledgeBaseIndex(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("build knowledge base index: %w", err)
	}
	app.Searcher = app.Index
	if cfg.Retrieval.Backend == "weaviate" {
		client, err := retrieval.NewWeaviateClient(cfg.Retrieval.WeaviateURL)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Searcher = retrieval.NewWeaviateSearcher(client, cfg.Retrieval.WeaviateClass)
	}

	app.Registry, err = tools.NewRegistry(cfg.Customer.ID,
		tools.Catalog(tools.Deps{
			Store:    st,
			Searcher: app.Searcher,
			TopK:     cfg.Retrieval.TopK,
		}),
		tools.WithTimeout(cfg.Agent.ToolTimeout),
		tools.WithResultHook(func(r model.ToolResult) {
			outcome := "ok"
			if !r.Success {
				outcome = r.Kind
			}
			app.Recorder.ToolCall(r.ToolName, outcome)
		}),
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("build tool registry: %w", err)
	}
	return app, nil
}

func (a *App) conversationRepo(ctx context.Context) (model.ConversationRepository, error) {
	if !a.Config.Redis.Enabled() {
		logx.Debug().Msg("REDIS_URL not set; keeping history in memory")
		return repo.NewMemoryConversationRepository(memoryHistoryLimit), nil
	}
	rdb, err := a.Config.Redis.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.redis = rdb
	return repo.NewRedisConversationRepository(rdb, a.Config.Conversation.TTL), nil
}

// Runner wires the completion service and compiles the routing graph.
func (a *App) Runner(ctx context.Context) (graph.Runner, error) {
	cfg := a.Config
	if err := cfg.ValidateLLM(); err != nil {
		return nil, err
	}

	classifier, err := llm.New(ctx, llm.Options{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.Classifier.Model,
		MaxTokens:   cfg.Classifier.MaxTokens,
		Temperature: cfg.Classifier.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}
	response, err := llm.New(ctx, llm.Options{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.Response.Model,
		MaxTokens:   cfg.Response.MaxTokens,
		Temperature: cfg.Response.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}

	conversationRepo, err := a.conversationRepo(ctx)
	if err != nil {
		return nil, err
	}

	return graph.BuildGraph(ctx, &graph.GraphConfig{
		ClassifierModel:     classifier,
		ClassifierModelName: cfg.Classifier.Model,
		ResponseModel:       response,
		ResponseModelName:   cfg.Response.Model,
		CompletionTimeout:   cfg.LLM.Timeout,
		Registry:            a.Registry,
		Searcher:            a.Searcher,
		TopK:                cfg.Retrieval.TopK,
		MessagesManager:     conversations.NewMessagesManager(conversationRepo, cfg.Conversation),
		MaxIterations:       cfg.Agent.MaxIterations,
		Recorder:            a.Recorder,
	})
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

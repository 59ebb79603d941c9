package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/Chative-support-router/server/internal/agent/graph/conversations"
	"github.com/Chative-support-router/server/internal/agent/graph/nodes"
	"github.com/Chative-support-router/server/internal/agent/graph/observers"
	"github.com/Chative-support-router/server/internal/agent/graph/tools"
	"github.com/Chative-support-router/server/internal/agent/model"
	errx "github.com/Chative-support-router/server/internal/core/error"
	"github.com/Chative-support-router/server/internal/metrics"
	"github.com/Chative-support-router/server/internal/retrieval"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

// Runner executes one turn and always yields exactly one reply unless the
// caller's context is canceled.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (model.Reply, error)
}

// GraphConfig holds all configuration needed to build the graph.
type GraphConfig struct {
	ClassifierModel     einomodel.ToolCallingChatModel
	ClassifierModelName string
	ResponseModel       einomodel.ToolCallingChatModel
	ResponseModelName   string
	// CompletionTimeout bounds every single completion call.
	CompletionTimeout time.Duration

	Registry        *tools.Registry
	Searcher        retrieval.Searcher
	TopK            int
	MessagesManager *conversations.MessagesManager
	MaxIterations   int

	Recorder *metrics.Recorder
}

// GraphBuilder handles the construction of the routing graph.
type GraphBuilder struct {
	config *GraphConfig
	deps   *nodes.Deps
	graph  *compose.Graph[model.QueryInput, model.Reply]

	classifier *nodes.GuardedModel
	agentModel einomodel.ToolCallingChatModel
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, model.Reply]
	recorder *metrics.Recorder
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (model.Reply, error) {
	start := time.Now()
	if strings.TrimSpace(in.ConversationID) == "" {
		in.ConversationID = uuid.NewString()
	}
	if strings.TrimSpace(in.Query) == "" {
		return model.Reply{
			ConversationID: in.ConversationID,
			Content:        nodes.MsgEmptyQuery,
			Intent:         model.IntentOutOfScope,
			Branch:         nodes.BranchDecline,
		}, nil
	}

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		if ctx.Err() != nil {
			return model.Reply{}, ctx.Err()
		}
		logx.Error().Err(err).Str("conversation_id", in.ConversationID).Msg("Graph run failed; replying with apology")
		out = model.Reply{
			ConversationID: in.ConversationID,
			Content:        nodes.MsgServiceUnavailable,
			Intent:         model.IntentOutOfScope,
			FallbackKind:   string(errx.KindInternal),
		}
		r.recorder.Fallback(out.Branch, out.FallbackKind)
	}
	r.recorder.Turn(out.Intent.String(), out.Branch, time.Since(start))
	return out, nil
}

// BuildGraph constructs the compiled routing graph.
func BuildGraph(ctx context.Context, config *GraphConfig) (Runner, error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}

	onFailure := func(stage string, _ error) {
		config.Recorder.CompletionFailure(stage)
	}
	response := nodes.NewGuardedModel(config.ResponseModel, config.CompletionTimeout, onFailure)

	builder := &GraphBuilder{
		config: config,
		deps: &nodes.Deps{
			Response:          response.ForStage(nodes.StageRAG),
			ResponseModelName: config.ResponseModelName,
			Messages:          config.MessagesManager,
			Searcher:          config.Searcher,
			TopK:              config.TopK,
			CustomerID:        config.Registry.Binder().CustomerID(),
			MaxIterations:     config.MaxIterations,
			Recorder:          config.Recorder,
		},
		graph: compose.NewGraph[model.QueryInput, model.Reply](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
		classifier: nodes.NewGuardedModel(config.ClassifierModel, config.CompletionTimeout, onFailure).ForStage(nodes.StageClassify),
	}

	if err := builder.setupTools(ctx, response.ForStage(nodes.StageAgent)); err != nil {
		return nil, err
	}
	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	builder.addEdges()
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	runnable, err := builder.compile(ctx)
	if err != nil {
		return nil, err
	}
	logx.Debug().Msg("Routing graph built successfully")
	return &graphRunner{runnable: runnable, recorder: config.Recorder}, nil
}

// setupTools binds the registry to the agent model and adds the tools node.
func (b *GraphBuilder) setupTools(ctx context.Context, agent *nodes.GuardedModel) error {
	reg := b.config.Registry

	agentModel, err := agent.WithTools(reg.ToolInfos())
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to agent model")
		return fmt.Errorf("failed to bind tools to agent model: %w", err)
	}
	b.agentModel = agentModel

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               reg.InvokableTools(),
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown tool call; returning failed result")
			return reg.Execute(ctx, model.ToolCallRequest{ToolName: name}).JSON(), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	return b.graph.AddToolsNode(nodes.NodeAgentTools, toolsNode,
		compose.WithStatePreHandler(nodes.NewAgentToolsPreHandler()),
	)
}

// addNodes adds all processing nodes to the graph.
func (b *GraphBuilder) addNodes() error {
	general := *b.deps
	general.Response = general.Response.ForStage(nodes.StageGeneral)

	steps := []func() error{
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeClassifyInput,
				nodes.NewClassifyInputNode(b.config.MessagesManager),
				compose.WithStatePreHandler(nodes.NewClassifyInputPreHandler(b.config.MaxIterations)),
			)
		},
		func() error {
			return b.graph.AddChatModelNode(nodes.NodeClassifyModel, b.classifier,
				compose.WithStatePostHandler(nodes.NewUsagePostHandler(nodes.NodeClassifyModel, b.config.ClassifierModelName)),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeIntentParser, nodes.NewIntentParserNode(),
				compose.WithStatePostHandler(nodes.NewIntentParserPostHandler()),
			)
		},
		func() error { return b.graph.AddLambdaNode(nodes.NodeRAG, nodes.NewRAGNode(b.deps)) },
		func() error { return b.graph.AddLambdaNode(nodes.NodeGeneral, nodes.NewGeneralNode(&general)) },
		func() error { return b.graph.AddLambdaNode(nodes.NodeDecline, nodes.NewDeclineNode()) },
		func() error { return b.graph.AddLambdaNode(nodes.NodeAgentPrepare, nodes.NewAgentPrepareNode(b.deps)) },
		func() error {
			return b.graph.AddChatModelNode(nodes.NodeAgentModel, b.agentModel,
				compose.WithStatePreHandler(nodes.NewAgentModelPreHandler()),
				compose.WithStatePostHandler(nodes.NewAgentModelPostHandler(b.config.ResponseModelName)),
			)
		},
		func() error { return b.graph.AddLambdaNode(nodes.NodeAgentFinalize, nodes.NewAgentFinalizeNode(b.deps)) },
		func() error { return b.graph.AddLambdaNode(nodes.NodeReply, nodes.NewReplyNode(b.deps)) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			logx.Error().Err(err).Msg("Error adding graph node")
			return fmt.Errorf("error adding graph node: %w", err)
		}
	}
	return nil
}

// addEdges creates the fixed connections between nodes.
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeClassifyInput},
		{nodes.NodeClassifyInput, nodes.NodeClassifyModel},
		{nodes.NodeClassifyModel, nodes.NodeIntentParser},
		{nodes.NodeAgentPrepare, nodes.NodeAgentModel},
		{nodes.NodeAgentTools, nodes.NodeAgentModel},
		{nodes.NodeRAG, nodes.NodeReply},
		{nodes.NodeGeneral, nodes.NodeReply},
		{nodes.NodeDecline, nodes.NodeReply},
		{nodes.NodeAgentFinalize, nodes.NodeReply},
		{nodes.NodeReply, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates the intent router and the agent loop branch.
func (b *GraphBuilder) addBranches() error {
	intentBranch := compose.NewGraphBranch(nodes.NewIntentCondition(), nodes.BranchNodes())
	if err := b.graph.AddBranch(nodes.NodeIntentParser, intentBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding intent branch")
		return fmt.Errorf("error adding intent branch: %w", err)
	}

	agentBranch := compose.NewGraphBranch(
		nodes.NewAgentCondition(),
		map[string]bool{
			nodes.NodeAgentTools:    true,
			nodes.NodeAgentFinalize: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeAgentModel, agentBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding agent branch")
		return fmt.Errorf("error adding agent branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, model.Reply], error) {
	// classify (3) + agent entry, finalize and reply (3) + two steps per iteration
	maxIterations := b.config.MaxIterations
	if maxIterations <= 0 {
		maxIterations = nodes.DefaultMaxIterations
	}
	maxSteps := 10 + maxIterations*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}

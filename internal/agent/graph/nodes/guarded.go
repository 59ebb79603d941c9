package nodes

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	errx "github.com/Chative-support-router/server/internal/core/error"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

// ExtraCompletionError marks an assistant message that stands in for a
// failed completion call.
const ExtraCompletionError = "completion_error"

var errEmptyCompletion = errors.New("completion returned no message")

// FailureHook observes completion faults, e.g. for metrics.
type FailureHook func(stage string, err error)

// GuardedModel turns completion faults into data. Generate never fails for
// timeouts or provider errors; it returns an empty assistant message tagged
// with ExtraCompletionError instead. Only cancellation of the caller's
// context is returned as an error, so an abandoned turn stops.
type GuardedModel struct {
	inner     einomodel.ToolCallingChatModel
	stage     string
	timeout   time.Duration
	onFailure FailureHook
}

var _ einomodel.ToolCallingChatModel = (*GuardedModel)(nil)

func NewGuardedModel(inner einomodel.ToolCallingChatModel, timeout time.Duration, onFailure FailureHook) *GuardedModel {
	return &GuardedModel{inner: inner, timeout: timeout, onFailure: onFailure}
}

// ForStage returns a copy that reports failures under stage.
func (g *GuardedModel) ForStage(stage string) *GuardedModel {
	cp := *g
	cp.stage = stage
	return &cp
}

func (g *GuardedModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	out, err := g.generate(callCtx, input, opts...)
	if err == nil && out == nil {
		err = errEmptyCompletion
	}
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	logx.Warn().Err(err).Str("stage", g.stage).Msg("Completion call failed; degrading")
	if g.onFailure != nil {
		g.onFailure(g.stage, err)
	}
	return failedCompletion(err), nil
}

func (g *GuardedModel) generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (out *schema.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errx.Newf(errx.KindCompletion, "completion panicked: %v", r)
		}
	}()
	if g.inner == nil {
		return nil, errx.Newf(errx.KindCompletion, "no completion model configured")
	}
	return g.inner.Generate(ctx, input, opts...)
}

// Stream degrades to a single-chunk stream over Generate.
func (g *GuardedModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := g.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func (g *GuardedModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	if g.inner == nil {
		return g, nil
	}
	inner, err := g.inner.WithTools(tools)
	if err != nil {
		return nil, err
	}
	cp := *g
	cp.inner = inner
	return &cp, nil
}

// IsCallbacksEnabled lets the wrapped provider keep emitting its own
// callbacks instead of the graph wrapping this node.
func (g *GuardedModel) IsCallbacksEnabled() bool {
	if c, ok := g.inner.(components.Checker); ok {
		return c.IsCallbacksEnabled()
	}
	return false
}

func failedCompletion(err error) *schema.Message {
	msg := schema.AssistantMessage("", nil)
	msg.Extra = map[string]any{ExtraCompletionError: err.Error()}
	return msg
}

// CompletionFailed reports whether msg is a degraded stand-in produced by
// GuardedModel, and the reason.
func CompletionFailed(msg *schema.Message) (string, bool) {
	if msg == nil {
		return errEmptyCompletion.Error(), true
	}
	reason, ok := msg.Extra[ExtraCompletionError].(string)
	return reason, ok
}

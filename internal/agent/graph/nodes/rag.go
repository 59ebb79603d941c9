package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-support-router/server/internal/agent/graph/prompts"
	"github.com/Chative-support-router/server/internal/agent/model"
	errx "github.com/Chative-support-router/server/internal/core/error"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

const DefaultTopK = 3

// NewRAGNode answers from the top-K knowledge base passages. It never calls
// the model without passages.
func NewRAGNode(d *Deps) *compose.Lambda {
	topK := d.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return compose.InvokableLambda(func(ctx context.Context, _ model.IntentLabel) (*schema.Message, error) {
		var conversationID, query string
		withState(ctx, func(s *model.AppState) {
			conversationID, query = s.ConversationID, s.Query
		})

		if d.Searcher == nil {
			return ragFallback(ctx, MsgRetrievalFailed, errx.KindRetrieval), nil
		}
		passages, err := d.Searcher.Search(ctx, query, topK)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logx.Warn().Err(err).Str("conversation_id", conversationID).Msg("Knowledge base search failed")
			return ragFallback(ctx, MsgRetrievalFailed, errx.KindRetrieval), nil
		}
		d.Recorder.RetrievalPassages(len(passages))
		if len(passages) == 0 {
			logx.Debug().Str("query", query).Msg("No passages found")
			return ragFallback(ctx, MsgInsufficientInfo, errx.KindRetrieval), nil
		}

		systemPrompt, err := prompts.RenderRAGSystem(ctx, passages)
		if err != nil {
			return nil, fmt.Errorf("render rag prompt: %w", err)
		}
		msgs := withHistory(systemPrompt, d.Messages.History(ctx, conversationID), query)

		out, err := d.Response.Generate(ctx, msgs)
		if err != nil {
			return nil, err
		}
		if _, failed := CompletionFailed(out); failed {
			return ragFallback(ctx, MsgServiceUnavailable, errx.KindCompletion), nil
		}

		withState(ctx, func(s *model.AppState) {
			recordUsage(s, NodeRAG, d.ResponseModelName, out)
			setOutcome(s, BranchRAG, "")
		})
		return schema.AssistantMessage(out.Content, nil), nil
	})
}

func ragFallback(ctx context.Context, text string, kind errx.Kind) *schema.Message {
	withState(ctx, func(s *model.AppState) {
		setOutcome(s, BranchRAG, string(kind))
	})
	return schema.AssistantMessage(text, nil)
}

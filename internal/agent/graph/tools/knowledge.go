package tools

import (
	"context"
	"errors"

	"github.com/Chative-support-router/server/internal/retrieval"
)

type searchInput struct {
	Query string `json:"query" validate:"required"`
}

type knowledgeHit struct {
	retrieval.Passage
	Context []string `json:"context,omitempty"`
}

func (c *catalog) searchKnowledgeBase(ctx context.Context, in *searchInput) (any, error) {
	if c.Searcher == nil {
		return nil, errors.New("knowledge base is not configured")
	}
	passages, err := c.Searcher.Search(ctx, in.Query, c.TopK)
	if err != nil {
		return nil, err
	}

	hits := make([]knowledgeHit, 0, len(passages))
	ns, expand := c.Searcher.(NeighborSource)
	for _, p := range passages {
		h := knowledgeHit{Passage: p}
		if expand {
			for _, n := range ns.Neighbors(p.SourceID) {
				h.Context = append(h.Context, n.Text)
			}
		}
		hits = append(hits, h)
	}

	out := payload{"query": in.Query, "passages": hits, "count": len(hits)}
	if len(hits) == 0 {
		out["message"] = "В базе знаний нет подходящих материалов"
	}
	return out, nil
}

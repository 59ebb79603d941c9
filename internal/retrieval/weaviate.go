package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const (
	DefaultWeaviateClass = "SupportChunk"
	indexBatchSize       = 50
)

// NewWeaviateClient builds a client from a URL such as http://localhost:8080.
func NewWeaviateClient(rawURL string) (*weaviate.Client, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("weaviate url is required")
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse weaviate url: %w", err)
	}

	client, err := weaviate.NewClient(weaviate.Config{Host: u.Host, Scheme: u.Scheme})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return client, nil
}

// WeaviateSearcher runs BM25 queries against a Weaviate class holding
// knowledge-base chunks.
type WeaviateSearcher struct {
	client *weaviate.Client
	class  string
}

func NewWeaviateSearcher(client *weaviate.Client, class string) *WeaviateSearcher {
	if class == "" {
		class = DefaultWeaviateClass
	}
	return &WeaviateSearcher{client: client, class: class}
}

func (w *WeaviateSearcher) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	query = normalizeQuery(query)
	if k <= 0 || query == "" {
		return nil, nil
	}

	fields := []graphql.Field{
		{Name: "sourceId"},
		{Name: "text"},
		{Name: "_additional { score }"},
	}
	result, err := w.client.GraphQL().Get().
		WithClassName(w.class).
		WithFields(fields...).
		WithBM25(w.client.GraphQL().Bm25ArgBuilder().WithQuery(query).WithProperties("text")).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("bm25 search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("search error: %s", result.Errors[0].Message)
	}

	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	objects, ok := data[w.class].([]interface{})
	if !ok {
		return nil, nil
	}

	out := make([]Passage, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, Passage{
			SourceID: getString(m, "sourceId"),
			Text:     getString(m, "text"),
			Score:    additionalScore(m),
		})
	}
	sortPassages(out)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// EnsureClass creates the chunk class when it does not exist yet.
func (w *WeaviateSearcher) EnsureClass(ctx context.Context) error {
	if _, err := w.client.Schema().ClassGetter().WithClassName(w.class).Do(ctx); err == nil {
		return nil
	}

	class := &models.Class{
		Class:       w.class,
		Description: "Customer support knowledge base chunks",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "sourceId", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "source", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "chunkIndex", DataType: []string{"int"}},
			{Name: "text", DataType: []string{"text"}},
		},
	}
	if err := w.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", w.class, err)
	}
	return nil
}

// Index imports chunks in batches and returns how many were stored.
func (w *WeaviateSearcher) Index(ctx context.Context, chunks []Chunk) (int, error) {
	indexed := 0
	for i := 0; i < len(chunks); i += indexBatchSize {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		end := min(i+indexBatchSize, len(chunks))

		objects := make([]*models.Object, 0, end-i)
		for _, c := range chunks[i:end] {
			objects = append(objects, &models.Object{
				Class: w.class,
				Properties: map[string]interface{}{
					"sourceId":   c.SourceID,
					"source":     c.Source,
					"chunkIndex": c.Index,
					"text":       c.Text,
				},
			})
		}

		result, err := w.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return indexed, fmt.Errorf("batch import: %w", err)
		}
		for _, obj := range result {
			if obj.Result == nil || obj.Result.Errors == nil {
				indexed++
			}
		}
	}
	return indexed, nil
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// additionalScore reads _additional.score, which Weaviate serializes as a
// string for BM25 queries.
func additionalScore(m map[string]interface{}) float64 {
	extra, ok := m["_additional"].(map[string]interface{})
	if !ok {
		return 0
	}
	switch v := extra["score"].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

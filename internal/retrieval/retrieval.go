package retrieval

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed kb/*.md
var knowledgeBase embed.FS

// Passage is one retrieved knowledge-base chunk.
type Passage struct {
	SourceID string  `json:"source_id"`
	Text     string  `json:"text"`
	Score    float64 `json:"relevance_score"`
}

// Searcher returns up to k passages ordered by descending score. Identical
// index state and query must give identical results.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Passage, error)
}

// Document is a source file of the knowledge base.
type Document struct {
	Name string
	Text string
}

type Chunk struct {
	SourceID string
	Source   string
	Index    int
	Text     string
}

// KnowledgeBase returns the bundled support articles.
func KnowledgeBase() fs.FS {
	sub, err := fs.Sub(knowledgeBase, "kb")
	if err != nil {
		panic(err)
	}
	return sub
}

// LoadDocuments reads every markdown file at the root of fsys in name order.
func LoadDocuments(fsys fs.FS) ([]Document, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}

	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		raw, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		docs = append(docs, Document{Name: e.Name(), Text: string(raw)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func sortPassages(ps []Passage) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Score != ps[j].Score {
			return ps[i].Score > ps[j].Score
		}
		return ps[i].SourceID < ps[j].SourceID
	})
}

func sourceID(name string, index int) string {
	return fmt.Sprintf("%s#%d", name, index)
}

func normalizeQuery(q string) string {
	return strings.TrimSpace(q)
}

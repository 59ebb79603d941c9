package retrieval

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 400
	DefaultChunkOverlap = 40
)

var markdownSeparators = []string{
	"\n# ", "\n## ", "\n### ", "\n#### ",
	"\n\n", "\n", " ", "",
}

type Chunker struct {
	splitter textsplitter.TextSplitter
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators(markdownSeparators),
		),
	}
}

// Split chunks each document. Chunk indexes are dense per document.
func (c *Chunker) Split(docs []Document) ([]Chunk, error) {
	var chunks []Chunk
	for _, d := range docs {
		parts, err := c.splitter.SplitText(d.Text)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", d.Name, err)
		}
		idx := 0
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			chunks = append(chunks, Chunk{
				SourceID: sourceID(d.Name, idx),
				Source:   d.Name,
				Index:    idx,
				Text:     p,
			})
			idx++
		}
	}
	return chunks, nil
}

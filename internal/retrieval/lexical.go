package retrieval

import (
	"context"
	"math"
	"strings"
	"unicode"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75

	// stemLength is the rune prefix kept per token so inflected forms
	// ("возвратов", "возврат") share a term.
	stemLength = 5
)

var stopWords = map[string]struct{}{
	"и": {}, "в": {}, "во": {}, "на": {}, "с": {}, "со": {}, "по": {}, "про": {},
	"о": {}, "об": {}, "что": {}, "как": {}, "а": {}, "но": {}, "ли": {}, "мой": {},
	"моя": {}, "мое": {}, "мне": {}, "я": {}, "у": {}, "к": {}, "для": {}, "это": {},
	"the": {}, "a": {}, "an": {}, "of": {}, "to": {}, "is": {}, "my": {}, "and": {},
	"in": {}, "on": {}, "for": {}, "what": {}, "how": {},
}

// LexicalIndex is an immutable in-memory BM25 index. It is safe for
// concurrent use.
type LexicalIndex struct {
	chunks   []Chunk
	terms    []map[string]int
	lengths  []int
	avgLen   float64
	docFreq  map[string]int
	position map[string]int
}

func NewLexicalIndex(chunks []Chunk) *LexicalIndex {
	ix := &LexicalIndex{
		chunks:   append([]Chunk(nil), chunks...),
		terms:    make([]map[string]int, len(chunks)),
		lengths:  make([]int, len(chunks)),
		docFreq:  make(map[string]int),
		position: make(map[string]int, len(chunks)),
	}

	total := 0
	for i, c := range ix.chunks {
		ix.position[c.SourceID] = i
		tf := make(map[string]int)
		toks := tokenize(c.Text)
		for _, t := range toks {
			tf[t]++
		}
		for t := range tf {
			ix.docFreq[t]++
		}
		ix.terms[i] = tf
		ix.lengths[i] = len(toks)
		total += len(toks)
	}
	if len(chunks) > 0 {
		ix.avgLen = float64(total) / float64(len(chunks))
	}
	return ix
}

// NewKnowledgeBaseIndex chunks and indexes the bundled knowledge base.
func NewKnowledgeBaseIndex(chunkSize, overlap int) (*LexicalIndex, error) {
	docs, err := LoadDocuments(KnowledgeBase())
	if err != nil {
		return nil, err
	}
	chunks, err := NewChunker(chunkSize, overlap).Split(docs)
	if err != nil {
		return nil, err
	}
	return NewLexicalIndex(chunks), nil
}

func (ix *LexicalIndex) Len() int {
	return len(ix.chunks)
}

func (ix *LexicalIndex) Chunks() []Chunk {
	return append([]Chunk(nil), ix.chunks...)
}

func (ix *LexicalIndex) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query = normalizeQuery(query)
	if k <= 0 || query == "" || len(ix.chunks) == 0 {
		return nil, nil
	}

	qTerms := uniqueTerms(tokenize(query))
	if len(qTerms) == 0 {
		return nil, nil
	}

	n := float64(len(ix.chunks))
	var out []Passage
	for i, tf := range ix.terms {
		score := 0.0
		for _, t := range qTerms {
			f := float64(tf[t])
			if f == 0 {
				continue
			}
			df := float64(ix.docFreq[t])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			norm := f + bm25K1*(1-bm25B+bm25B*float64(ix.lengths[i])/ix.avgLen)
			score += idf * f * (bm25K1 + 1) / norm
		}
		if score > 0 {
			out = append(out, Passage{
				SourceID: ix.chunks[i].SourceID,
				Text:     ix.chunks[i].Text,
				Score:    score,
			})
		}
	}

	sortPassages(out)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// Neighbors returns the chunks directly before and after sourceID within
// the same document.
func (ix *LexicalIndex) Neighbors(id string) []Chunk {
	i, ok := ix.position[id]
	if !ok {
		return nil
	}
	var out []Chunk
	for _, j := range []int{i - 1, i + 1} {
		if j < 0 || j >= len(ix.chunks) {
			continue
		}
		if ix.chunks[j].Source == ix.chunks[i].Source {
			out = append(out, ix.chunks[j])
		}
	}
	return out
}

func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := words[:0]
	for _, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, stem(strings.ReplaceAll(w, "ё", "е")))
	}
	return out
}

func stem(w string) string {
	r := []rune(w)
	if len(r) <= stemLength {
		return w
	}
	return string(r[:stemLength])
}

func uniqueTerms(toks []string) []string {
	seen := make(map[string]struct{}, len(toks))
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

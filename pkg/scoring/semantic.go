package scoring

import (
	"math"
	"strings"

	"github.com/benreceveur/claude-workflow-engine/pkg/catalog"
	"github.com/benreceveur/claude-workflow-engine/pkg/feature"
)

// Index is a TF-IDF index over a catalog snapshot. Semantic similarity here
// is deliberately a lexical statistic, not a learned embedding: cosine
// similarity between the prompt's term vector and each entry's document
// (description plus all declared keywords).
type Index struct {
	idf  map[string]float64
	docs map[string]map[string]float64
}

func docKey(kind catalog.Kind, id string) string {
	return string(kind) + "/" + id
}

// NewIndex builds the index over all entries of a snapshot. A nil or empty
// snapshot yields a usable index that scores everything 0.
func NewIndex(entries ...[]catalog.Entry) *Index {
	x := &Index{
		idf:  make(map[string]float64),
		docs: make(map[string]map[string]float64),
	}

	raw := make(map[string]map[string]float64)
	df := make(map[string]int)
	total := 0

	for _, group := range entries {
		for _, e := range group {
			terms := termCounts(entryDocument(e))
			if len(terms) == 0 {
				continue
			}
			raw[docKey(e.Kind, e.ID)] = terms
			for term := range terms {
				df[term]++
			}
			total++
		}
	}

	for term, n := range df {
		x.idf[term] = math.Log(1.0 + float64(total)/float64(1+n))
	}

	for key, terms := range raw {
		x.docs[key] = x.vectorize(terms)
	}
	return x
}

// Similarity returns the cosine similarity between the prompt tokens and
// the indexed document for (kind, id), in [0,1]. Unknown entries score 0.
func (x *Index) Similarity(tokens []string, kind catalog.Kind, id string) float64 {
	if x == nil {
		return 0
	}
	doc, ok := x.docs[docKey(kind, id)]
	if !ok {
		return 0
	}
	counts := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		tok = cleanTerm(tok)
		if tok != "" {
			counts[tok]++
		}
	}
	prompt := x.vectorize(counts)

	var dot float64
	for term, w := range prompt {
		dot += w * doc[term]
	}
	if dot < 0 {
		return 0
	}
	if dot > 1 {
		return 1
	}
	return dot
}

// vectorize turns term counts into a unit-length TF-IDF vector.
func (x *Index) vectorize(counts map[string]float64) map[string]float64 {
	vec := make(map[string]float64, len(counts))
	var norm float64
	for term, tf := range counts {
		idf, ok := x.idf[term]
		if !ok {
			continue
		}
		w := tf * idf
		vec[term] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

func entryDocument(e catalog.Entry) string {
	parts := []string{e.Description}
	parts = append(parts, e.Keywords.Primary...)
	parts = append(parts, e.Keywords.Secondary...)
	parts = append(parts, e.Keywords.Context...)
	return strings.Join(parts, " ")
}

func termCounts(text string) map[string]float64 {
	counts := make(map[string]float64)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = cleanTerm(tok)
		if tok != "" {
			counts[tok]++
		}
	}
	return counts
}

func cleanTerm(tok string) string {
	tok = strings.Trim(strings.ToLower(tok), ".,!?;:()[]{}\"'`")
	if len(tok) < 2 {
		return ""
	}
	return tok
}

// SemanticStrategy scores TF-IDF cosine similarity against the index. A nil
// index degrades the component to 0 instead of failing the computation.
type SemanticStrategy struct {
	Index *Index
}

func (SemanticStrategy) Name() string { return "semantic" }

func (s SemanticStrategy) Compute(f feature.Features, e catalog.Entry) float64 {
	if s.Index == nil {
		return 0
	}
	return s.Index.Similarity(f.Tokens, e.Kind, e.ID)
}

// Package scoring computes per-entry confidence from extracted features.
// Each component is a small Strategy so the pieces stay independently
// testable; the Scorer combines them under configured weights.
package scoring

import (
	"strings"

	"github.com/benreceveur/claude-workflow-engine/pkg/catalog"
	"github.com/benreceveur/claude-workflow-engine/pkg/feature"
)

// Strategy computes one scoring component in [0,1].
type Strategy interface {
	Name() string
	Compute(f feature.Features, e catalog.Entry) float64
}

// KeywordStrategy measures the position-weighted fraction of declared
// keyword phrases found in the normalized prompt. Primary phrases weigh
// double secondary ones, and earlier list positions weigh more than later.
type KeywordStrategy struct{}

func (KeywordStrategy) Name() string { return "keyword" }

func (KeywordStrategy) Compute(f feature.Features, e catalog.Entry) float64 {
	tokens := make(map[string]bool, len(f.Tokens))
	for _, tok := range f.Tokens {
		tokens[tok] = true
	}

	var matched, total float64
	matched, total = accumulatePhrases(f.Normalized, tokens, e.Keywords.Primary, 1.0, matched, total)
	matched, total = accumulatePhrases(f.Normalized, tokens, e.Keywords.Secondary, 0.5, matched, total)
	if total == 0 {
		return 0
	}
	return matched / total
}

func accumulatePhrases(prompt string, tokens map[string]bool, phrases []string, base float64, matched, total float64) (float64, float64) {
	n := len(phrases)
	for i, phrase := range phrases {
		w := base * positionWeight(i, n)
		total += w
		if phraseMatches(prompt, tokens, feature.Normalize(phrase)) {
			matched += w
		}
	}
	return matched, total
}

// phraseMatches accepts either a contiguous word-boundary occurrence of the
// phrase, or all of its words appearing somewhere in the prompt — "format
// code" matches "format this code please".
func phraseMatches(prompt string, tokens map[string]bool, phrase string) bool {
	if phrase == "" {
		return false
	}
	if containsPhrase(prompt, phrase) {
		return true
	}
	words := strings.Fields(phrase)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		if !tokens[w] {
			return false
		}
	}
	return true
}

// positionWeight decays linearly from 1.0 for the first phrase to 0.5 for
// the last, so list order expresses declared importance.
func positionWeight(i, n int) float64 {
	if n <= 1 {
		return 1.0
	}
	return 1.0 - 0.5*float64(i)/float64(n-1)
}

// containsPhrase reports a word-boundary phrase match within the prompt.
func containsPhrase(prompt, phrase string) bool {
	if phrase == "" {
		return false
	}
	for start := 0; start < len(prompt); {
		idx := strings.Index(prompt[start:], phrase)
		if idx == -1 {
			return false
		}
		idx += start
		end := idx + len(phrase)
		if (idx == 0 || !isWordChar(prompt[idx-1])) && (end == len(prompt) || !isWordChar(prompt[end])) {
			return true
		}
		start = idx + 1
	}
	return false
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

// ComplexityStrategy aligns the prompt's estimated complexity class with
// the entry's declared one: exact match 1.0, adjacent 0.5, otherwise 0.
type ComplexityStrategy struct{}

func (ComplexityStrategy) Name() string { return "complexity" }

func (ComplexityStrategy) Compute(f feature.Features, e catalog.Entry) float64 {
	if f.Complexity == 0 {
		return 0
	}
	diff := f.Complexity - e.Complexity
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 1.0
	case 1:
		return 0.5
	default:
		return 0
	}
}

// ContextStrategy measures how many context file extensions fall inside the
// entry's declared affinities. With no context files or no declared
// affinities the signal is neutral (0.5) rather than penalizing.
type ContextStrategy struct{}

func (ContextStrategy) Name() string { return "context" }

func (ContextStrategy) Compute(f feature.Features, e catalog.Entry) float64 {
	exts := f.ContextExtensions
	if len(exts) == 0 {
		exts = f.MentionedExtensions
	}
	if len(exts) == 0 || len(e.FileTypeAffinities) == 0 {
		return 0.5
	}
	affinity := make(map[string]bool, len(e.FileTypeAffinities))
	for _, a := range e.FileTypeAffinities {
		a = strings.ToLower(a)
		if !strings.HasPrefix(a, ".") {
			a = "." + a
		}
		affinity[a] = true
	}
	hits := 0
	for _, ext := range exts {
		if affinity[strings.ToLower(ext)] {
			hits++
		}
	}
	return float64(hits) / float64(len(exts))
}

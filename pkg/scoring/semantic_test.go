package scoring

import (
	"strings"
	"testing"

	"github.com/benreceveur/claude-workflow-engine/pkg/catalog"
	"github.com/benreceveur/claude-workflow-engine/pkg/feature"
)

func testEntries() []catalog.Entry {
	return []catalog.Entry{
		{
			ID:          "code-formatter",
			Kind:        catalog.KindSkill,
			Description: "Formats source code to a consistent style",
			Keywords:    catalog.Keywords{Primary: []string{"format code", "beautify"}},
		},
		{
			ID:          "cost-analyzer",
			Kind:        catalog.KindSkill,
			Description: "Analyzes cloud spend and produces cost reports",
			Keywords:    catalog.Keywords{Primary: []string{"cost analysis", "cloud spend"}},
		},
	}
}

func TestIndexSimilarityRanksRelatedEntryHigher(t *testing.T) {
	index := NewIndex(testEntries())
	tokens := strings.Fields("format the source code")

	formatter := index.Similarity(tokens, catalog.KindSkill, "code-formatter")
	analyzer := index.Similarity(tokens, catalog.KindSkill, "cost-analyzer")

	if formatter <= analyzer {
		t.Fatalf("related entry must rank higher: formatter=%.3f analyzer=%.3f", formatter, analyzer)
	}
	if formatter <= 0 || formatter > 1 {
		t.Fatalf("similarity out of range: %.3f", formatter)
	}
}

func TestIndexSimilarityDisjointTerms(t *testing.T) {
	index := NewIndex(testEntries())
	got := index.Similarity(strings.Fields("xyzzy plugh quux"), catalog.KindSkill, "code-formatter")
	if got != 0 {
		t.Fatalf("disjoint prompt must score 0, got %.3f", got)
	}
}

func TestIndexSimilarityUnknownEntry(t *testing.T) {
	index := NewIndex(testEntries())
	if got := index.Similarity([]string{"format"}, catalog.KindAgent, "nope"); got != 0 {
		t.Fatalf("unknown entry must score 0, got %.3f", got)
	}
}

func TestSemanticStrategyDegradesWithoutIndex(t *testing.T) {
	f := feature.Extract("format this code", nil)
	got := SemanticStrategy{}.Compute(f, testEntries()[0])
	if got != 0 {
		t.Fatalf("nil index must degrade to 0, got %.3f", got)
	}
}

func TestIndexEmptyCatalog(t *testing.T) {
	index := NewIndex(nil)
	if got := index.Similarity([]string{"anything"}, catalog.KindSkill, "x"); got != 0 {
		t.Fatalf("empty index must score 0, got %.3f", got)
	}
}

package router

import (
	"sort"

	"github.com/benreceveur/claude-workflow-engine/pkg/catalog"
	"github.com/benreceveur/claude-workflow-engine/pkg/feature"
	"github.com/benreceveur/claude-workflow-engine/pkg/scoring"
)

// Match is one scored catalog entry.
type Match struct {
	ID     string
	Result scoring.Result
}

// MatchSet is the completed output of one matcher pass. Mandatory marks a
// trigger-pattern hit, which bypasses normal scoring entirely.
type MatchSet struct {
	Kind      catalog.Kind
	Best      *Match
	Ranked    []Match
	Mandatory bool
	Reasoning []string
}

// BestScore returns the best confidence, or 0 with no candidates.
func (m MatchSet) BestScore() float64 {
	if m.Best == nil {
		return 0
	}
	return m.Best.Result.Score
}

// Matcher scores all catalog entries of one kind against a request.
type Matcher struct {
	kind   catalog.Kind
	scorer *scoring.Scorer

	// mandatory enables the trigger-pattern pre-pass (agents only).
	mandatory bool
}

// NewSkillMatcher builds the matcher for skill entries.
func NewSkillMatcher(scorer *scoring.Scorer) *Matcher {
	return &Matcher{kind: catalog.KindSkill, scorer: scorer}
}

// NewAgentMatcher builds the matcher for agent entries, with the
// mandatory-trigger pre-pass enabled.
func NewAgentMatcher(scorer *scoring.Scorer) *Matcher {
	return &Matcher{kind: catalog.KindAgent, scorer: scorer, mandatory: true}
}

// Match scores every entry. The raw prompt (not the normalized text) feeds
// the trigger pre-pass: the first declared entry whose pattern matches is
// returned with confidence exactly 1.0, a hard override of scoring. Ties on
// equal scores break by catalog declaration order.
func (m *Matcher) Match(rawPrompt string, f feature.Features, entries []catalog.Entry, hist scoring.HistoricalLookup) MatchSet {
	set := MatchSet{Kind: m.kind}

	if m.mandatory {
		for _, e := range entries {
			if e.MatchesTrigger(rawPrompt) {
				best := Match{ID: e.ID, Result: scoring.Certain()}
				set.Best = &best
				set.Ranked = []Match{best}
				set.Mandatory = true
				set.Reasoning = []string{"mandatory_trigger"}
				return set
			}
		}
	}

	set.Ranked = make([]Match, 0, len(entries))
	for _, e := range entries {
		set.Ranked = append(set.Ranked, Match{ID: e.ID, Result: m.scorer.Score(f, e, hist)})
	}

	// Stable sort keeps declaration order for equal scores.
	sort.SliceStable(set.Ranked, func(i, j int) bool {
		return set.Ranked[i].Result.Score > set.Ranked[j].Result.Score
	})

	if len(set.Ranked) > 0 {
		set.Best = &set.Ranked[0]
	}
	return set
}

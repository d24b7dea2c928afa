package scoring

import (
	"math"

	"github.com/benreceveur/claude-workflow-engine/pkg/catalog"
	"github.com/benreceveur/claude-workflow-engine/pkg/feature"
)

// Weights combines the five components. They are supplied at construction
// and never mutated; components with weight 0 still appear in the trace.
type Weights struct {
	Keyword    float64
	Semantic   float64
	Historical float64
	Complexity float64
	Context    float64
}

// DefaultWeights returns the standard component weighting.
func DefaultWeights() Weights {
	return Weights{
		Keyword:    0.35,
		Semantic:   0.25,
		Historical: 0.20,
		Complexity: 0.10,
		Context:    0.10,
	}
}

// Components carries the five raw component values, each in [0,1].
type Components struct {
	Keyword    float64 `json:"keyword"`
	Semantic   float64 `json:"semantic"`
	Historical float64 `json:"historical"`
	Complexity float64 `json:"complexity"`
	Context    float64 `json:"context"`
}

// Result is a scored entry: the combined confidence, an interval around it,
// and the component breakdown.
type Result struct {
	Score      float64    `json:"score"`
	Lower      float64    `json:"lower"`
	Upper      float64    `json:"upper"`
	Components Components `json:"components"`
}

// HistoricalLookup supplies the learned boost for an entry. It must never
// block unboundedly; the engine hands the scorer a timeout-bound closure.
type HistoricalLookup func(kind catalog.Kind, id string) float64

// Scorer combines the component strategies under fixed weights.
type Scorer struct {
	weights    Weights
	keyword    Strategy
	semantic   Strategy
	complexity Strategy
	context    Strategy
}

// NewScorer builds a scorer. The index may be nil, in which case the
// semantic component degrades to 0.
func NewScorer(w Weights, index *Index) *Scorer {
	return &Scorer{
		weights:    w,
		keyword:    KeywordStrategy{},
		semantic:   SemanticStrategy{Index: index},
		complexity: ComplexityStrategy{},
		context:    ContextStrategy{},
	}
}

// Score computes the confidence for one entry. It never fails: anomalous
// component values (NaN, Inf, out of range) sanitize to zero contribution.
func (s *Scorer) Score(f feature.Features, e catalog.Entry, hist HistoricalLookup) Result {
	historical := 0.0
	if hist != nil {
		historical = hist(e.Kind, e.ID)
	}

	c := Components{
		Keyword:    sanitize(s.keyword.Compute(f, e)),
		Semantic:   sanitize(s.semantic.Compute(f, e)),
		Historical: sanitize(historical),
		Complexity: sanitize(s.complexity.Compute(f, e)),
		Context:    sanitize(s.context.Compute(f, e)),
	}

	score := clip(s.weights.Keyword*c.Keyword +
		s.weights.Semantic*c.Semantic +
		s.weights.Historical*c.Historical +
		s.weights.Complexity*c.Complexity +
		s.weights.Context*c.Context)

	// Interval half-width grows with component disagreement, from 0.05 when
	// all components agree up to 0.10 at full spread. Width stays <= 0.2.
	spread := componentSpread(c)
	half := 0.05 + 0.05*spread

	return Result{
		Score:      score,
		Lower:      clip(score - half),
		Upper:      clip(score + half),
		Components: c,
	}
}

// Certain returns a fixed maximal result, used for mandatory triggers.
func Certain() Result {
	return Result{Score: 1.0, Lower: 1.0, Upper: 1.0}
}

func componentSpread(c Components) float64 {
	vals := [5]float64{c.Keyword, c.Semantic, c.Historical, c.Complexity, c.Context}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}

// sanitize maps anomalous component values (NaN, infinite, out of [0,1])
// to a zero contribution rather than letting them skew the combined score.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
		return 0
	}
	return v
}

func clip(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

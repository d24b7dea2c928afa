package router

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/benreceveur/claude-workflow-engine/pkg/catalog"
	"github.com/benreceveur/claude-workflow-engine/pkg/config"
	"github.com/benreceveur/claude-workflow-engine/pkg/feature"
	"github.com/benreceveur/claude-workflow-engine/pkg/memory"
	"github.com/benreceveur/claude-workflow-engine/pkg/scoring"
)

// BoostSource supplies historical boosts. It must return rather than block:
// the engine wraps calls in a bounded timeout and treats failure as 0.
type BoostSource interface {
	QueryBoost(ctx context.Context, kind catalog.Kind, id string) float64
}

// Engine routes one request to a skill, an agent, a hybrid of both, or the
// direct fallback. Each call is a stateless computation over the catalog
// snapshot current at entry.
type Engine struct {
	store  *catalog.Store
	cfg    config.RouterConfig
	boosts BoostSource
	mem    memory.Provider
	log    *zap.Logger

	mu     sync.Mutex
	cached *catalog.Snapshot
	scorer *scoring.Scorer
}

// Option configures an Engine.
type Option func(*Engine)

// WithBooster attaches the historical boost source.
func WithBooster(b BoostSource) Option {
	return func(e *Engine) { e.boosts = b }
}

// WithMemory attaches the context provider.
func WithMemory(m memory.Provider) Option {
	return func(e *Engine) { e.mem = m }
}

// WithLogger sets the engine logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine over a catalog store and an immutable config.
func New(store *catalog.Store, cfg config.RouterConfig, opts ...Option) *Engine {
	e := &Engine{store: store, cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Route produces a decision for the request. It never returns an error for
// well-typed input: collaborator failures surface only as reasoning-trace
// entries, and no qualifying candidate is the valid direct decision.
func (e *Engine) Route(ctx context.Context, req Request) Decision {
	snap := e.store.Snapshot()
	scorer := e.scorerFor(snap)

	fctx, memReasons := e.contextSignals(ctx, req)
	f := feature.Extract(req.Prompt, fctx)

	hist, cancel := e.boostLookup(ctx)
	defer cancel()

	// Both matchers always run to completion before any branching; decide
	// only accepts the finished pair.
	skills := NewSkillMatcher(scorer).Match(req.Prompt, f, snap.Entries(catalog.KindSkill), hist)
	agents := NewAgentMatcher(scorer).Match(req.Prompt, f, snap.Entries(catalog.KindAgent), hist)

	d := decide(matchPair{Skills: skills, Agents: agents}, f, e.cfg)
	d.Reasoning = append(memReasons, d.Reasoning...)

	e.log.Debug("routed request",
		zap.String("mode", string(d.Mode)),
		zap.Float64("skill_score", skills.BestScore()),
		zap.Float64("agent_score", agents.BestScore()),
		zap.Strings("reasoning", d.Reasoning))
	return d
}

// scorerFor returns a scorer whose semantic index matches the snapshot,
// rebuilding only when the snapshot pointer changed.
func (e *Engine) scorerFor(snap *catalog.Snapshot) *scoring.Scorer {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cached != snap || e.scorer == nil {
		index := scoring.NewIndex(snap.Entries(catalog.KindSkill), snap.Entries(catalog.KindAgent))
		e.scorer = scoring.NewScorer(e.weights(), index)
		e.cached = snap
	}
	return e.scorer
}

func (e *Engine) weights() scoring.Weights {
	return scoring.Weights{
		Keyword:    e.cfg.Weights.Keyword,
		Semantic:   e.cfg.Weights.Semantic,
		Historical: e.cfg.Weights.Historical,
		Complexity: e.cfg.Weights.Complexity,
		Context:    e.cfg.Weights.Context,
	}
}

// contextSignals merges memory-provider signals into the request context.
// Provider failure is absorbed into the reasoning trace.
func (e *Engine) contextSignals(ctx context.Context, req Request) (*feature.Context, []string) {
	fctx := req.Context
	if e.mem == nil {
		return fctx, nil
	}
	sig, err := e.mem.GetContextSignals(ctx, req.Prompt)
	if err != nil {
		e.log.Warn("memory provider unavailable", zap.Error(err))
		return fctx, []string{fmt.Sprintf("context signals unavailable: %v", err)}
	}
	merged := feature.Context{}
	if fctx != nil {
		merged = *fctx
	}
	merged.Files = append(merged.Files, sig.Files...)
	merged.PriorPatterns = append(merged.PriorPatterns, sig.PriorPatterns...)
	return &merged, nil
}

// boostLookup wraps the boost source in the configured timeout. Without a
// source every entry reads 0.
func (e *Engine) boostLookup(ctx context.Context) (scoring.HistoricalLookup, context.CancelFunc) {
	if e.boosts == nil {
		return nil, func() {}
	}
	boostCtx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.BoostTimeoutMs)*time.Millisecond)
	lookup := func(kind catalog.Kind, id string) float64 {
		return e.boosts.QueryBoost(boostCtx, kind, id)
	}
	return lookup, cancel
}

// matchPair is the completed output of both matchers. decide takes only
// this pair, so there is no code path that can branch before both sides
// have been evaluated.
type matchPair struct {
	Skills MatchSet
	Agents MatchSet
}

// decide applies the comparison rules to a finished pair of match results.
func decide(p matchPair, f feature.Features, cfg config.RouterConfig) Decision {
	if p.Agents.Mandatory {
		d := Decision{
			Mode:      ModeAgent,
			Primary:   candidateFrom(catalog.KindAgent, *p.Agents.Best),
			Reasoning: append([]string{}, p.Agents.Reasoning...),
		}
		d.Alternatives = alternatives(cfg.MaxAlternatives, p.Skills, nil)
		return d
	}

	skillScore := p.Skills.BestScore()
	agentScore := p.Agents.BestScore()
	skillOK := p.Skills.Best != nil && skillScore >= cfg.UnifiedThreshold
	agentOK := p.Agents.Best != nil && agentScore >= cfg.UnifiedThreshold

	var d Decision
	d.Reasoning = append(d.Reasoning, sideSummary("skill", p.Skills, cfg.UnifiedThreshold))
	d.Reasoning = append(d.Reasoning, sideSummary("agent", p.Agents, cfg.UnifiedThreshold))

	switch {
	case !skillOK && !agentOK:
		d.Mode = ModeDirect
		d.Reasoning = append(d.Reasoning,
			fmt.Sprintf("no candidate met unified threshold %.2f; falling through to direct handling", cfg.UnifiedThreshold))
		d.Alternatives = alternatives(cfg.MaxAlternatives, p.Skills, &p.Agents)

	case skillOK && !agentOK:
		d.Mode = ModeSkill
		d.Primary = candidateFrom(catalog.KindSkill, *p.Skills.Best)
		d.Reasoning = append(d.Reasoning, "only the skill side qualified")
		d.Alternatives = alternatives(cfg.MaxAlternatives, restOf(p.Skills), &p.Agents)

	case agentOK && !skillOK:
		d.Mode = ModeAgent
		d.Primary = candidateFrom(catalog.KindAgent, *p.Agents.Best)
		d.Reasoning = append(d.Reasoning, "only the agent side qualified")
		d.Alternatives = alternatives(cfg.MaxAlternatives, p.Skills, restPtr(p.Agents))

	default:
		d = decideBoth(d, p, f, cfg)
	}
	return d
}

// decideBoth handles the case where both sides met the threshold.
func decideBoth(d Decision, p matchPair, f feature.Features, cfg config.RouterConfig) Decision {
	skillScore := p.Skills.BestScore()
	agentScore := p.Agents.BestScore()
	gap := math.Abs(skillScore - agentScore)

	// Sequencing cue with both sides qualified means analyze-then-act:
	// run the skill first, hand its output to the agent.
	if f.Sequencing {
		d.Mode = ModeHybrid
		d.Primary = candidateFrom(catalog.KindSkill, *p.Skills.Best)
		d.Alternatives = append([]Candidate{*candidateFrom(catalog.KindAgent, *p.Agents.Best)},
			alternatives(cfg.MaxAlternatives-1, restOf(p.Skills), restPtr(p.Agents))...)
		d.Reasoning = append(d.Reasoning, "both sides qualified and the prompt implies sequencing; hybrid skill-then-agent")
		return d
	}

	if gap >= cfg.Epsilon {
		winner, winnerKind := p.Skills, catalog.KindSkill
		loser := p.Agents
		if agentScore > skillScore {
			winner, winnerKind = p.Agents, catalog.KindAgent
			loser = p.Skills
		}
		d.Mode = modeFor(winnerKind)
		d.Primary = candidateFrom(winnerKind, *winner.Best)
		d.Reasoning = append(d.Reasoning,
			fmt.Sprintf("score gap %.3f at or above epsilon %.3f; selected the higher %s side", gap, cfg.Epsilon, winnerKind))
		d.Alternatives = alternatives(cfg.MaxAlternatives, loser, restPtr(winner))
		return d
	}

	// Scores within epsilon: the raw ordering is noise, so the verb-class
	// classifier decides. Simple verbs belong to deterministic handlers.
	if f.VerbClass == feature.VerbSimple {
		d.Mode = ModeSkill
		d.Primary = candidateFrom(catalog.KindSkill, *p.Skills.Best)
		d.Reasoning = append(d.Reasoning,
			fmt.Sprintf("scores within epsilon %.3f; tie-break on verb class %q chose the skill side", cfg.Epsilon, f.VerbClass))
		d.Alternatives = alternatives(cfg.MaxAlternatives, p.Agents, restPtr(p.Skills))
		return d
	}
	d.Mode = ModeAgent
	d.Primary = candidateFrom(catalog.KindAgent, *p.Agents.Best)
	d.Reasoning = append(d.Reasoning,
		fmt.Sprintf("scores within epsilon %.3f; tie-break on verb class %q chose the agent side", cfg.Epsilon, f.VerbClass))
	d.Alternatives = alternatives(cfg.MaxAlternatives, p.Skills, restPtr(p.Agents))
	return d
}

func modeFor(kind catalog.Kind) Mode {
	if kind == catalog.KindAgent {
		return ModeAgent
	}
	return ModeSkill
}

func candidateFrom(kind catalog.Kind, m Match) *Candidate {
	return &Candidate{Kind: kind, ID: m.ID, Confidence: m.Result.Score, Result: m.Result}
}

// restOf drops the best match so alternatives never repeat the primary.
func restOf(set MatchSet) MatchSet {
	if len(set.Ranked) <= 1 {
		return MatchSet{Kind: set.Kind}
	}
	return MatchSet{Kind: set.Kind, Ranked: set.Ranked[1:]}
}

func restPtr(set MatchSet) *MatchSet {
	rest := restOf(set)
	return &rest
}

// alternatives interleaves the remaining candidates from both sides in
// descending score order, capped at n.
func alternatives(n int, a MatchSet, b *MatchSet) []Candidate {
	if n <= 0 {
		return nil
	}
	var out []Candidate
	for _, m := range a.Ranked {
		out = append(out, Candidate{Kind: a.Kind, ID: m.ID, Confidence: m.Result.Score, Result: m.Result})
	}
	if b != nil {
		for _, m := range b.Ranked {
			out = append(out, Candidate{Kind: b.Kind, ID: m.ID, Confidence: m.Result.Score, Result: m.Result})
		}
	}
	sortCandidates(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func sortCandidates(cs []Candidate) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j].Confidence > cs[j-1].Confidence; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

func sideSummary(side string, set MatchSet, threshold float64) string {
	if set.Best == nil {
		return fmt.Sprintf("%s side has no candidates", side)
	}
	verdict := "below"
	if set.Best.Result.Score >= threshold {
		verdict = "met"
	}
	return fmt.Sprintf("%s best %q scored %.3f (%s threshold %.2f)", side, set.Best.ID, set.Best.Result.Score, verdict, threshold)
}

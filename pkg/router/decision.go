package router

import (
	"github.com/benreceveur/claude-workflow-engine/pkg/catalog"
	"github.com/benreceveur/claude-workflow-engine/pkg/feature"
	"github.com/benreceveur/claude-workflow-engine/pkg/scoring"
)

// Mode is the selected execution strategy for a request.
type Mode string

const (
	// ModeSkill runs a deterministic procedural handler.
	ModeSkill Mode = "skill"
	// ModeAgent delegates to an autonomous reasoning backend.
	ModeAgent Mode = "agent"
	// ModeHybrid sequences a skill and an agent, in order.
	ModeHybrid Mode = "hybrid"
	// ModeDirect is the no-match fallback.
	ModeDirect Mode = "direct"
)

// Candidate references a catalog entry by value: id plus the confidence it
// scored, never a live pointer into catalog state.
type Candidate struct {
	Kind       catalog.Kind   `json:"kind"`
	ID         string         `json:"id"`
	Confidence float64        `json:"confidence"`
	Result     scoring.Result `json:"result"`
}

// Decision is the immutable outcome of one routing call. For hybrid mode
// Primary is the skill step and the agent step leads Alternatives.
type Decision struct {
	Mode         Mode        `json:"mode"`
	Primary      *Candidate  `json:"primary,omitempty"`
	Alternatives []Candidate `json:"alternatives,omitempty"`
	Reasoning    []string    `json:"reasoning"`
}

// Request is one routing invocation. It is created per call and never
// persisted.
type Request struct {
	Prompt  string
	Context *feature.Context
}

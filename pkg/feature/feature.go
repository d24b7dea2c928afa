// Package feature turns raw prompt text into the fixed signal set the
// scoring strategies consume. Extraction is a pure function: no I/O, no
// shared state, and no failure mode — unrecognized input yields a Features
// value with all signals at zero.
package feature

import (
	"path/filepath"
	"strings"
)

// VerbClass buckets the leading intent verb of a prompt.
type VerbClass int

const (
	// VerbNone means no recognized intent verb.
	VerbNone VerbClass = iota
	// VerbSimple covers mechanical, single-step verbs (format, scan, check).
	VerbSimple
	// VerbComplex covers open-ended, multi-step verbs (create, design, debug).
	VerbComplex
)

func (v VerbClass) String() string {
	switch v {
	case VerbSimple:
		return "simple"
	case VerbComplex:
		return "complex"
	default:
		return "none"
	}
}

// Context carries the optional per-request surroundings of a prompt.
type Context struct {
	Files            []string
	Platform         string
	WorkingDirectory string

	// PriorPatterns are phrases recalled by the memory provider for this
	// prompt, folded into context-alignment scoring.
	PriorPatterns []string
}

// Features is the bounded signal vector for one prompt.
type Features struct {
	Normalized string
	Tokens     []string
	WordCount  int

	VerbClass VerbClass

	// Complexity is the estimated complexity class 1..3, or 0 when the
	// prompt is empty.
	Complexity int

	// Sequencing reports an analyze-then-act cue ("... then ...").
	Sequencing bool

	// MentionedExtensions are file extensions named in the prompt itself.
	MentionedExtensions []string

	// ContextExtensions are extensions of the context files.
	ContextExtensions []string

	PriorPatterns []string
}

var simpleVerbs = map[string]bool{
	"format": true, "scan": true, "check": true, "validate": true,
	"lint": true, "list": true, "count": true, "sort": true,
	"rename": true, "convert": true, "summarize": true,
}

var complexVerbs = map[string]bool{
	"create": true, "implement": true, "design": true, "debug": true, "fix": true,
	"build": true, "refactor": true, "architect": true, "migrate": true,
	"investigate": true, "optimize": true, "diagnose": true, "rewrite": true,
}

var knownExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".tsx": true,
	".jsx": true, ".java": true, ".rb": true, ".rs": true, ".c": true,
	".cpp": true, ".h": true, ".css": true, ".html": true, ".json": true,
	".yaml": true, ".yml": true, ".md": true, ".sql": true, ".sh": true,
	".tf": true, ".toml": true, ".txt": true, ".csv": true, ".xml": true,
}

// Extract derives the feature vector for a prompt and optional context.
func Extract(prompt string, ctx *Context) Features {
	normalized := Normalize(prompt)
	tokens := strings.Fields(normalized)

	f := Features{
		Normalized: normalized,
		Tokens:     tokens,
		WordCount:  len(tokens),
	}
	if len(tokens) == 0 {
		return f
	}

	f.VerbClass = classifyVerbs(tokens)
	f.Sequencing = detectSequencing(normalized)
	f.Complexity = estimateComplexity(f)
	f.MentionedExtensions = extractExtensions(tokens)

	if ctx != nil {
		for _, file := range ctx.Files {
			ext := strings.ToLower(filepath.Ext(file))
			if ext != "" {
				f.ContextExtensions = append(f.ContextExtensions, ext)
			}
		}
		f.PriorPatterns = append(f.PriorPatterns, ctx.PriorPatterns...)
	}

	return f
}

// Normalize lowercases and collapses whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// classifyVerbs scans every token; a complex verb anywhere outweighs a
// simple one, so "check and refactor the parser" classifies as complex.
func classifyVerbs(tokens []string) VerbClass {
	class := VerbNone
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,!?;:()[]{}\"'")
		if complexVerbs[tok] {
			return VerbComplex
		}
		if simpleVerbs[tok] {
			class = VerbSimple
		}
	}
	return class
}

func detectSequencing(normalized string) bool {
	padded := " " + normalized + " "
	for _, cue := range []string{" then ", " after that ", " followed by ", " and afterwards "} {
		if strings.Contains(padded, cue) {
			return true
		}
	}
	return false
}

// estimateComplexity maps verb class to a base class 1..3 and bumps it one
// step for sequenced or long prompts.
func estimateComplexity(f Features) int {
	c := 2
	switch f.VerbClass {
	case VerbSimple:
		c = 1
	case VerbComplex:
		c = 3
	}
	if (f.Sequencing || f.WordCount > 40) && c < 3 {
		c++
	}
	return c
}

func extractExtensions(tokens []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,!?;:()[]{}\"'`<>")
		ext := strings.ToLower(filepath.Ext(tok))
		if ext == "" || !knownExtensions[ext] || seen[ext] {
			// bare mentions like "yaml files" count too
			if knownExtensions["."+tok] && !seen["."+tok] {
				seen["."+tok] = true
				out = append(out, "."+tok)
			}
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}

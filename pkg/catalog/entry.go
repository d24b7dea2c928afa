package catalog

import "regexp"

// Kind distinguishes the two classes of catalog entries.
type Kind string

const (
	// KindSkill marks a deterministic procedural handler.
	KindSkill Kind = "skill"

	// KindAgent marks an autonomous reasoning delegate.
	KindAgent Kind = "agent"
)

// Keywords groups the matching vocabulary declared by an entry.
type Keywords struct {
	Primary   []string `yaml:"primary" json:"primary,omitempty"`
	Secondary []string `yaml:"secondary" json:"secondary,omitempty"`
	Context   []string `yaml:"context" json:"context,omitempty"`
}

// Entry describes one routable skill or agent. Entries are immutable once
// loaded; a reload produces a fresh snapshot rather than mutating in place.
type Entry struct {
	ID                 string   `yaml:"id" json:"id"`
	Kind               Kind     `yaml:"-" json:"kind"`
	Description        string   `yaml:"description" json:"description,omitempty"`
	Keywords           Keywords `yaml:"keywords" json:"keywords"`
	TriggerPatterns    []string `yaml:"triggers" json:"triggers,omitempty"`
	Complexity         int      `yaml:"complexity" json:"complexity"`
	FileTypeAffinities []string `yaml:"file_types" json:"file_types,omitempty"`

	// Model names the delegate backend for agent entries, e.g.
	// "anthropic/claude-sonnet-4-20250514". Optional.
	Model string `yaml:"model" json:"model,omitempty"`

	// Handler names the executable for skill entries. Defaults to ID.
	Handler string `yaml:"handler" json:"handler,omitempty"`

	triggers []*regexp.Regexp
}

// MatchesTrigger reports whether any compiled trigger pattern matches the
// raw (un-normalized) prompt.
func (e *Entry) MatchesTrigger(prompt string) bool {
	for _, re := range e.triggers {
		if re.MatchString(prompt) {
			return true
		}
	}
	return false
}

// HandlerName returns the handler executable name for skill entries.
func (e *Entry) HandlerName() string {
	if e.Handler != "" {
		return e.Handler
	}
	return e.ID
}

// Compile compiles TriggerPatterns. An invalid pattern makes the whole
// entry malformed; the loader skips it with a warning.
func (e *Entry) Compile() error {
	e.triggers = nil
	for _, p := range e.TriggerPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return err
		}
		e.triggers = append(e.triggers, re)
	}
	return nil
}

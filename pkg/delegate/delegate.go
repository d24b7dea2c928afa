// Package delegate holds the reasoning backends an agent decision is
// executed against. A delegate is an opaque collaborator: the router picks
// the entry, the delegate carries out the open-ended work.
package delegate

import (
	"context"
	"time"
)

// Result is the output of one delegate invocation.
type Result struct {
	Content   string    `json:"content"`
	Delegate  string    `json:"delegate"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// Delegate is a reasoning backend.
type Delegate interface {
	// Run sends the prompt to the model and returns its output.
	Run(ctx context.Context, model, prompt string) (*Result, error)

	// Name returns the delegate's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}

func newResult(content, delegate, model string) *Result {
	return &Result{
		Content:   content,
		Delegate:  delegate,
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}
}

// Package memory supplies repository and global context signals to the
// router. The router depends only on the narrow read contract here, never
// on how a provider stores its data.
package memory

import "context"

// Signals is what a provider contributes to one routing call.
type Signals struct {
	// Files are paths the provider associates with the current work.
	Files []string
	// PriorPatterns are recalled phrases from earlier, similar prompts.
	PriorPatterns []string
}

// Provider exposes context signals for a prompt. Implementations should be
// fast; the router absorbs errors and routes without the signal.
type Provider interface {
	GetContextSignals(ctx context.Context, prompt string) (Signals, error)
}

// Static is a fixed-signal provider for tests and embedding.
type Static struct {
	Signals Signals
	Err     error
}

func (s Static) GetContextSignals(context.Context, string) (Signals, error) {
	return s.Signals, s.Err
}

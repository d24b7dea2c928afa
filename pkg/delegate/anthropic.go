package delegate

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// AnthropicDelegate runs agent work on Claude models.
type AnthropicDelegate struct {
	client anthropic.Client
	model  string
}

// NewAnthropicDelegate creates an Anthropic delegate with a default model.
func NewAnthropicDelegate(apiKey, defaultModel string) (*AnthropicDelegate, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	return &AnthropicDelegate{client: anthropic.NewClient(), model: defaultModel}, nil
}

// Name returns the delegate identifier.
func (d *AnthropicDelegate) Name() string {
	return "anthropic"
}

// Models returns the supported Claude models.
func (d *AnthropicDelegate) Models() []string {
	return []string{
		"claude-sonnet-4-20250514",
		"claude-opus-4-20250514",
	}
}

// Run sends the prompt to Claude and returns the text output.
func (d *AnthropicDelegate) Run(ctx context.Context, model, prompt string) (*Result, error) {
	if model == "" {
		model = d.model
	}
	resp, err := d.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return newResult(content, d.Name(), model), nil
}

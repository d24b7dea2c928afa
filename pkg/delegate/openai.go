package delegate

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// OpenAIDelegate runs agent work on OpenAI models.
type OpenAIDelegate struct {
	client openai.Client
	model  string
}

// NewOpenAIDelegate creates an OpenAI delegate with a default model.
func NewOpenAIDelegate(apiKey, defaultModel string) (*OpenAIDelegate, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	return &OpenAIDelegate{client: openai.NewClient(), model: defaultModel}, nil
}

// Name returns the delegate identifier.
func (d *OpenAIDelegate) Name() string {
	return "openai"
}

// Models returns the supported OpenAI models.
func (d *OpenAIDelegate) Models() []string {
	return []string{
		"gpt-5.2-instant",
		"gpt-5.2-thinking",
		"gpt-5.2-pro",
	}
}

// Run sends the prompt to OpenAI and returns the text output.
func (d *OpenAIDelegate) Run(ctx context.Context, model, prompt string) (*Result, error) {
	if model == "" {
		model = d.model
	}
	resp, err := d.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(4096),
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	return newResult(resp.Choices[0].Message.Content, d.Name(), model), nil
}

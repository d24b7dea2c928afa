package delegate

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GoogleDelegate runs agent work on Gemini models.
type GoogleDelegate struct {
	client *genai.Client
	model  string
}

// NewGoogleDelegate creates a Google Gemini delegate with a default model.
func NewGoogleDelegate(apiKey, defaultModel string) (*GoogleDelegate, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}
	return &GoogleDelegate{client: client, model: defaultModel}, nil
}

// Name returns the delegate identifier.
func (d *GoogleDelegate) Name() string {
	return "google"
}

// Models returns the supported Gemini models.
func (d *GoogleDelegate) Models() []string {
	return []string{"gemini-2.0-pro"}
}

// Run sends the prompt to Gemini and returns the text output.
func (d *GoogleDelegate) Run(ctx context.Context, model, prompt string) (*Result, error) {
	if model == "" {
		model = d.model
	}
	resp, err := d.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("google API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("google returned no candidates")
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}
	return newResult(content, d.Name(), model), nil
}

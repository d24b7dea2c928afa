package delegate

import (
	"context"
	"fmt"
)

// MockDelegate returns deterministic responses for local runs and tests.
type MockDelegate struct {
	responses       map[string]string
	defaultResponse string
	Calls           int
}

// NewMockDelegate creates a mock delegate with a default response.
func NewMockDelegate() *MockDelegate {
	return &MockDelegate{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockDelegateWithResponses creates a mock with predefined responses.
func NewMockDelegateWithResponses(responses map[string]string, defaultResponse string) *MockDelegate {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockDelegate{responses: responses, defaultResponse: defaultResponse}
}

// Name returns the delegate identifier.
func (d *MockDelegate) Name() string {
	return "mock"
}

// Models returns the supported mock models.
func (d *MockDelegate) Models() []string {
	return []string{"mock-1"}
}

// Run returns a deterministic result for the prompt.
func (d *MockDelegate) Run(_ context.Context, model, prompt string) (*Result, error) {
	d.Calls++
	if model == "" {
		model = "mock-1"
	}
	if response, ok := d.responses[prompt]; ok {
		return newResult(response, d.Name(), model), nil
	}
	return newResult(fmt.Sprintf("%s\n%s", d.defaultResponse, prompt), d.Name(), model), nil
}

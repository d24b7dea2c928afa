package delegate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMockDelegateResponses(t *testing.T) {
	d := NewMockDelegateWithResponses(map[string]string{
		"what is 2+2": "4",
	}, "")

	res, err := d.Run(context.Background(), "mock-1", "what is 2+2")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Content != "4" {
		t.Fatalf("unexpected content: %q", res.Content)
	}
	if res.Delegate != "mock" || res.Model != "mock-1" {
		t.Fatalf("unexpected metadata: %+v", res)
	}
	if res.CreatedAt.IsZero() {
		t.Fatal("result must be timestamped")
	}
}

func TestMockDelegateDefaultResponse(t *testing.T) {
	d := NewMockDelegate()
	res, err := d.Run(context.Background(), "", "unseen prompt")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Content, "unseen prompt") {
		t.Fatalf("default response must echo the prompt, got %q", res.Content)
	}
	if res.Model != "mock-1" {
		t.Fatalf("empty model must default, got %q", res.Model)
	}
}

func TestMockDelegateCountsCalls(t *testing.T) {
	d := NewMockDelegate()
	for i := 0; i < 3; i++ {
		if _, err := d.Run(context.Background(), "", "p"); err != nil {
			t.Fatal(err)
		}
	}
	if d.Calls != 3 {
		t.Fatalf("expected 3 calls, got %d", d.Calls)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &DelegateError{Status: 429}, true},
		{"server error", &DelegateError{Status: 503}, true},
		{"marked temporary", &DelegateError{Temporary: true}, true},
		{"bad request", &DelegateError{Status: 400}, false},
		{"unauthorized", &DelegateError{Status: 401}, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"wrapped rate limit", fmt.Errorf("call failed: %w", &DelegateError{Status: 429}), true},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Fatalf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDelegateErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &DelegateError{Status: 502, Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("DelegateError must unwrap to the inner error")
	}
	if err.Error() != "connection reset" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	bare := &DelegateError{Status: 429}
	if !strings.Contains(bare.Error(), "429") {
		t.Fatalf("bare error must carry the status: %q", bare.Error())
	}
}

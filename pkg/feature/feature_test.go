package feature

import (
	"reflect"
	"testing"
)

func TestExtractVerbClass(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		expected VerbClass
	}{
		{name: "simple format", prompt: "Format this code please", expected: VerbSimple},
		{name: "simple validate", prompt: "validate the config file", expected: VerbSimple},
		{name: "complex debug", prompt: "Debug the race condition in the worker pool", expected: VerbComplex},
		{name: "complex wins over simple", prompt: "check the logs and refactor the parser", expected: VerbComplex},
		{name: "no recognized verb", prompt: "xyzzy plugh quux", expected: VerbNone},
		{name: "verb with punctuation", prompt: "format, then ship it", expected: VerbSimple},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Extract(tt.prompt, nil)
			if f.VerbClass != tt.expected {
				t.Fatalf("verb class for %q: got %v, want %v", tt.prompt, f.VerbClass, tt.expected)
			}
		})
	}
}

func TestExtractComplexity(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		expected int
	}{
		{name: "simple verb", prompt: "format the file", expected: 1},
		{name: "complex verb", prompt: "design a caching layer", expected: 3},
		{name: "no verb", prompt: "the quarterly revenue numbers", expected: 2},
		{name: "sequencing bumps simple", prompt: "scan the repo then summarize", expected: 2},
		{name: "empty prompt", prompt: "", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Extract(tt.prompt, nil)
			if f.Complexity != tt.expected {
				t.Fatalf("complexity for %q: got %d, want %d", tt.prompt, f.Complexity, tt.expected)
			}
		})
	}
}

func TestExtractSequencing(t *testing.T) {
	if !Extract("analyze the logs then fix the bug", nil).Sequencing {
		t.Error("expected sequencing cue for 'then'")
	}
	if Extract("strengthen the tests", nil).Sequencing {
		t.Error("'strengthen' must not read as a sequencing cue")
	}
}

func TestExtractExtensions(t *testing.T) {
	f := Extract("fix main.go and app.py, skip the README", nil)
	want := []string{".go", ".py"}
	if !reflect.DeepEqual(f.MentionedExtensions, want) {
		t.Fatalf("mentioned extensions: got %v, want %v", f.MentionedExtensions, want)
	}

	f = Extract("validate the json config", nil)
	if !reflect.DeepEqual(f.MentionedExtensions, []string{".json"}) {
		t.Fatalf("bare extension mention: got %v", f.MentionedExtensions)
	}
}

func TestExtractContext(t *testing.T) {
	ctx := &Context{
		Files:         []string{"internal/db/db.go", "schema.sql", "Makefile"},
		PriorPatterns: []string{"format code"},
	}
	f := Extract("check the queries", ctx)

	if !reflect.DeepEqual(f.ContextExtensions, []string{".go", ".sql"}) {
		t.Fatalf("context extensions: got %v", f.ContextExtensions)
	}
	if !reflect.DeepEqual(f.PriorPatterns, []string{"format code"}) {
		t.Fatalf("prior patterns: got %v", f.PriorPatterns)
	}
}

func TestExtractNormalization(t *testing.T) {
	f := Extract("  FORMAT   This\tCode ", nil)
	if f.Normalized != "format this code" {
		t.Fatalf("normalized: got %q", f.Normalized)
	}
	if f.WordCount != 3 {
		t.Fatalf("word count: got %d", f.WordCount)
	}
}

func TestExtractEmptyInputIsZero(t *testing.T) {
	f := Extract("", nil)
	if f.VerbClass != VerbNone || f.Complexity != 0 || f.Sequencing {
		t.Fatalf("empty prompt must yield zero signals, got %+v", f)
	}
	if len(f.Tokens) != 0 || len(f.MentionedExtensions) != 0 {
		t.Fatalf("empty prompt must yield no tokens or extensions, got %+v", f)
	}
}

func TestExtractIsPure(t *testing.T) {
	a := Extract("format this code please", nil)
	b := Extract("format this code please", nil)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical input must produce identical features")
	}
}

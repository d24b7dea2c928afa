package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFiles(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	dir := t.TempDir()
	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom on empty dir must not fail: %v", err)
	}
	if cfg.DefaultModel != "anthropic/claude-sonnet-4-20250514" {
		t.Fatalf("unexpected default model: %q", cfg.DefaultModel)
	}
	if cfg.SkillsDir != filepath.Join(dir, "skills") {
		t.Fatalf("unexpected skills dir: %q", cfg.SkillsDir)
	}
	if cfg.FeedbackLog != filepath.Join(dir, "feedback.jsonl") {
		t.Fatalf("unexpected feedback log: %q", cfg.FeedbackLog)
	}
	if cfg.Router.UnifiedThreshold != 0.45 {
		t.Fatalf("missing router.yaml must yield defaults, got %v", cfg.Router.UnifiedThreshold)
	}
	if cfg.HasDelegate("anthropic") {
		t.Fatal("no key set, HasDelegate must be false")
	}
}

func TestLoadFromFileConfig(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	dir := t.TempDir()
	content := `
api_keys:
  anthropic: file-key
skills_dir: /opt/skills
default_model: openai/gpt-4o
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AnthropicAPIKey != "file-key" {
		t.Fatalf("file key not picked up: %q", cfg.AnthropicAPIKey)
	}
	if cfg.SkillsDir != "/opt/skills" {
		t.Fatalf("unexpected skills dir: %q", cfg.SkillsDir)
	}
	if cfg.DefaultModel != "openai/gpt-4o" {
		t.Fatalf("unexpected default model: %q", cfg.DefaultModel)
	}
}

func TestLoadFromEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := `
api_keys:
  anthropic: file-key
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AnthropicAPIKey != "env-key" {
		t.Fatalf("environment must win over file, got %q", cfg.AnthropicAPIKey)
	}
}

func TestDefaultRouterConfig(t *testing.T) {
	cfg := DefaultRouterConfig()
	if cfg.UnifiedThreshold != 0.45 {
		t.Fatalf("threshold: got %v", cfg.UnifiedThreshold)
	}
	if cfg.Epsilon != 0.10 {
		t.Fatalf("epsilon: got %v", cfg.Epsilon)
	}
	sum := cfg.Weights.Keyword + cfg.Weights.Semantic + cfg.Weights.Historical +
		cfg.Weights.Complexity + cfg.Weights.Context
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("weights must sum to 1.0, got %v", sum)
	}
	if cfg.History.MaxRecords != 200 || cfg.History.MaxAgeDays != 30 || cfg.History.HalfLifeHours != 72 {
		t.Fatalf("unexpected history bounds: %+v", cfg.History)
	}
	if cfg.BoostTimeoutMs != 250 {
		t.Fatalf("boost timeout: got %d", cfg.BoostTimeoutMs)
	}
}

func TestLoadRouterConfigOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.yaml")
	content := `
unified_threshold: 0.6
weights:
  keyword: 0.5
  semantic: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadRouterConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UnifiedThreshold != 0.6 {
		t.Fatalf("override lost: got %v", cfg.UnifiedThreshold)
	}
	if cfg.Weights.Keyword != 0.5 || cfg.Weights.Historical != 0 {
		t.Fatalf("explicit weights must not be mixed with defaults: %+v", cfg.Weights)
	}
	// Untouched knobs fall back to defaults.
	if cfg.Epsilon != 0.10 {
		t.Fatalf("epsilon default lost: got %v", cfg.Epsilon)
	}
	if cfg.MaxAlternatives != 3 {
		t.Fatalf("max alternatives default lost: got %d", cfg.MaxAlternatives)
	}
}

func TestLoadRouterConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.yaml")
	if err := os.WriteFile(path, []byte("unified_threshold: [not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRouterConfig(path); err == nil {
		t.Fatal("malformed router.yaml must fail loudly, not silently default")
	}
}

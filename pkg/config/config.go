// Package config loads the engine configuration: API keys and paths from
// ~/.cwe/config.yaml with environment variables taking precedence, and the
// routing knobs from router.yaml. The result is an immutable value handed
// to components at construction.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string

	ConfigDir string

	// Catalog manifest layers, lowest precedence first.
	DiscoveredManifest string
	CuratedManifest    string
	UserManifest       string

	// SkillsDir holds the handler executables and feeds stub discovery.
	SkillsDir string

	// FeedbackLog is the append-only routing feedback ledger.
	FeedbackLog string

	// MemoryDir holds the context database.
	MemoryDir string

	// DefaultModel executes direct-mode prompts, as "delegate/model".
	DefaultModel string

	Router RouterConfig
}

// FileConfig is the on-disk shape of ~/.cwe/config.yaml.
type FileConfig struct {
	APIKeys      APIKeysConfig `yaml:"api_keys"`
	SkillsDir    string        `yaml:"skills_dir"`
	DefaultModel string        `yaml:"default_model"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Google    string `yaml:"google"`
}

// Load reads configuration from the config directory and environment.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return LoadFrom(configDir)
}

// LoadFrom reads configuration rooted at an explicit directory, which lets
// tests use a temporary directory.
func LoadFrom(configDir string) (*Config, error) {
	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		ConfigDir:       configDir,

		DiscoveredManifest: filepath.Join(configDir, "catalog", "discovered.yaml"),
		CuratedManifest:    filepath.Join(configDir, "catalog", "curated.yaml"),
		UserManifest:       filepath.Join(configDir, "catalog", "user.yaml"),
		SkillsDir:          fileConfig.SkillsDir,
		FeedbackLog:        filepath.Join(configDir, "feedback.jsonl"),
		MemoryDir:          filepath.Join(configDir, "memory"),
		DefaultModel:       fileConfig.DefaultModel,
	}
	if cfg.SkillsDir == "" {
		cfg.SkillsDir = filepath.Join(configDir, "skills")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "anthropic/claude-sonnet-4-20250514"
	}

	routerPath := filepath.Join(configDir, "router.yaml")
	if _, err := os.Stat(routerPath); err == nil {
		router, err := LoadRouterConfig(routerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load router config: %w", err)
		}
		cfg.Router = router
	} else {
		cfg.Router = DefaultRouterConfig()
	}

	return cfg, nil
}

// HasDelegate returns true if the API key for the given delegate is set.
func (c *Config) HasDelegate(name string) bool {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	default:
		return false
	}
}

// loadFileConfig reads the config file, returning empty config if missing.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	_ = yaml.Unmarshal(data, cfg)
	return cfg
}

func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	if dir := os.Getenv("CWE_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".cwe")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", err
	}
	return configDir, nil
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RouterConfig holds every routing knob. It is constructed once, passed by
// value, and read-only from then on — components never redefine thresholds
// locally. The unified threshold applies identically to the skill and agent
// sides; asymmetric thresholds are deliberately not expressible.
type RouterConfig struct {
	UnifiedThreshold float64       `yaml:"unified_threshold"`
	Epsilon          float64       `yaml:"epsilon"`
	Weights          WeightsConfig `yaml:"weights"`
	History          HistoryConfig `yaml:"history"`

	// BoostTimeoutMs bounds every historical-boost lookup; on expiry the
	// component reads 0 instead of delaying the decision.
	BoostTimeoutMs int `yaml:"boost_timeout_ms"`

	// MaxAlternatives caps the alternatives carried on a decision.
	MaxAlternatives int `yaml:"max_alternatives"`
}

// WeightsConfig sets the five component weights.
type WeightsConfig struct {
	Keyword    float64 `yaml:"keyword"`
	Semantic   float64 `yaml:"semantic"`
	Historical float64 `yaml:"historical"`
	Complexity float64 `yaml:"complexity"`
	Context    float64 `yaml:"context"`
}

// HistoryConfig bounds the feedback window.
type HistoryConfig struct {
	MaxRecords    int `yaml:"max_records"`
	MaxAgeDays    int `yaml:"max_age_days"`
	HalfLifeHours int `yaml:"half_life_hours"`
}

// DefaultRouterConfig returns the standard routing configuration.
func DefaultRouterConfig() RouterConfig {
	cfg := RouterConfig{}
	applyRouterDefaults(&cfg)
	return cfg
}

// LoadRouterConfig reads router configuration from a YAML file, filling
// unset values with defaults.
func LoadRouterConfig(path string) (RouterConfig, error) {
	var cfg RouterConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	applyRouterDefaults(&cfg)
	return cfg, nil
}

func applyRouterDefaults(cfg *RouterConfig) {
	if cfg.UnifiedThreshold == 0 {
		cfg.UnifiedThreshold = 0.45
	}
	if cfg.Epsilon == 0 {
		cfg.Epsilon = 0.10
	}
	zero := WeightsConfig{}
	if cfg.Weights == zero {
		cfg.Weights = WeightsConfig{
			Keyword:    0.35,
			Semantic:   0.25,
			Historical: 0.20,
			Complexity: 0.10,
			Context:    0.10,
		}
	}
	if cfg.History.MaxRecords == 0 {
		cfg.History.MaxRecords = 200
	}
	if cfg.History.MaxAgeDays == 0 {
		cfg.History.MaxAgeDays = 30
	}
	if cfg.History.HalfLifeHours == 0 {
		cfg.History.HalfLifeHours = 72
	}
	if cfg.BoostTimeoutMs == 0 {
		cfg.BoostTimeoutMs = 250
	}
	if cfg.MaxAlternatives == 0 {
		cfg.MaxAlternatives = 3
	}
}

// Package config handles configuration for uipilot.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults for the decision engine thresholds.
const (
	DefaultConfidenceThreshold = 0.7
	DefaultMinimumConfidence   = 0.5
	DefaultGridSize            = 10
)

// Config represents the agent configuration (config.yaml).
type Config struct {
	// LLM binding
	LLMProvider string `yaml:"llmProvider"` // openai, anthropic, gemini, ollama
	Model       string `yaml:"model"`       // Vendor model id
	APIKey      string `yaml:"apiKey"`
	BaseURL     string `yaml:"baseUrl"`

	// Device transport
	AppiumURL    string                 `yaml:"appiumUrl"`
	Capabilities map[string]interface{} `yaml:"capabilities"`

	// Logging
	Verbose bool   `yaml:"verbose"`
	LogFile string `yaml:"logFile"`

	// Artifacts
	ArtifactsDir string `yaml:"artifactsDir"`

	// Legacy coarse toggle; VisionConfig.Enabled takes precedence when set.
	EnableVisionFallback *bool `yaml:"enableVisionFallback"`

	VisionConfig VisionConfig `yaml:"visionConfig"`
}

// VisionConfig controls the vision fallback tiers.
type VisionConfig struct {
	Enabled                   *bool            `yaml:"enabled"`
	FallbackOnElementNotFound *bool            `yaml:"fallbackOnElementNotFound"`
	FallbackOnLowConfidence   *bool            `yaml:"fallbackOnLowConfidence"`
	ConfidenceThreshold       float64          `yaml:"confidenceThreshold"`
	GridSize                  int              `yaml:"gridSize"`
	AlwaysUseVision           bool             `yaml:"alwaysUseVision"`
	PureVisionOnly            bool             `yaml:"pureVisionOnly"`
	PureVisionConfig          PureVisionConfig `yaml:"pureVisionConfig"`
}

// PureVisionConfig controls the last-resort percentage-coordinate tier.
type PureVisionConfig struct {
	Enabled           *bool   `yaml:"enabled"`
	MinimumConfidence float64 `yaml:"minimumConfidence"`
}

// VisionEnabled resolves the master toggle: visionConfig.enabled wins
// over the legacy enableVisionFallback; both default to true.
func (c *Config) VisionEnabled() bool {
	if c.VisionConfig.Enabled != nil {
		return *c.VisionConfig.Enabled
	}
	if c.EnableVisionFallback != nil {
		return *c.EnableVisionFallback
	}
	return true
}

// FallbackOnElementNotFoundEnabled defaults to true.
func (v *VisionConfig) FallbackOnElementNotFoundEnabled() bool {
	if v.FallbackOnElementNotFound == nil {
		return true
	}
	return *v.FallbackOnElementNotFound
}

// FallbackOnLowConfidenceEnabled defaults to true.
func (v *VisionConfig) FallbackOnLowConfidenceEnabled() bool {
	if v.FallbackOnLowConfidence == nil {
		return true
	}
	return *v.FallbackOnLowConfidence
}

// PureVisionEnabled defaults to true.
func (v *VisionConfig) PureVisionEnabled() bool {
	if v.PureVisionConfig.Enabled == nil {
		return true
	}
	return *v.PureVisionConfig.Enabled
}

// Default returns a configuration with every threshold at its default.
func Default() *Config {
	return &Config{
		LLMProvider: "openai",
		VisionConfig: VisionConfig{
			ConfidenceThreshold: DefaultConfidenceThreshold,
			GridSize:            DefaultGridSize,
			PureVisionConfig: PureVisionConfig{
				MinimumConfidence: DefaultMinimumConfidence,
			},
		},
	}
}

// Load loads configuration from a file, fills defaults, and applies
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.fillDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
// A missing file yields the default configuration with env overrides.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := Default()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	if c.LLMProvider == "" {
		c.LLMProvider = "openai"
	}
	if c.VisionConfig.ConfidenceThreshold == 0 {
		c.VisionConfig.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.VisionConfig.GridSize == 0 {
		c.VisionConfig.GridSize = DefaultGridSize
	}
	if c.VisionConfig.PureVisionConfig.MinimumConfidence == 0 {
		c.VisionConfig.PureVisionConfig.MinimumConfidence = DefaultMinimumConfidence
	}
}

// Environment variables override file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("UIPILOT_ARTIFACTS_DIR"); v != "" {
		c.ArtifactsDir = v
	}
	if v := os.Getenv("APPIUM_URL"); v != "" {
		c.AppiumURL = v
	}
	if v := os.Getenv("UIPILOT_API_KEY"); v != "" {
		c.APIKey = v
	}
	if c.APIKey == "" {
		switch c.LLMProvider {
		case "openai":
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "gemini":
			c.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

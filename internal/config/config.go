package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "LITREVIEW_CONFIG"
	apiKeyEnv     = "OPENAI_API_KEY"
	modelEnv      = "LITREVIEW_MODEL"
	cachePathEnv  = "LITREVIEW_CACHE_PATH"
)

// Config holds high-level settings required across the application.
type Config struct {
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Cache    CacheConfig    `yaml:"cache"`
}

// OpenAIConfig defines how to contact the text-generation service.
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// PipelineConfig tunes the review pipeline itself.
type PipelineConfig struct {
	// Workers bounds the number of concurrent per-document analysis calls.
	Workers int `yaml:"workers"`
	// AnalysisCharBudget caps how much document text is sent per analysis call.
	AnalysisCharBudget int `yaml:"analysisCharBudget"`
	// SynthesisCharBudget caps the combined summary text per synthesis call.
	// Runs whose summaries exceed it are batched and reduced.
	SynthesisCharBudget int `yaml:"synthesisCharBudget"`
	// MaxRetries bounds retry attempts per outbound call on transient errors.
	MaxRetries int `yaml:"maxRetries"`
}

// CacheConfig describes the local summary cache.
type CacheConfig struct {
	// Path to the SQLite database. Empty disables caching.
	Path string `yaml:"path"`
	// Disabled turns the cache off even when a path is configured.
	Disabled bool `yaml:"disabled"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: cannot read %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return cfg, fmt.Errorf("config: cannot parse %s: %w", path, err)
		}
		cfg = merge(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Default returns the configuration used when no file or overrides are present.
func Default() Config {
	return Config{
		OpenAI: OpenAIConfig{
			Model: "gpt-5-mini",
		},
		Pipeline: PipelineConfig{
			Workers:             4,
			AnalysisCharBudget:  6000,
			SynthesisCharBudget: 48000,
			MaxRetries:          3,
		},
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(apiKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(modelEnv); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv(cachePathEnv); v != "" {
		c.Cache.Path = v
	}
}

func merge(base, override Config) Config {
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.Pipeline.Workers > 0 {
		base.Pipeline.Workers = override.Pipeline.Workers
	}
	if override.Pipeline.AnalysisCharBudget > 0 {
		base.Pipeline.AnalysisCharBudget = override.Pipeline.AnalysisCharBudget
	}
	if override.Pipeline.SynthesisCharBudget > 0 {
		base.Pipeline.SynthesisCharBudget = override.Pipeline.SynthesisCharBudget
	}
	if override.Pipeline.MaxRetries > 0 {
		base.Pipeline.MaxRetries = override.Pipeline.MaxRetries
	}
	if override.Cache.Path != "" {
		base.Cache.Path = override.Cache.Path
	}
	if override.Cache.Disabled {
		base.Cache.Disabled = true
	}
	return base
}

// CachePath resolves the cache database path, falling back to
// ~/.litreview/litreview.db. Returns empty when caching is disabled.
func (c Config) CachePath() (string, error) {
	if c.Cache.Disabled {
		return "", nil
	}
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	dir := filepath.Join(homeDir, ".litreview")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return filepath.Join(dir, "litreview.db"), nil
}

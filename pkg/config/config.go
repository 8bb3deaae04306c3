package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all biodb configuration.
type Config struct {
	// DBPath is the SQLite database under analysis.
	DBPath string `yaml:"db_path"`
	// CachePath is the SQLite file backing the analysis cache.
	CachePath string `yaml:"cache_path"`
	// HistoryPath is the SQLite file backing the generation history.
	HistoryPath string `yaml:"history_path"`

	Ollama     OllamaConfig     `yaml:"ollama"`
	Cache      CacheConfig      `yaml:"cache"`
	Validation ValidationConfig `yaml:"validation"`
	Sampling   SamplingConfig   `yaml:"sampling"`
}

// OllamaConfig defines the generation backend.
type OllamaConfig struct {
	Model       string        `yaml:"model"`
	APIURL      string        `yaml:"api_url"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CacheConfig controls the analysis cache.
type CacheConfig struct {
	MaxSizeBytes        int64         `yaml:"max_size_bytes"`
	MaxAge              time.Duration `yaml:"max_age"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
}

// ValidationConfig controls confidence scoring.
type ValidationConfig struct {
	StrictMode bool `yaml:"strict_mode"`
}

// SamplingConfig controls how many rows are sampled per table.
type SamplingConfig struct {
	MinSampleSize   int     `yaml:"min_sample_size"`
	MaxSampleSize   int     `yaml:"max_sample_size"`
	ConfidenceLevel float64 `yaml:"confidence_level"`
	MarginError     float64 `yaml:"margin_error"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		CachePath:   "biodb_cache.db",
		HistoryPath: "biodb_history.db",
		Ollama: OllamaConfig{
			Model:       "mistral",
			APIURL:      "http://localhost:11434",
			Temperature: 0.7,
			MaxTokens:   2000,
			Timeout:     2 * time.Minute,
		},
		Cache: CacheConfig{
			MaxSizeBytes:        500 << 20,
			MaxAge:              24 * time.Hour,
			ConfidenceThreshold: 0.95,
		},
		Validation: ValidationConfig{
			StrictMode: true,
		},
		Sampling: SamplingConfig{
			MinSampleSize:   100,
			MaxSampleSize:   10000,
			ConfidenceLevel: 0.99,
			MarginError:     0.01,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads the config at path, falling back to defaults when the
// file does not exist. A file that exists but fails to parse is an error.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

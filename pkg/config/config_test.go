package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Ollama.Model != "mistral" {
		t.Errorf("expected mistral, got %s", cfg.Ollama.Model)
	}
	if cfg.Cache.MaxSizeBytes != 500<<20 {
		t.Errorf("expected 500 MiB budget, got %d", cfg.Cache.MaxSizeBytes)
	}
	if cfg.Cache.MaxAge != 24*time.Hour {
		t.Errorf("expected 24h max age, got %v", cfg.Cache.MaxAge)
	}
	if cfg.Cache.ConfidenceThreshold != 0.95 {
		t.Errorf("expected 0.95 threshold, got %v", cfg.Cache.ConfidenceThreshold)
	}
	if !cfg.Validation.StrictMode {
		t.Error("expected strict mode enabled by default")
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/data/genes.db")

	content := `
db_path: ${TEST_DB_PATH}
cache_path: "cache.db"
ollama:
  model: llama2
  api_url: http://ollama:11434
  temperature: 0.2
cache:
  max_size_bytes: 1048576
  max_age: 1h
  confidence_threshold: 0.85
validation:
  strict_mode: false
`
	dir := t.TempDir()
	path := filepath.Join(dir, "biodb.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DBPath != "/data/genes.db" {
		t.Errorf("env var not expanded: got %s", cfg.DBPath)
	}
	if cfg.Ollama.Model != "llama2" {
		t.Errorf("expected llama2, got %s", cfg.Ollama.Model)
	}
	if cfg.Cache.MaxAge != time.Hour {
		t.Errorf("expected 1h max age, got %v", cfg.Cache.MaxAge)
	}
	if cfg.Cache.ConfidenceThreshold != 0.85 {
		t.Errorf("expected 0.85 threshold, got %v", cfg.Cache.ConfidenceThreshold)
	}
	if cfg.Validation.StrictMode {
		t.Error("expected strict mode disabled")
	}
	// Unset keys keep defaults.
	if cfg.Ollama.MaxTokens != 2000 {
		t.Errorf("expected default max_tokens, got %d", cfg.Ollama.MaxTokens)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/biodb.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/biodb.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ollama.APIURL != "http://localhost:11434" {
		t.Errorf("expected default API URL, got %s", cfg.Ollama.APIURL)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Ollama.Model != "phi3" {
		t.Errorf("unexpected default model %q", cfg.Ollama.Model)
	}
	if cfg.Ollama.MaxRetries != 3 {
		t.Errorf("unexpected default retries %d", cfg.Ollama.MaxRetries)
	}
	if cfg.Chunking.ChunkSize != 1000 || cfg.Chunking.ChunkOverlap != 200 {
		t.Errorf("unexpected chunking defaults %+v", cfg.Chunking)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("a missing config file is not an error, got %v", err)
	}
	if cfg.Ollama.Host != Default().Ollama.Host {
		t.Errorf("expected defaults, got %+v", cfg.Ollama)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytrag.yaml")
	data := []byte("ollama:\n  model: llama3\n  timeout_seconds: 60\nchunking:\n  chunk_size: 500\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ollama.Model != "llama3" {
		t.Errorf("file value not applied, got %q", cfg.Ollama.Model)
	}
	if cfg.Ollama.TimeoutSeconds != 60 {
		t.Errorf("file value not applied, got %d", cfg.Ollama.TimeoutSeconds)
	}
	if cfg.Chunking.ChunkSize != 500 {
		t.Errorf("file value not applied, got %d", cfg.Chunking.ChunkSize)
	}
	// Untouched fields keep their defaults.
	if cfg.Ollama.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("default lost, got %q", cfg.Ollama.EmbeddingModel)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytrag.yaml")
	if err := os.WriteFile(path, []byte("ollama:\n  model: llama3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OLLAMA_MODEL", "mistral")
	t.Setenv("OLLAMA_TIMEOUT", "120")
	t.Setenv("DATABASE_URL", "postgres://env:env@db:5432/env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ollama.Model != "mistral" {
		t.Errorf("env should win over the file, got %q", cfg.Ollama.Model)
	}
	if cfg.Ollama.TimeoutSeconds != 120 {
		t.Errorf("env timeout not applied, got %d", cfg.Ollama.TimeoutSeconds)
	}
	if cfg.Postgres.ConnString != "postgres://env:env@db:5432/env" {
		t.Errorf("env conn string not applied, got %q", cfg.Postgres.ConnString)
	}
}

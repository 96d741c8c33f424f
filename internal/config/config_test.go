package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithEnvKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "openai" || cfg.Model != "gpt-4o-mini" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.APIKey)
	}
	if cfg.SessionMaxIdle != Duration(30*time.Minute) {
		t.Errorf("max idle = %v", cfg.SessionMaxIdle)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("LLM_MODEL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "provider: openai\napi_key: sk-file\nmodel: gpt-4o\nsession_max_idle: 10m\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "sk-file" || cfg.Model != "gpt-4o" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SessionMaxIdle != Duration(10*time.Minute) {
		t.Errorf("max idle = %v", cfg.SessionMaxIdle)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-env")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("LLM_MODEL", "gpt-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_key: sk-file\nmodel: gpt-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "sk-env" || cfg.Model != "gpt-env" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestAnthropicKeySelectsProvider(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "anthropic" || cfg.APIKey != "sk-ant" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error without API key")
	}
}

// Package config loads vibecode configuration.
// Source priority (highest to lowest):
// 1. Environment variables (LLM_API_KEY, LLM_BASE_URL, LLM_MODEL,
//    ANTHROPIC_API_KEY, SANDBOX_IMAGE)
// 2. Config file path passed via --config
// 3. ~/.config/vibecode/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses human-readable YAML values like "30m" or "1h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the full application configuration.
type Config struct {
	// Provider selects the LLM backend: "openai" (any OpenAI-compatible
	// API) or "anthropic".
	Provider string `yaml:"provider"`

	// APIKey authenticates against the selected provider.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the OpenAI-compatible endpoint. Ignored for
	// anthropic.
	BaseURL string `yaml:"base_url"`

	// Model is the default model for new sessions.
	Model string `yaml:"model"`

	// SandboxImage is the container image sandboxes run. It must provide
	// python3; node is needed for javascript execution.
	SandboxImage string `yaml:"sandbox_image"`

	// SessionMaxIdle is how long a session may sit idle before the janitor
	// reaps it.
	SessionMaxIdle Duration `yaml:"session_max_idle"`
}

func defaults() Config {
	return Config{
		Provider:       "openai",
		Model:          "gpt-4o-mini",
		SandboxImage:   "vibecode-sandbox:latest",
		SessionMaxIdle: Duration(30 * time.Minute),
	}
}

// Load reads configuration from path (or the default location when path is
// empty) and applies environment overrides. A missing file is not an error;
// defaults plus environment apply.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".config", "vibecode", "config.yaml")
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("no API key configured (set LLM_API_KEY or api_key in config)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Provider = "anthropic"
		cfg.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("SANDBOX_IMAGE"); v != "" {
		cfg.SandboxImage = v
	}
}

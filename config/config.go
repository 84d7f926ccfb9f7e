package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel             = "gpt-5-mini"
	DefaultLanguage          = "english"
	DefaultMaxRepairAttempts = 2
)

// Config contains configuration for the parser commands and the notation agent
type Config struct {
	OpenAIAPIKey      string `yaml:"openai_api_key"`      // OpenAI API key for LLM provider
	GeminiAPIKey      string `yaml:"gemini_api_key"`      // Google Gemini API key (optional)
	DefaultModel      string `yaml:"default_model"`       // model used by the notation agent
	DefaultLanguage   string `yaml:"default_language"`    // note-name language before any \language directive
	StoreDir          string `yaml:"store_dir"`           // score library directory
	MaxRepairAttempts int    `yaml:"max_repair_attempts"` // parse-error repair rounds for generated drafts
}

// Default returns a config with every default filled in
func Default() *Config {
	return &Config{
		DefaultModel:      DefaultModel,
		DefaultLanguage:   DefaultLanguage,
		StoreDir:          defaultStoreDir(),
		MaxRepairAttempts: DefaultMaxRepairAttempts,
	}
}

func defaultStoreDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "lyparse", "scores")
	}
	return ".lyparse"
}

// Load reads the YAML file at path (a missing file is not an error when path
// is empty or does not exist), then overlays environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("decode config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		env string
		dst *string
	}{
		{"OPENAI_API_KEY", &c.OpenAIAPIKey},
		{"GEMINI_API_KEY", &c.GeminiAPIKey},
		{"LYPARSE_MODEL", &c.DefaultModel},
		{"LYPARSE_LANGUAGE", &c.DefaultLanguage},
		{"LYPARSE_STORE_DIR", &c.StoreDir},
	}
	for _, s := range strs {
		if v, ok := lookup(s.env); ok && v != "" {
			*s.dst = v
		}
	}

	if v, ok := lookup("LYPARSE_MAX_REPAIR_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("LYPARSE_MAX_REPAIR_ATTEMPTS must be a non-negative integer, got %q", v)
		}
		c.MaxRepairAttempts = n
	}
	return nil
}

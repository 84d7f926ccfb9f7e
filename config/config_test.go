package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lyparse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
openai_api_key: sk-file
default_language: english
store_dir: /tmp/scores
max_repair_attempts: 5
`), 0o600))

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LYPARSE_STORE_DIR", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.OpenAIAPIKey)
	assert.Equal(t, "english", cfg.DefaultLanguage)
	assert.Equal(t, "/tmp/scores", cfg.StoreDir)
	assert.Equal(t, 5, cfg.MaxRepairAttempts)
	assert.Equal(t, DefaultModel, cfg.DefaultModel)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxRepairAttempts, cfg.MaxRepairAttempts)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_repair_attempts: [oops"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(t *testing.T, c *Config)
		wantErr bool
	}{
		{
			name: "keys and dirs",
			env: map[string]string{
				"OPENAI_API_KEY":    "sk-env",
				"GEMINI_API_KEY":    "g-env",
				"LYPARSE_STORE_DIR": "/data",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "sk-env", c.OpenAIAPIKey)
				assert.Equal(t, "g-env", c.GeminiAPIKey)
				assert.Equal(t, "/data", c.StoreDir)
			},
		},
		{
			name: "empty values keep defaults",
			env:  map[string]string{"LYPARSE_MODEL": ""},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultModel, c.DefaultModel)
			},
		},
		{
			name: "repair attempts",
			env:  map[string]string{"LYPARSE_MAX_REPAIR_ATTEMPTS": "0"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 0, c.MaxRepairAttempts)
			},
		},
		{
			name:    "bad repair attempts",
			env:     map[string]string{"LYPARSE_MAX_REPAIR_ATTEMPTS": "-1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			err := c.applyEnv(func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

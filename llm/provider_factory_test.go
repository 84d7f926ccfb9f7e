package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderForModel(t *testing.T) {
	tests := []struct {
		model    string
		expected string
	}{
		{"gpt-5-mini", "openai"},
		{"o4-mini", "openai"},
		{"Gemini-2.5-flash", "gemini"},
		{"", "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.expected, providerForModel(tt.model))
		})
	}
}

func TestProviderFactory_GetProvider(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		factory  *ProviderFactory
		model    string
		provider string
		wantName string
		wantErr  string
	}{
		{"openai by model", NewProviderFactory("sk", ""), "gpt-5-mini", "", "openai", ""},
		{"openai explicit", NewProviderFactory("sk", ""), "anything", "OpenAI", "openai", ""},
		{"missing openai key", NewProviderFactory("", ""), "gpt-5", "", "", "openai API key not configured"},
		{"missing gemini key", NewProviderFactory("sk", ""), "gemini-2.5-pro", "", "", "gemini API key not configured"},
		{"unknown provider", NewProviderFactory("sk", "g"), "", "anthropic", "", "unknown provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.factory.GetProvider(ctx, tt.model, tt.provider)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBuildGeminiConfig(t *testing.T) {
	tests := []struct {
		name     string
		request  *GenerationRequest
		mime     string
		contains []string
	}{
		{
			name:     "system prompt only",
			request:  &GenerationRequest{SystemPrompt: "be brief"},
			contains: []string{"be brief"},
		},
		{
			name: "grammar becomes an instruction",
			request: &GenerationRequest{
				SystemPrompt: "write music",
				CFGGrammar:   &CFGConfig{ToolName: "lilypond", Syntax: "lark", Grammar: "start: relative"},
			},
			contains: []string{"write music", "lark grammar", "start: relative"},
		},
		{
			name: "schema switches to JSON",
			request: &GenerationRequest{
				OutputSchema: &OutputSchema{Name: "draft", Schema: map[string]any{"type": "object"}},
			},
			mime:     "application/json",
			contains: []string{`{"type":"object"}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := buildGeminiConfig(tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.mime, config.ResponseMIMEType)
			require.NotNil(t, config.SystemInstruction)
			text := config.SystemInstruction.Parts[0].Text
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
		})
	}
}

func TestBuildGeminiContents(t *testing.T) {
	contents := buildGeminiContents([]map[string]any{
		{"role": "user", "content": "draft a melody"},
		{"role": "assistant", "content": `\relative c' { c4 }`},
		{"role": "user"},
		{"role": "developer", "content": "fix line 1"},
	})
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "user", contents[2].Role)
	assert.Equal(t, "fix line 1", contents[2].Parts[0].Text)
}

func TestGeminiTextAndUsage(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "{ c4 "},
				{Text: "d4 }\n"},
			}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     7,
			CandidatesTokenCount: 3,
			ThoughtsTokenCount:   1,
			TotalTokenCount:      11,
		},
	}
	assert.Equal(t, "{ c4 d4 }", geminiText(resp))
	assert.Equal(t, Usage{InputTokens: 7, OutputTokens: 3, ReasoningTokens: 1, TotalTokens: 11}, geminiUsage(resp.UsageMetadata))
	assert.Equal(t, Usage{}, geminiUsage(nil))
	assert.Empty(t, geminiText(nil))
}

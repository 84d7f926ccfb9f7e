package notation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-lilypond-go/config"
	"github.com/Conceptual-Machines/magda-lilypond-go/lilypond"
	"github.com/Conceptual-Machines/magda-lilypond-go/llm"
)

// fakeProvider replays canned outputs and records every request it sees
type fakeProvider struct {
	name     string
	outputs  []string
	err      error
	requests []llm.GenerationRequest
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, req *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	snapshot := *req
	snapshot.InputArray = append([]map[string]any(nil), req.InputArray...)
	f.requests = append(f.requests, snapshot)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.requests) > len(f.outputs) {
		return nil, fmt.Errorf("unexpected call %d", len(f.requests))
	}
	return &llm.GenerationResponse{
		RawOutput: f.outputs[len(f.requests)-1],
		Usage:     llm.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}, nil
}

func testConfig(repairs int) *config.Config {
	cfg := config.Default()
	cfg.MaxRepairAttempts = repairs
	return cfg
}

func TestNotationAgent_Generate(t *testing.T) {
	provider := &fakeProvider{name: "openai", outputs: []string{
		"```lilypond\n\\relative c' { \\clef treble \\time 2/4 c4 d | e2 }\n```",
	}}
	agent := NewNotationAgentWithProvider(testConfig(2), provider)

	result, err := agent.Generate(context.Background(), "gpt-5-mini", "a rising third")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, `\relative c' { \clef treble \time 2/4 c4 d | e2 }`, result.Source)
	assert.Equal(t, 15, result.Usage.TotalTokens)

	require.Len(t, result.Score.Staves, 1)
	staff := result.Score.Staves[0]
	assert.Equal(t, "treble", staff.Clef)
	assert.Len(t, staff.Measures, 2)

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	require.NotNil(t, req.CFGGrammar)
	assert.Equal(t, "lilypond", req.CFGGrammar.ToolName)
	assert.Nil(t, req.OutputSchema)
	assert.Equal(t, "a rising third", req.InputArray[0]["content"])
}

func TestNotationAgent_Repair(t *testing.T) {
	provider := &fakeProvider{name: "openai", outputs: []string{
		`\relative c' { c4 d e`,
		`\relative c' { c4 d e f }`,
	}}
	agent := NewNotationAgentWithProvider(testConfig(2), provider)

	result, err := agent.Generate(context.Background(), "gpt-5-mini", "four notes")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 30, result.Usage.TotalTokens)

	require.Len(t, provider.requests, 2)
	retry := provider.requests[1].InputArray
	require.Len(t, retry, 3)
	assert.Equal(t, "assistant", retry[1]["role"])
	assert.Equal(t, `\relative c' { c4 d e`, retry[1]["content"])
	assert.Contains(t, retry[2]["content"], "did not parse")
}

func TestNotationAgent_RepairBudgetExhausted(t *testing.T) {
	provider := &fakeProvider{name: "openai", outputs: []string{
		`{ c4 d`,
		`{ c4 d e`,
	}}
	agent := NewNotationAgentWithProvider(testConfig(1), provider)

	_, err := agent.Generate(context.Background(), "gpt-5-mini", "broken")
	require.Error(t, err)
	var perr *lilypond.ParseError
	assert.ErrorAs(t, err, &perr)
	assert.Len(t, provider.requests, 2)
}

func TestNotationAgent_StructuredOutput(t *testing.T) {
	provider := &fakeProvider{name: "gemini", outputs: []string{
		`{"source": "{ c'4 e' g'2 }", "notes": "a C major arpeggio"}`,
	}}
	agent := NewNotationAgentWithProvider(testConfig(0), provider)

	result, err := agent.Generate(context.Background(), "gemini-2.5-flash", "arpeggio")
	require.NoError(t, err)
	assert.Equal(t, `{ c'4 e' g'2 }`, result.Source)

	req := provider.requests[0]
	assert.Nil(t, req.CFGGrammar)
	require.NotNil(t, req.OutputSchema)
	assert.Equal(t, "LilyPondDraft", req.OutputSchema.Name)
	props, ok := req.OutputSchema.Schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "source")
}

func TestNotationAgent_Errors(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		request  string
		wantErr  string
	}{
		{"empty request", &fakeProvider{name: "openai"}, "  ", "empty notation request"},
		{"provider failure", &fakeProvider{name: "openai", err: errors.New("boom")}, "x", "provider request failed"},
		{"empty output", &fakeProvider{name: "openai", outputs: []string{"   "}}, "x", "no LilyPond output"},
		{"bad json", &fakeProvider{name: "gemini", outputs: []string{"not json"}}, "x", "decode draft"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := NewNotationAgentWithProvider(testConfig(0), tt.provider)
			_, err := agent.Generate(context.Background(), "m", tt.request)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsRepairable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"parse error", &lilypond.ParseError{Line: 1}, true},
		{"wrapped unknown duration", fmt.Errorf("note: %w", lilypond.ErrUnknownDuration), true},
		{"chord repeat without chord", lilypond.ErrNoPreviousChord, true},
		{"other", errors.New("disk full"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRepairable(tt.err))
		})
	}
}

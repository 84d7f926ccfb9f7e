package prompt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotationPromptBuilder_BuildPrompt(t *testing.T) {
	tests := []struct {
		name        string
		language    string
		contains    []string
		notContains []string
	}{
		{
			name:        "default language",
			language:    "",
			contains:    []string{"LilyPond", `\relative`, "NOTATION REFERENCE", "OUTPUT FORMAT"},
			notContains: []string{`\language`},
		},
		{
			name:     "other language is declared",
			language: "deutsch",
			contains: []string{`\language "deutsch"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewNotationPromptBuilder(tt.language).BuildPrompt()
			for _, s := range tt.contains {
				assert.Contains(t, p, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, p, s)
			}
		})
	}
}

func TestNotationPromptBuilder_BuildRepairMessage(t *testing.T) {
	msg := NewNotationPromptBuilder("english").BuildRepairMessage(`{ c4 d e`, errors.New("parse error at line 1, column 9: unexpected end"))
	assert.Contains(t, msg, `{ c4 d e`)
	assert.Contains(t, msg, "line 1, column 9")
	assert.Contains(t, msg, "corrected source")
}

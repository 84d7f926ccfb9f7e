package llm

import "context"

// Provider generates text from a prompt and message history
type Provider interface {
	Name() string
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)
}

// GenerationRequest is a provider-neutral generation request
type GenerationRequest struct {
	Model         string
	InputArray    []map[string]any // {"role": "user"|"developer"|"assistant", "content": "..."}
	SystemPrompt  string
	ReasoningMode string // none, minimal, low, medium, high

	// At most one of these shapes the output
	CFGGrammar   *CFGConfig
	OutputSchema *OutputSchema
}

// CFGConfig constrains output with a context-free grammar custom tool
type CFGConfig struct {
	ToolName    string
	Description string
	Grammar     string
	Syntax      string // "lark" or "regex"
}

// OutputSchema requests JSON output matching a schema
type OutputSchema struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Usage counts the tokens of one generation
type Usage struct {
	InputTokens     int
	OutputTokens    int
	ReasoningTokens int
	TotalTokens     int
}

// GenerationResponse holds the raw model output
type GenerationResponse struct {
	RawOutput string
	Usage     Usage
}

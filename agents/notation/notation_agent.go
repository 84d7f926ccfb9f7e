package notation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/Conceptual-Machines/magda-lilypond-go/config"
	"github.com/Conceptual-Machines/magda-lilypond-go/lilypond"
	"github.com/Conceptual-Machines/magda-lilypond-go/llm"
	"github.com/Conceptual-Machines/magda-lilypond-go/metrics"
	"github.com/Conceptual-Machines/magda-lilypond-go/models"
	"github.com/Conceptual-Machines/magda-lilypond-go/prompt"
)

const (
	toolName   = "lilypond"
	schemaName = "LilyPondDraft"
)

// NotationAgent drafts LilyPond from natural language and checks every draft with the parser
type NotationAgent struct {
	provider     llm.Provider
	parser       *lilypond.Parser
	prompts      *prompt.NotationPromptBuilder
	systemPrompt string
	maxRepairs   int
	metrics      *metrics.SentryMetrics
}

// NotationResult is a draft that parsed
type NotationResult struct {
	Source   string            `json:"source"`
	Score    *models.ViewModel `json:"score"`
	Attempts int               `json:"attempts"`
	Usage    llm.Usage         `json:"usage"`
}

// draft is the structured reply requested from providers without CFG support
type draft struct {
	Source string `json:"source" jsonschema:"complete LilyPond source"`
	Notes  string `json:"notes,omitempty" jsonschema:"one sentence about the passage"`
}

// NewNotationAgent creates a notation agent backed by OpenAI
func NewNotationAgent(cfg *config.Config) *NotationAgent {
	return NewNotationAgentWithProvider(cfg, nil)
}

// NewNotationAgentWithProvider creates a notation agent with a specific LLM provider
func NewNotationAgentWithProvider(cfg *config.Config, provider llm.Provider) *NotationAgent {
	if provider == nil {
		provider = llm.NewOpenAIProvider(cfg.OpenAIAPIKey)
	}

	prompts := prompt.NewNotationPromptBuilder(cfg.DefaultLanguage)
	agent := &NotationAgent{
		provider:     provider,
		parser:       lilypond.NewParser(lilypond.WithLanguage(languageOrDefault(cfg.DefaultLanguage))),
		prompts:      prompts,
		systemPrompt: prompts.BuildPrompt(),
		maxRepairs:   max(cfg.MaxRepairAttempts, 0),
		metrics:      metrics.NewSentryMetrics(),
	}

	log.Printf("🎼 NOTATION AGENT INITIALIZED:")
	log.Printf("   Provider: %s", provider.Name())
	log.Printf("   Max repairs: %d", agent.maxRepairs)

	return agent
}

func languageOrDefault(language string) string {
	if language == "" {
		return lilypond.DefaultLanguage
	}
	return language
}

// Generate drafts LilyPond for request. A draft that fails to parse is sent
// back with the error until it parses or the repair budget runs out.
func (a *NotationAgent) Generate(ctx context.Context, model, request string) (*NotationResult, error) {
	startTime := time.Now()
	log.Printf("🎼 NOTATION REQUEST STARTED (Model: %s)", model)

	transaction := sentry.StartTransaction(ctx, "notation.generate")
	defer transaction.Finish()
	transaction.SetTag("model", model)
	ctx = transaction.Context()

	if strings.TrimSpace(request) == "" {
		transaction.SetTag("success", "false")
		return nil, errors.New("empty notation request")
	}

	genReq, err := a.buildRequest(model, request)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	var usage llm.Usage
	var lastErr error
	for attempt := 1; attempt <= a.maxRepairs+1; attempt++ {
		log.Printf("🚀 NOTATION REQUEST: %s model=%s, attempt=%d, input_messages=%d",
			a.provider.Name(), model, attempt, len(genReq.InputArray))

		resp, err := a.provider.Generate(ctx, genReq)
		if err != nil {
			transaction.SetTag("success", "false")
			sentry.CaptureException(err)
			a.metrics.RecordGenerationDuration(ctx, time.Since(startTime), false)
			return nil, fmt.Errorf("provider request failed: %w", err)
		}
		usage = addUsage(usage, resp.Usage)

		source, err := a.extractSource(resp.RawOutput, genReq.OutputSchema != nil)
		if err != nil {
			transaction.SetTag("success", "false")
			return nil, err
		}
		log.Printf("🎼 Draft %d (%d chars):\n%s", attempt, len(source), source)

		parseStart := time.Now()
		score, err := a.parser.Parse(ctx, source)
		a.recordParse(ctx, score, time.Since(parseStart), err == nil)
		if err == nil {
			a.metrics.RecordTokenUsage(ctx, model, usage.TotalTokens, usage.InputTokens, usage.OutputTokens, usage.ReasoningTokens)
			a.metrics.RecordGenerationDuration(ctx, time.Since(startTime), true)
			transaction.SetTag("success", "true")
			transaction.SetTag("attempts", fmt.Sprintf("%d", attempt))

			log.Printf("✅ NOTATION COMPLETE: %d staves, %d notes, %d attempts in %v",
				len(score.Staves), score.NoteCount(), attempt, time.Since(startTime))
			return &NotationResult{
				Source:   source,
				Score:    models.ToViewModel(score),
				Attempts: attempt,
				Usage:    usage,
			}, nil
		}

		lastErr = err
		if !IsRepairable(err) {
			break
		}
		log.Printf("⚠️  Draft %d did not parse: %v", attempt, err)
		genReq.InputArray = append(genReq.InputArray,
			map[string]any{"role": "assistant", "content": source},
			map[string]any{"role": "user", "content": a.prompts.BuildRepairMessage(source, err)},
		)
	}

	log.Printf("❌ NOTATION FAILED: %v", lastErr)
	transaction.SetTag("success", "false")
	sentry.CaptureException(lastErr)
	a.metrics.RecordGenerationDuration(ctx, time.Since(startTime), false)
	return nil, fmt.Errorf("draft did not parse: %w", lastErr)
}

// buildRequest attaches the LilyPond grammar for OpenAI and a JSON schema for everyone else
func (a *NotationAgent) buildRequest(model, request string) (*llm.GenerationRequest, error) {
	req := &llm.GenerationRequest{
		Model:         model,
		InputArray:    []map[string]any{{"role": "user", "content": request}},
		SystemPrompt:  a.systemPrompt,
		ReasoningMode: "low",
	}

	if a.provider.Name() == "openai" {
		req.CFGGrammar = &llm.CFGConfig{
			ToolName:    toolName,
			Description: a.prompts.BuildToolDescription(),
			Grammar:     llm.GetLilyPondGrammar(),
			Syntax:      "lark",
		}
		return req, nil
	}

	schema, err := draftSchema()
	if err != nil {
		return nil, err
	}
	req.OutputSchema = &llm.OutputSchema{
		Name:        schemaName,
		Description: "A LilyPond draft",
		Schema:      schema,
	}
	return req, nil
}

func draftSchema() (map[string]any, error) {
	s, err := jsonschema.For[draft](nil)
	if err != nil {
		return nil, fmt.Errorf("draft schema: %w", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal draft schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal draft schema: %w", err)
	}
	return out, nil
}

func (a *NotationAgent) extractSource(raw string, structured bool) (string, error) {
	source := raw
	if structured {
		var d draft
		if err := json.Unmarshal([]byte(llm.ExtractLilyPond(raw)), &d); err != nil {
			return "", fmt.Errorf("decode draft: %w", err)
		}
		source = d.Source
	}
	source = llm.ExtractLilyPond(source)
	if source == "" {
		return "", errors.New("no LilyPond output in response")
	}
	return source, nil
}

func (a *NotationAgent) recordParse(ctx context.Context, score *models.Score, d time.Duration, ok bool) {
	stats := metrics.ParseStats{Source: "notation_agent", Duration: d, Success: ok}
	if score != nil {
		stats.Staves = len(score.Staves)
		stats.Voices = score.VoiceCount()
		stats.Notes = score.NoteCount()
		stats.Measures = score.MeasureCount()
		stats.Warnings = len(score.Warnings)
	}
	a.metrics.RecordParse(ctx, stats)
}

// IsRepairable reports whether a parse failure is something the model can fix by rewriting the source
func IsRepairable(err error) bool {
	var perr *lilypond.ParseError
	return errors.As(err, &perr) ||
		errors.Is(err, lilypond.ErrUnknownDuration) ||
		errors.Is(err, lilypond.ErrNoPreviousChord) ||
		errors.Is(err, lilypond.ErrEmptyChord)
}

func addUsage(a, b llm.Usage) llm.Usage {
	return llm.Usage{
		InputTokens:     a.InputTokens + b.InputTokens,
		OutputTokens:    a.OutputTokens + b.OutputTokens,
		ReasoningTokens: a.ReasoningTokens + b.ReasoningTokens,
		TotalTokens:     a.TotalTokens + b.TotalTokens,
	}
}

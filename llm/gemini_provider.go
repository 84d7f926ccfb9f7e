package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const providerNameGemini = "gemini"

// GeminiProvider implements the Provider interface using the Gemini API.
// Gemini has no grammar-constrained tool, so CFG grammars are sent as instructions.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// Generate sends the request through Models.GenerateContent
func (p *GeminiProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🎵 GEMINI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "gemini.generate")
	defer transaction.Finish()
	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)

	config, err := buildGeminiConfig(request)
	if err != nil {
		return nil, err
	}
	contents := buildGeminiContents(request.InputArray)

	span := transaction.StartChild("gemini.api_call")
	resp, err := p.client.Models.GenerateContent(ctx, request.Model, contents, config)
	span.Finish()
	if err != nil {
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", time.Since(startTime), err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	text := geminiText(resp)
	if request.OutputSchema == nil {
		text = ExtractLilyPond(text)
	}
	if text == "" {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("gemini response did not include any output text")
	}

	usage := geminiUsage(resp.UsageMetadata)
	log.Printf("📊 USAGE: input=%d, output=%d, reasoning=%d, total=%d",
		usage.InputTokens, usage.OutputTokens, usage.ReasoningTokens, usage.TotalTokens)

	transaction.SetTag("success", "true")
	log.Printf("✅ GEMINI GENERATION COMPLETED in %v", time.Since(startTime))
	return &GenerationResponse{RawOutput: text, Usage: usage}, nil
}

// buildGeminiConfig folds the system prompt, grammar and schema into the generation config
func buildGeminiConfig(request *GenerationRequest) (*genai.GenerateContentConfig, error) {
	var instruction strings.Builder
	instruction.WriteString(request.SystemPrompt)

	config := &genai.GenerateContentConfig{}

	if request.CFGGrammar != nil {
		fmt.Fprintf(&instruction, "\n\nReply with source that matches this %s grammar and nothing else:\n%s",
			request.CFGGrammar.Syntax, request.CFGGrammar.Grammar)
	}
	if request.OutputSchema != nil {
		schema, err := json.Marshal(request.OutputSchema.Schema)
		if err != nil {
			return nil, fmt.Errorf("marshal output schema %s: %w", request.OutputSchema.Name, err)
		}
		config.ResponseMIMEType = "application/json"
		fmt.Fprintf(&instruction, "\n\nReply with a JSON object matching this schema:\n%s", schema)
	}

	if instruction.Len() > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(instruction.String())},
		}
	}
	return config, nil
}

// buildGeminiContents maps the input array onto user and model turns
func buildGeminiContents(items []map[string]any) []*genai.Content {
	contents := make([]*genai.Content, 0, len(items))
	for _, item := range items {
		role, _ := item["role"].(string)
		content, ok := item["content"].(string)
		if !ok || content == "" {
			log.Printf("⚠️  Skipping invalid input item (missing content): %v", item)
			continue
		}
		geminiRole := "user"
		if role == assistantRole {
			geminiRole = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{{Text: content}},
		})
	}
	return contents
}

func geminiText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

func geminiUsage(usage *genai.GenerateContentResponseUsageMetadata) Usage {
	if usage == nil {
		return Usage{}
	}
	return Usage{
		InputTokens:     int(usage.PromptTokenCount),
		OutputTokens:    int(usage.CandidatesTokenCount),
		ReasoningTokens: int(usage.ThoughtsTokenCount),
		TotalTokens:     int(usage.TotalTokenCount),
	}
}

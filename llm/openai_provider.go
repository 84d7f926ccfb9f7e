package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

const (
	// Role constants
	userRole      = "user"
	developerRole = "developer"
	assistantRole = "assistant"

	// Reasoning effort levels
	reasoningNone    = "none"
	reasoningMinimal = "minimal"
	reasoningLow     = "low"
	reasoningMedium  = "medium"
	reasoningHigh    = "high"
	reasoningMin     = "min"
	reasoningMed     = "med"

	providerNameOpenAI = "openai"

	defaultResponsesURL = "https://api.openai.com/v1/responses"

	// Logging limits
	maxPreviewChars      = 200
	maxErrorPreviewChars = 500
)

// OpenAIProvider implements the Provider interface using OpenAI's Responses API
type OpenAIProvider struct {
	client       *openai.Client
	apiKey       string // raw HTTP requests carry the key themselves
	responsesURL string
	httpClient   *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client:       &client,
		apiKey:       apiKey,
		responsesURL: defaultResponsesURL,
		httpClient:   http.DefaultClient,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate implements non-streaming generation using OpenAI's Responses API.
// CFG requests go through a raw HTTP call because the SDK has no custom grammar tool type.
func (p *OpenAIProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🎵 OPENAI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)
	transaction.SetTag("cfg_enabled", fmt.Sprintf("%t", request.CFGGrammar != nil))

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_call")
	apiStartTime := time.Now()

	var (
		resp *responses.Response
		err  error
	)
	if request.CFGGrammar != nil {
		resp, err = p.generateWithCFG(ctx, params, request.CFGGrammar)
	} else {
		resp, err = p.client.Responses.New(ctx, params)
	}

	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", apiDuration)

	result, err := p.processResponse(resp, transaction, request.CFGGrammar)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ OPENAI GENERATION COMPLETED in %v", time.Since(startTime))
	return result, nil
}

// buildRequestParams converts GenerationRequest to OpenAI-specific ResponseNewParams
func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) responses.ResponseNewParams {
	inputItems := responses.ResponseInputParam{}

	for _, item := range request.InputArray {
		role, hasRole := item["role"].(string)
		content, hasContent := item["content"].(string)

		if !hasRole || !hasContent {
			log.Printf("⚠️  Skipping invalid input item (missing role or content): %v", item)
			continue
		}

		var roleEnum responses.EasyInputMessageRole
		switch role {
		case developerRole:
			roleEnum = responses.EasyInputMessageRoleDeveloper
		case assistantRole:
			roleEnum = responses.EasyInputMessageRoleAssistant
		default:
			roleEnum = responses.EasyInputMessageRoleUser
		}

		inputItems = append(inputItems,
			responses.ResponseInputItemParamOfMessage(content, roleEnum),
		)
	}

	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
		Instructions: openai.String(request.SystemPrompt),
		Reasoning: shared.ReasoningParam{
			Effort: reasoningEffort(request.ReasoningMode),
		},
	}

	if request.OutputSchema != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema(
				request.OutputSchema.Name,
				request.OutputSchema.Schema,
			),
		}
	}

	return params
}

// reasoningEffort maps a reasoning mode to the API enum, defaulting to low
func reasoningEffort(mode string) shared.ReasoningEffort {
	switch mode {
	case reasoningNone:
		return shared.ReasoningEffort("none")
	case reasoningMinimal, reasoningMin:
		return shared.ReasoningEffort("minimal")
	case reasoningMedium, reasoningMed:
		return responses.ReasoningEffortMedium
	case reasoningHigh:
		return responses.ReasoningEffortHigh
	default:
		return responses.ReasoningEffortLow
	}
}

// buildCFGTool builds the custom tool payload that constrains output to a grammar
func buildCFGTool(cfg *CFGConfig) map[string]any {
	syntax := cfg.Syntax
	if syntax == "" {
		syntax = "lark"
	}
	return map[string]any{
		"type":        "custom",
		"name":        cfg.ToolName,
		"description": cfg.Description,
		"format": map[string]any{
			"type":       "grammar",
			"syntax":     syntax,
			"definition": cfg.Grammar,
		},
	}
}

// generateWithCFG sends params plus a CFG custom tool as a raw Responses API request
func (p *OpenAIProvider) generateWithCFG(ctx context.Context, params responses.ResponseNewParams, cfg *CFGConfig) (*responses.Response, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	var paramsMap map[string]any
	if err := json.Unmarshal(paramsJSON, &paramsMap); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}

	paramsMap["text"] = map[string]any{"format": map[string]any{"type": "text"}}
	paramsMap["tools"] = []any{buildCFGTool(cfg)}
	paramsMap["tool_choice"] = map[string]any{"type": "custom", "name": cfg.ToolName}
	paramsMap["parallel_tool_calls"] = false
	log.Printf("🔧 CFG GRAMMAR CONFIGURED: %s (syntax: %s, %d chars)", cfg.ToolName, cfg.Syntax, len(cfg.Grammar))

	body, err := json.Marshal(paramsMap)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	log.Printf("📤 Making raw HTTP request (JSON size: %d bytes)", len(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.responsesURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			log.Printf("⚠️  Failed to close response body: %v", closeErr)
		}
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", httpResp.StatusCode, truncate(string(respBody), maxErrorPreviewChars))
	}

	resp := &responses.Response{}
	if err := json.Unmarshal(respBody, resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp, nil
}

// extractCFGToolInput returns the input of the first custom tool call in the response
func extractCFGToolInput(resp *responses.Response) string {
	for i, outputItem := range resp.Output {
		raw, err := json.Marshal(outputItem)
		if err != nil {
			continue
		}
		var item map[string]any
		if json.Unmarshal(raw, &item) != nil {
			continue
		}
		if kind, _ := item["type"].(string); kind != "custom_tool_call" {
			continue
		}
		if input, ok := item["input"].(string); ok && input != "" {
			log.Printf("🔧 Found CFG tool call input in output item %d (%d chars)", i, len(input))
			return input
		}
	}
	return ""
}

// processResponse converts an OpenAI Response to GenerationResponse
func (p *OpenAIProvider) processResponse(
	resp *responses.Response,
	transaction *sentry.Span,
	cfgConfig *CFGConfig,
) (*GenerationResponse, error) {
	span := transaction.StartChild("process_response")
	defer span.Finish()

	usage := usageFromOpenAI(resp.Usage)
	p.logUsageStats(usage)

	if cfgConfig != nil {
		if source := extractCFGToolInput(resp); source != "" {
			return &GenerationResponse{RawOutput: source, Usage: usage}, nil
		}
		// Models occasionally answer in plain text despite the tool; keep it if it is LilyPond
		text := ExtractLilyPond(resp.OutputText())
		if IsLilyPondSource(text) {
			log.Printf("⚠️  CFG tool was not called, using LilyPond found in text output")
			return &GenerationResponse{RawOutput: text, Usage: usage}, nil
		}
		log.Printf("❌ CFG was configured but output is not LilyPond: %s", truncate(text, maxPreviewChars))
		return nil, fmt.Errorf("CFG grammar %s was configured but the model did not produce LilyPond source", cfgConfig.ToolName)
	}

	text := ExtractLilyPond(resp.OutputText())
	log.Printf("📥 OPENAI RESPONSE: output_length=%d, output_items=%d, tokens=%d",
		len(text), len(resp.Output), usage.TotalTokens)
	if text == "" {
		return nil, fmt.Errorf("openai response did not include any output text")
	}
	return &GenerationResponse{RawOutput: text, Usage: usage}, nil
}

func usageFromOpenAI(u responses.ResponseUsage) Usage {
	return Usage{
		InputTokens:     int(u.InputTokens),
		OutputTokens:    int(u.OutputTokens),
		ReasoningTokens: int(u.OutputTokensDetails.ReasoningTokens),
		TotalTokens:     int(u.TotalTokens),
	}
}

// logUsageStats logs token usage statistics
func (p *OpenAIProvider) logUsageStats(usage Usage) {
	log.Printf("📊 USAGE: input=%d, output=%d, reasoning=%d, total=%d",
		usage.InputTokens, usage.OutputTokens, usage.ReasoningTokens, usage.TotalTokens)
}

// truncate truncates a string to maxLen characters
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

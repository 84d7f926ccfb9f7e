package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// ParseStats summarizes one parsed document
type ParseStats struct {
	Source   string
	Staves   int
	Voices   int
	Notes    int
	Measures int
	Warnings int
	Duration time.Duration
	Success  bool
}

// RecordTokenUsage records LLM token usage metrics
func (m *SentryMetrics) RecordTokenUsage(ctx context.Context, model string, totalTokens, inputTokens, outputTokens, reasoningTokens int) {
	if !m.enabled {
		return
	}

	// Tag the enclosing transaction so usage shows up next to the request
	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("llm.model", model)
		transaction.SetTag("llm.total_tokens", fmt.Sprintf("%d", totalTokens))
		transaction.SetData("llm.total_tokens", totalTokens)
		transaction.SetData("llm.input_tokens", inputTokens)
		transaction.SetData("llm.output_tokens", outputTokens)
		transaction.SetData("llm.reasoning_tokens", reasoningTokens)
	}

	span := sentry.StartSpan(ctx, "llm.token_usage")
	defer span.Finish()

	span.SetTag("model", model)
	span.SetData("total_tokens", totalTokens)
	span.SetData("input_tokens", inputTokens)
	span.SetData("output_tokens", outputTokens)
	span.SetData("reasoning_tokens", reasoningTokens)

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Token Usage: %s", model)
}

// RecordParse records the shape of a parsed score
func (m *SentryMetrics) RecordParse(ctx context.Context, stats ParseStats) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "lilypond.parse_stats")
	defer span.Finish()

	span.SetTag("success", fmt.Sprintf("%t", stats.Success))
	if stats.Source != "" {
		span.SetTag("source", stats.Source)
	}

	span.SetData("staves", stats.Staves)
	span.SetData("voices", stats.Voices)
	span.SetData("notes", stats.Notes)
	span.SetData("measures", stats.Measures)
	span.SetData("warnings", stats.Warnings)
	span.SetData("duration_ms", stats.Duration.Milliseconds())

	if stats.Success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInvalidArgument
	}
	span.Description = fmt.Sprintf("Parse: %d staves, %d notes", stats.Staves, stats.Notes)
}

// RecordGenerationDuration records generation request duration
func (m *SentryMetrics) RecordGenerationDuration(ctx context.Context, duration time.Duration, success bool) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "generation.request")
	defer span.Finish()

	span.SetTag("success", fmt.Sprintf("%t", success))
	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("success", success)

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("Generation Request: %t", success)
}

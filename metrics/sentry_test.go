package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
)

func TestSentryMetrics_RecordWithoutClient(t *testing.T) {
	m := NewSentryMetrics()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordTokenUsage(ctx, "gpt-5-mini", 15, 10, 5, 2)
		m.RecordParse(ctx, ParseStats{Source: "etude.ly", Staves: 1, Notes: 4, Measures: 1, Duration: time.Millisecond, Success: true})
		m.RecordParse(ctx, ParseStats{Source: "broken.ly"})
		m.RecordGenerationDuration(ctx, time.Second, false)
	})
}

func TestSentryMetrics_TagsTransaction(t *testing.T) {
	m := NewSentryMetrics()
	tx := sentry.StartTransaction(context.Background(), "notation.generate")
	defer tx.Finish()

	m.RecordTokenUsage(tx.Context(), "gpt-5-mini", 15, 10, 5, 2)
	assert.Equal(t, "gpt-5-mini", tx.Tags["llm.model"])
	assert.Equal(t, "15", tx.Tags["llm.total_tokens"])
}

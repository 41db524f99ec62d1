package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "fitcoach"

// Metrics holds the service's metric instruments. Instruments come from the
// global meter provider, so they are no-ops until Initialize installs one.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	parseStrategy  metric.Int64Counter
	parseDegraded  metric.Int64Counter
	weeksGenerated metric.Int64Counter
	llmDuration    metric.Float64Histogram
}

func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	parseStrategy, err := meter.Int64Counter("coach.parse.strategy",
		metric.WithDescription("Plan parses by winning strategy"))
	if err != nil {
		return nil, fmt.Errorf("failed to create parse strategy counter: %w", err)
	}
	parseDegraded, err := meter.Int64Counter("coach.parse.degraded",
		metric.WithDescription("Plan parses that fell past model-assisted extraction"))
	if err != nil {
		return nil, fmt.Errorf("failed to create parse degraded counter: %w", err)
	}
	weeksGenerated, err := meter.Int64Counter("coach.weeks.generated",
		metric.WithDescription("Progression weeks synthesized"))
	if err != nil {
		return nil, fmt.Errorf("failed to create weeks generated counter: %w", err)
	}
	llmDuration, err := meter.Float64Histogram("llm.completion.duration",
		metric.WithDescription("LLM completion latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("failed to create llm duration histogram: %w", err)
	}

	return &Metrics{
		parseStrategy:  parseStrategy,
		parseDegraded:  parseDegraded,
		weeksGenerated: weeksGenerated,
		llmDuration:    llmDuration,
	}, nil
}

// RecordParse counts one parse outcome.
func (m *Metrics) RecordParse(ctx context.Context, strategy string, degraded bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("strategy", strategy))
	m.parseStrategy.Add(ctx, 1, attrs)
	if degraded {
		m.parseDegraded.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) RecordWeekGenerated(ctx context.Context, week int) {
	if m == nil {
		return
	}
	m.weeksGenerated.Add(ctx, 1, metric.WithAttributes(attribute.Int("week", week)))
}

// RecordCompletion observes one LLM call. outcome is ok, timeout or error.
func (m *Metrics) RecordCompletion(ctx context.Context, provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.llmDuration.Record(ctx, float64(elapsed.Microseconds())/1000,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("outcome", outcome),
		))
}

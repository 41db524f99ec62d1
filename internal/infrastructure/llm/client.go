// Package llm provides the text-completion providers behind domain.TextCompleter.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
	"github.com/mansoorceksport/fitcoach/internal/telemetry"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// Config holds provider settings. Per-call deadlines come from the caller's
// context; Timeout is only the HTTP client's hard ceiling.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Referer  string
	Title    string
	Timeout  time.Duration
}

// New builds the configured provider wrapped with tracing and latency metrics.
func New(cfg Config, metrics *telemetry.Metrics, log *logger.Logger) (domain.TextCompleter, error) {
	var next domain.TextCompleter
	switch cfg.Provider {
	case ProviderOpenRouter, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openrouter provider requires an api key")
		}
		cfg.Provider = ProviderOpenRouter
		next = NewOpenRouterClient(cfg)
	case ProviderOllama:
		next = NewOllamaClient(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	return &instrumentedCompleter{
		next:     next,
		provider: cfg.Provider,
		model:    cfg.Model,
		metrics:  metrics,
		log:      log.With("component", "llm", "provider", cfg.Provider),
	}, nil
}

type instrumentedCompleter struct {
	next     domain.TextCompleter
	provider string
	model    string
	metrics  *telemetry.Metrics
	log      *logger.Logger
}

func (c *instrumentedCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	ctx, span := telemetry.Tracer().Start(ctx, "llm.Complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", c.provider),
			attribute.String("llm.model", model),
			attribute.Bool("llm.json", req.JSON),
			attribute.Int("llm.prompt_chars", len(req.Prompt)),
		),
	)
	defer span.End()

	start := time.Now()
	out, err := c.next.Complete(ctx, req)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, domain.ErrUpstreamTimeout) {
			outcome = "timeout"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Warn("llm completion failed", "model", model, "outcome", outcome, "elapsed_ms", elapsed.Milliseconds(), "error", err)
	} else {
		span.SetAttributes(attribute.Int("llm.response_chars", len(out)))
		c.log.Debug("llm completion", "model", model, "elapsed_ms", elapsed.Milliseconds())
	}
	c.metrics.RecordCompletion(ctx, c.provider, outcome, elapsed)
	return out, err
}

// transportError maps an http.Client failure onto the domain upstream errors.
func transportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}

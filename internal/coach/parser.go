package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
)

// Strategy names the parse strategy that produced a plan.
type Strategy string

const (
	StrategyDirect     Strategy = "direct"
	StrategyLLM        Strategy = "llm"
	StrategyLLMCompact Strategy = "llm_compact"
	StrategyPattern    Strategy = "pattern"
	StrategyHeuristic  Strategy = "heuristic"
	StrategyFallback   Strategy = "fallback"
)

// Degraded reports whether the strategy is a lower-fidelity fallback.
func (s Strategy) Degraded() bool {
	switch s {
	case StrategyPattern, StrategyHeuristic, StrategyFallback:
		return true
	}
	return false
}

// ParseRecorder receives one event per parse.
type ParseRecorder interface {
	RecordParse(ctx context.Context, strategy string, degraded bool)
}

// ParserOptions configures a Parser
type ParserOptions struct {
	// Timeout bounds the primary model-assisted extraction.
	Timeout time.Duration
	// FallbackTimeout bounds the compact retry.
	FallbackTimeout time.Duration
	FallbackModel   string
	Logger          *logger.Logger
	Recorder        ParseRecorder
}

// Parser converts program text into a Plan through a cascade of strategies.
type Parser struct {
	completer domain.TextCompleter
	opts      ParserOptions
	log       *logger.Logger
}

// NewParser creates a Parser. A nil completer disables model-assisted extraction.
func NewParser(completer domain.TextCompleter, opts ParserOptions) *Parser {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.FallbackTimeout <= 0 {
		opts.FallbackTimeout = opts.Timeout / 2
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Parser{completer: completer, opts: opts, log: log}
}

// Parse always returns a valid, normalized plan together with the strategy
// that produced it.
func (p *Parser) Parse(ctx context.Context, raw string, programID uint) (*domain.Plan, Strategy) {
	plan, strategy := p.parse(ctx, raw, programID)

	if p.opts.Recorder != nil {
		p.opts.Recorder.RecordParse(ctx, string(strategy), strategy.Degraded())
	}
	if strategy.Degraded() {
		p.log.Warn("plan parse degraded", "program_id", programID, "strategy", string(strategy), "text_length", len(raw))
	} else {
		p.log.Debug("plan parsed", "program_id", programID, "strategy", string(strategy))
	}
	return plan, strategy
}

func (p *Parser) parse(ctx context.Context, raw string, programID uint) (*domain.Plan, Strategy) {
	// 1. Already structured
	if plan, err := DecodeStructured(raw); err == nil {
		if plan = Normalize(plan, programID); plan.Validate() == nil {
			return plan, StrategyDirect
		}
	}

	// 2. Model-assisted extraction, then one compact retry
	if p.completer != nil && strings.TrimSpace(raw) != "" {
		plan, err := p.extract(ctx, extractionTmpl, raw, "", p.opts.Timeout)
		if err == nil {
			if plan = Normalize(plan, programID); plan.Validate() == nil {
				return plan, StrategyLLM
			}
		} else {
			p.log.Warn("model extraction failed", "program_id", programID, "error", err)
		}

		plan, err = p.extract(ctx, compactExtractionTmpl, truncate(raw, 4000), p.opts.FallbackModel, p.opts.FallbackTimeout)
		if err == nil {
			if plan = Normalize(plan, programID); plan.Validate() == nil {
				return plan, StrategyLLMCompact
			}
		} else {
			p.log.Warn("compact model extraction failed", "program_id", programID, "error", err)
		}
	}

	// 3. Line patterns
	if plan := Normalize(parsePatterns(raw), programID); plan.Validate() == nil {
		return plan, StrategyPattern
	}

	// 4. Keyword heuristic
	if plan := Normalize(parseHeuristic(raw), programID); plan.Validate() == nil {
		return plan, StrategyHeuristic
	}

	// 5. Fixed minimal plan
	return Normalize(fallbackPlan(), programID), StrategyFallback
}

// extract asks the completer to re-emit raw as structured JSON.
func (p *Parser) extract(ctx context.Context, tmpl *template.Template, raw, model string, timeout time.Duration) (*domain.Plan, error) {
	prompt, err := renderPrompt(tmpl, extractionPromptContext{Program: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to render extraction prompt: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := p.completer.Complete(callCtx, domain.CompletionRequest{Prompt: prompt, Model: model, JSON: true})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrUpstreamTimeout) {
			err = fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
		}
		return nil, err
	}

	jsonStr, err := extractJSON(out)
	if err != nil {
		return nil, err
	}
	return DecodeStructured(jsonStr)
}

// fallbackPlan is the fixed minimal plan used when nothing else parses.
func fallbackPlan() *domain.Plan {
	plan := domain.NewPlan()
	plan.Week(1).Days[1] = &domain.DayPlan{
		Label: defaultDayLabel,
		Exercises: []domain.ExerciseSpec{{
			Name:        "Push-ups",
			Sets:        domain.DefaultSets,
			Reps:        domain.DefaultReps,
			RestSeconds: domain.DefaultRestSeconds,
		}},
	}
	return plan
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

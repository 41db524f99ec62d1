package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mansoorceksport/fitcoach/internal/coach"
	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
)

const programWeeks = 4

// LLMSettings bundles the model collaborators the coaching services share.
type LLMSettings struct {
	Completer        domain.TextCompleter
	Retriever        domain.ContextRetriever
	Timeout          time.Duration
	RetrieverTimeout time.Duration
	TopK             int
}

func (s LLMSettings) withDefaults() LLMSettings {
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.RetrieverTimeout <= 0 {
		s.RetrieverTimeout = 3 * time.Second
	}
	if s.TopK <= 0 {
		s.TopK = 4
	}
	return s
}

// ProgramService manages profiles and creates program versions.
type ProgramService struct {
	profiles domain.ProfileRepository
	plans    *PlanService
	parser   *coach.Parser
	llm      LLMSettings
	log      *logger.Logger
}

func NewProgramService(profiles domain.ProfileRepository, plans *PlanService, parser *coach.Parser, llm LLMSettings, log *logger.Logger) *ProgramService {
	return &ProgramService{
		profiles: profiles,
		plans:    plans,
		parser:   parser,
		llm:      llm.withDefaults(),
		log:      log.With("service", "ProgramService"),
	}
}

type GenerateResult struct {
	Program *domain.Program  `json:"program"`
	Plan    *domain.PlanView `json:"plan"`
	// Fallback is true when the starter program replaced an unavailable model.
	Fallback bool `json:"fallback"`
}

func (s *ProgramService) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

// UpsertProfile stores the onboarding answers. Standing restrictions already
// on file are kept alongside the submitted ones.
func (s *ProgramService) UpsertProfile(ctx context.Context, userID string, in *domain.UserProfile) (*domain.UserProfile, error) {
	if in.DaysPerWeek < 1 || in.DaysPerWeek > 7 {
		return nil, &domain.ValidationError{Field: "days_per_week", Message: "must be between 1 and 7"}
	}
	in.UserID = userID

	existing, err := s.profiles.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		in.CreatedAt = existing.CreatedAt
		for _, r := range existing.Restrictions {
			in.AddRestriction(r)
		}
	case !errors.Is(err, domain.ErrProfileNotFound):
		return nil, err
	}

	if err := s.profiles.Upsert(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// Generate stores the profile and creates a new program from it. The model
// writes the program from the profile and retrieved coaching notes; when it
// is unavailable a deterministic starter program is used instead.
func (s *ProgramService) Generate(ctx context.Context, userID string, in *domain.UserProfile) (*GenerateResult, error) {
	in.UserID = userID
	if err := in.ValidateForGeneration(); err != nil {
		return nil, err
	}
	profile, err := s.UpsertProfile(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	name := programName(profile)
	query := fmt.Sprintf("%s %s %s %s workout program", profile.Goal, profile.Experience, profile.Equipment, profile.Style)
	snippets := retrieve(ctx, s.llm.Retriever, s.llm.RetrieverTimeout, query, s.llm.TopK)

	var (
		text     string
		plan     *domain.Plan
		fallback bool
	)
	text, err = complete(ctx, s.llm.Completer, s.llm.Timeout, generationTmpl, generationPromptContext{
		Profile:      profile,
		Weeks:        programWeeks,
		Restrictions: describeRestrictions(profile.Restrictions),
		Snippets:     snippets,
	})
	if err != nil {
		s.log.Warn("program generation fell back to starter plan", "user_id", userID, "error", err)
		plan = coach.Normalize(coach.StarterPlan(profile), 0)
		text = coach.Render(name, plan)
		fallback = true
	} else {
		plan, _ = s.parser.Parse(ctx, text, 0)
		filtered := coach.Normalize(coach.FilterRestricted(plan, profile.Equipment, profile.Restrictions), 0)
		if !coach.Equal(plan, filtered) && filtered.Validate() == nil {
			// store the text the records were built from
			plan = filtered
			text = coach.Render(name, plan)
		}
	}

	program, err := s.plans.SaveVersion(ctx, userID, name, text, domain.ProgramSourceGenerated, plan)
	if err != nil {
		return nil, err
	}
	view, err := s.plans.GetCurrentPlan(ctx, userID, program.ID)
	if err != nil {
		return nil, err
	}
	return &GenerateResult{Program: program, Plan: view, Fallback: fallback}, nil
}

// CreateFromText stores externally written program text as a new version.
func (s *ProgramService) CreateFromText(ctx context.Context, userID, name, text string) (*domain.Program, error) {
	if strings.TrimSpace(name) == "" {
		name = "Imported Program"
	}
	return s.plans.SaveVersion(ctx, userID, name, text, domain.ProgramSourceImported, nil)
}

func (s *ProgramService) ListPrograms(ctx context.Context, userID string) ([]*domain.Program, error) {
	return s.plans.programs.ListByUser(ctx, userID)
}

func programName(p *domain.UserProfile) string {
	goal := strings.TrimSpace(p.Goal)
	if goal == "" {
		return "Training Program"
	}
	first, size := utf8.DecodeRuneInString(goal)
	return string(unicode.ToUpper(first)) + goal[size:] + " Program"
}

func describeRestrictions(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, coach.DescribeRestriction(t))
	}
	return out
}

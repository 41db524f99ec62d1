package service

import (
	"context"
	"errors"
	"time"

	"github.com/mansoorceksport/fitcoach/internal/coach"
	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
)

const (
	progressFallbackMessage = "Great work logging your progress! Keep it up and stay consistent with your plan. Try adding a little more effort next session if it felt easy."
	questionFallbackMessage = "I couldn't look that up right now. Check the exercise notes in your current plan, and ask me again in a moment."
	clarifyMessage          = "I'm not sure what you'd like to change. You can tell me about your progress, ask a question, or request a change like \"remove day 2\" or \"no jumping exercises\"."
	noChangeMessage         = "Your plan already matches that request, so nothing was changed."
	emptyPlanMessage        = "That change would leave your plan without any exercises, so I kept your current plan."
)

// FeedbackResult is the coach's response to one feedback message.
type FeedbackResult struct {
	Intent    domain.IntentKind `json:"intent"`
	Updated   bool              `json:"updated"`
	Message   string            `json:"message,omitempty"`
	ProgramID uint              `json:"program_id,omitempty"`
	Plan      *domain.PlanView  `json:"plan,omitempty"`
}

// FeedbackService runs the feedback loop: classify the message, answer or
// mutate the current plan, and record the conversation.
type FeedbackService struct {
	plans         *PlanService
	profiles      domain.ProfileRepository
	conversations domain.ConversationRepository
	mutator       *coach.Mutator
	llm           LLMSettings
	log           *logger.Logger
	now           func() time.Time
}

func NewFeedbackService(
	plans *PlanService,
	profiles domain.ProfileRepository,
	conversations domain.ConversationRepository,
	mutator *coach.Mutator,
	llm LLMSettings,
	log *logger.Logger,
) *FeedbackService {
	return &FeedbackService{
		plans:         plans,
		profiles:      profiles,
		conversations: conversations,
		mutator:       mutator,
		llm:           llm.withDefaults(),
		log:           log.With("service", "FeedbackService"),
		now:           time.Now,
	}
}

// ApplyFeedback handles one feedback message. Malformed or unrecognized
// messages never fail; they get a clarifying reply.
func (s *FeedbackService) ApplyFeedback(ctx context.Context, userID, message string) (*FeedbackResult, error) {
	if message == "" {
		return nil, &domain.ValidationError{Field: "message", Message: "is required"}
	}

	intent := coach.Classify(message)
	result := &FeedbackResult{Intent: intent.Kind}

	var err error
	switch intent.Kind {
	case domain.IntentProgress:
		result.Message = s.progressNote(ctx, message)
	case domain.IntentQuestion:
		result.Message = s.answer(ctx, userID, message)
	case domain.IntentRoutineChange:
		err = s.applyChange(ctx, userID, intent.Change, result)
	default:
		result.Message = clarifyMessage
	}
	if err != nil {
		return nil, err
	}

	s.record(ctx, userID, message, result)
	return result, nil
}

func (s *FeedbackService) progressNote(ctx context.Context, message string) string {
	note, err := complete(ctx, s.llm.Completer, s.llm.Timeout, progressNoteTmpl, messagePromptContext{Message: message})
	if err != nil {
		s.log.Warn("progress note fell back", "error", err)
		return progressFallbackMessage
	}
	return note
}

func (s *FeedbackService) answer(ctx context.Context, userID, message string) string {
	var summary string
	if program, err := s.plans.ResolveProgram(ctx, userID, 0); err == nil {
		if plan, err := s.plans.CurrentPlan(ctx, program); err == nil {
			summary = coach.Summarize(plan)
		}
	}
	snippets := retrieve(ctx, s.llm.Retriever, s.llm.RetrieverTimeout, message, s.llm.TopK)

	out, err := complete(ctx, s.llm.Completer, s.llm.Timeout, answerTmpl, messagePromptContext{
		Message:  message,
		Plan:     summary,
		Snippets: snippets,
	})
	if err != nil {
		s.log.Warn("question answer fell back", "user_id", userID, "error", err)
		return questionFallbackMessage
	}
	return out
}

// applyChange mutates a merged copy of the current plan and saves it as a
// new version. The persisted plan is untouched when the change fails or
// changes nothing.
func (s *FeedbackService) applyChange(ctx context.Context, userID string, change *domain.RoutineChange, result *FeedbackResult) error {
	program, err := s.plans.ResolveProgram(ctx, userID, 0)
	if err != nil {
		return err
	}
	result.ProgramID = program.ID

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			return err
		}
		profile = &domain.UserProfile{UserID: userID}
	}
	if change != nil && change.Kind == domain.ChangeAddRestriction && profile.AddRestriction(change.Restriction) {
		if err := s.profiles.Upsert(ctx, profile); err != nil {
			return err
		}
		s.log.Info("restriction added", "user_id", userID, "restriction", change.Restriction)
	}

	current, err := s.plans.CurrentPlan(ctx, program)
	if err != nil {
		return err
	}
	constraints := coach.Constraints{
		Equipment:    profile.Equipment,
		Restrictions: profile.Restrictions,
		DaysPerWeek:  profile.DaysPerWeek,
	}
	updated, err := s.mutator.Apply(ctx, current, change, constraints, program.ID)
	if errors.Is(err, coach.ErrEmptyPlan) {
		result.Message = emptyPlanMessage
		return nil
	}
	if err != nil {
		return err
	}
	if coach.Equal(current, updated) {
		result.Message = noChangeMessage
		return nil
	}

	text := coach.Render(program.Name, updated)
	next, err := s.plans.SaveVersion(ctx, userID, program.Name, text, domain.ProgramSourceFeedback, updated)
	if err != nil {
		return err
	}
	view, err := s.plans.GetCurrentPlan(ctx, userID, next.ID)
	if err != nil {
		return err
	}

	result.Updated = true
	result.ProgramID = next.ID
	result.Plan = view
	result.Message = "Your plan has been updated."
	return nil
}

// record stores the user turn and the coach reply. Failures are logged only.
func (s *FeedbackService) record(ctx context.Context, userID, message string, result *FeedbackResult) {
	if s.conversations == nil {
		return
	}
	now := s.now()
	err := s.conversations.Append(ctx,
		&domain.ConversationMessage{UserID: userID, Role: domain.RoleUser, Content: message, Intent: result.Intent, CreatedAt: now},
		&domain.ConversationMessage{UserID: userID, Role: domain.RoleCoach, Content: result.Message, Intent: result.Intent, ProgramID: result.ProgramID, CreatedAt: now.Add(time.Millisecond)},
	)
	if err != nil {
		s.log.Error("failed to record conversation", "user_id", userID, "error", err)
	}
}

// ListConversation returns the user's recent turns, oldest first.
func (s *FeedbackService) ListConversation(ctx context.Context, userID string, limit int) ([]*domain.ConversationMessage, error) {
	if s.conversations == nil {
		return []*domain.ConversationMessage{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.conversations.ListRecent(ctx, userID, limit)
}

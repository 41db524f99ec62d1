package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/mansoorceksport/fitcoach/internal/coach"
	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
	"github.com/mansoorceksport/fitcoach/internal/telemetry"
)

const defaultPlanCacheTTL = 10 * time.Minute

// PlanService serves the current plan and owns every write to a program's
// exercise records: materialization, completion toggles, day completion and
// week progression.
type PlanService struct {
	programs domain.ProgramRepository
	records  domain.ExerciseRecordRepository
	logs     domain.WorkoutLogRepository
	tx       domain.Transactor
	parser   *coach.Parser
	cache    domain.CacheRepository
	cacheTTL time.Duration
	metrics  *telemetry.Metrics
	log      *logger.Logger

	materialize singleflight.Group
	now         func() time.Time
}

func NewPlanService(
	programs domain.ProgramRepository,
	records domain.ExerciseRecordRepository,
	logs domain.WorkoutLogRepository,
	tx domain.Transactor,
	parser *coach.Parser,
	cache domain.CacheRepository,
	cacheTTL time.Duration,
	metrics *telemetry.Metrics,
	log *logger.Logger,
) *PlanService {
	if cacheTTL <= 0 {
		cacheTTL = defaultPlanCacheTTL
	}
	return &PlanService{
		programs: programs,
		records:  records,
		logs:     logs,
		tx:       tx,
		parser:   parser,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		log:      log.With("service", "PlanService"),
		now:      time.Now,
	}
}

// ToggleInput is the body of an exercise completion toggle.
type ToggleInput struct {
	Completed  bool     `json:"completed"`
	ActualSets *int     `json:"actual_sets,omitempty"`
	ActualReps *int     `json:"actual_reps,omitempty"`
	WeightUsed *float64 `json:"weight_used,omitempty"`
}

type ToggleResult struct {
	ExerciseID     string `json:"exercise_id"`
	ExerciseName   string `json:"exercise_name"`
	Completed      bool   `json:"completed"`
	GeneratedWeeks []int  `json:"generated_weeks,omitempty"`
}

// DayCompletionInput is one "I did day D of week W" submission.
type DayCompletionInput struct {
	ProgramID uint                    `json:"program_id,omitempty"`
	Week      int                     `json:"week"`
	Day       int                     `json:"day"`
	Duration  int                     `json:"duration"`
	Notes     string                  `json:"notes"`
	Date      *time.Time              `json:"date,omitempty"`
	Exercises []domain.LoggedExercise `json:"exercises"`
}

type DayCompletionResult struct {
	LogID          uint  `json:"log_id"`
	ProgramID      uint  `json:"program_id"`
	GeneratedWeeks []int `json:"generated_weeks,omitempty"`
}

type NextWeekResult struct {
	Created   bool                      `json:"created"`
	ProgramID uint                      `json:"program_id"`
	Week      int                       `json:"week"`
	Days      map[string]domain.WireDay `json:"days"`
}

// ResolveProgram returns the requested program, or the user's latest when
// programID is zero. Programs of other users are reported as not found.
func (s *PlanService) ResolveProgram(ctx context.Context, userID string, programID uint) (*domain.Program, error) {
	if programID == 0 {
		return s.programs.GetLatestByUser(ctx, userID)
	}
	program, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	if program.UserID != userID {
		return nil, domain.ErrProgramNotFound
	}
	return program, nil
}

// GetCurrentPlan returns the merged plan view of the requested or latest program.
func (s *PlanService) GetCurrentPlan(ctx context.Context, userID string, programID uint) (*domain.PlanView, error) {
	program, err := s.ResolveProgram(ctx, userID, programID)
	if err != nil {
		return nil, err
	}

	key := domain.PlanViewKey(userID, program.ID)
	if s.cache != nil {
		var cached domain.PlanView
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	if err := s.ensureMaterialized(ctx, program); err != nil {
		return nil, err
	}

	var generated []int
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.programs.LockForUpdate(ctx, program.ID); err != nil {
			return err
		}
		var err error
		generated, err = s.progress(ctx, program.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(generated) > 0 {
		s.invalidate(ctx, userID)
	}

	plan, err := s.CurrentPlan(ctx, program)
	if err != nil {
		return nil, err
	}
	view, err := s.buildView(ctx, userID, program, plan)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, view, s.cacheTTL); err != nil {
			s.log.Warn("failed to cache plan view", "user_id", userID, "program_id", program.ID, "error", err)
		}
	}
	return view, nil
}

// CurrentPlan returns the program's materialized plan with completion merged
// in, materializing it first when needed.
func (s *PlanService) CurrentPlan(ctx context.Context, program *domain.Program) (*domain.Plan, error) {
	if err := s.ensureMaterialized(ctx, program); err != nil {
		return nil, err
	}
	records, err := s.records.ListByProgram(ctx, program.ID)
	if err != nil {
		return nil, err
	}
	return coach.Merge(coach.PlanFromRecords(records, program.ID), records), nil
}

func (s *PlanService) buildView(ctx context.Context, userID string, program *domain.Program, plan *domain.Plan) (*domain.PlanView, error) {
	total, completed := plan.Totals()

	versions, err := s.programs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var version int64
	for _, v := range versions {
		if v.ID <= program.ID {
			version++
		}
	}

	return &domain.PlanView{
		UserID:               userID,
		ProgramID:            program.ID,
		ProgramName:          program.Name,
		Plan:                 plan.Wire(),
		CompletionPercentage: coach.CompletionPercentage(completed, total),
		TotalExercises:       total,
		CompletedExercises:   completed,
		TotalDays:            plan.TotalDays(),
		CurrentWeek:          currentWeek(plan),
		PlanVersion:          version,
		CreatedAt:            program.CreatedAt,
	}, nil
}

// currentWeek is the first week with an incomplete exercise, or one past the
// last week when everything is done.
func currentWeek(plan *domain.Plan) int {
	weeks := plan.WeekNumbers()
	if len(weeks) == 0 {
		return 1
	}
	for _, wn := range weeks {
		for _, d := range plan.Weeks[wn].Days {
			for _, ex := range d.Exercises {
				if !ex.Completed {
					return wn
				}
			}
		}
	}
	return weeks[len(weeks)-1] + 1
}

// ensureMaterialized parses the program text and inserts its records once.
// Concurrent first views of one program share a single parse.
func (s *PlanService) ensureMaterialized(ctx context.Context, program *domain.Program) error {
	n, err := s.records.CountByProgram(ctx, program.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	_, err, _ = s.materialize.Do(strconv.FormatUint(uint64(program.ID), 10), func() (interface{}, error) {
		plan, strategy := s.parser.Parse(ctx, program.ProgramText, program.ID)
		return nil, s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.programs.LockForUpdate(ctx, program.ID); err != nil {
				return err
			}
			n, err := s.records.CountByProgram(ctx, program.ID)
			if err != nil || n > 0 {
				return err
			}
			records := coach.BuildRecords(plan, program.ID)
			s.log.Info("materializing program", "program_id", program.ID, "strategy", string(strategy), "records", len(records))
			return s.records.Insert(ctx, records)
		})
	})
	return err
}

// SaveVersion persists text as a new program version and materializes plan
// (or the parse of text when plan is nil) in the same transaction. Completion
// flags on plan are carried into the new records.
func (s *PlanService) SaveVersion(ctx context.Context, userID, name, text, source string, plan *domain.Plan) (*domain.Program, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &domain.ValidationError{Field: "program_text", Message: "is required"}
	}
	if plan == nil {
		plan, _ = s.parser.Parse(ctx, text, 0)
	}

	program := &domain.Program{UserID: userID, Name: name, ProgramText: text, Source: source}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.programs.Create(ctx, program); err != nil {
			return err
		}
		return s.records.Insert(ctx, coach.BuildRecords(plan, program.ID))
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	s.log.Info("program version saved", "user_id", userID, "program_id", program.ID, "source", source)
	return program, nil
}

// Rematerialize re-parses the program text and rebuilds its records, carrying
// completion by position. Weeks that exist only as records are kept.
func (s *PlanService) Rematerialize(ctx context.Context, program *domain.Program) (int, error) {
	parsed, strategy := s.parser.Parse(ctx, program.ProgramText, program.ID)

	var written int
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.programs.LockForUpdate(ctx, program.ID); err != nil {
			return err
		}
		existing, err := s.records.ListByProgram(ctx, program.ID)
		if err != nil {
			return err
		}
		merged := coach.Merge(parsed, existing)
		for wn, w := range coach.PlanFromRecords(existing, program.ID).Weeks {
			if _, ok := merged.Weeks[wn]; !ok {
				merged.Weeks[wn] = w
			}
		}
		records := coach.BuildRecords(merged, program.ID)
		written = len(records)
		return s.records.ReplaceForProgram(ctx, program.ID, records)
	})
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, program.UserID)
	s.log.Info("program rematerialized", "program_id", program.ID, "strategy", string(strategy), "records", written)
	return written, nil
}

// ToggleExercise sets one slot's completion and runs the progression check
// under the program lock.
func (s *PlanService) ToggleExercise(ctx context.Context, userID, exerciseID string, in ToggleInput) (*ToggleResult, error) {
	programID, week, day, index, err := domain.ParseExerciseID(exerciseID)
	if err != nil {
		return nil, err
	}
	program, err := s.ResolveProgram(ctx, userID, programID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureMaterialized(ctx, program); err != nil {
		return nil, err
	}

	result := &ToggleResult{ExerciseID: exerciseID, Completed: in.Completed}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.programs.LockForUpdate(ctx, program.ID); err != nil {
			return err
		}
		rec, err := s.records.GetBySlot(ctx, program.ID, week, day, index)
		if err != nil {
			return err
		}
		applyCompletion(rec, in.Completed, in.ActualSets, in.ActualReps, in.WeightUsed, s.now())
		if err := s.records.Update(ctx, rec); err != nil {
			return err
		}
		result.ExerciseName = rec.Name

		result.GeneratedWeeks, err = s.progress(ctx, program.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return result, nil
}

// SubmitDayCompletion logs a finished day, syncs the day's records by index
// from the submitted exercises and runs the progression check, atomically.
// Records past the end of the submitted list are marked not completed.
func (s *PlanService) SubmitDayCompletion(ctx context.Context, userID string, in DayCompletionInput) (*DayCompletionResult, error) {
	switch {
	case in.Week < 1:
		return nil, &domain.ValidationError{Field: "week", Message: "must be at least 1"}
	case in.Day < 1:
		return nil, &domain.ValidationError{Field: "day", Message: "must be at least 1"}
	case in.Duration < 0:
		return nil, &domain.ValidationError{Field: "duration", Message: "must not be negative"}
	}

	program, err := s.ResolveProgram(ctx, userID, in.ProgramID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureMaterialized(ctx, program); err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(in.Exercises)
	if err != nil {
		return nil, fmt.Errorf("failed to encode exercises: %w", err)
	}
	date := s.now()
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}
	wl := &domain.WorkoutLog{
		UserID:    userID,
		ProgramID: program.ID,
		Week:      in.Week,
		Day:       in.Day,
		Date:      date,
		Duration:  in.Duration,
		Notes:     in.Notes,
		Exercises: datatypes.JSON(snapshot),
	}

	result := &DayCompletionResult{ProgramID: program.ID}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.programs.LockForUpdate(ctx, program.ID); err != nil {
			return err
		}
		if err := s.logs.Create(ctx, wl); err != nil {
			return err
		}
		weekRecords, err := s.records.ListByWeek(ctx, program.ID, in.Week)
		if err != nil {
			return err
		}
		var dayRecords []*domain.ExerciseRecord
		for _, r := range weekRecords {
			if r.Day == in.Day {
				dayRecords = append(dayRecords, r)
			}
		}
		// slots missing from the submission count as not done
		now := s.now()
		for i, rec := range dayRecords {
			var ex domain.LoggedExercise
			if i < len(in.Exercises) {
				ex = in.Exercises[i]
			}
			applyCompletion(rec, ex.Completed, ex.ActualSets, ex.ActualReps, ex.WeightUsed, now)
			if err := s.records.Update(ctx, rec); err != nil {
				return err
			}
		}

		result.GeneratedWeeks, err = s.progress(ctx, program.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.LogID = wl.ID
	s.invalidate(ctx, userID)
	return result, nil
}

// GenerateNextWeek is the manual progression trigger. A base week of zero
// means targetWeek-1; an existing target is returned unchanged.
func (s *PlanService) GenerateNextWeek(ctx context.Context, userID string, programID uint, targetWeek, baseWeek int) (*NextWeekResult, error) {
	if baseWeek == 0 {
		baseWeek = targetWeek - 1
	}
	if targetWeek < 2 {
		return nil, &domain.ValidationError{Field: "target_week", Message: "must be at least 2"}
	}
	if baseWeek < 1 {
		return nil, &domain.ValidationError{Field: "base_week", Message: "must be at least 1"}
	}

	program, err := s.ResolveProgram(ctx, userID, programID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureMaterialized(ctx, program); err != nil {
		return nil, err
	}

	result := &NextWeekResult{ProgramID: program.ID, Week: targetWeek}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.programs.LockForUpdate(ctx, program.ID); err != nil {
			return err
		}
		records, err := s.records.ListByProgram(ctx, program.ID)
		if err != nil {
			return err
		}
		plan := coach.PlanFromRecords(records, program.ID)
		if existing, ok := plan.Weeks[targetWeek]; ok {
			result.Days = existing.Wire()
			return nil
		}

		next, err := coach.GenerateNextWeek(plan, baseWeek, targetWeek)
		if err != nil {
			return err
		}
		if err := s.records.Insert(ctx, coach.BuildWeekRecords(next, program.ID, targetWeek, s.now())); err != nil {
			return err
		}
		s.metrics.RecordWeekGenerated(ctx, targetWeek)

		ids := domain.NewPlan()
		ids.Weeks[targetWeek] = next
		coach.AssignIDs(ids, program.ID)
		result.Created = true
		result.Days = next.Wire()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Created {
		s.invalidate(ctx, userID)
		s.log.Info("week generated", "user_id", userID, "program_id", program.ID, "week", targetWeek, "base_week", baseWeek)
	}
	return result, nil
}

// progress generates every eligible next week. It must run inside a
// transaction that holds the program lock so two completions cannot both
// generate the same week.
func (s *PlanService) progress(ctx context.Context, programID uint) ([]int, error) {
	records, err := s.records.ListByProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	eligible := coach.EligibleWeeks(records)
	if len(eligible) == 0 {
		return nil, nil
	}

	plan := coach.PlanFromRecords(records, programID)
	now := s.now()
	var generated []int
	for _, wn := range eligible {
		next, err := coach.GenerateNextWeek(plan, wn, wn+1)
		if err != nil {
			return nil, err
		}
		if err := s.records.Insert(ctx, coach.BuildWeekRecords(next, programID, wn+1, now)); err != nil {
			return nil, err
		}
		plan.Weeks[wn+1] = next
		generated = append(generated, wn+1)
		s.metrics.RecordWeekGenerated(ctx, wn+1)
		s.log.Info("progression week generated", "program_id", programID, "base_week", wn, "week", wn+1)
	}
	return generated, nil
}

// ListLogs returns the user's workout logs, newest first.
func (s *PlanService) ListLogs(ctx context.Context, userID string, limit int) ([]*domain.WorkoutLog, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.logs.ListByUser(ctx, userID, time.Time{}, limit)
}

func (s *PlanService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		s.log.Warn("failed to invalidate cache", "user_id", userID, "error", err)
	}
}

func applyCompletion(rec *domain.ExerciseRecord, completed bool, sets, reps *int, weight *float64, now time.Time) {
	rec.Completed = completed
	if completed {
		if rec.CompletedAt == nil {
			t := now
			rec.CompletedAt = &t
		}
	} else {
		rec.CompletedAt = nil
	}
	if sets != nil {
		rec.ActualSets = sets
	}
	if reps != nil {
		rec.ActualReps = reps
	}
	if weight != nil {
		rec.WeightUsed = weight
	}
}

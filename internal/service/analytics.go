package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mansoorceksport/fitcoach/internal/coach"
	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
)

// Minutes credited per completed exercise when no workout minutes were logged.
const estimatedMinutesPerExercise = 2.5

// AnalyticsService computes progress stats and achievements for the user's
// current program. Nothing here is persisted.
type AnalyticsService struct {
	plans *PlanService
	logs  domain.WorkoutLogRepository
	log   *logger.Logger
	now   func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(plans *PlanService, logs domain.WorkoutLogRepository, log *logger.Logger) *AnalyticsService {
	return &AnalyticsService{
		plans: plans,
		logs:  logs,
		log:   log.With("service", "AnalyticsService"),
		now:   time.Now,
	}
}

// GetProgress returns the progress summary of the user's latest program.
func (s *AnalyticsService) GetProgress(ctx context.Context, userID string) (*domain.ProgressStats, error) {
	program, plan, logs, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	total, completed := plan.Totals()
	pairs := completedDays(plan)

	minutes := 0
	for _, l := range logs {
		minutes += l.Duration
	}
	if minutes == 0 && completed > 0 {
		minutes = int(float64(completed) * estimatedMinutesPerExercise)
	}

	dates := logDates(logs)
	if len(logs) == 0 && len(pairs) > 0 {
		// without logs, each completed day counts as one recent day
		today := dayOf(s.now())
		for i := 0; i < len(pairs); i++ {
			dates = append(dates, today.AddDate(0, 0, -i))
		}
	}

	return &domain.ProgressStats{
		ProgramID:             program.ID,
		CompletionPercentage:  coach.CompletionPercentage(completed, total),
		TotalExercises:        total,
		CompletedExercises:    completed,
		TotalWorkouts:         max(len(logs), len(pairs)),
		TotalTimeMinutes:      minutes,
		CurrentStreak:         currentStreak(dates, s.now()),
		CurrentWeek:           currentWeek(plan),
		WorkoutsFromLogs:      len(logs),
		WorkoutsFromExercises: len(pairs),
	}, nil
}

var milestones = []struct {
	count int
	title string
	icon  string
}{
	{1, "First Workout", "🎉"},
	{5, "5 Workouts", "🏅"},
	{10, "10 Workouts", "🥈"},
	{25, "25 Workouts", "🥇"},
	{50, "50 Workouts", "🏆"},
}

// GetAchievements derives the unlocked badges from logs and record completion.
func (s *AnalyticsService) GetAchievements(ctx context.Context, userID string) ([]domain.Achievement, error) {
	_, plan, logs, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	// oldest first from here on
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Date.Before(logs[j].Date) })
	dates := uniqueDays(logDates(logs))
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	achievements := []domain.Achievement{}
	add := func(title, description, category, icon string, unlockedAt *time.Time, meta map[string]any) {
		if meta == nil {
			meta = map[string]any{}
		}
		achievements = append(achievements, domain.Achievement{
			Title: title, Description: description, Category: category,
			Icon: icon, UnlockedAt: unlockedAt, Meta: meta,
		})
	}
	dateAt := func(i int) *time.Time {
		if i < 0 || i >= len(dates) {
			return nil
		}
		d := dates[i]
		return &d
	}

	workouts := max(len(dates), len(completedDays(plan)))
	for _, m := range milestones {
		if workouts < m.count {
			break
		}
		description := fmt.Sprintf("You've completed %d workouts!", m.count)
		if m.count == 1 {
			description = "You've completed 1 workout!"
		}
		add(m.title, description, domain.AchievementMilestone, m.icon, dateAt(m.count-1), nil)
	}

	longest := longestConsecutiveRun(dates)
	if longest >= 3 {
		add("3-Day Streak", "Three days in a row. Nice momentum!", domain.AchievementStreak, "🔥", dateAt(2), nil)
	}
	if longest >= 7 {
		add("7-Day Streak", "A full week of consecutive workouts!", domain.AchievementStreak, "⚡", dateAt(6), nil)
	}

	for _, wn := range plan.WeekNumbers() {
		if weekComplete(plan.Weeks[wn]) {
			add(fmt.Sprintf("Week %d Completed", wn), "You finished every exercise for the week.",
				domain.AchievementMilestone, "✅", nil, map[string]any{"week": wn})
		}
	}

	perISOWeek := make(map[[2]int]int)
	for _, d := range dates {
		y, w := d.ISOWeek()
		perISOWeek[[2]int{y, w}]++
	}
	for _, n := range perISOWeek {
		if n >= 3 {
			add("Consistent Week", "3+ workouts in one week. Keep rolling!", domain.AchievementConsistency, "📅", nil, nil)
			break
		}
	}

	for _, e := range []struct {
		minutes int
		title   string
		icon    string
	}{{45, "Endurance I", "⏳"}, {60, "Endurance II", "⌛"}} {
		for _, l := range logs {
			if l.Duration >= e.minutes {
				d := dayOf(l.Date)
				add(e.title, fmt.Sprintf("Completed a %d+ minute session.", e.minutes), domain.AchievementChallenge, e.icon, &d, nil)
				break
			}
		}
	}

	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i-1], dates[i]) >= 7 {
			add("Comeback", "You paused for a week and came back stronger.", domain.AchievementImprovement, "💪", dateAt(i), nil)
			break
		}
	}

	return achievements, nil
}

func (s *AnalyticsService) load(ctx context.Context, userID string) (*domain.Program, *domain.Plan, []*domain.WorkoutLog, error) {
	program, err := s.plans.ResolveProgram(ctx, userID, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	plan, err := s.plans.CurrentPlan(ctx, program)
	if err != nil {
		return nil, nil, nil, err
	}
	logs, err := s.logs.ListByProgram(ctx, userID, program.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return program, plan, logs, nil
}

// completedDays returns the (week, day) pairs with at least one completed exercise.
func completedDays(plan *domain.Plan) map[[2]int]struct{} {
	out := make(map[[2]int]struct{})
	for wn, w := range plan.Weeks {
		for dn, d := range w.Days {
			for _, ex := range d.Exercises {
				if ex.Completed {
					out[[2]int{wn, dn}] = struct{}{}
					break
				}
			}
		}
	}
	return out
}

func weekComplete(w *domain.WeekPlan) bool {
	n := 0
	for _, d := range w.Days {
		for _, ex := range d.Exercises {
			if !ex.Completed {
				return false
			}
			n++
		}
	}
	return n > 0
}

// dayOf truncates t to its UTC calendar day.
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(dayOf(to).Sub(dayOf(from)).Hours() / 24))
}

func logDates(logs []*domain.WorkoutLog) []time.Time {
	out := make([]time.Time, 0, len(logs))
	for _, l := range logs {
		out = append(out, dayOf(l.Date))
	}
	return out
}

func uniqueDays(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		d = dayOf(d)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// currentStreak walks back from today over distinct workout days, newest
// first. A day continues the streak when it is streak or streak+1 days ago,
// so the streak survives a missing today.
func currentStreak(dates []time.Time, now time.Time) int {
	days := uniqueDays(dates)
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	today := dayOf(now)
	streak := 0
	for _, d := range days {
		diff := daysBetween(d, today)
		if diff == streak || diff == streak+1 {
			streak++
			continue
		}
		break
	}
	return streak
}

// longestConsecutiveRun is the longest run of back-to-back days in dates,
// which must be distinct and ascending.
func longestConsecutiveRun(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	best, cur := 1, 1
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i-1], dates[i]) == 1 {
			cur++
			best = max(best, cur)
		} else {
			cur = 1
		}
	}
	return best
}

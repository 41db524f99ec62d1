package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
)

const (
	defaultDashboardTTL = 15 * time.Minute
	timelineWeeks       = 8
	recentWorkoutLimit  = 10
	topExerciseLimit    = 5
	strugglingLimit     = 3
	preferredDayLimit   = 3
	currentStreakWindow = 30
)

var periodDays = map[string]int{
	domain.Period7Days:  7,
	domain.Period30Days: 30,
	domain.Period90Days: 90,
	domain.PeriodAll:    0,
}

// DashboardService aggregates the performance dashboard for a period.
type DashboardService struct {
	plans    *PlanService
	records  domain.ExerciseRecordRepository
	logs     domain.WorkoutLogRepository
	profiles domain.ProfileRepository
	cache    domain.CacheRepository
	cacheTTL time.Duration
	llm      LLMSettings
	log      *logger.Logger
	now      func() time.Time
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(
	plans *PlanService,
	records domain.ExerciseRecordRepository,
	logs domain.WorkoutLogRepository,
	profiles domain.ProfileRepository,
	cache domain.CacheRepository,
	cacheTTL time.Duration,
	llm LLMSettings,
	log *logger.Logger,
) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = defaultDashboardTTL
	}
	return &DashboardService{
		plans:    plans,
		records:  records,
		logs:     logs,
		profiles: profiles,
		cache:    cache,
		cacheTTL: cacheTTL,
		llm:      llm.withDefaults(),
		log:      log.With("service", "DashboardService"),
		now:      time.Now,
	}
}

// GetDashboard returns the dashboard for period, from cache when fresh.
func (s *DashboardService) GetDashboard(ctx context.Context, userID, period string) (*domain.Dashboard, error) {
	if period == "" {
		period = domain.Period30Days
	}
	days, ok := periodDays[period]
	if !ok {
		return nil, &domain.ValidationError{Field: "period", Message: "must be one of 7_days, 30_days, 90_days, all_time"}
	}

	key := domain.DashboardKey(userID, period)
	if s.cache != nil {
		var cached domain.Dashboard
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	now := s.now().UTC()
	var since time.Time
	if days > 0 {
		since = dayOf(now).AddDate(0, 0, -days)
	}

	var (
		logs    []*domain.WorkoutLog
		records []*domain.ExerciseRecord
		profile *domain.UserProfile
	)

	// Use errgroup for concurrent fetching
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		logs, err = s.logs.ListByUser(gCtx, userID, since, 0)
		return err
	})

	g.Go(func() error {
		program, err := s.plans.ResolveProgram(gCtx, userID, 0)
		if errors.Is(err, domain.ErrProgramNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		records, err = s.records.ListByProgram(gCtx, program.ID)
		return err
	})

	g.Go(func() error {
		p, err := s.profiles.GetByUserID(gCtx, userID)
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil
		}
		profile = p
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard data: %w", err)
	}

	// all_time spans from the first logged day
	span := days
	if span == 0 {
		span = 1
		if len(logs) > 0 {
			span = daysBetween(logs[len(logs)-1].Date, now) + 1
		}
	}

	dashboard := &domain.Dashboard{Period: period, GeneratedAt: now}

	g = new(errgroup.Group)
	g.Go(func() error {
		dashboard.Summary = summarize(logs, records, span)
		return nil
	})
	g.Go(func() error {
		dashboard.Intensity = analyzeIntensity(logs)
		return nil
	})
	g.Go(func() error {
		dashboard.Consistency = analyzeConsistency(logs, span, now)
		return nil
	})
	g.Go(func() error {
		dashboard.ExercisePerformance = analyzeExercises(records)
		return nil
	})
	g.Go(func() error {
		dashboard.Timeline = buildTimeline(logs)
		return nil
	})
	g.Go(func() error {
		dashboard.RecentWorkouts = recentWorkouts(logs)
		return nil
	})
	_ = g.Wait()

	dashboard.Insights = s.insights(ctx, period, dashboard, profile)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, dashboard, s.cacheTTL); err != nil {
			s.log.Warn("failed to cache dashboard", "user_id", userID, "period", period, "error", err)
		}
	}
	return dashboard, nil
}

func (s *DashboardService) insights(ctx context.Context, period string, d *domain.Dashboard, profile *domain.UserProfile) string {
	data := insightsPromptContext{
		Period:  period,
		Summary: d.Summary,
		Trend:   d.Intensity.Trend,
		Streak:  d.Consistency.CurrentStreak,
	}
	for _, e := range d.ExercisePerformance.TopPerforming {
		data.Top = append(data.Top, e.Name)
	}
	for _, e := range d.ExercisePerformance.Struggling {
		data.Struggling = append(data.Struggling, e.Name)
	}

	out, err := complete(ctx, s.llm.Completer, s.llm.Timeout, insightsTmpl, data)
	if err != nil {
		s.log.Warn("dashboard insights fell back", "period", period, "error", err)
		return fallbackInsights(d, profile)
	}
	return out
}

func fallbackInsights(d *domain.Dashboard, profile *domain.UserProfile) string {
	var parts []string

	switch rate := d.Summary.CompletionRate; {
	case rate >= 80:
		parts = append(parts, "Excellent work! You're completing over 80% of your exercises, showing great dedication to your goals.")
	case rate >= 60:
		parts = append(parts, "Good progress! You're staying consistent with your workouts and building healthy habits.")
	default:
		parts = append(parts, "You're building your fitness foundation. Every workout counts, and consistency will lead to results.")
	}

	if d.Consistency.Score >= 70 {
		parts = append(parts, "Your consistency is impressive. Regular training is the key to lasting results.")
	} else {
		parts = append(parts, "Focus on building consistency. Try scheduling your workouts at the same time each day.")
	}

	target := 3
	if profile != nil && profile.DaysPerWeek > 0 {
		target = profile.DaysPerWeek
	}
	if d.Summary.WeeklyFrequency >= float64(target)*0.8 {
		parts = append(parts, fmt.Sprintf("You're hitting your target of %d workouts per week.", target))
	} else {
		parts = append(parts, fmt.Sprintf("Aim to increase your workout frequency to reach your goal of %d sessions per week.", target))
	}
	return strings.Join(parts, " ")
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func summarize(logs []*domain.WorkoutLog, records []*domain.ExerciseRecord, spanDays int) domain.DashboardSummary {
	minutes := 0
	for _, l := range logs {
		minutes += l.Duration
	}
	completed := 0
	for _, r := range records {
		if r.Completed {
			completed++
		}
	}
	rate := 0.0
	if len(records) > 0 {
		rate = float64(completed) / float64(len(records)) * 100
	}
	weeks := math.Max(1, float64(spanDays)/7)

	return domain.DashboardSummary{
		TotalWorkouts:      len(logs),
		TotalTimeMinutes:   minutes,
		TotalTimeHours:     round1(float64(minutes) / 60),
		CompletionRate:     round1(rate),
		WeeklyFrequency:    round1(float64(len(logs)) / weeks),
		TotalExercises:     len(records),
		CompletedExercises: completed,
	}
}

// analyzeIntensity compares the three most recent sessions with the three
// oldest; logs are newest first.
func analyzeIntensity(logs []*domain.WorkoutLog) domain.IntensityStats {
	var durations []int
	for _, l := range logs {
		if l.Duration > 0 {
			durations = append(durations, l.Duration)
		}
	}
	if len(durations) == 0 {
		return domain.IntensityStats{Trend: domain.TrendNoData}
	}

	stats := domain.IntensityStats{
		AverageDuration: round1(mean(durations)),
		MaxDuration:     durations[0],
		MinDuration:     durations[0],
		TotalSessions:   len(durations),
		Trend:           domain.TrendInsufficient,
	}
	for _, d := range durations {
		stats.MaxDuration = max(stats.MaxDuration, d)
		stats.MinDuration = min(stats.MinDuration, d)
	}
	if len(durations) >= 3 {
		recent := mean(durations[:3])
		older := mean(durations[len(durations)-3:])
		switch {
		case recent > older*1.1:
			stats.Trend = domain.TrendIncreasing
		case recent < older*0.9:
			stats.Trend = domain.TrendDecreasing
		default:
			stats.Trend = domain.TrendStable
		}
	}
	return stats
}

func mean(v []int) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0
	for _, x := range v {
		sum += x
	}
	return float64(sum) / float64(len(v))
}

func analyzeConsistency(logs []*domain.WorkoutLog, spanDays int, now time.Time) domain.ConsistencyStats {
	stats := domain.ConsistencyStats{
		TotalPossibleDays:   spanDays,
		PreferredDays:       []string{},
		WeekdayDistribution: map[string]int{},
	}
	if len(logs) == 0 {
		return stats
	}

	days := uniqueDays(logDates(logs))
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	stats.WorkoutDays = len(days)
	if spanDays > 0 {
		stats.Score = round1(float64(len(days)) / float64(spanDays) * 100)
	}
	stats.CurrentStreak = restTolerantCurrentStreak(days, now)
	stats.LongestStreak = restTolerantLongestStreak(days)

	for _, l := range logs {
		stats.WeekdayDistribution[l.Date.UTC().Weekday().String()]++
	}
	type weekdayCount struct {
		day   string
		count int
	}
	counts := make([]weekdayCount, 0, len(stats.WeekdayDistribution))
	for d, c := range stats.WeekdayDistribution {
		counts = append(counts, weekdayCount{d, c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].day < counts[j].day
	})
	for i := 0; i < len(counts) && i < preferredDayLimit; i++ {
		stats.PreferredDays = append(stats.PreferredDays, counts[i].day)
	}
	return stats
}

// restTolerantCurrentStreak counts workout days walking back from today,
// allowing a single rest day between them.
func restTolerantCurrentStreak(days []time.Time, now time.Time) int {
	set := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	has := func(t time.Time) bool {
		_, ok := set[t]
		return ok
	}

	streak := 0
	check := dayOf(now)
	for i := 0; i < currentStreakWindow; i++ {
		if has(check) {
			streak++
			check = check.AddDate(0, 0, -1)
			continue
		}
		check = check.AddDate(0, 0, -1)
		if !has(check) {
			break
		}
		streak++
		check = check.AddDate(0, 0, -1)
	}
	return streak
}

// restTolerantLongestStreak is the longest run of ascending workout days
// at most two days apart.
func restTolerantLongestStreak(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	longest, cur := 1, 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) <= 2 {
			cur++
		} else {
			cur = 1
		}
		longest = max(longest, cur)
	}
	return longest
}

func analyzeExercises(records []*domain.ExerciseRecord) domain.ExercisePerformance {
	byName := make(map[string]*domain.ExerciseStat)
	var order []string
	for _, r := range records {
		st, ok := byName[r.Name]
		if !ok {
			st = &domain.ExerciseStat{Name: r.Name}
			byName[r.Name] = st
			order = append(order, r.Name)
		}
		st.TotalOccurrences++
		if r.Completed {
			st.CompletedCount++
		}
		st.Sets = r.Sets
		st.Reps = r.Reps
	}

	stats := make([]domain.ExerciseStat, 0, len(order))
	for _, name := range order {
		st := byName[name]
		st.CompletionRate = round1(float64(st.CompletedCount) / float64(st.TotalOccurrences) * 100)
		stats = append(stats, *st)
	}

	top := append([]domain.ExerciseStat(nil), stats...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].CompletionRate > top[j].CompletionRate })
	struggling := append([]domain.ExerciseStat(nil), stats...)
	sort.SliceStable(struggling, func(i, j int) bool { return struggling[i].CompletionRate < struggling[j].CompletionRate })

	return domain.ExercisePerformance{
		TopPerforming: top[:min(topExerciseLimit, len(top))],
		Struggling:    struggling[:min(strugglingLimit, len(struggling))],
		TotalUnique:   len(stats),
	}
}

func snapshotCounts(l *domain.WorkoutLog) (completed, total int) {
	if len(l.Exercises) == 0 {
		return 0, 0
	}
	var exercises []domain.LoggedExercise
	if err := json.Unmarshal(l.Exercises, &exercises); err != nil {
		return 0, 0
	}
	for _, e := range exercises {
		if e.Completed {
			completed++
		}
	}
	return completed, len(exercises)
}

// buildTimeline groups logs by ISO week (Monday start) and keeps the last weeks.
func buildTimeline(logs []*domain.WorkoutLog) []domain.TimelineWeek {
	weeks := make(map[string]*domain.TimelineWeek)
	for _, l := range logs {
		d := dayOf(l.Date)
		offset := (int(d.Weekday()) + 6) % 7
		key := d.AddDate(0, 0, -offset).Format("2006-01-02")
		w, ok := weeks[key]
		if !ok {
			w = &domain.TimelineWeek{WeekStart: key}
			weeks[key] = w
		}
		w.WorkoutCount++
		w.TotalDuration += l.Duration
		completed, _ := snapshotCounts(l)
		w.CompletedExercises += completed
	}

	out := make([]domain.TimelineWeek, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart < out[j].WeekStart })
	if len(out) > timelineWeeks {
		out = out[len(out)-timelineWeeks:]
	}
	return out
}

func recentWorkouts(logs []*domain.WorkoutLog) []domain.RecentWorkout {
	n := min(recentWorkoutLimit, len(logs))
	out := make([]domain.RecentWorkout, 0, n)
	for _, l := range logs[:n] {
		completed, total := snapshotCounts(l)
		out = append(out, domain.RecentWorkout{
			Date:               l.Date.UTC().Format("2006-01-02"),
			Duration:           l.Duration,
			Week:               l.Week,
			Day:                l.Day,
			Notes:              l.Notes,
			CompletedExercises: completed,
			TotalExercises:     total,
		})
	}
	return out
}

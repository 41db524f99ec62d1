package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/testutil"
)

var analyticsNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newAnalytics(t *testing.T, f *fixture) *AnalyticsService {
	t.Helper()
	svc := NewAnalyticsService(f.plans, f.logs, testutil.Logger(t))
	svc.now = func() time.Time { return analyticsNow }
	return svc
}

func (f *fixture) logWorkout(t *testing.T, userID string, programID uint, daysAgo, duration int) {
	t.Helper()
	require.NoError(t, f.logs.Create(context.Background(), &domain.WorkoutLog{
		UserID: userID, ProgramID: programID, Week: 1, Day: 1,
		Date:     analyticsNow.AddDate(0, 0, -daysAgo),
		Duration: duration,
	}))
}

func TestGetProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.program(t, "u1", twoDayProgram)
	svc := newAnalytics(t, f)

	_, err := f.plans.ToggleExercise(ctx, "u1", domain.ExerciseID(p.ID, 1, 1, 0), ToggleInput{Completed: true})
	require.NoError(t, err)

	// today, yesterday, four days ago: the gap ends the streak at 2
	for _, ago := range []int{0, 1, 4} {
		f.logWorkout(t, "u1", p.ID, ago, 30)
	}

	stats, err := svc.GetProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, stats.ProgramID)
	assert.Equal(t, 4, stats.TotalExercises)
	assert.Equal(t, 1, stats.CompletedExercises)
	assert.Equal(t, 25.0, stats.CompletionPercentage)
	assert.Equal(t, 3, stats.TotalWorkouts)
	assert.Equal(t, 3, stats.WorkoutsFromLogs)
	assert.Equal(t, 1, stats.WorkoutsFromExercises)
	assert.Equal(t, 90, stats.TotalTimeMinutes)
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 1, stats.CurrentWeek)
}

func TestGetProgressEstimatesWithoutLogs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.program(t, "u1", twoDayProgram)
	svc := newAnalytics(t, f)

	for _, slot := range [][3]int{{1, 1, 0}, {1, 1, 1}, {1, 2, 0}, {1, 2, 1}} {
		_, err := f.plans.ToggleExercise(ctx, "u1", domain.ExerciseID(p.ID, slot[0], slot[1], slot[2]), ToggleInput{Completed: true})
		require.NoError(t, err)
	}

	stats, err := svc.GetProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalWorkouts, "distinct completed days")
	assert.Equal(t, 10, stats.TotalTimeMinutes, "2.5 minutes per completed exercise")
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 2, stats.CurrentWeek, "week 1 done, week 2 generated")
}

func TestGetProgressNoProgram(t *testing.T) {
	f := newFixture(t)
	_, err := newAnalytics(t, f).GetProgress(context.Background(), "u1")
	assert.True(t, errors.Is(err, domain.ErrProgramNotFound))
}

func titles(achievements []domain.Achievement) []string {
	out := make([]string, len(achievements))
	for i, a := range achievements {
		out[i] = a.Title
	}
	return out
}

func TestGetAchievements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.program(t, "u1", pushDayProgram)
	svc := newAnalytics(t, f)

	// 20..16 days ago consecutive, then a 10 day pause, then 2 sessions
	for _, ago := range []int{20, 19, 18, 17, 16} {
		f.logWorkout(t, "u1", p.ID, ago, 30)
	}
	f.logWorkout(t, "u1", p.ID, 6, 50)
	f.logWorkout(t, "u1", p.ID, 5, 65)

	for i := 0; i < 2; i++ {
		_, err := f.plans.ToggleExercise(ctx, "u1", domain.ExerciseID(p.ID, 1, 1, i), ToggleInput{Completed: true})
		require.NoError(t, err)
	}

	achievements, err := svc.GetAchievements(ctx, "u1")
	require.NoError(t, err)

	got := titles(achievements)
	assert.Contains(t, got, "First Workout")
	assert.Contains(t, got, "5 Workouts")
	assert.NotContains(t, got, "10 Workouts")
	assert.Contains(t, got, "3-Day Streak")
	assert.NotContains(t, got, "7-Day Streak")
	assert.Contains(t, got, "Week 1 Completed")
	assert.NotContains(t, got, "Week 2 Completed")
	assert.Contains(t, got, "Consistent Week")
	assert.Contains(t, got, "Endurance I")
	assert.Contains(t, got, "Endurance II")
	assert.Contains(t, got, "Comeback")

	for _, a := range achievements {
		assert.NotNil(t, a.Meta)
		switch a.Title {
		case "First Workout":
			require.NotNil(t, a.UnlockedAt)
			assert.Equal(t, dayOf(analyticsNow.AddDate(0, 0, -20)), *a.UnlockedAt)
			assert.Equal(t, domain.AchievementMilestone, a.Category)
		case "Comeback":
			require.NotNil(t, a.UnlockedAt)
			assert.Equal(t, dayOf(analyticsNow.AddDate(0, 0, -6)), *a.UnlockedAt)
		case "Week 1 Completed":
			assert.Equal(t, 1, a.Meta["week"])
		}
	}
}

func TestStreakHelpers(t *testing.T) {
	day := func(ago int) time.Time { return dayOf(analyticsNow.AddDate(0, 0, -ago)) }

	tests := []struct {
		name    string
		dates   []time.Time
		current int
		longest int
	}{
		{"none", nil, 0, 0},
		{"today only", []time.Time{day(0)}, 1, 1},
		{"yesterday counts", []time.Time{day(1), day(2)}, 2, 2},
		{"stale", []time.Time{day(5), day(6)}, 0, 2},
		{"duplicates", []time.Time{day(0), day(0), day(1)}, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.current, currentStreak(tt.dates, analyticsNow))
			asc := uniqueDays(tt.dates)
			sort.Slice(asc, func(i, j int) bool { return asc[i].Before(asc[j]) })
			assert.Equal(t, tt.longest, longestConsecutiveRun(asc))
		})
	}
}

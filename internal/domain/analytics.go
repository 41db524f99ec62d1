package domain

import "time"

// PlanView is the current-plan response served to clients
type PlanView struct {
	UserID               string    `json:"user_id"`
	ProgramID            uint      `json:"program_id"`
	ProgramName          string    `json:"program_name"`
	Plan                 WirePlan  `json:"plan"`
	CompletionPercentage float64   `json:"completion_percentage"`
	TotalExercises       int       `json:"total_exercises"`
	CompletedExercises   int       `json:"completed_exercises"`
	TotalDays            int       `json:"total_days"`
	CurrentWeek          int       `json:"current_week"`
	PlanVersion          int64     `json:"plan_version"`
	CreatedAt            time.Time `json:"created_at"`
}

// ProgressStats summarizes a user's progress on their current program
type ProgressStats struct {
	ProgramID             uint    `json:"program_id"`
	CompletionPercentage  float64 `json:"completion_percentage"`
	TotalExercises        int     `json:"total_exercises"`
	CompletedExercises    int     `json:"completed_exercises"`
	TotalWorkouts         int     `json:"total_workouts"`
	TotalTimeMinutes      int     `json:"total_time"`
	CurrentStreak         int     `json:"current_streak"`
	CurrentWeek           int     `json:"current_week"`
	WorkoutsFromLogs      int     `json:"workouts_from_logs"`
	WorkoutsFromExercises int     `json:"workouts_from_exercises"`
}

// Achievement categories
const (
	AchievementMilestone   = "milestone"
	AchievementStreak      = "streak"
	AchievementConsistency = "consistency"
	AchievementChallenge   = "challenge"
	AchievementImprovement = "improvement"
)

// Achievement is a computed badge; nothing is persisted
type Achievement struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Icon        string         `json:"icon"`
	UnlockedAt  *time.Time     `json:"unlocked_at"`
	Meta        map[string]any `json:"meta"`
}

// Dashboard periods
const (
	Period7Days  = "7_days"
	Period30Days = "30_days"
	Period90Days = "90_days"
	PeriodAll    = "all_time"
)

// Dashboard is the performance dashboard for one period
type Dashboard struct {
	Period              string              `json:"period"`
	GeneratedAt         time.Time           `json:"generated_at"`
	Summary             DashboardSummary    `json:"summary"`
	Intensity           IntensityStats      `json:"intensity"`
	Consistency         ConsistencyStats    `json:"consistency"`
	ExercisePerformance ExercisePerformance `json:"exercise_performance"`
	Timeline            []TimelineWeek      `json:"progress_timeline"`
	RecentWorkouts      []RecentWorkout     `json:"recent_workouts"`
	Insights            string              `json:"ai_insights"`
}

type DashboardSummary struct {
	TotalWorkouts      int     `json:"total_workouts"`
	TotalTimeMinutes   int     `json:"total_time_minutes"`
	TotalTimeHours     float64 `json:"total_time_hours"`
	CompletionRate     float64 `json:"completion_rate"`
	WeeklyFrequency    float64 `json:"weekly_frequency"`
	TotalExercises     int     `json:"total_exercises"`
	CompletedExercises int     `json:"completed_exercises"`
}

// Intensity trends
const (
	TrendIncreasing   = "Increasing"
	TrendDecreasing   = "Decreasing"
	TrendStable       = "Stable"
	TrendInsufficient = "Insufficient data"
	TrendNoData       = "No data"
)

type IntensityStats struct {
	AverageDuration float64 `json:"average_duration"`
	MaxDuration     int     `json:"max_duration"`
	MinDuration     int     `json:"min_duration"`
	Trend           string  `json:"intensity_trend"`
	TotalSessions   int     `json:"total_sessions"`
}

type ConsistencyStats struct {
	Score               float64        `json:"consistency_score"`
	CurrentStreak       int            `json:"current_streak"`
	LongestStreak       int            `json:"longest_streak"`
	WorkoutDays         int            `json:"workout_days"`
	TotalPossibleDays   int            `json:"total_possible_days"`
	PreferredDays       []string       `json:"preferred_workout_days"`
	WeekdayDistribution map[string]int `json:"weekday_distribution"`
}

type ExerciseStat struct {
	Name             string  `json:"name"`
	TotalOccurrences int     `json:"total_occurrences"`
	CompletedCount   int     `json:"completed_count"`
	CompletionRate   float64 `json:"completion_rate"`
	Sets             int     `json:"avg_sets"`
	Reps             int     `json:"avg_reps"`
}

type ExercisePerformance struct {
	TopPerforming []ExerciseStat `json:"top_performing_exercises"`
	Struggling    []ExerciseStat `json:"struggling_exercises"`
	TotalUnique   int            `json:"total_unique_exercises"`
}

type TimelineWeek struct {
	WeekStart          string `json:"week_start"`
	WorkoutCount       int    `json:"workout_count"`
	TotalDuration      int    `json:"total_duration"`
	CompletedExercises int    `json:"completed_exercises"`
}

type RecentWorkout struct {
	Date               string `json:"date"`
	Duration           int    `json:"duration"`
	Week               int    `json:"week"`
	Day                int    `json:"day"`
	Notes              string `json:"notes"`
	CompletedExercises int    `json:"completed_exercises"`
	TotalExercises     int    `json:"total_exercises"`
}

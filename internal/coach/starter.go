package coach

import (
	"strings"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

type starterDay struct {
	label     string
	exercises []domain.ExerciseSpec
}

func repSet(name string, sets, n, rest int) domain.ExerciseSpec {
	return domain.ExerciseSpec{Name: name, Sets: sets, Reps: n, RestSeconds: rest}
}

func timedSet(name string, sets, seconds, rest int) domain.ExerciseSpec {
	return domain.ExerciseSpec{Name: name, Sets: sets, Reps: seconds, RestSeconds: rest, Timed: true}
}

var bodyweightRotation = []starterDay{
	{"Upper Body", []domain.ExerciseSpec{
		repSet("Push-ups", 3, 10, 60), repSet("Pike Push-ups", 3, 8, 60), repSet("Tricep Dips", 3, 10, 60), timedSet("Plank", 3, 30, 45),
	}},
	{"Lower Body", []domain.ExerciseSpec{
		repSet("Bodyweight Squats", 3, 15, 60), repSet("Reverse Lunges", 3, 10, 60), repSet("Glute Bridges", 3, 15, 45), repSet("Calf Raises", 3, 20, 45),
	}},
	{"Core & Conditioning", []domain.ExerciseSpec{
		timedSet("Mountain Climbers", 3, 30, 45), timedSet("Jumping Jacks", 3, 45, 45), repSet("Bicycle Crunches", 3, 20, 45), timedSet("Side Plank", 3, 30, 45), repSet("Superman Holds", 3, 12, 45),
	}},
	{"Full Body", []domain.ExerciseSpec{
		repSet("Push-ups", 3, 12, 60), repSet("Split Squats", 3, 10, 60), repSet("Inverted Rows", 3, 10, 60), timedSet("Hollow Hold", 3, 30, 45),
	}},
}

var gymRotation = []starterDay{
	{"Push Day", []domain.ExerciseSpec{
		repSet("Barbell Bench Press", 4, 8, 90), repSet("Dumbbell Shoulder Press", 3, 10, 75), repSet("Cable Tricep Pushdown", 3, 12, 60), repSet("Push-ups", 2, 12, 60),
	}},
	{"Pull Day", []domain.ExerciseSpec{
		repSet("Lat Pulldown", 4, 10, 75), repSet("Dumbbell Rows", 3, 10, 75), repSet("Face Pulls", 3, 15, 60), repSet("Dumbbell Bicep Curls", 3, 12, 60),
	}},
	{"Leg Day", []domain.ExerciseSpec{
		repSet("Barbell Back Squat", 4, 8, 120), repSet("Romanian Deadlift", 3, 10, 90), repSet("Leg Press Machine", 3, 12, 75), repSet("Walking Lunges", 3, 10, 60),
	}},
	{"Full Body", []domain.ExerciseSpec{
		repSet("Kettlebell Swings", 3, 15, 60), repSet("Goblet Squats", 3, 12, 60), repSet("Pull-ups", 3, 8, 90), timedSet("Plank", 3, 45, 45),
	}},
}

// StarterPlan builds a deterministic single-week plan from the profile,
// rotating through bodyweight or gym templates and honoring restrictions.
func StarterPlan(profile *domain.UserProfile) *domain.Plan {
	days := profile.DaysPerWeek
	if days < 1 || days > 7 {
		days = 3
	}
	restrictions := []string(profile.Restrictions)

	rotation := gymRotation
	if len(forbiddenEquipment(profile.Equipment, restrictions)) > 0 || strings.Contains(strings.ToLower(profile.Equipment), "bodyweight") {
		rotation = bodyweightRotation
	}

	plan := domain.NewPlan()
	week := plan.Week(1)
	for i := 0; i < days; i++ {
		tmpl := rotation[i%len(rotation)]
		exercises := make([]domain.ExerciseSpec, len(tmpl.exercises))
		copy(exercises, tmpl.exercises)
		week.Days[i+1] = &domain.DayPlan{Label: tmpl.label, Exercises: exercises}
	}
	return FilterRestricted(plan, profile.Equipment, restrictions)
}

package coach

import (
	"fmt"
	"sort"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

const (
	maxProgressedSets = 5
	minRestSeconds    = 30
)

// GenerateNextWeek clones baseWeek into targetWeek with progressive overload
// applied to every exercise. Names, labels and day structure are unchanged.
func GenerateNextWeek(plan *domain.Plan, baseWeek, targetWeek int) (*domain.WeekPlan, error) {
	base, ok := plan.Weeks[baseWeek]
	if !ok || base == nil {
		return nil, fmt.Errorf("week %d: %w", baseWeek, domain.ErrWeekNotFound)
	}
	if targetWeek < 2 {
		return nil, &domain.ValidationError{Field: "target_week", Message: "must be at least 2"}
	}

	next := base.Clone()
	for _, d := range next.Days {
		for i := range d.Exercises {
			d.Exercises[i] = Progress(d.Exercises[i], targetWeek)
		}
	}
	return next, nil
}

// Progress applies the overload rules for targetWeek to one exercise:
// +max(1, (t-1)/2) reps; from week 4 +(t-1)/3 sets up to 5; rest reduced by
// 5s per week, at most 10s, never below 30s.
func Progress(ex domain.ExerciseSpec, targetWeek int) domain.ExerciseSpec {
	step := targetWeek - 1

	ex.Reps += max(1, step/2)

	if targetWeek > 3 && ex.Sets < maxProgressedSets {
		ex.Sets = min(maxProgressedSets, ex.Sets+step/3)
	}

	rest := ex.RestSeconds - min(10, step*5)
	if ex.RestSeconds < minRestSeconds {
		// never raise rest that already sits below the floor
		rest = ex.RestSeconds
	} else if rest < minRestSeconds {
		rest = minRestSeconds
	}
	ex.RestSeconds = rest

	ex.ID = ""
	ex.Completed = false
	return ex
}

// EligibleWeeks returns the weeks that are fully complete and whose next week
// does not exist yet. Weeks without exercises are never eligible.
func EligibleWeeks(records []*domain.ExerciseRecord) []int {
	counts := WeekCompletion(records)
	var out []int
	for wn, c := range counts {
		if c[0] == 0 || c[0] != c[1] {
			continue
		}
		if _, exists := counts[wn+1]; exists {
			continue
		}
		out = append(out, wn)
	}
	sort.Ints(out)
	return out
}

package coach

import (
	"regexp"
	"strings"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

const defaultDayLabel = "Full Body"

var (
	parentheticalRe  = regexp.MustCompile(`\s*(?:\([^)]*\)|\[[^\]]*\])`)
	leadingOrdinalRe = regexp.MustCompile(`^(?:[-*•+]\s*)?(?:[A-Za-z]?\d+[.):]|[A-Za-z][.)]|#\d+)\s+`)
	spacesRe         = regexp.MustCompile(`\s+`)
	emphasisReplacer = strings.NewReplacer("**", "", "__", "", "`", "")
)

// Normalize returns a copy of plan with clean names, default prescriptions,
// contiguous day numbers and synthetic ids. Exercises without a name and days
// without exercises are dropped.
func Normalize(plan *domain.Plan, programID uint) *domain.Plan {
	out := domain.NewPlan()
	if plan == nil {
		return out
	}
	for _, wn := range plan.WeekNumbers() {
		if wn < 1 {
			continue
		}
		week := plan.Weeks[wn]
		if week == nil {
			continue
		}
		next := domain.NewWeekPlan()
		for _, dn := range week.DayNumbers() {
			day := week.Days[dn]
			if day == nil {
				continue
			}
			dayNum := len(next.Days) + 1
			exercises := make([]domain.ExerciseSpec, 0, len(day.Exercises))
			for _, ex := range day.Exercises {
				ex.Name = cleanExerciseName(ex.Name)
				if ex.Name == "" {
					continue
				}
				if ex.Sets <= 0 {
					ex.Sets = domain.DefaultSets
				}
				if ex.Reps <= 0 {
					ex.Reps = domain.DefaultReps
				}
				if ex.RestSeconds < 0 {
					ex.RestSeconds = domain.DefaultRestSeconds
				}
				ex.ID = domain.ExerciseID(programID, wn, dayNum, len(exercises))
				exercises = append(exercises, ex)
			}
			if len(exercises) == 0 {
				continue
			}
			label := cleanLabel(day.Label)
			if label == "" {
				label = defaultDayLabel
			}
			next.Days[dayNum] = &domain.DayPlan{Label: label, Exercises: exercises}
		}
		if len(next.Days) > 0 {
			out.Weeks[wn] = next
		}
	}
	return out
}

// AssignIDs rewrites the synthetic ids of every exercise in place.
func AssignIDs(plan *domain.Plan, programID uint) {
	for wn, w := range plan.Weeks {
		for dn, d := range w.Days {
			for i := range d.Exercises {
				d.Exercises[i].ID = domain.ExerciseID(programID, wn, dn, i)
			}
		}
	}
}

func cleanExerciseName(name string) string {
	name = emphasisReplacer.Replace(name)
	name = parentheticalRe.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	name = leadingOrdinalRe.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, ":", " ")
	name = spacesRe.ReplaceAllString(name, " ")
	return strings.Trim(name, " -–—:,.;#")
}

func cleanLabel(label string) string {
	label = emphasisReplacer.Replace(label)
	label = parentheticalRe.ReplaceAllString(label, "")
	label = spacesRe.ReplaceAllString(label, " ")
	return strings.Trim(label, " -–—:,.;#")
}

func stripEmphasis(s string) string {
	return emphasisReplacer.Replace(s)
}

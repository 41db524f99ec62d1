package coach

import (
	"math"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

type slot struct {
	week, day, position int
}

// Merge overlays persisted completion flags onto a copy of plan. Records join
// on (week, day, position); exercises without a record are not completed.
func Merge(plan *domain.Plan, records []*domain.ExerciseRecord) *domain.Plan {
	byslot := make(map[slot]*domain.ExerciseRecord, len(records))
	for _, r := range records {
		byslot[slot{r.Week, r.Day, r.Position}] = r
	}

	out := plan.Clone()
	for wn, w := range out.Weeks {
		for dn, d := range w.Days {
			for i := range d.Exercises {
				r, ok := byslot[slot{wn, dn, i}]
				d.Exercises[i].Completed = ok && r.Completed
			}
		}
	}
	return out
}

// CompletionPercentage is completed/total*100 rounded to one decimal, 0 for no exercises.
func CompletionPercentage(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}

// BuildRecords materializes one record per exercise of plan, in week, day,
// position order. Completion flags present on the plan are carried over.
func BuildRecords(plan *domain.Plan, programID uint) []*domain.ExerciseRecord {
	var out []*domain.ExerciseRecord
	now := time.Now()
	for _, wn := range plan.WeekNumbers() {
		out = append(out, BuildWeekRecords(plan.Weeks[wn], programID, wn, now)...)
	}
	return out
}

// BuildWeekRecords materializes the records of a single week.
func BuildWeekRecords(week *domain.WeekPlan, programID uint, wn int, now time.Time) []*domain.ExerciseRecord {
	var out []*domain.ExerciseRecord
	for _, dn := range week.DayNumbers() {
		day := week.Days[dn]
		for i, ex := range day.Exercises {
			rec := &domain.ExerciseRecord{
				ProgramID:   programID,
				Week:        wn,
				Day:         dn,
				Position:    i,
				SlotKey:     ulid.Make().String(),
				DayLabel:    day.Label,
				Name:        ex.Name,
				Sets:        ex.Sets,
				Reps:        ex.Reps,
				RestSeconds: ex.RestSeconds,
				Timed:       ex.Timed,
				Completed:   ex.Completed,
			}
			if ex.Completed {
				completedAt := now
				rec.CompletedAt = &completedAt
			}
			out = append(out, rec)
		}
	}
	return out
}

// PlanFromRecords rebuilds a plan from persisted records.
func PlanFromRecords(records []*domain.ExerciseRecord, programID uint) *domain.Plan {
	plan := domain.NewPlan()
	for _, r := range records {
		week := plan.Week(r.Week)
		day, ok := week.Days[r.Day]
		if !ok {
			day = &domain.DayPlan{Label: r.DayLabel}
			week.Days[r.Day] = day
		}
		for len(day.Exercises) <= r.Position {
			day.Exercises = append(day.Exercises, domain.ExerciseSpec{})
		}
		day.Exercises[r.Position] = domain.ExerciseSpec{
			ID:          domain.ExerciseID(programID, r.Week, r.Day, r.Position),
			Name:        r.Name,
			Sets:        r.Sets,
			Reps:        r.Reps,
			RestSeconds: r.RestSeconds,
			Timed:       r.Timed,
			Completed:   r.Completed,
		}
	}
	return plan
}

// WeekCompletion counts the records of each week and the completed ones.
func WeekCompletion(records []*domain.ExerciseRecord) map[int][2]int {
	out := make(map[int][2]int)
	for _, r := range records {
		c := out[r.Week]
		c[0]++
		if r.Completed {
			c[1]++
		}
		out[r.Week] = c
	}
	return out
}

package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Prescription defaults applied whenever a parsed exercise omits a value.
const (
	DefaultSets        = 3
	DefaultReps        = 10
	DefaultRestSeconds = 60
)

// ExerciseSpec is one prescribed exercise inside a day.
// For timed exercises Reps holds the duration in seconds.
type ExerciseSpec struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	RestSeconds int    `json:"rest_seconds"`
	Timed       bool   `json:"timed,omitempty"`
	Completed   bool   `json:"completed"`
}

// DayPlan is a labelled, ordered list of exercises.
type DayPlan struct {
	Label     string         `json:"label"`
	Exercises []ExerciseSpec `json:"exercises"`
}

// WeekPlan maps day numbers (1..n, contiguous) to days.
type WeekPlan struct {
	Days map[int]*DayPlan `json:"days"`
}

// Plan is the structured projection of a program's text.
// It is recomputable and never the source of truth for completion.
type Plan struct {
	Weeks map[int]*WeekPlan `json:"weeks"`
}

func NewPlan() *Plan {
	return &Plan{Weeks: make(map[int]*WeekPlan)}
}

func NewWeekPlan() *WeekPlan {
	return &WeekPlan{Days: make(map[int]*DayPlan)}
}

// Week returns week n, creating it when absent.
func (p *Plan) Week(n int) *WeekPlan {
	if p.Weeks == nil {
		p.Weeks = make(map[int]*WeekPlan)
	}
	w, ok := p.Weeks[n]
	if !ok {
		w = NewWeekPlan()
		p.Weeks[n] = w
	}
	return w
}

// WeekNumbers returns the plan's week numbers in ascending order.
func (p *Plan) WeekNumbers() []int {
	out := make([]int, 0, len(p.Weeks))
	for n := range p.Weeks {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// DayNumbers returns the week's day numbers in ascending order.
func (w *WeekPlan) DayNumbers() []int {
	out := make([]int, 0, len(w.Days))
	for n := range w.Days {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := NewPlan()
	for wn, w := range p.Weeks {
		out.Weeks[wn] = w.Clone()
	}
	return out
}

func (w *WeekPlan) Clone() *WeekPlan {
	out := NewWeekPlan()
	for dn, d := range w.Days {
		cp := &DayPlan{Label: d.Label, Exercises: make([]ExerciseSpec, len(d.Exercises))}
		copy(cp.Exercises, d.Exercises)
		out.Days[dn] = cp
	}
	return out
}

// Totals counts all exercises and the completed ones.
func (p *Plan) Totals() (total, completed int) {
	for _, w := range p.Weeks {
		for _, d := range w.Days {
			for _, ex := range d.Exercises {
				total++
				if ex.Completed {
					completed++
				}
			}
		}
	}
	return total, completed
}

// TotalDays counts days across all weeks.
func (p *Plan) TotalDays() int {
	n := 0
	for _, w := range p.Weeks {
		n += len(w.Days)
	}
	return n
}

// Validate reports whether the plan has at least one week, every week at
// least one day, every day at least one exercise and every exercise a name.
func (p *Plan) Validate() error {
	if p == nil || len(p.Weeks) == 0 {
		return fmt.Errorf("plan has no weeks")
	}
	for _, wn := range p.WeekNumbers() {
		w := p.Weeks[wn]
		if w == nil || len(w.Days) == 0 {
			return fmt.Errorf("week %d has no days", wn)
		}
		for _, dn := range w.DayNumbers() {
			d := w.Days[dn]
			if d == nil || len(d.Exercises) == 0 {
				return fmt.Errorf("week %d day %d has no exercises", wn, dn)
			}
			for i, ex := range d.Exercises {
				if strings.TrimSpace(ex.Name) == "" {
					return fmt.Errorf("week %d day %d exercise %d has no name", wn, dn, i)
				}
			}
		}
	}
	return nil
}

// DaysContiguous reports whether every week's days are exactly 1..len(days).
func (p *Plan) DaysContiguous() bool {
	for _, w := range p.Weeks {
		for i, dn := range w.DayNumbers() {
			if dn != i+1 {
				return false
			}
		}
	}
	return true
}

// WireExercise is an exercise in the client-facing plan shape.
type WireExercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	RestSeconds int    `json:"rest_seconds"`
	Timed       bool   `json:"timed,omitempty"`
	Completed   bool   `json:"completed"`
}

// WireDay is a day in the client-facing plan shape.
type WireDay struct {
	Label     string         `json:"label"`
	Exercises []WireExercise `json:"exercises"`
}

// WirePlan is the string-keyed plan the mobile client consumes:
// {"Week 1": {"Day 1": {...}}}.
type WirePlan map[string]map[string]WireDay

// Wire converts the plan to its string-keyed serialization form.
func (p *Plan) Wire() WirePlan {
	out := make(WirePlan, len(p.Weeks))
	for wn, w := range p.Weeks {
		out[fmt.Sprintf("Week %d", wn)] = w.Wire()
	}
	return out
}

// Wire converts one week to its "Day N" keyed form.
func (w *WeekPlan) Wire() map[string]WireDay {
	days := make(map[string]WireDay, len(w.Days))
	for dn, d := range w.Days {
		exercises := make([]WireExercise, 0, len(d.Exercises))
		for _, ex := range d.Exercises {
			exercises = append(exercises, WireExercise(ex))
		}
		days[fmt.Sprintf("Day %d", dn)] = WireDay{Label: d.Label, Exercises: exercises}
	}
	return days
}

// ExerciseID builds the synthetic slot id {program}_{week}_{day}_{index}.
func ExerciseID(programID uint, week, day, index int) string {
	return fmt.Sprintf("%d_%d_%d_%d", programID, week, day, index)
}

// ParseExerciseID splits a synthetic slot id into its parts.
func ParseExerciseID(id string) (programID uint, week, day, index int, err error) {
	var pid uint64
	if _, err = fmt.Sscanf(strings.ReplaceAll(id, "_", " "), "%d %d %d %d", &pid, &week, &day, &index); err != nil {
		return 0, 0, 0, 0, &ValidationError{Field: "exercise_id", Message: "expected {program}_{week}_{day}_{index}"}
	}
	if week < 1 || day < 1 || index < 0 {
		return 0, 0, 0, 0, &ValidationError{Field: "exercise_id", Message: "week and day must be positive"}
	}
	return uint(pid), week, day, index, nil
}

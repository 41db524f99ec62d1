package coach

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

// Structured program shapes accepted by DecodeStructured:
//
//	{"weeks":[{"week":1,"days":[{"day":1,"label":"","exercises":[...]}]}]}
//	{"days":[...]}                     (single week)
//	{"Week 1":{"Day 1":{"label":"","exercises":[...]}}}
type structuredProgram struct {
	Weeks []structuredWeek `json:"weeks"`
	Days  []structuredDay  `json:"days"`
}

type structuredWeek struct {
	Week flexInt         `json:"week"`
	Days []structuredDay `json:"days"`
}

type structuredDay struct {
	Day       flexInt              `json:"day"`
	Label     string               `json:"label"`
	Focus     string               `json:"focus"`
	Exercises []structuredExercise `json:"exercises"`
}

type structuredExercise struct {
	Name        string  `json:"name"`
	Sets        flexInt `json:"sets"`
	Reps        flexInt `json:"reps"`
	Duration    flexInt `json:"duration"`
	RestSeconds flexInt `json:"rest_seconds"`
	Rest        flexInt `json:"rest"`
	Timed       bool    `json:"timed"`
}

var (
	firstIntRe  = regexp.MustCompile(`\d+`)
	weekKeyRe   = regexp.MustCompile(`(?i)week\s*(\d+)`)
	dayKeyRe    = regexp.MustCompile(`(?i)day\s*(\d+)`)
	codeFenceRe = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*(.*?)\\s*```\\s*$")
)

// flexInt accepts 10, 10.0, "10", "8-12 reps" or "30 seconds".
type flexInt struct {
	n     int
	set   bool
	timed bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var num float64
	if err := json.Unmarshal(b, &num); err == nil {
		f.n, f.set = int(num), true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// null, objects and arrays leave the value unset
		return nil
	}
	m := firstIntRe.FindString(s)
	if m == "" {
		return nil
	}
	f.n, _ = strconv.Atoi(m)
	f.set = true
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "sec"):
		f.timed = true
	case strings.Contains(lower, "min"):
		f.timed = true
		f.n *= 60
	}
	return nil
}

// DecodeStructured interprets text as one of the structured program shapes.
// Markdown code fences around the JSON are ignored.
func DecodeStructured(text string) (*domain.Plan, error) {
	text = strings.TrimSpace(text)
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	if !strings.HasPrefix(text, "{") {
		return nil, fmt.Errorf("not a JSON object")
	}

	var prog structuredProgram
	if err := json.Unmarshal([]byte(text), &prog); err == nil && (len(prog.Weeks) > 0 || len(prog.Days) > 0) {
		plan := domain.NewPlan()
		if len(prog.Weeks) == 0 {
			prog.Weeks = []structuredWeek{{Days: prog.Days}}
		}
		for i, w := range prog.Weeks {
			wn := w.Week.n
			if !w.Week.set || wn < 1 {
				wn = i + 1
			}
			week := plan.Week(wn)
			for j, d := range w.Days {
				dn := d.Day.n
				if !d.Day.set || dn < 1 {
					dn = j + 1
				}
				week.Days[dn] = d.toDayPlan()
			}
		}
		return plan, nil
	}

	var keyed map[string]map[string]structuredDay
	if err := json.Unmarshal([]byte(text), &keyed); err != nil {
		return nil, fmt.Errorf("unrecognized program JSON: %w", err)
	}
	plan := domain.NewPlan()
	weekKeys := make([]string, 0, len(keyed))
	for k := range keyed {
		weekKeys = append(weekKeys, k)
	}
	sort.Strings(weekKeys)
	for _, wk := range weekKeys {
		m := weekKeyRe.FindStringSubmatch(wk)
		if m == nil {
			continue
		}
		wn, _ := strconv.Atoi(m[1])
		if wn < 1 {
			continue
		}
		week := plan.Week(wn)
		for dk, d := range keyed[wk] {
			dm := dayKeyRe.FindStringSubmatch(dk)
			if dm == nil {
				continue
			}
			dn, _ := strconv.Atoi(dm[1])
			if dn < 1 {
				continue
			}
			week.Days[dn] = d.toDayPlan()
		}
	}
	if len(plan.Weeks) == 0 {
		return nil, fmt.Errorf("no weeks in program JSON")
	}
	return plan, nil
}

func (d structuredDay) toDayPlan() *domain.DayPlan {
	label := d.Label
	if label == "" {
		label = d.Focus
	}
	day := &domain.DayPlan{Label: label}
	for _, ex := range d.Exercises {
		spec := domain.ExerciseSpec{
			Name:        ex.Name,
			Sets:        ex.Sets.n,
			Reps:        ex.Reps.n,
			RestSeconds: -1,
			Timed:       ex.Timed || ex.Reps.timed,
		}
		if !ex.Reps.set && ex.Duration.set {
			spec.Reps = ex.Duration.n
			spec.Timed = true
		}
		switch {
		case ex.RestSeconds.set:
			spec.RestSeconds = ex.RestSeconds.n
		case ex.Rest.set:
			spec.RestSeconds = ex.Rest.n
		}
		day.Exercises = append(day.Exercises, spec)
	}
	return day
}

// extractJSON finds the outermost JSON object in text that may contain other content
func extractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || start >= end {
		return "", fmt.Errorf("no JSON object found in text")
	}
	return text[start : end+1], nil
}

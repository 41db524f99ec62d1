package coach

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

const listMarker = `(?:[-*•+]|\d+[.)])`

var (
	weekHeaderRe = regexp.MustCompile(`(?i)^(?:#{1,6}\s*)?week\s*(\d+)\b`)
	dayHeaderRe  = regexp.MustCompile(`(?i)^(?:#{1,6}\s*)?(?:week\s*(\d+)\s*[,:\-–—]?\s*)?day\s*(\d+)\b\s*[:\-–—.]?\s*(.*)$`)
	listMarkerRe = regexp.MustCompile(`^` + listMarker + `\s+`)

	// Strict dosed lines: "- Name: 3 sets x 10 reps" and "- Name: 3 sets x 30 seconds"
	strictDurationRe = regexp.MustCompile(`(?i)^(?:` + listMarker + `\s+)?([^:]+?)\s*:\s*(\d+)\s*(?:sets?)?\s*(?:x|×|of)\s*(\d+)(?:\s*-\s*\d+)?\s*(seconds?|secs?|s|minutes?|mins?)\b`)
	strictRepsRe     = regexp.MustCompile(`(?i)^(?:` + listMarker + `\s+)?([^:]+?)\s*:\s*(\d+)\s*(?:sets?)?\s*(?:x|×|of)\s*(\d+)(?:\s*-\s*\d+)?\s*(?:reps?|repetitions)?\b`)

	// Loose per-field scans over the right side of "name: dose"
	looseNxMRe  = regexp.MustCompile(`(?i)(\d+)\s*[x×]\s*(\d+)(?:\s*-\s*\d+)?\s*(seconds?|secs?|s|minutes?|mins?)?\b`)
	looseSetsRe = regexp.MustCompile(`(?i)(\d+)\s*(?:sets?|rounds?)\b`)
	looseRepsRe = regexp.MustCompile(`(?i)(\d+)(?:\s*-\s*\d+)?\s*(reps?|repetitions|seconds?|secs?|minutes?|mins?)\b`)
	restRe      = regexp.MustCompile(`(?i)\brest\s*:?\s*(?:of\s*)?(\d+)\s*(seconds?|secs?|s|minutes?|mins?)?\b|(\d+)\s*(seconds?|secs?|s|minutes?|mins?)\s*rest\b`)

	skipSectionRe = regexp.MustCompile(`(?i)^(?:warm[\s-]?ups?|cool[\s-]?downs?|notes?|tips?|stretch(?:es|ing)?|mobility|recovery|rest day|nutrition)\b`)
	mainSectionRe = regexp.MustCompile(`(?i)^(?:main\s+(?:workout|set|exercises?)|workout|strength|circuit|exercises|training|conditioning|superset)\b`)

	// A name made only of these words is a note or a dose line, not an exercise.
	nonExerciseWord   = `(?:rest|notes?|tips?|duration|total|time|goal|focus|frequency|intensity|tempo|equipment|week|day|sets?|reps?|rounds?|workout|circuit|superset|session|warm[\s-]?ups?|cool[\s-]?downs?|progression|level|between|per|each|and|of|the|period|interval)`
	nonExerciseNameRe = regexp.MustCompile(`(?i)^(?:` + nonExerciseWord + `\b[\s/&,-]*\d*[\s/&,-]*)+$`)

	exerciseKeywordRe = regexp.MustCompile(`(?i)\b(?:press|pull|push|squat|deadlift|curl|row|fly|flye|raise|extension|flexion|crunch|plank|lunge|dip|shrug|twist|bridge|burpee|climber|jack|thrust)`)
	digitRe           = regexp.MustCompile(`\d`)
)

type sectionKind int

const (
	sectionNone sectionKind = iota
	sectionMain
	sectionOther
	sectionSkip
)

type dayBlock struct {
	week  int
	day   int
	label string
	lines []string
}

// parsePatterns recognizes "Day N: label" blocks and dosed exercise lines.
func parsePatterns(raw string) *domain.Plan {
	plan := domain.NewPlan()
	for _, b := range splitDayBlocks(raw) {
		exercises := parseBlockExercises(b.lines)
		if len(exercises) == 0 {
			continue
		}
		week := plan.Week(b.week)
		if existing, ok := week.Days[b.day]; ok {
			existing.Exercises = append(existing.Exercises, exercises...)
			continue
		}
		week.Days[b.day] = &domain.DayPlan{Label: b.label, Exercises: exercises}
	}
	for wn, w := range plan.Weeks {
		if len(w.Days) == 0 {
			delete(plan.Weeks, wn)
		}
	}
	return plan
}

// splitDayBlocks groups lines under their day header. A week header switches
// the current week; a repeated day number without one starts the next week.
func splitDayBlocks(raw string) []*dayBlock {
	var blocks []*dayBlock
	var cur *dayBlock
	week, maxWeek := 1, 1
	seen := map[[2]int]bool{}

	for _, line := range strings.Split(raw, "\n") {
		t := stripEmphasis(strings.TrimSpace(line))
		if t == "" {
			continue
		}
		if m := dayHeaderRe.FindStringSubmatch(t); m != nil {
			if m[1] != "" {
				week, _ = strconv.Atoi(m[1])
			}
			day, _ := strconv.Atoi(m[2])
			if day < 1 || week < 1 {
				continue
			}
			if m[1] == "" && seen[[2]int{week, day}] {
				week = maxWeek + 1
			}
			if week > maxWeek {
				maxWeek = week
			}
			seen[[2]int{week, day}] = true
			cur = &dayBlock{week: week, day: day, label: cleanLabel(m[3])}
			blocks = append(blocks, cur)
			continue
		}
		if m := weekHeaderRe.FindStringSubmatch(t); m != nil {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				week = n
				if week > maxWeek {
					maxWeek = week
				}
				cur = nil
			}
			continue
		}
		if cur != nil {
			cur.lines = append(cur.lines, t)
		}
	}
	return blocks
}

// parseBlockExercises returns the dosed exercises of one day. When the block
// has a main-workout header only lines inside a main section are candidates.
func parseBlockExercises(lines []string) []domain.ExerciseSpec {
	hasMain := false
	for _, l := range lines {
		if kind, header := classifySection(l); header && kind == sectionMain {
			hasMain = true
			break
		}
	}

	var out []domain.ExerciseSpec
	section := sectionNone
	for _, l := range lines {
		kind, header := classifySection(l)
		if header {
			section = kind
			continue
		}
		if kind == sectionSkip || section == sectionSkip {
			continue
		}
		if hasMain && section != sectionMain {
			continue
		}
		if ex, ok := parseExerciseLine(l); ok {
			out = append(out, ex)
		}
	}
	return out
}

// classifySection reports the section a line opens (header=true) or, for an
// inline line like "Warm-up: 5 min jog", whether the line itself is skipped.
func classifySection(line string) (sectionKind, bool) {
	if listMarkerRe.MatchString(line) {
		body := listMarkerRe.ReplaceAllString(line, "")
		if skipSectionRe.MatchString(body) {
			return sectionSkip, false
		}
		return sectionNone, false
	}

	bare := strings.TrimSpace(strings.Trim(line, "#"))
	endsWithColon := strings.HasSuffix(bare, ":")
	isHeader := strings.HasPrefix(line, "#") || endsWithColon ||
		(!digitRe.MatchString(bare) && len(strings.Fields(bare)) <= 4)

	switch {
	case skipSectionRe.MatchString(bare):
		if isHeader {
			return sectionSkip, true
		}
		return sectionSkip, false
	case mainSectionRe.MatchString(bare) && isHeader:
		return sectionMain, true
	case endsWithColon || strings.HasPrefix(line, "#"):
		return sectionOther, true
	}
	return sectionNone, false
}

// parseExerciseLine tries the strict patterns, then the loose colon split.
func parseExerciseLine(line string) (domain.ExerciseSpec, bool) {
	if m := strictDurationRe.FindStringSubmatch(line); m != nil {
		if ex, ok := buildExercise(m[1], m[2], m[3], m[4], line); ok {
			ex.Timed = true
			return ex, true
		}
	}
	if m := strictRepsRe.FindStringSubmatch(line); m != nil {
		if ex, ok := buildExercise(m[1], m[2], m[3], "", line); ok {
			return ex, true
		}
	}
	return parseLooseLine(line)
}

func buildExercise(name, sets, reps, unit, line string) (domain.ExerciseSpec, bool) {
	name = cleanExerciseName(name)
	if !plausibleName(name) {
		return domain.ExerciseSpec{}, false
	}
	s, _ := strconv.Atoi(sets)
	r, _ := strconv.Atoi(reps)
	if isMinutes(unit) {
		r *= 60
	}
	return domain.ExerciseSpec{Name: name, Sets: s, Reps: r, RestSeconds: scanRest(line)}, true
}

// parseLooseLine splits "name: anything with numbers" and scans the right side
// for sets, reps/seconds and rest independently.
func parseLooseLine(line string) (domain.ExerciseSpec, bool) {
	body := listMarkerRe.ReplaceAllString(line, "")
	var name, dose string
	if i := strings.Index(body, ":"); i >= 0 {
		name, dose = body[:i], body[i+1:]
	} else if loc := looseNxMRe.FindStringIndex(body); loc != nil && loc[0] > 0 {
		name, dose = body[:loc[0]], body[loc[0]:]
	} else {
		return domain.ExerciseSpec{}, false
	}
	if !digitRe.MatchString(dose) {
		return domain.ExerciseSpec{}, false
	}
	name = cleanExerciseName(name)
	if !plausibleName(name) {
		return domain.ExerciseSpec{}, false
	}

	ex := domain.ExerciseSpec{Name: name, RestSeconds: scanRest(dose)}
	// Drop the rest clause so its seconds are not read as a duration
	dose = restRe.ReplaceAllString(dose, "")

	if m := looseNxMRe.FindStringSubmatch(dose); m != nil {
		ex.Sets, _ = strconv.Atoi(m[1])
		ex.Reps, _ = strconv.Atoi(m[2])
		if m[3] != "" {
			ex.Timed = true
			if isMinutes(m[3]) {
				ex.Reps *= 60
			}
		}
		return ex, true
	}
	if m := looseSetsRe.FindStringSubmatch(dose); m != nil {
		ex.Sets, _ = strconv.Atoi(m[1])
	}
	if m := looseRepsRe.FindStringSubmatch(dose); m != nil {
		ex.Reps, _ = strconv.Atoi(m[1])
		unit := strings.ToLower(m[2])
		if !strings.HasPrefix(unit, "rep") {
			ex.Timed = true
			if isMinutes(unit) {
				ex.Reps *= 60
			}
		}
	}
	return ex, true
}

// scanRest returns the rest in seconds, or -1 when the line has none.
func scanRest(s string) int {
	m := restRe.FindStringSubmatch(s)
	if m == nil {
		return -1
	}
	value, unit := m[1], m[2]
	if value == "" {
		value, unit = m[3], m[4]
	}
	n, _ := strconv.Atoi(value)
	if isMinutes(unit) {
		n *= 60
	}
	return n
}

func isMinutes(unit string) bool {
	return strings.HasPrefix(strings.ToLower(unit), "min")
}

func plausibleName(name string) bool {
	return len(name) >= 2 && !nonExerciseNameRe.MatchString(name)
}

// parseHeuristic collects up to 10 distinct exercise-like names anywhere in
// the text into a single day.
func parseHeuristic(raw string) *domain.Plan {
	var exercises []domain.ExerciseSpec
	seen := map[string]bool{}
	for _, line := range strings.Split(raw, "\n") {
		t := listMarkerRe.ReplaceAllString(stripEmphasis(strings.TrimSpace(line)), "")
		if !exerciseKeywordRe.MatchString(t) {
			continue
		}
		candidate := t
		if i := strings.Index(candidate, ":"); i >= 0 {
			candidate = candidate[:i]
		}
		if loc := digitRe.FindStringIndex(candidate); loc != nil {
			candidate = candidate[:loc[0]]
		}
		name := cleanExerciseName(candidate)
		if len(name) < 3 || len(name) > 50 || !exerciseKeywordRe.MatchString(name) || nonExerciseNameRe.MatchString(name) {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		exercises = append(exercises, domain.ExerciseSpec{Name: name, RestSeconds: -1})
		if len(exercises) == 10 {
			break
		}
	}

	plan := domain.NewPlan()
	if len(exercises) > 0 {
		plan.Week(1).Days[1] = &domain.DayPlan{Label: defaultDayLabel, Exercises: exercises}
	}
	return plan
}

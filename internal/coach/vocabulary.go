package coach

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

// exerciseSynonyms maps a canonical exercise token to the phrases users write for it.
var exerciseSynonyms = map[string][]string{
	"jumping":           {"jumping jacks", "jumping jack", "jumping", "jumps", "jump"},
	"burpees":           {"burpees", "burpee"},
	"push-ups":          {"push-ups", "push ups", "pushups", "push-up", "push up"},
	"pull-ups":          {"pull-ups", "pull ups", "pullups", "pull-up", "pull up", "chin-ups", "chin ups"},
	"squats":            {"squats", "squat"},
	"lunges":            {"lunges", "lunge"},
	"plank":             {"planks", "plank"},
	"mountain climbers": {"mountain climbers", "mountain climber"},
	"high knees":        {"high knees"},
	"deadlifts":         {"deadlifts", "deadlift"},
	"crunches":          {"crunches", "crunch", "sit-ups", "sit ups", "situps"},
	"dips":              {"dips", "dip"},
	"rows":              {"rows", "row"},
	"bench press":       {"bench press", "bench"},
	"curls":             {"bicep curls", "curls", "curl"},
	"running":           {"running", "run", "jogging", "jog"},
}

type synonym struct {
	phrase    string
	canonical string
	re        *regexp.Regexp
}

// synonymIndex is every phrase, longest first, so "jumping jacks" wins over "jump".
var synonymIndex = buildSynonymIndex()

func buildSynonymIndex() []synonym {
	var out []synonym
	for canonical, phrases := range exerciseSynonyms {
		for _, p := range phrases {
			out = append(out, synonym{
				phrase:    p,
				canonical: canonical,
				re:        regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].phrase) != len(out[j].phrase) {
			return len(out[i].phrase) > len(out[j].phrase)
		}
		return out[i].phrase < out[j].phrase
	})
	return out
}

// CanonicalExercise returns the canonical token of the first known exercise
// phrase found in text.
func CanonicalExercise(text string) (string, bool) {
	t := normalizeText(text)
	for _, s := range synonymIndex {
		if s.re.MatchString(t) {
			return s.canonical, true
		}
	}
	return "", false
}

// MatchesExercise reports whether an exercise name refers to target, where
// target is a canonical token or free text.
func MatchesExercise(name, target string) bool {
	n := normalizeText(name)
	t := normalizeText(target)
	if n == "" || t == "" {
		return false
	}
	if phrases, ok := exerciseSynonyms[t]; ok {
		for _, p := range phrases {
			if containsWord(n, p) {
				return true
			}
		}
		return false
	}
	return containsWord(n, t)
}

func containsWord(haystack, needle string) bool {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(needle) + `\b`).MatchString(haystack)
}

// jumpPatternExercises is removed while the no-jumping restriction is active.
var jumpPatternExercises = []string{
	"jumping jacks", "jump rope", "burpees", "box jumps", "mountain climbers",
	"squat jumps", "jumping lunges", "high knees",
}

// Equipment keywords matched as substrings of exercise names.
var equipmentKeywords = []string{"dumbbell", "barbell", "kettlebell", "machine"}

// forbiddenEquipment derives the equipment keywords a profile excludes.
func forbiddenEquipment(equipment string, restrictions []string) []string {
	e := strings.ToLower(equipment)
	bodyweightOnly := strings.Contains(e, "bodyweight only") || strings.Contains(e, "body weight only") ||
		strings.Contains(e, "no equipment") || strings.Contains(e, "none")
	for _, r := range restrictions {
		if r == domain.RestrictionBodyweightOnly {
			bodyweightOnly = true
		}
	}
	if bodyweightOnly {
		return equipmentKeywords
	}

	var out []string
	for _, kw := range equipmentKeywords {
		if strings.Contains(e, "no "+kw) || strings.Contains(e, "without "+kw) {
			out = append(out, kw)
		}
	}
	return out
}

func isJumpPattern(name string) bool {
	n := strings.ToLower(name)
	for _, j := range jumpPatternExercises {
		if strings.Contains(n, j) || strings.Contains(n, strings.TrimSuffix(j, "s")) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

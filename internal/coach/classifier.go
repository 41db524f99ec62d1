package coach

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

// Progress indicators: numeric performance mentions, completion verbs and
// how the session felt.
var progressPatterns = compileAll(
	`\d+\s*kg\b`, `\d+\s*lbs?\b`, `\d+\s*pounds\b`, `\d+\s*reps?\b`, `\d+\s*sets?\b`,
	`\bi did\b`, `\bi completed\b`, `\bi managed\b`, `\bi benched\b`, `\bi squatted\b`,
	`\bi deadlifted\b`, `\bi lifted\b`, `\bi ran\b`, `\bi walked\b`,
	`\bfinished\b`, `\bcompleted\b`, `\bachieved\b`, `\bhit\b`,
	`\bfelt (?:good|great|easy|hard)\b`, `\bwas (?:tough|easy)\b`, `\bwent well\b`,
	`\bpersonal record\b`, `\bpr\b`, `\bnew max\b`, `\bincreased weight\b`, `\bprogressed\b`,
)

// Change indicators: change verbs, equipment/injury/preference phrases and
// day references.
var changePatterns = compileAll(
	`\bchange\b`, `\bmodify\b`, `\bupdate\b`, `\badjust\b`, `\bnew routine\b`,
	`\bdifferent workout\b`, `\bswitch\b`, `\breplace\b`, `\bsubstitute\b`, `\bswap\b`, `\brewrite\b`,
	`\bremove\b`, `\bdelete\b`, `\btake out\b`, `\beliminate\b`, `\bskip\b`, `\bdrop\b`, `\bget rid of\b`,
	`\breduce\b`, `\bfewer\b`, `\bno more\b`, `\bonly \w+ days?\b`, `\bmake it \w+ days?\b`, `\b\w+ days? (?:per|a|each) week\b`,
	`\b(?:entire|whole|full) program\b`, `\bstart over\b`, `\bfrom scratch\b`,
	`\bno jumping\b`, `\bcan'?t jump\b`, `\bavoid jumping\b`,
	`\btoo (?:hard|easy|difficult)\b`, `\beasier\b`, `\bharder\b`,
	`\binjur(?:y|ed)\b`, `\bhurts?\b`, `\bpain\b`, `\bsore\b`,
	`\bno equipment\b`, `\bdifferent equipment\b`, `\bat home\b`, `\bbodyweight\b`, `\bno dumbbells?\b`, `\bbands\b`,
	`\bprefer\b`, `\bwould rather\b`, `\binstead of\b`, `\bdon'?t like\b`, `\bhate\b`, `\bboring\b`,
	`\bday\s*[1-7]\b`, `\b(?:upper|lower|full) body\b`, `\bcardio\b`,
	`\b(?:more|less) challenging\b`, `\bnot working\b`, `\bmore fun\b`,
)

var questionPatterns = compileAll(
	`\?`, `\bhow\b`, `\bwhat\b`, `\bwhen\b`, `\bwhere\b`, `\bwhy\b`, `\bshould i\b`,
	`\bcan i\b`, `\bis it okay\b`, `\bhelp\b`, `\bconfused\b`, `\bnot sure\b`,
)

const removalVerbs = `(?:remove|delete|take out|eliminate|skip|drop|get rid of|no more|cut out)`

var (
	removeDayRe  = regexp.MustCompile(`\b` + removalVerbs + `\s+(?:the\s+)?(?:day|workout|session)\s*(\w+)`)
	reduceDaysRe = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:make it|make this|reduce(?: it)? to|cut(?: it)?(?: down)? to|change(?: it)? to|drop(?: it)? to|only|just)\s+(\w+)\s+days?\b`),
		regexp.MustCompile(`\b(\w+)\s+days?\s+(?:per|a|each)\s+week\b`),
	}
	removeTargetRe = regexp.MustCompile(`\b` + removalVerbs + `\s+(?:the\s+|my\s+|those\s+|these\s+)?([a-z][a-z' -]{1,40}?)(?:\s+(?:exercises?|from|on|in)\b|[.,;!?]|$)`)
	removeAllRe    = regexp.MustCompile(`\b` + removalVerbs + `\s+all\b`)
	replaceRe      = regexp.MustCompile(`\b(?:replace|substitute|swap|switch|change)\s+(?:the\s+|my\s+)?([a-z][a-z' -]*?)\s+(?:with|to|for|into)\s+([a-z][a-z' -]*?)(?:[.,;!?]|\s+on\b|\s+in\b|$)`)
	dayRefRes      = []*regexp.Regexp{
		regexp.MustCompile(`\bday\s*(\d+)`),
		regexp.MustCompile(`\bday\s*([a-z]+)`),
		regexp.MustCompile(`\bworkout\s*(\d+)`),
		regexp.MustCompile(`\bsession\s*(\d+)`),
	}
)

var restrictionPhrases = []struct {
	re    *regexp.Regexp
	token string
}{
	{regexp.MustCompile(`\b(?:no|avoid|without)\s+(?:more\s+)?jump(?:ing|s)?\b|\bcan'?t jump\b|\b` + removalVerbs + `\s+all\s+(?:the\s+)?jump(?:ing|s)?\b|\bno plyometrics?\b`), domain.RestrictionNoJumping},
	{regexp.MustCompile(`\bno equipment\b|\bbody\s?weight only\b|\bwithout (?:any )?equipment\b|\bonly body\s?weight\b`), domain.RestrictionBodyweightOnly},
}

// Words that never name an exercise on their own.
var removalStopWords = map[string]bool{
	"it": true, "this": true, "that": true, "them": true, "all": true, "everything": true,
	"day": true, "days": true, "exercise": true, "exercises": true, "workout": true, "workouts": true,
	"some": true, "one": true, "a": true, "an": true, "the": true, "something": true,
}

var numberWords = map[string]int{
	"one": 1, "first": 1, "1st": 1,
	"two": 2, "second": 2, "2nd": 2,
	"three": 3, "third": 3, "3rd": 3,
	"four": 4, "fourth": 4, "4th": 4,
	"five": 5, "fifth": 5, "5th": 5,
	"six": 6, "sixth": 6, "6th": 6,
	"seven": 7, "seventh": 7, "7th": 7,
}

// Classify maps a free-text feedback message to an Intent. It never fails;
// unmatched input is IntentOther.
func Classify(feedback string) domain.Intent {
	text := normalizeText(feedback)
	progress := countMatches(progressPatterns, text)
	change := countMatches(changePatterns, text)

	switch {
	case progress > change && progress > 0:
		return domain.Intent{Kind: domain.IntentProgress}
	case change > 0:
		rc := classifyChange(text)
		rc.Request = strings.TrimSpace(feedback)
		return domain.Intent{Kind: domain.IntentRoutineChange, Change: rc}
	case countMatches(questionPatterns, text) > 0:
		return domain.Intent{Kind: domain.IntentQuestion}
	default:
		return domain.Intent{Kind: domain.IntentOther}
	}
}

// classifyChange applies the sub-intent precedence; first match wins.
func classifyChange(text string) *domain.RoutineChange {
	if m := removeDayRe.FindStringSubmatch(text); m != nil {
		if n, ok := parseNumber(m[1]); ok {
			return &domain.RoutineChange{Kind: domain.ChangeRemoveDay, Day: n}
		}
	}
	for _, re := range reduceDaysRe {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, ok := parseNumber(m[1]); ok && n >= 1 && n <= 7 {
				return &domain.RoutineChange{Kind: domain.ChangeReduceDays, Days: n}
			}
		}
	}
	if name, ok := removalTarget(text); ok {
		return &domain.RoutineChange{Kind: domain.ChangeRemoveExercise, Exercise: name}
	}
	if m := replaceRe.FindStringSubmatch(text); m != nil {
		from, to := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if from != "" && to != "" && !removalStopWords[from] {
			if canonical, ok := CanonicalExercise(from); ok {
				from = canonical
			}
			return &domain.RoutineChange{Kind: domain.ChangeReplaceExercise, Exercise: from, Replacement: titleCase(to)}
		}
	}
	for _, rp := range restrictionPhrases {
		if rp.re.MatchString(text) {
			return &domain.RoutineChange{Kind: domain.ChangeAddRestriction, Restriction: rp.token}
		}
	}
	return &domain.RoutineChange{Kind: domain.ChangeGeneric}
}

// removalTarget finds "remove <exercise>". A known synonym wins; otherwise
// the noun phrase after the verb is used unless it is a stop word. "remove
// all ..." is a standing restriction, not a single removal.
func removalTarget(text string) (string, bool) {
	if removeAllRe.MatchString(text) {
		return "", false
	}
	m := removeTargetRe.FindStringSubmatchIndex(text)
	if m == nil {
		return "", false
	}
	phrase := strings.TrimSpace(text[m[2]:m[3]])
	if canonical, ok := CanonicalExercise(phrase); ok {
		return canonical, true
	}
	if phrase == "" || removalStopWords[phrase] || strings.HasPrefix(phrase, "day") {
		return "", false
	}
	return phrase, true
}

// ExtractDay finds a day reference such as "day 3", "day three" or
// "day 3rd". Spelled-out forms are recognized up to seven.
func ExtractDay(text string) (int, bool) {
	t := normalizeText(text)
	for _, re := range dayRefRes {
		for _, m := range re.FindAllStringSubmatch(t, -1) {
			if n, ok := parseNumber(m[1]); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func parseNumber(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n, true
	}
	n, ok := numberWords[s]
	return n, ok
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range patterns {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("’", "'", "‘", "'", " ", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
)

// ErrEmptyPlan is returned when a change would leave no exercises.
var ErrEmptyPlan = errors.New("change would leave the plan without exercises")

var restrictionDescriptions = map[string]string{
	domain.RestrictionNoJumping:      "no jumping or plyometric exercises",
	domain.RestrictionBodyweightOnly: "bodyweight exercises only",
}

// DescribeRestriction returns the prompt wording of a restriction token.
func DescribeRestriction(token string) string {
	if d, ok := restrictionDescriptions[token]; ok {
		return d
	}
	return strings.ReplaceAll(token, "_", " ")
}

// Constraints are the standing user preferences every mutation honors.
type Constraints struct {
	Equipment    string
	Restrictions []string
	// DaysPerWeek fixes the day count of a regenerated plan; 0 keeps the current count.
	DaysPerWeek int
}

// Mutator applies routine changes to plans.
type Mutator struct {
	completer domain.TextCompleter
	parser    *Parser
	timeout   time.Duration
	log       *logger.Logger
}

// NewMutator creates a Mutator. Without a completer generic changes only
// re-apply the restriction filter.
func NewMutator(completer domain.TextCompleter, parser *Parser, timeout time.Duration, log *logger.Logger) *Mutator {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Mutator{completer: completer, parser: parser, timeout: timeout, log: log}
}

// Apply returns a new plan with change applied followed by the
// equipment/restriction filter. The input plan is never modified.
func (m *Mutator) Apply(ctx context.Context, plan *domain.Plan, change *domain.RoutineChange, c Constraints, programID uint) (*domain.Plan, error) {
	if change == nil {
		change = &domain.RoutineChange{Kind: domain.ChangeGeneric}
	}
	restrictions := append([]string(nil), c.Restrictions...)

	var out *domain.Plan
	switch change.Kind {
	case domain.ChangeRemoveDay:
		out = RemoveDay(plan, change.Day)
	case domain.ChangeReduceDays:
		out = ReduceDays(plan, change.Days)
	case domain.ChangeRemoveExercise:
		out = RemoveExercise(plan, change.Exercise)
	case domain.ChangeReplaceExercise:
		out = ReplaceExercise(plan, change.Exercise, change.Replacement)
	case domain.ChangeAddRestriction:
		if !containsString(restrictions, change.Restriction) {
			restrictions = append(restrictions, change.Restriction)
		}
		out = plan.Clone()
	default:
		out = m.regenerate(ctx, plan, change.Request, Constraints{Equipment: c.Equipment, Restrictions: restrictions, DaysPerWeek: c.DaysPerWeek}, programID)
	}

	out = Normalize(FilterRestricted(out, c.Equipment, restrictions), programID)
	if err := out.Validate(); err != nil {
		return nil, ErrEmptyPlan
	}
	return out, nil
}

// regenerate asks the model for a whole new program under the constraints.
// The day count is forced to DaysPerWeek, or to the current first week's
// count when no preference is known. Any failure keeps the current plan.
func (m *Mutator) regenerate(ctx context.Context, plan *domain.Plan, request string, c Constraints, programID uint) *domain.Plan {
	if m.completer == nil || m.parser == nil {
		return plan.Clone()
	}

	days := c.DaysPerWeek
	if days <= 0 {
		if weeks := plan.WeekNumbers(); len(weeks) > 0 {
			days = len(plan.Weeks[weeks[0]].Days)
		}
	}
	if days <= 0 {
		days = 3
	}
	equipment := c.Equipment
	if equipment == "" {
		equipment = "not specified"
	}

	restrictions := make([]string, 0, len(c.Restrictions))
	for _, r := range c.Restrictions {
		restrictions = append(restrictions, DescribeRestriction(r))
	}

	prompt, err := renderPrompt(regenerationTmpl, RegenerationContext{
		Request:      request,
		Days:         days,
		Equipment:    equipment,
		Restrictions: restrictions,
		Forbidden:    forbiddenEquipment(c.Equipment, c.Restrictions),
		Current:      Render("", plan),
	})
	if err != nil {
		m.log.Error("failed to render regeneration prompt", "error", err)
		return plan.Clone()
	}

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	text, err := m.completer.Complete(callCtx, domain.CompletionRequest{Prompt: prompt})
	if err != nil {
		m.log.Warn("plan regeneration failed, keeping current plan", "program_id", programID, "error", err)
		return plan.Clone()
	}

	regenerated, strategy := m.parser.Parse(ctx, text, programID)
	if strategy == StrategyFallback || strategy == StrategyHeuristic {
		m.log.Warn("regenerated plan unusable, keeping current plan", "program_id", programID, "strategy", string(strategy))
		return plan.Clone()
	}
	return ReduceDays(regenerated, days)
}

// RemoveDay deletes day n from every week that has it and renumbers the
// following days.
func RemoveDay(plan *domain.Plan, n int) *domain.Plan {
	out := plan.Clone()
	for _, w := range out.Weeks {
		if _, ok := w.Days[n]; !ok {
			continue
		}
		delete(w.Days, n)
		renumberDays(w)
	}
	return out
}

// ReduceDays keeps the first n days of every week.
func ReduceDays(plan *domain.Plan, n int) *domain.Plan {
	out := plan.Clone()
	if n < 1 {
		return out
	}
	for _, w := range out.Weeks {
		for i, dn := range w.DayNumbers() {
			if i >= n {
				delete(w.Days, dn)
			}
		}
		renumberDays(w)
	}
	return out
}

// RemoveExercise drops every exercise matching target (a canonical synonym
// or free text). Days left empty are removed.
func RemoveExercise(plan *domain.Plan, target string) *domain.Plan {
	return filterExercises(plan, func(ex domain.ExerciseSpec) bool {
		return MatchesExercise(ex.Name, target)
	})
}

// ReplaceExercise renames every exercise matching old to replacement.
func ReplaceExercise(plan *domain.Plan, old, replacement string) *domain.Plan {
	out := plan.Clone()
	replacement = strings.TrimSpace(replacement)
	if replacement == "" {
		return out
	}
	for _, w := range out.Weeks {
		for _, d := range w.Days {
			for i := range d.Exercises {
				if MatchesExercise(d.Exercises[i].Name, old) {
					d.Exercises[i].Name = replacement
					d.Exercises[i].Completed = false
				}
			}
		}
	}
	return out
}

// FilterRestricted removes exercises needing forbidden equipment and, under
// the no-jumping restriction, every jump-pattern exercise. Idempotent.
func FilterRestricted(plan *domain.Plan, equipment string, restrictions []string) *domain.Plan {
	forbidden := forbiddenEquipment(equipment, restrictions)
	noJumping := containsString(restrictions, domain.RestrictionNoJumping)
	if len(forbidden) == 0 && !noJumping {
		return plan.Clone()
	}
	return filterExercises(plan, func(ex domain.ExerciseSpec) bool {
		name := strings.ToLower(ex.Name)
		for _, kw := range forbidden {
			if strings.Contains(name, kw) {
				return true
			}
		}
		return noJumping && isJumpPattern(name)
	})
}

// filterExercises returns a copy of plan without the exercises drop matches.
func filterExercises(plan *domain.Plan, drop func(domain.ExerciseSpec) bool) *domain.Plan {
	out := plan.Clone()
	for _, w := range out.Weeks {
		changed := false
		for dn, d := range w.Days {
			kept := d.Exercises[:0]
			for _, ex := range d.Exercises {
				if !drop(ex) {
					kept = append(kept, ex)
				}
			}
			d.Exercises = kept
			if len(kept) == 0 {
				delete(w.Days, dn)
				changed = true
			}
		}
		if changed {
			renumberDays(w)
		}
	}
	return out
}

// renumberDays makes the week's day numbers 1..len(days) preserving order.
func renumberDays(w *domain.WeekPlan) {
	numbers := w.DayNumbers()
	days := make(map[int]*domain.DayPlan, len(numbers))
	for i, dn := range numbers {
		days[i+1] = w.Days[dn]
	}
	w.Days = days
}

// Equal reports whether two plans have the same structure and prescriptions.
// Ids and completion flags are ignored.
func Equal(a, b *domain.Plan) bool {
	return fingerprint(a) == fingerprint(b)
}

func fingerprint(p *domain.Plan) string {
	var sb strings.Builder
	for _, wn := range p.WeekNumbers() {
		w := p.Weeks[wn]
		for _, dn := range w.DayNumbers() {
			d := w.Days[dn]
			fmt.Fprintf(&sb, "%d/%d/%s|", wn, dn, d.Label)
			for _, ex := range d.Exercises {
				fmt.Fprintf(&sb, "%s:%d:%d:%d:%t;", ex.Name, ex.Sets, ex.Reps, ex.RestSeconds, ex.Timed)
			}
		}
	}
	return sb.String()
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

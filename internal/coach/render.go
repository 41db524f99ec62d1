package coach

import (
	"fmt"
	"strings"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

// Render writes plan as the canonical markdown program text. The pattern
// strategy parses it back to the same structure.
func Render(title string, plan *domain.Plan) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	for i, wn := range plan.WeekNumbers() {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## Week %d\n", wn)
		week := plan.Weeks[wn]
		for _, dn := range week.DayNumbers() {
			day := week.Days[dn]
			fmt.Fprintf(&b, "\n### Day %d: %s\n**Main Workout:**\n", dn, day.Label)
			for _, ex := range day.Exercises {
				unit := "reps"
				if ex.Timed {
					unit = "seconds"
				}
				fmt.Fprintf(&b, "- %s: %d sets x %d %s, Rest: %d seconds\n", ex.Name, ex.Sets, ex.Reps, unit, ex.RestSeconds)
			}
		}
	}
	return b.String()
}

// Summarize renders a short one-line-per-day overview for prompts.
func Summarize(plan *domain.Plan) string {
	var b strings.Builder
	for _, wn := range plan.WeekNumbers() {
		week := plan.Weeks[wn]
		for _, dn := range week.DayNumbers() {
			day := week.Days[dn]
			names := make([]string, len(day.Exercises))
			for i, ex := range day.Exercises {
				names[i] = ex.Name
			}
			fmt.Fprintf(&b, "Week %d Day %d (%s): %s\n", wn, dn, day.Label, strings.Join(names, ", "))
		}
	}
	return b.String()
}

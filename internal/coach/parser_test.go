package coach

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/testutil"
)

const pushDayText = "### Day 1: Push Day\n**Main Workout:**\n- Push-ups: 3 sets x 10 reps, Rest: 60 seconds\n- Plank: 3 sets x 30 seconds, Rest: 45 seconds"

type recordedParse struct {
	strategy string
	degraded bool
}

type fakeRecorder struct {
	events []recordedParse
}

func (r *fakeRecorder) RecordParse(_ context.Context, strategy string, degraded bool) {
	r.events = append(r.events, recordedParse{strategy, degraded})
}

func exerciseNames(day *domain.DayPlan) []string {
	out := make([]string, len(day.Exercises))
	for i, ex := range day.Exercises {
		out[i] = ex.Name
	}
	return out
}

func TestParseFullPipeline(t *testing.T) {
	rec := &fakeRecorder{}
	p := NewParser(nil, ParserOptions{Recorder: rec})

	plan, strategy := p.Parse(context.Background(), pushDayText, 7)

	assert.Equal(t, StrategyPattern, strategy)
	require.Len(t, plan.Weeks, 1)
	require.Len(t, plan.Weeks[1].Days, 1)
	day := plan.Weeks[1].Days[1]
	assert.Equal(t, "Push Day", day.Label)
	require.Len(t, day.Exercises, 2)

	assert.Equal(t, domain.ExerciseSpec{ID: "7_1_1_0", Name: "Push-ups", Sets: 3, Reps: 10, RestSeconds: 60}, day.Exercises[0])
	assert.Equal(t, domain.ExerciseSpec{ID: "7_1_1_1", Name: "Plank", Sets: 3, Reps: 30, RestSeconds: 45, Timed: true}, day.Exercises[1])

	assert.Equal(t, []recordedParse{{"pattern", true}}, rec.events)
}

func TestParseIsIdempotent(t *testing.T) {
	p := NewParser(nil, ParserOptions{})
	text := "## Week 1\n### Day 1: Upper\n- Bench Press: 4 sets x 8 reps, Rest: 90 seconds\n- Rows: 3 x 12\n### Day 2: Lower\n- Squats: 4 sets x 6 reps\n"

	first, _ := p.Parse(context.Background(), text, 1)
	second, _ := p.Parse(context.Background(), text, 1)

	assert.True(t, Equal(first, second))
	assert.Equal(t, first, second)
}

func TestParseMalformedInputNeverFails(t *testing.T) {
	p := NewParser(nil, ParserOptions{})
	for _, raw := range []string{"", "   \n\n", "The weather was lovely and we had tea in the garden."} {
		plan, strategy := p.Parse(context.Background(), raw, 3)
		assert.Equal(t, StrategyFallback, strategy)
		require.NoError(t, plan.Validate())
		assert.Equal(t, 1, plan.TotalDays())
		assert.Equal(t, "Push-ups", plan.Weeks[1].Days[1].Exercises[0].Name)
	}
}

func TestParseDirectJSON(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, plan *domain.Plan)
	}{
		{
			name: "weeks shape with loose values",
			raw:  `{"weeks":[{"week":1,"days":[{"day":1,"label":"Legs","exercises":[{"name":"Squats","sets":"4","reps":"8-12","rest_seconds":90},{"name":"Wall Sit","sets":3,"reps":"45 seconds"}]}]}]}`,
			check: func(t *testing.T, plan *domain.Plan) {
				day := plan.Weeks[1].Days[1]
				assert.Equal(t, "Legs", day.Label)
				assert.Equal(t, domain.ExerciseSpec{ID: "5_1_1_0", Name: "Squats", Sets: 4, Reps: 8, RestSeconds: 90}, day.Exercises[0])
				assert.Equal(t, domain.ExerciseSpec{ID: "5_1_1_1", Name: "Wall Sit", Sets: 3, Reps: 45, RestSeconds: 60, Timed: true}, day.Exercises[1])
			},
		},
		{
			name: "string keyed shape in a code fence",
			raw:  "```json\n{\"Week 1\":{\"Day 2\":{\"label\":\"Upper\",\"exercises\":[{\"name\":\"Rows\",\"sets\":3,\"reps\":12,\"rest_seconds\":0}]}}}\n```",
			check: func(t *testing.T, plan *domain.Plan) {
				require.Contains(t, plan.Weeks[1].Days, 1)
				day := plan.Weeks[1].Days[1]
				assert.Equal(t, "Upper", day.Label)
				assert.Equal(t, 0, day.Exercises[0].RestSeconds)
				assert.Equal(t, "5_1_1_0", day.Exercises[0].ID)
			},
		},
		{
			name: "days only",
			raw:  `{"days":[{"label":"A","exercises":[{"name":"Dips"}]},{"label":"B","exercises":[{"name":"Curls","sets":2}]}]}`,
			check: func(t *testing.T, plan *domain.Plan) {
				require.Len(t, plan.Weeks[1].Days, 2)
				assert.Equal(t, domain.ExerciseSpec{ID: "5_1_1_0", Name: "Dips", Sets: 3, Reps: 10, RestSeconds: 60}, plan.Weeks[1].Days[1].Exercises[0])
				assert.Equal(t, 2, plan.Weeks[1].Days[2].Exercises[0].Sets)
			},
		},
	}

	p := NewParser(nil, ParserOptions{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, strategy := p.Parse(context.Background(), tt.raw, 5)
			assert.Equal(t, StrategyDirect, strategy)
			tt.check(t, plan)
		})
	}
}

const extractedJSON = `{"weeks":[{"week":1,"days":[{"day":1,"label":"Full Body","exercises":[{"name":"Goblet Squat","sets":3,"reps":12,"rest_seconds":60}]}]}]}`

func TestParseModelExtraction(t *testing.T) {
	prose := "Start every session with squats. Do three rounds of twelve goblet squats and rest a minute."

	t.Run("primary model", func(t *testing.T) {
		completer := testutil.NewFakeCompleter("Sure! Here it is:\n" + extractedJSON + "\nEnjoy.")
		p := NewParser(completer, ParserOptions{Timeout: time.Second})

		plan, strategy := p.Parse(context.Background(), prose, 2)

		assert.Equal(t, StrategyLLM, strategy)
		assert.Equal(t, "Goblet Squat", plan.Weeks[1].Days[1].Exercises[0].Name)
		calls := completer.Calls()
		require.Len(t, calls, 1)
		assert.True(t, calls[0].JSON)
		assert.Contains(t, calls[0].Prompt, prose)
	})

	t.Run("compact retry with fallback model", func(t *testing.T) {
		completer := testutil.NewFakeCompleter("I cannot help with that", extractedJSON)
		p := NewParser(completer, ParserOptions{Timeout: time.Second, FallbackModel: "small-model"})

		_, strategy := p.Parse(context.Background(), prose, 2)

		assert.Equal(t, StrategyLLMCompact, strategy)
		calls := completer.Calls()
		require.Len(t, calls, 2)
		assert.Empty(t, calls[0].Model)
		assert.Equal(t, "small-model", calls[1].Model)
	})

	t.Run("provider error falls through to patterns", func(t *testing.T) {
		completer := &testutil.FakeCompleter{Err: errors.New("provider down")}
		p := NewParser(completer, ParserOptions{Timeout: time.Second})

		plan, strategy := p.Parse(context.Background(), pushDayText, 2)

		assert.Equal(t, StrategyPattern, strategy)
		assert.Len(t, plan.Weeks[1].Days[1].Exercises, 2)
		assert.Len(t, completer.Calls(), 2)
	})

	t.Run("timeout falls through to patterns", func(t *testing.T) {
		completer := &testutil.FakeCompleter{Responses: []string{extractedJSON}, Delay: 200 * time.Millisecond}
		p := NewParser(completer, ParserOptions{Timeout: 10 * time.Millisecond, FallbackTimeout: 10 * time.Millisecond})

		start := time.Now()
		_, strategy := p.Parse(context.Background(), pushDayText, 2)

		assert.Equal(t, StrategyPattern, strategy)
		assert.Less(t, time.Since(start), 150*time.Millisecond)
	})
}

func TestParsePatterns(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, plan *domain.Plan)
	}{
		{
			name: "week headers",
			raw:  "## Week 1\n### Day 1: A\n- Squats: 3 sets x 10 reps\n## Week 2\n### Day 1: A\n- Squats: 3 sets x 12 reps",
			check: func(t *testing.T, plan *domain.Plan) {
				require.Len(t, plan.Weeks, 2)
				assert.Equal(t, 12, plan.Weeks[2].Days[1].Exercises[0].Reps)
			},
		},
		{
			name: "repeated day starts next week",
			raw:  "Day 1: A\n- Squats: 3x10\nDay 2: B\n- Rows: 3x10\nDay 1: A\n- Squats: 3x11",
			check: func(t *testing.T, plan *domain.Plan) {
				require.Len(t, plan.Weeks, 2)
				assert.Len(t, plan.Weeks[1].Days, 2)
				assert.Equal(t, 11, plan.Weeks[2].Days[1].Exercises[0].Reps)
			},
		},
		{
			name: "warm-up and cool-down skipped",
			raw:  "**Day 1: Legs**\n**Warm-up:**\n- Jumping Jacks: 2 minutes\n**Main Workout:**\n- Squats: 3 sets x 12 reps, Rest: 90 seconds\n**Cool-down:**\n- Hamstring stretch: 30 seconds",
			check: func(t *testing.T, plan *domain.Plan) {
				day := plan.Weeks[1].Days[1]
				assert.Equal(t, "Legs", day.Label)
				assert.Equal(t, []string{"Squats"}, exerciseNames(day))
				assert.Equal(t, 90, day.Exercises[0].RestSeconds)
			},
		},
		{
			name: "loose lines",
			raw:  "### Day 1: Legs\n- Goblet Squat (dumbbell): 4 sets, 12 reps, rest 90s\n- Walking lunges: 10 reps per leg\n- 1. Note: keep your back straight",
			check: func(t *testing.T, plan *domain.Plan) {
				day := plan.Weeks[1].Days[1]
				require.Len(t, day.Exercises, 2)
				assert.Equal(t, domain.ExerciseSpec{ID: "1_1_1_0", Name: "Goblet Squat", Sets: 4, Reps: 12, RestSeconds: 90}, day.Exercises[0])
				assert.Equal(t, domain.ExerciseSpec{ID: "1_1_1_1", Name: "Walking lunges", Sets: 3, Reps: 10, RestSeconds: 60}, day.Exercises[1])
			},
		},
		{
			name: "rest minutes and empty label",
			raw:  "Day 1\n- Deadlift: 5 sets x 5 reps, Rest: 2 minutes\n- Farmer Carry: 3 sets x 1 minute",
			check: func(t *testing.T, plan *domain.Plan) {
				day := plan.Weeks[1].Days[1]
				assert.Equal(t, "Full Body", day.Label)
				assert.Equal(t, 120, day.Exercises[0].RestSeconds)
				assert.Equal(t, 60, day.Exercises[1].Reps)
				assert.True(t, day.Exercises[1].Timed)
			},
		},
		{
			name: "names led by descriptive words",
			raw:  "Day 1: Full\n- Total Body Burpees: 3 sets x 10 reps\n- Tempo Squats: 3 sets x 8 reps\n- Time Under Tension Push-ups: 3 sets x 6 reps\n- Progression Push-ups: 2 sets x 8 reps\n- Level Changes: 3 sets x 30 seconds\n- Rest between sets: 60 seconds\n- Total time: 40 minutes",
			check: func(t *testing.T, plan *domain.Plan) {
				day := plan.Weeks[1].Days[1]
				assert.Equal(t, "Full", day.Label)
				assert.Equal(t, []string{
					"Total Body Burpees", "Tempo Squats", "Time Under Tension Push-ups", "Progression Push-ups", "Level Changes",
				}, exerciseNames(day))
				assert.True(t, day.Exercises[4].Timed)
			},
		},
		{
			name: "only main section counts once declared",
			raw:  "### Day 1: Upper\n**Main Workout:**\n- Push-ups: 3 sets x 10 reps\n**Finisher:**\n- Burpees: 2 sets x 15 reps\n**Circuit:**\n- Dips: 3 sets x 8 reps",
			check: func(t *testing.T, plan *domain.Plan) {
				assert.Equal(t, []string{"Push-ups", "Dips"}, exerciseNames(plan.Weeks[1].Days[1]))
			},
		},
		{
			name: "no main header keeps every non-skipped section",
			raw:  "### Day 1: Upper\n**Block A:**\n- Push-ups: 3 sets x 10 reps\n**Finisher:**\n- Burpees: 2 sets x 15 reps",
			check: func(t *testing.T, plan *domain.Plan) {
				assert.Equal(t, []string{"Push-ups", "Burpees"}, exerciseNames(plan.Weeks[1].Days[1]))
			},
		},
		{
			name: "rest day dropped and days renumbered",
			raw:  "Day 1: Upper\n- Push-ups: 3x10\nDay 2: Rest\nDay 3: Lower\n- Squats: 3x15",
			check: func(t *testing.T, plan *domain.Plan) {
				require.Len(t, plan.Weeks[1].Days, 2)
				assert.Equal(t, "Lower", plan.Weeks[1].Days[2].Label)
				assert.True(t, plan.DaysContiguous())
			},
		},
	}

	p := NewParser(nil, ParserOptions{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, strategy := p.Parse(context.Background(), tt.raw, 1)
			assert.Equal(t, StrategyPattern, strategy)
			tt.check(t, plan)
		})
	}
}

func TestParseHeuristicKeepsDescriptiveNames(t *testing.T) {
	p := NewParser(nil, ParserOptions{})
	plan, strategy := p.Parse(context.Background(), "Tempo Squats\nProgression Push-ups\nRest", 1)

	assert.Equal(t, StrategyHeuristic, strategy)
	assert.Equal(t, []string{"Tempo Squats", "Progression Push-ups"}, exerciseNames(plan.Weeks[1].Days[1]))
}

func TestParseHeuristic(t *testing.T) {
	p := NewParser(nil, ParserOptions{})
	plan, strategy := p.Parse(context.Background(), "Bench Press\nBicep Curls\nSquats\nbench press\nhave fun", 1)

	assert.Equal(t, StrategyHeuristic, strategy)
	day := plan.Weeks[1].Days[1]
	assert.Equal(t, []string{"Bench Press", "Bicep Curls", "Squats"}, exerciseNames(day))
	for _, ex := range day.Exercises {
		assert.Equal(t, domain.DefaultSets, ex.Sets)
		assert.Equal(t, domain.DefaultReps, ex.Reps)
		assert.Equal(t, domain.DefaultRestSeconds, ex.RestSeconds)
	}
}

func TestCleanExerciseName(t *testing.T) {
	tests := map[string]string{
		"**Dumbbell Bench Press** (flat bench)": "Dumbbell Bench Press",
		"1. Push-ups":                           "Push-ups",
		"A1) Goblet Squat [light]":              "Goblet Squat",
		"  Plank  ":                             "Plank",
		"(optional)":                            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanExerciseName(in), in)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	plan := domain.NewPlan()
	plan.Week(1).Days[1] = &domain.DayPlan{Label: "Push Day", Exercises: []domain.ExerciseSpec{
		{Name: "Push-ups", Sets: 3, Reps: 12, RestSeconds: 60},
		{Name: "Plank", Sets: 3, Reps: 40, RestSeconds: 0, Timed: true},
	}}
	plan.Week(1).Days[2] = &domain.DayPlan{Label: "Core & Conditioning", Exercises: []domain.ExerciseSpec{
		{Name: "Bicycle Crunches", Sets: 2, Reps: 20, RestSeconds: 45},
		{Name: "Total Body Burpees", Sets: 3, Reps: 10, RestSeconds: 60},
		{Name: "Tempo Squats", Sets: 3, Reps: 45, RestSeconds: 60, Timed: true},
	}}
	plan.Week(2).Days[1] = &domain.DayPlan{Label: "Push Day", Exercises: []domain.ExerciseSpec{
		{Name: "Push-ups", Sets: 4, Reps: 13, RestSeconds: 55},
	}}

	text := Render("My Program", plan)
	parsed, strategy := NewParser(nil, ParserOptions{}).Parse(context.Background(), text, 9)

	assert.Equal(t, StrategyPattern, strategy)
	assert.True(t, Equal(Normalize(plan, 9), parsed), text)
}

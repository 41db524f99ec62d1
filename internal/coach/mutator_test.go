package coach

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/testutil"
)

func fourDayPlan(weeks int) *domain.Plan {
	plan := domain.NewPlan()
	for w := 1; w <= weeks; w++ {
		week := plan.Week(w)
		week.Days[1] = &domain.DayPlan{Label: "Upper", Exercises: []domain.ExerciseSpec{
			{Name: "Push-ups", Sets: 3, Reps: 10, RestSeconds: 60},
			{Name: "Dumbbell Press", Sets: 3, Reps: 10, RestSeconds: 60},
		}}
		week.Days[2] = &domain.DayPlan{Label: "Lower", Exercises: []domain.ExerciseSpec{
			{Name: "Squats", Sets: 3, Reps: 12, RestSeconds: 60},
			{Name: "Box Jumps", Sets: 3, Reps: 8, RestSeconds: 60},
		}}
		week.Days[3] = &domain.DayPlan{Label: "Conditioning", Exercises: []domain.ExerciseSpec{
			{Name: "Burpees", Sets: 3, Reps: 10, RestSeconds: 45},
			{Name: "Jumping Jacks", Sets: 3, Reps: 30, RestSeconds: 30, Timed: true},
		}}
		week.Days[4] = &domain.DayPlan{Label: "Full Body", Exercises: []domain.ExerciseSpec{
			{Name: "Barbell Deadlift", Sets: 4, Reps: 6, RestSeconds: 120},
			{Name: "Plank", Sets: 3, Reps: 45, RestSeconds: 30, Timed: true},
		}}
	}
	return plan
}

func dayLabels(w *domain.WeekPlan) []string {
	out := make([]string, 0, len(w.Days))
	for _, dn := range w.DayNumbers() {
		out = append(out, w.Days[dn].Label)
	}
	return out
}

func TestRemoveDayKeepsContiguity(t *testing.T) {
	tests := []struct {
		day    int
		labels []string
	}{
		{1, []string{"Lower", "Conditioning", "Full Body"}},
		{2, []string{"Upper", "Conditioning", "Full Body"}},
		{4, []string{"Upper", "Lower", "Conditioning"}},
		{9, []string{"Upper", "Lower", "Conditioning", "Full Body"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("remove day %d", tt.day), func(t *testing.T) {
			plan := fourDayPlan(2)
			before := plan.Clone()

			out := RemoveDay(plan, tt.day)

			assert.True(t, out.DaysContiguous())
			for _, wn := range out.WeekNumbers() {
				assert.Equal(t, tt.labels, dayLabels(out.Weeks[wn]))
			}
			assert.True(t, Equal(before, plan), "input must not change")
		})
	}
}

func TestReduceDaysAppliesToEveryWeek(t *testing.T) {
	out := ReduceDays(fourDayPlan(3), 2)
	require.Len(t, out.Weeks, 3)
	for _, wn := range out.WeekNumbers() {
		assert.Equal(t, []string{"Upper", "Lower"}, dayLabels(out.Weeks[wn]))
	}
	assert.True(t, out.DaysContiguous())
}

func TestBodyweightFilterIdempotent(t *testing.T) {
	plan := fourDayPlan(1)

	once := FilterRestricted(plan, domain.EquipmentBodyweightOnly, nil)
	twice := FilterRestricted(once, domain.EquipmentBodyweightOnly, nil)

	names := exerciseNames(once.Weeks[1].Days[1])
	assert.Equal(t, []string{"Push-ups"}, names)
	assert.Equal(t, []string{"Plank"}, exerciseNames(once.Weeks[1].Days[4]))
	assert.True(t, Equal(once, twice))
	assert.True(t, once.DaysContiguous())
}

func TestNoJumpingFilter(t *testing.T) {
	out := FilterRestricted(fourDayPlan(1), "", []string{domain.RestrictionNoJumping})

	// Conditioning day loses every exercise and disappears.
	assert.Equal(t, []string{"Upper", "Lower", "Full Body"}, dayLabels(out.Weeks[1]))
	assert.Equal(t, []string{"Squats"}, exerciseNames(out.Weeks[1].Days[2]))
}

func TestForbiddenEquipment(t *testing.T) {
	tests := []struct {
		equipment    string
		restrictions []string
		want         []string
	}{
		{"Bodyweight Only", nil, equipmentKeywords},
		{"Full Gym", nil, nil},
		{"Full Gym", []string{domain.RestrictionBodyweightOnly}, equipmentKeywords},
		{"home gym, no barbell", nil, []string{"barbell"}},
		{"", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.equipment, func(t *testing.T) {
			assert.Equal(t, tt.want, forbiddenEquipment(tt.equipment, tt.restrictions))
		})
	}
}

func TestMutatorApply(t *testing.T) {
	m := NewMutator(nil, nil, time.Second, nil)
	ctx := context.Background()

	t.Run("remove exercise by synonym", func(t *testing.T) {
		out, err := m.Apply(ctx, fourDayPlan(1), &domain.RoutineChange{Kind: domain.ChangeRemoveExercise, Exercise: "jumping"}, Constraints{}, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"Burpees"}, exerciseNames(out.Weeks[1].Days[3]))
		assert.Equal(t, "3_1_3_0", out.Weeks[1].Days[3].Exercises[0].ID)
	})

	t.Run("replace exercise case insensitive", func(t *testing.T) {
		out, err := m.Apply(ctx, fourDayPlan(1), &domain.RoutineChange{Kind: domain.ChangeReplaceExercise, Exercise: "SQUATS", Replacement: "Lunges"}, Constraints{}, 3)
		require.NoError(t, err)
		assert.Equal(t, "Lunges", out.Weeks[1].Days[2].Exercises[0].Name)
		assert.Equal(t, 12, out.Weeks[1].Days[2].Exercises[0].Reps)
	})

	t.Run("add restriction filters immediately", func(t *testing.T) {
		out, err := m.Apply(ctx, fourDayPlan(1), &domain.RoutineChange{Kind: domain.ChangeAddRestriction, Restriction: domain.RestrictionNoJumping}, Constraints{}, 3)
		require.NoError(t, err)
		assert.Len(t, out.Weeks[1].Days, 3)
	})

	t.Run("standing equipment applies to structural edits", func(t *testing.T) {
		out, err := m.Apply(ctx, fourDayPlan(1), &domain.RoutineChange{Kind: domain.ChangeRemoveDay, Day: 1}, Constraints{Equipment: domain.EquipmentBodyweightOnly}, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"Lower", "Conditioning", "Full Body"}, dayLabels(out.Weeks[1]))
		assert.Equal(t, []string{"Plank"}, exerciseNames(out.Weeks[1].Days[3]))
		assert.True(t, out.DaysContiguous())
	})

	t.Run("emptying the plan is refused", func(t *testing.T) {
		plan := domain.NewPlan()
		plan.Week(1).Days[1] = &domain.DayPlan{Label: "Cardio", Exercises: []domain.ExerciseSpec{{Name: "Burpees", Sets: 3, Reps: 10}}}
		_, err := m.Apply(ctx, plan, &domain.RoutineChange{Kind: domain.ChangeRemoveExercise, Exercise: "burpees"}, Constraints{}, 3)
		assert.True(t, errors.Is(err, ErrEmptyPlan))
	})

	t.Run("generic without completer keeps plan", func(t *testing.T) {
		plan := fourDayPlan(1)
		out, err := m.Apply(ctx, plan, &domain.RoutineChange{Kind: domain.ChangeGeneric, Request: "make it more fun"}, Constraints{}, 3)
		require.NoError(t, err)
		assert.True(t, Equal(Normalize(plan, 3), out))
	})
}

func TestMutatorRegenerate(t *testing.T) {
	fiveDays := "## Week 1\n" +
		"### Day 1: A\n- Push-ups: 3 sets x 10 reps, Rest: 60 seconds\n" +
		"### Day 2: B\n- Squats: 3 sets x 10 reps, Rest: 60 seconds\n" +
		"### Day 3: C\n- Dumbbell Rows: 3 sets x 10 reps, Rest: 60 seconds\n- Inverted Rows: 3 sets x 10 reps, Rest: 60 seconds\n" +
		"### Day 4: D\n- Lunges: 3 sets x 10 reps, Rest: 60 seconds\n" +
		"### Day 5: E\n- Plank: 3 sets x 30 seconds, Rest: 30 seconds\n"

	t.Run("day count forced to preference", func(t *testing.T) {
		completer := testutil.NewFakeCompleter(fiveDays)
		m := NewMutator(completer, NewParser(nil, ParserOptions{}), time.Second, nil)

		out, err := m.Apply(context.Background(), fourDayPlan(1),
			&domain.RoutineChange{Kind: domain.ChangeGeneric, Request: "make it more fun"},
			Constraints{Equipment: domain.EquipmentBodyweightOnly, Restrictions: []string{domain.RestrictionNoJumping}, DaysPerWeek: 3}, 3)
		require.NoError(t, err)

		assert.Equal(t, []string{"A", "B", "C"}, dayLabels(out.Weeks[1]))
		assert.Equal(t, []string{"Inverted Rows"}, exerciseNames(out.Weeks[1].Days[3]))

		calls := completer.Calls()
		require.Len(t, calls, 1)
		assert.Contains(t, calls[0].Prompt, "make it more fun")
		assert.Contains(t, calls[0].Prompt, "Exactly 3 training days")
		assert.Contains(t, calls[0].Prompt, "no jumping or plyometric exercises")
		assert.Contains(t, calls[0].Prompt, "dumbbell, barbell, kettlebell, machine")
	})

	t.Run("day count defaults to current plan", func(t *testing.T) {
		completer := testutil.NewFakeCompleter(fiveDays)
		m := NewMutator(completer, NewParser(nil, ParserOptions{}), time.Second, nil)

		out, err := m.Apply(context.Background(), fourDayPlan(1), &domain.RoutineChange{Kind: domain.ChangeGeneric}, Constraints{}, 3)
		require.NoError(t, err)
		assert.Len(t, out.Weeks[1].Days, 4)
	})

	t.Run("provider failure keeps filtered plan", func(t *testing.T) {
		completer := &testutil.FakeCompleter{Err: domain.ErrUpstreamUnavailable}
		m := NewMutator(completer, NewParser(nil, ParserOptions{}), time.Second, nil)

		out, err := m.Apply(context.Background(), fourDayPlan(1), &domain.RoutineChange{Kind: domain.ChangeGeneric}, Constraints{Equipment: domain.EquipmentBodyweightOnly}, 3)
		require.NoError(t, err)
		assert.True(t, Equal(Normalize(FilterRestricted(fourDayPlan(1), domain.EquipmentBodyweightOnly, nil), 3), out))
	})

	t.Run("unusable output keeps plan", func(t *testing.T) {
		completer := testutil.NewFakeCompleter("Sorry, I can't do that.")
		m := NewMutator(completer, NewParser(nil, ParserOptions{}), time.Second, nil)

		out, err := m.Apply(context.Background(), fourDayPlan(1), &domain.RoutineChange{Kind: domain.ChangeGeneric}, Constraints{}, 3)
		require.NoError(t, err)
		assert.True(t, Equal(Normalize(fourDayPlan(1), 3), out))
	})
}

func TestStarterPlan(t *testing.T) {
	tests := []struct {
		name    string
		profile domain.UserProfile
		days    int
		check   func(t *testing.T, plan *domain.Plan)
	}{
		{
			name:    "bodyweight without jumping",
			profile: domain.UserProfile{DaysPerWeek: 3, Equipment: domain.EquipmentBodyweightOnly, Restrictions: []string{domain.RestrictionNoJumping}},
			days:    3,
			check: func(t *testing.T, plan *domain.Plan) {
				assert.NotContains(t, exerciseNames(plan.Weeks[1].Days[3]), "Jumping Jacks")
			},
		},
		{
			name:    "gym five days",
			profile: domain.UserProfile{DaysPerWeek: 5, Equipment: domain.EquipmentFullGym},
			days:    5,
			check: func(t *testing.T, plan *domain.Plan) {
				assert.Equal(t, "Push Day", plan.Weeks[1].Days[1].Label)
				assert.Equal(t, "Push Day", plan.Weeks[1].Days[5].Label)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := StarterPlan(&tt.profile)
			require.NoError(t, plan.Validate())
			assert.Len(t, plan.Weeks[1].Days, tt.days)
			tt.check(t, plan)
		})
	}
}

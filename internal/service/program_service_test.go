package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/testutil"
)

type staticRetriever struct {
	snippets []string
	err      error
	queries  []string
}

func (r *staticRetriever) Retrieve(_ context.Context, query string, _ int) ([]string, error) {
	r.queries = append(r.queries, query)
	return r.snippets, r.err
}

func validProfile() *domain.UserProfile {
	return &domain.UserProfile{
		Gender: "female", Age: 29, Goal: "strength", Experience: "beginner",
		DaysPerWeek: 2, Equipment: domain.EquipmentFullGym, Style: "circuit",
	}
}

func TestGenerateProgram(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	completer := testutil.NewFakeCompleter(twoDayProgram)
	retriever := &staticRetriever{snippets: []string{"Beginners: prioritise form over load."}}
	svc := NewProgramService(f.profiles, f.plans, f.parser, LLMSettings{Completer: completer, Retriever: retriever}, testutil.Logger(t))

	res, err := svc.Generate(ctx, "u1", validProfile())
	require.NoError(t, err)

	assert.False(t, res.Fallback)
	assert.Equal(t, "Strength Program", res.Program.Name)
	assert.Equal(t, domain.ProgramSourceGenerated, res.Program.Source)
	assert.Equal(t, 2, res.Plan.TotalDays)
	assert.Equal(t, 4, res.Plan.TotalExercises)

	require.Len(t, retriever.queries, 1)
	assert.Equal(t, "strength beginner Full Gym circuit workout program", retriever.queries[0])
	prompt := completer.Calls()[0].Prompt
	assert.Contains(t, prompt, "prioritise form over load")
	assert.Contains(t, prompt, "Exactly 2 days in every week")

	profile, err := f.profiles.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "strength", profile.Goal)
}

func TestGenerateProgramFallsBackToStarter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	completer := &testutil.FakeCompleter{Err: domain.ErrUpstreamTimeout}
	retriever := &staticRetriever{err: errors.New("index offline")}
	svc := NewProgramService(f.profiles, f.plans, f.parser, LLMSettings{Completer: completer, Retriever: retriever}, testutil.Logger(t))

	profile := validProfile()
	profile.DaysPerWeek = 3
	profile.Equipment = domain.EquipmentBodyweightOnly
	profile.Restrictions = []string{domain.RestrictionNoJumping}

	res, err := svc.Generate(ctx, "u1", profile)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, 3, len(res.Plan.Plan["Week 1"]))
	for _, day := range res.Plan.Plan["Week 1"] {
		for _, ex := range day.Exercises {
			assert.NotContains(t, ex.Name, "Dumbbell")
			assert.NotContains(t, ex.Name, "Jump")
			assert.NotContains(t, ex.Name, "Burpee")
		}
	}
}

func TestGenerateProgramFiltersRestrictedExercises(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewProgramService(f.profiles, f.plans, f.parser, LLMSettings{Completer: testutil.NewFakeCompleter(twoDayProgram)}, testutil.Logger(t))

	profile := validProfile()
	profile.Restrictions = []string{domain.RestrictionNoJumping}
	res, err := svc.Generate(ctx, "u1", profile)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Plan.TotalExercises)
	assert.NotContains(t, res.Program.ProgramText, "Box Jumps")
}

func TestGenerateProgramValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewProgramService(f.profiles, f.plans, f.parser, LLMSettings{}, testutil.Logger(t))

	tests := []struct {
		name   string
		mutate func(p *domain.UserProfile)
		field  string
	}{
		{"gender", func(p *domain.UserProfile) { p.Gender = "" }, "gender"},
		{"age", func(p *domain.UserProfile) { p.Age = 0 }, "age"},
		{"days", func(p *domain.UserProfile) { p.DaysPerWeek = 9 }, "days_per_week"},
		{"style", func(p *domain.UserProfile) { p.Style = " " }, "style"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(p)
			_, err := svc.Generate(context.Background(), "u1", p)
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestUpsertProfileKeepsRestrictions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewProgramService(f.profiles, f.plans, f.parser, LLMSettings{}, testutil.Logger(t))

	first := validProfile()
	first.Restrictions = []string{domain.RestrictionNoJumping}
	_, err := svc.UpsertProfile(ctx, "u1", first)
	require.NoError(t, err)

	second := validProfile()
	second.Goal = "endurance"
	got, err := svc.UpsertProfile(ctx, "u1", second)
	require.NoError(t, err)
	assert.Equal(t, "endurance", got.Goal)
	assert.True(t, got.HasRestriction(domain.RestrictionNoJumping))
}

func TestUpsertProfileDaysPerWeek(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewProgramService(f.profiles, f.plans, f.parser, LLMSettings{}, testutil.Logger(t))

	for _, days := range []int{0, -1, 8} {
		in := validProfile()
		in.DaysPerWeek = days
		_, err := svc.UpsertProfile(ctx, "u1", in)
		var ve *domain.ValidationError
		require.True(t, errors.As(err, &ve), "days=%d", days)
		assert.Equal(t, "days_per_week", ve.Field)
	}

	in := validProfile()
	in.DaysPerWeek = 7
	_, err := svc.UpsertProfile(ctx, "u1", in)
	assert.NoError(t, err)
}

func TestProgramName(t *testing.T) {
	tests := map[string]string{
		"strength":     "Strength Program",
		"  endurance ": "Endurance Program",
		"élan":         "Élan Program",
		"":             "Training Program",
	}
	for goal, want := range tests {
		assert.Equal(t, want, programName(&domain.UserProfile{Goal: goal}), goal)
	}
}

func TestCreateFromText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewProgramService(f.profiles, f.plans, f.parser, LLMSettings{}, testutil.Logger(t))

	p, err := svc.CreateFromText(ctx, "u1", "", pushDayProgram)
	require.NoError(t, err)
	assert.Equal(t, "Imported Program", p.Name)

	list, err := svc.ListPrograms(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.CreateFromText(ctx, "u1", "x", "")
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}

package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		feedback string
		kind     domain.IntentKind
		change   *domain.RoutineChange
	}{
		{
			name:     "numeric progress report",
			feedback: "I benched 80kg for 8 reps, felt great",
			kind:     domain.IntentProgress,
		},
		{
			name:     "remove day wins over exercise removal",
			feedback: "remove day 2, no more burpees",
			kind:     domain.IntentRoutineChange,
			change:   &domain.RoutineChange{Kind: domain.ChangeRemoveDay, Day: 2},
		},
		{
			name:     "spelled out day",
			feedback: "Please skip day three",
			kind:     domain.IntentRoutineChange,
			change:   &domain.RoutineChange{Kind: domain.ChangeRemoveDay, Day: 3},
		},
		{
			name:     "reduce to n days",
			feedback: "reduce to 3 days",
			kind:     domain.IntentRoutineChange,
			change:   &domain.RoutineChange{Kind: domain.ChangeReduceDays, Days: 3},
		},
		{
			name:     "days per week",
			feedback: "make it four days a week",
			kind:     domain.IntentRoutineChange,
			change:   &domain.RoutineChange{Kind: domain.ChangeReduceDays, Days: 4},
		},
		{
			name:     "remove known exercise",
			feedback: "please remove burpees",
			kind:     domain.IntentRoutineChange,
			change:   &domain.RoutineChange{Kind: domain.ChangeRemoveExercise, Exercise: "burpees"},
		},
		{
			name:     "remove by synonym",
			feedback: "Take out the jumping jacks from my plan",
			kind:     domain.IntentRoutineChange,
			change:   &domain.RoutineChange{Kind: domain.ChangeRemoveExercise, Exercise: "jumping"},
		},
		{
			name:     "replace exercise",
			feedback: "replace squats with lunges",
			kind:     domain.IntentRoutineChange,
			change:   &domain.RoutineChange{Kind: domain.ChangeReplaceExercise, Exercise: "squats", Replacement: "Lunges"},
		},
		{
			name:     "standing no jumping",
			feedback: "no jumping please, my knees hurt",
			kind:     domain.IntentRoutineChange,
			change:   &domain.RoutineChange{Kind: domain.ChangeAddRestriction, Restriction: domain.RestrictionNoJumping},
		},
		{
			name:     "remove all jumping is a restriction",
			feedback: "remove all jumping exercises",
			kind:     domain.IntentRoutineChange,
			change:   &domain.RoutineChange{Kind: domain.ChangeAddRestriction, Restriction: domain.RestrictionNoJumping},
		},
		{
			name:     "bodyweight only",
			feedback: "I only have bodyweight, no equipment",
			kind:     domain.IntentRoutineChange,
			change:   &domain.RoutineChange{Kind: domain.ChangeAddRestriction, Restriction: domain.RestrictionBodyweightOnly},
		},
		{
			name:     "unstructured change",
			feedback: "make it more fun",
			kind:     domain.IntentRoutineChange,
			change:   &domain.RoutineChange{Kind: domain.ChangeGeneric},
		},
		{
			name:     "question",
			feedback: "How many sets should I do?",
			kind:     domain.IntentQuestion,
		},
		{
			name:     "other",
			feedback: "thanks coach",
			kind:     domain.IntentOther,
		},
		{
			name:     "empty",
			feedback: "",
			kind:     domain.IntentOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.feedback)
			assert.Equal(t, tt.kind, got.Kind)
			if tt.change == nil {
				assert.Nil(t, got.Change)
				return
			}
			require.NotNil(t, got.Change)
			tt.change.Request = got.Change.Request
			assert.Equal(t, tt.change, got.Change)
		})
	}
}

func TestClassifyKeepsRequest(t *testing.T) {
	got := Classify("  Make it more fun  ")
	require.NotNil(t, got.Change)
	assert.Equal(t, "Make it more fun", got.Change.Request)
}

func TestExtractDay(t *testing.T) {
	tests := []struct {
		text string
		day  int
		ok   bool
	}{
		{"day 3", 3, true},
		{"Day three is too long", 3, true},
		{"move day 3rd", 3, true},
		{"the day before", 0, false},
		{"nothing here", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			day, ok := ExtractDay(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.day, day)
		})
	}
}

func TestMatchesExercise(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{"Jumping Jacks", "jumping", true},
		{"Jump Rope", "jumping", true},
		{"Push-ups", "jumping", false},
		{"Barbell Bench Press", "bench press", true},
		{"Incline Push-ups", "push-ups", true},
		{"Farmer Carry", "farmer carry", true},
		{"Farmer Carry", "carry on", false},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesExercise(tt.name, tt.target))
		})
	}
}

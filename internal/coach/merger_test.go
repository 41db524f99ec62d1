package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

func threeExercisePlan() *domain.Plan {
	plan := domain.NewPlan()
	plan.Week(1).Days[1] = &domain.DayPlan{Label: "Full Body", Exercises: []domain.ExerciseSpec{
		{Name: "A", Sets: 3, Reps: 10, RestSeconds: 60},
		{Name: "B", Sets: 3, Reps: 10, RestSeconds: 60},
		{Name: "C", Sets: 3, Reps: 10, RestSeconds: 60},
	}}
	return plan
}

func completedFlags(day *domain.DayPlan) []bool {
	out := make([]bool, len(day.Exercises))
	for i, ex := range day.Exercises {
		out[i] = ex.Completed
	}
	return out
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		records []*domain.ExerciseRecord
		want    []bool
	}{
		{
			name: "flags copied by position",
			records: []*domain.ExerciseRecord{
				{Week: 1, Day: 1, Position: 0, Completed: true},
				{Week: 1, Day: 1, Position: 1, Completed: false},
				{Week: 1, Day: 1, Position: 2, Completed: true},
			},
			want: []bool{true, false, true},
		},
		{
			name: "row order does not matter",
			records: []*domain.ExerciseRecord{
				{Week: 1, Day: 1, Position: 2, Completed: true},
				{Week: 1, Day: 1, Position: 0, Completed: true},
			},
			want: []bool{true, false, true},
		},
		{
			name: "other days ignored",
			records: []*domain.ExerciseRecord{
				{Week: 1, Day: 2, Position: 0, Completed: true},
				{Week: 2, Day: 1, Position: 1, Completed: true},
			},
			want: []bool{false, false, false},
		},
		{
			name: "no records",
			want: []bool{false, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := threeExercisePlan()
			merged := Merge(plan, tt.records)

			assert.Equal(t, tt.want, completedFlags(merged.Weeks[1].Days[1]))
			assert.Equal(t, []bool{false, false, false}, completedFlags(plan.Weeks[1].Days[1]), "input must not change")
		})
	}
}

func TestCompletionPercentage(t *testing.T) {
	assert.Equal(t, 0.0, CompletionPercentage(0, 0))
	assert.Equal(t, 66.7, CompletionPercentage(2, 3))
	assert.Equal(t, 12.5, CompletionPercentage(1, 8))
	assert.Equal(t, 100.0, CompletionPercentage(4, 4))
}

func TestBuildRecordsRoundTrip(t *testing.T) {
	plan := threeExercisePlan()
	plan.Weeks[1].Days[1].Exercises[1].Completed = true
	plan.Week(2).Days[1] = &domain.DayPlan{Label: "Legs", Exercises: []domain.ExerciseSpec{{Name: "Squats", Sets: 4, Reps: 8, RestSeconds: 90, Timed: false}}}

	records := BuildRecords(plan, 4)

	require.Len(t, records, 4)
	assert.Equal(t, 1, records[1].Position)
	assert.True(t, records[1].Completed)
	assert.NotNil(t, records[1].CompletedAt)
	assert.Nil(t, records[0].CompletedAt)
	assert.Len(t, records[0].SlotKey, 26)
	assert.NotEqual(t, records[0].SlotKey, records[1].SlotKey)

	rebuilt := PlanFromRecords(records, 4)
	assert.True(t, Equal(plan, rebuilt))
	assert.Equal(t, "4_2_1_0", rebuilt.Weeks[2].Days[1].Exercises[0].ID)
	assert.True(t, rebuilt.Weeks[1].Days[1].Exercises[1].Completed)
}

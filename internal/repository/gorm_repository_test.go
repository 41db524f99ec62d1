package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/repository"
	"github.com/mansoorceksport/fitcoach/internal/testutil"
)

func TestProgramRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	repo := repository.NewGormProgramRepository(db, testutil.Logger(t))

	_, err := repo.GetLatestByUser(ctx, "u1")
	assert.True(t, errors.Is(err, domain.ErrProgramNotFound))

	first := &domain.Program{UserID: "u1", Name: "v1", ProgramText: "Day 1: A", Source: domain.ProgramSourceGenerated}
	second := &domain.Program{UserID: "u1", Name: "v2", ProgramText: "Day 1: B", Source: domain.ProgramSourceFeedback}
	other := &domain.Program{UserID: "u2", Name: "x", ProgramText: "Day 1: C"}
	for _, p := range []*domain.Program{first, second, other} {
		require.NoError(t, repo.Create(ctx, p))
	}

	latest, err := repo.GetLatestByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "v2", list[0].Name)

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, errors.Is(err, domain.ErrProgramNotFound))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLockForUpdateNeedsTransaction(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	repo := repository.NewGormProgramRepository(db, testutil.Logger(t))
	tx := repository.NewGormTransactor(db)

	p := &domain.Program{UserID: "u1", ProgramText: "x"}
	require.NoError(t, repo.Create(ctx, p))

	assert.Error(t, repo.LockForUpdate(ctx, p.ID))

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return repo.LockForUpdate(ctx, p.ID)
	})
	assert.NoError(t, err)

	err = tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return repo.LockForUpdate(ctx, p.ID+100)
	})
	assert.True(t, errors.Is(err, domain.ErrProgramNotFound))
}

func records(programID uint, week, day, n int) []*domain.ExerciseRecord {
	out := make([]*domain.ExerciseRecord, n)
	for i := range out {
		out[i] = &domain.ExerciseRecord{
			ProgramID: programID, Week: week, Day: day, Position: i,
			SlotKey: "", Name: "Ex", Sets: 3, Reps: 10, RestSeconds: 60,
		}
	}
	return out
}

func withSlotKeys(rs []*domain.ExerciseRecord, prefix string) []*domain.ExerciseRecord {
	for i, r := range rs {
		r.SlotKey = prefix + string(rune('A'+i))
	}
	return rs
}

func TestExerciseRecordRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	repo := repository.NewGormExerciseRecordRepository(db, testutil.Logger(t))

	// inserted out of order on purpose
	require.NoError(t, repo.Insert(ctx, withSlotKeys(records(1, 2, 1, 2), "w2")))
	require.NoError(t, repo.Insert(ctx, withSlotKeys(records(1, 1, 1, 3), "w1")))

	all, err := repo.ListByProgram(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, 1, all[0].Week)
	assert.Equal(t, []int{0, 1, 2}, []int{all[0].Position, all[1].Position, all[2].Position})

	weeks, err := repo.WeekNumbers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, weeks)

	n, err := repo.CountByProgram(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	rec, err := repo.GetBySlot(ctx, 1, 1, 1, 2)
	require.NoError(t, err)
	now := time.Now()
	reps := 12
	rec.Completed = true
	rec.CompletedAt = &now
	rec.ActualReps = &reps
	require.NoError(t, repo.Update(ctx, rec))

	got, err := repo.GetBySlot(ctx, 1, 1, 1, 2)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.ActualReps)
	assert.Equal(t, 12, *got.ActualReps)

	_, err = repo.GetBySlot(ctx, 1, 1, 1, 9)
	assert.True(t, errors.Is(err, domain.ErrExerciseNotFound))

	week2, err := repo.ListByWeek(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, week2, 2)
}

func TestReplaceForProgramIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	repo := repository.NewGormExerciseRecordRepository(db, testutil.Logger(t))
	tx := repository.NewGormTransactor(db)

	require.NoError(t, repo.Insert(ctx, withSlotKeys(records(1, 1, 1, 3), "a")))
	require.NoError(t, repo.Insert(ctx, withSlotKeys(records(2, 1, 1, 1), "b")))

	require.NoError(t, repo.ReplaceForProgram(ctx, 1, withSlotKeys(records(1, 1, 1, 2), "c")))
	n, err := repo.CountByProgram(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// a failure later in the transaction rolls the replace back
	boom := errors.New("boom")
	err = tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := repo.ReplaceForProgram(ctx, 1, withSlotKeys(records(1, 1, 1, 4), "d")); err != nil {
			return err
		}
		return boom
	})
	assert.True(t, errors.Is(err, boom))
	n, err = repo.CountByProgram(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.CountByProgram(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "other programs untouched")
}

func TestWorkoutLogRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	repo := repository.NewGormWorkoutLogRepository(db, testutil.Logger(t))

	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &domain.WorkoutLog{
			UserID: "u1", ProgramID: 1, Week: 1, Day: i + 1, Date: base.AddDate(0, 0, i), Duration: 30,
		}))
	}
	require.NoError(t, repo.Create(ctx, &domain.WorkoutLog{UserID: "u2", ProgramID: 2, Date: base}))

	logs, err := repo.ListByUser(ctx, "u1", time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, 3, logs[0].Day, "newest first")

	recent, err := repo.ListByUser(ctx, "u1", base.AddDate(0, 0, 1), 0)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	limited, err := repo.ListByUser(ctx, "u1", time.Time{}, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	byProgram, err := repo.ListByProgram(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Len(t, byProgram, 3)
}

func TestProfileRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	repo := repository.NewGormProfileRepository(db, testutil.Logger(t))

	_, err := repo.GetByUserID(ctx, "u1")
	assert.True(t, errors.Is(err, domain.ErrProfileNotFound))

	p := &domain.UserProfile{UserID: "u1", Goal: "strength", DaysPerWeek: 3, Equipment: domain.EquipmentFullGym}
	require.NoError(t, repo.Upsert(ctx, p))

	p2 := &domain.UserProfile{UserID: "u1", Goal: "endurance", DaysPerWeek: 4, Equipment: domain.EquipmentBodyweightOnly,
		Restrictions: []string{domain.RestrictionNoJumping}}
	require.NoError(t, repo.Upsert(ctx, p2))

	got, err := repo.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "endurance", got.Goal)
	assert.Equal(t, 4, got.DaysPerWeek)
	assert.True(t, got.HasRestriction(domain.RestrictionNoJumping))
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
)

const recordOrder = "week ASC, day ASC, position ASC, id ASC"

// GormExerciseRecordRepository stores per-slot completion state.
type GormExerciseRecordRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGormExerciseRecordRepository(db *gorm.DB, log *logger.Logger) *GormExerciseRecordRepository {
	return &GormExerciseRecordRepository{db: db, log: log.With("repo", "ExerciseRecordRepository")}
}

func (r *GormExerciseRecordRepository) ListByProgram(ctx context.Context, programID uint) ([]*domain.ExerciseRecord, error) {
	var records []*domain.ExerciseRecord
	if err := conn(ctx, r.db).Where("program_id = ?", programID).Order(recordOrder).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list exercise records: %w", err)
	}
	return records, nil
}

func (r *GormExerciseRecordRepository) ListByWeek(ctx context.Context, programID uint, week int) ([]*domain.ExerciseRecord, error) {
	var records []*domain.ExerciseRecord
	err := conn(ctx, r.db).
		Where("program_id = ? AND week = ?", programID, week).
		Order(recordOrder).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list week records: %w", err)
	}
	return records, nil
}

func (r *GormExerciseRecordRepository) CountByProgram(ctx context.Context, programID uint) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&domain.ExerciseRecord{}).Where("program_id = ?", programID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count exercise records: %w", err)
	}
	return n, nil
}

func (r *GormExerciseRecordRepository) GetBySlot(ctx context.Context, programID uint, week, day, position int) (*domain.ExerciseRecord, error) {
	var record domain.ExerciseRecord
	err := conn(ctx, r.db).
		Where("program_id = ? AND week = ? AND day = ? AND position = ?", programID, week, day, position).
		Order("id ASC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrExerciseNotFound
		}
		return nil, fmt.Errorf("failed to get exercise record: %w", err)
	}
	return &record, nil
}

func (r *GormExerciseRecordRepository) WeekNumbers(ctx context.Context, programID uint) ([]int, error) {
	var weeks []int
	err := conn(ctx, r.db).
		Model(&domain.ExerciseRecord{}).
		Where("program_id = ?", programID).
		Distinct("week").
		Order("week ASC").
		Pluck("week", &weeks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list weeks: %w", err)
	}
	return weeks, nil
}

func (r *GormExerciseRecordRepository) Insert(ctx context.Context, records []*domain.ExerciseRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := conn(ctx, r.db).CreateInBatches(records, 200).Error; err != nil {
		return &domain.PersistenceError{Op: "insert exercise records", Err: err}
	}
	return nil
}

// ReplaceForProgram deletes and re-inserts a program's records atomically. It
// joins the caller's transaction when there is one.
func (r *GormExerciseRecordRepository) ReplaceForProgram(ctx context.Context, programID uint, records []*domain.ExerciseRecord) error {
	replace := func(tx *gorm.DB) error {
		if err := tx.Where("program_id = ?", programID).Delete(&domain.ExerciseRecord{}).Error; err != nil {
			return &domain.PersistenceError{Op: "delete exercise records", Err: err}
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 200).Error; err != nil {
			return &domain.PersistenceError{Op: "insert exercise records", Err: err}
		}
		return nil
	}
	if inTx(ctx) {
		return replace(conn(ctx, r.db))
	}
	return r.db.WithContext(ctx).Transaction(replace)
}

func (r *GormExerciseRecordRepository) Update(ctx context.Context, record *domain.ExerciseRecord) error {
	err := conn(ctx, r.db).
		Model(&domain.ExerciseRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"completed":    record.Completed,
			"completed_at": record.CompletedAt,
			"actual_sets":  record.ActualSets,
			"actual_reps":  record.ActualReps,
			"weight_used":  record.WeightUsed,
		}).Error
	if err != nil {
		return &domain.PersistenceError{Op: "update exercise record", Err: err}
	}
	return nil
}

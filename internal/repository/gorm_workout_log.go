package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
)

type GormWorkoutLogRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGormWorkoutLogRepository(db *gorm.DB, log *logger.Logger) *GormWorkoutLogRepository {
	return &GormWorkoutLogRepository{db: db, log: log.With("repo", "WorkoutLogRepository")}
}

func (r *GormWorkoutLogRepository) Create(ctx context.Context, wl *domain.WorkoutLog) error {
	if err := conn(ctx, r.db).Create(wl).Error; err != nil {
		return &domain.PersistenceError{Op: "create workout log", Err: err}
	}
	return nil
}

func (r *GormWorkoutLogRepository) ListByUser(ctx context.Context, userID string, since time.Time, limit int) ([]*domain.WorkoutLog, error) {
	q := conn(ctx, r.db).Where("user_id = ?", userID)
	if !since.IsZero() {
		q = q.Where("date >= ?", since)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var logs []*domain.WorkoutLog
	if err := q.Order("date DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list workout logs: %w", err)
	}
	return logs, nil
}

func (r *GormWorkoutLogRepository) ListByProgram(ctx context.Context, userID string, programID uint) ([]*domain.WorkoutLog, error) {
	var logs []*domain.WorkoutLog
	err := conn(ctx, r.db).
		Where("user_id = ? AND program_id = ?", userID, programID).
		Order("date DESC, id DESC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list program workout logs: %w", err)
	}
	return logs, nil
}

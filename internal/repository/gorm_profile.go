package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
)

type GormProfileRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGormProfileRepository(db *gorm.DB, log *logger.Logger) *GormProfileRepository {
	return &GormProfileRepository{db: db, log: log.With("repo", "ProfileRepository")}
}

func (r *GormProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := conn(ctx, r.db).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// Upsert inserts the profile or overwrites every column except created_at.
func (r *GormProfileRepository) Upsert(ctx context.Context, profile *domain.UserProfile) error {
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"gender", "age", "goal", "experience", "days_per_week",
			"equipment", "style", "restrictions", "updated_at",
		}),
	}).Create(profile).Error
	if err != nil {
		return &domain.PersistenceError{Op: "upsert profile", Err: err}
	}
	return nil
}

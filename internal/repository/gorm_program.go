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

// GormProgramRepository stores append-only program versions.
type GormProgramRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGormProgramRepository(db *gorm.DB, log *logger.Logger) *GormProgramRepository {
	return &GormProgramRepository{db: db, log: log.With("repo", "ProgramRepository")}
}

func (r *GormProgramRepository) Create(ctx context.Context, program *domain.Program) error {
	if err := conn(ctx, r.db).Create(program).Error; err != nil {
		return &domain.PersistenceError{Op: "create program", Err: err}
	}
	return nil
}

func (r *GormProgramRepository) GetByID(ctx context.Context, id uint) (*domain.Program, error) {
	var program domain.Program
	if err := conn(ctx, r.db).First(&program, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProgramNotFound
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return &program, nil
}

// GetLatestByUser returns the user's current program: the highest id wins.
func (r *GormProgramRepository) GetLatestByUser(ctx context.Context, userID string) (*domain.Program, error) {
	var program domain.Program
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&program).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProgramNotFound
		}
		return nil, fmt.Errorf("failed to get latest program: %w", err)
	}
	return &program, nil
}

func (r *GormProgramRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Program, error) {
	var programs []*domain.Program
	if err := conn(ctx, r.db).Where("user_id = ?", userID).Order("id DESC").Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	return programs, nil
}

func (r *GormProgramRepository) ListAll(ctx context.Context) ([]*domain.Program, error) {
	var programs []*domain.Program
	if err := conn(ctx, r.db).Order("id ASC").Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	return programs, nil
}

// LockForUpdate takes SELECT ... FOR UPDATE on the program row. It must run
// inside a transaction; sqlite ignores the clause and relies on its single writer.
func (r *GormProgramRepository) LockForUpdate(ctx context.Context, id uint) error {
	if !inTx(ctx) {
		return fmt.Errorf("lock program %d: no transaction in context", id)
	}
	var program domain.Program
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&program, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrProgramNotFound
		}
		return &domain.PersistenceError{Op: "lock program", Err: err}
	}
	return nil
}

package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
)

var (
	ErrProgramNotFound  = errors.New("no workout plan found")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrWeekNotFound     = errors.New("week not found")
)

// Program is one append-only version of a user's plan text.
// The most recent version by id is the current plan.
type Program struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"index;not null"`
	Name        string    `json:"name"`
	ProgramText string    `json:"program_text" gorm:"type:text;not null"`
	Source      string    `json:"source"` // generated, feedback, imported
	CreatedAt   time.Time `json:"created_at"`
}

const (
	ProgramSourceGenerated = "generated"
	ProgramSourceFeedback  = "feedback"
	ProgramSourceImported  = "imported"
)

// ExerciseRecord tracks one exercise occurrence of a program and its completion.
// Position is the persisted index within the (program, week, day) group and is
// the join key back to the parsed plan.
type ExerciseRecord struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	ProgramID   uint       `json:"program_id" gorm:"index:idx_exercise_slot,priority:1;not null"`
	Week        int        `json:"week" gorm:"index:idx_exercise_slot,priority:2;not null"`
	Day         int        `json:"day" gorm:"index:idx_exercise_slot,priority:3;not null"`
	Position    int        `json:"position" gorm:"index:idx_exercise_slot,priority:4;not null"`
	SlotKey     string     `json:"slot_key" gorm:"size:26;uniqueIndex"`
	DayLabel    string     `json:"day_label"`
	Name        string     `json:"name" gorm:"not null"`
	Sets        int        `json:"sets"`
	Reps        int        `json:"reps"`
	RestSeconds int        `json:"rest_seconds"`
	Timed       bool       `json:"timed"`
	Completed   bool       `json:"completed" gorm:"not null;default:false"`
	CompletedAt *time.Time `json:"completed_at"`
	ActualSets  *int       `json:"actual_sets,omitempty"`
	ActualReps  *int       `json:"actual_reps,omitempty"`
	WeightUsed  *float64   `json:"weight_used,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// WorkoutLog is an append-only "I did day D of week W" event.
type WorkoutLog struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    string         `json:"user_id" gorm:"index;not null"`
	ProgramID uint           `json:"program_id" gorm:"index"`
	Week      int            `json:"week"`
	Day       int            `json:"day"`
	Date      time.Time      `json:"date" gorm:"index"`
	Duration  int            `json:"duration"` // minutes
	Notes     string         `json:"notes"`
	Exercises datatypes.JSON `json:"exercises"`
	CreatedAt time.Time      `json:"created_at"`
}

// LoggedExercise is one entry of a WorkoutLog's exercise snapshot.
type LoggedExercise struct {
	Name       string   `json:"name"`
	Completed  bool     `json:"completed"`
	ActualSets *int     `json:"actual_sets,omitempty"`
	ActualReps *int     `json:"actual_reps,omitempty"`
	WeightUsed *float64 `json:"weight_used,omitempty"`
}

type ProgramRepository interface {
	Create(ctx context.Context, program *Program) error
	GetByID(ctx context.Context, id uint) (*Program, error)
	GetLatestByUser(ctx context.Context, userID string) (*Program, error)
	ListByUser(ctx context.Context, userID string) ([]*Program, error)
	ListAll(ctx context.Context) ([]*Program, error)
	// LockForUpdate takes a row lock on the program for the surrounding transaction.
	LockForUpdate(ctx context.Context, id uint) error
}

type ExerciseRecordRepository interface {
	// ListByProgram returns records ordered by week, day, position.
	ListByProgram(ctx context.Context, programID uint) ([]*ExerciseRecord, error)
	ListByWeek(ctx context.Context, programID uint, week int) ([]*ExerciseRecord, error)
	CountByProgram(ctx context.Context, programID uint) (int64, error)
	GetBySlot(ctx context.Context, programID uint, week, day, position int) (*ExerciseRecord, error)
	WeekNumbers(ctx context.Context, programID uint) ([]int, error)
	Insert(ctx context.Context, records []*ExerciseRecord) error
	// ReplaceForProgram deletes every record of the program and inserts the given ones.
	ReplaceForProgram(ctx context.Context, programID uint, records []*ExerciseRecord) error
	Update(ctx context.Context, record *ExerciseRecord) error
}

type WorkoutLogRepository interface {
	Create(ctx context.Context, log *WorkoutLog) error
	// ListByUser returns logs dated on or after since, newest first. A zero since means all.
	ListByUser(ctx context.Context, userID string, since time.Time, limit int) ([]*WorkoutLog, error)
	ListByProgram(ctx context.Context, userID string, programID uint) ([]*WorkoutLog, error)
}

// Transactor runs fn inside one relational transaction. Repositories called
// with the ctx passed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// RelationalConfig selects and addresses the relational store.
type RelationalConfig struct {
	Driver     string
	DSN        string
	SQLitePath string
	LogLevel   gormLogger.LogLevel
}

// OpenRelational opens the configured gorm database and migrates the schema.
func OpenRelational(cfg RelationalConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres, "":
		dialector = postgres.Open(cfg.DSN)
	case DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	level := cfg.LogLevel
	if level == 0 {
		level = gormLogger.Warn
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// sqlite serializes writers; one connection keeps transactions from tripping SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the relational tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Program{},
		&domain.ExerciseRecord{},
		&domain.WorkoutLog{},
		&domain.UserProfile{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

type txKey struct{}

// GormTransactor implements domain.Transactor. The open transaction travels in
// the context so repositories called from fn join it.
type GormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

func (t *GormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or db.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

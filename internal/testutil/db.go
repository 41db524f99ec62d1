package testutil

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/mansoorceksport/fitcoach/internal/repository"
)

// DB opens a private in-memory SQLite database with the schema migrated.
func DB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := repository.OpenRelational(repository.RelationalConfig{
		Driver:     repository.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel:   gormLogger.Silent,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

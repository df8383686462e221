package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// OpenSQLite opens a SQLite database with foreign keys enforced. SQLite
// serializes writers, so the pool is pinned to a single connection and
// callers must keep every query of a transaction on that transaction's
// handle.
func OpenSQLite(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	if cfg == nil {
		cfg = gormConfig(gormLogger.Default.LogMode(gormLogger.Silent))
	}
	if !strings.Contains(dsn, "_busy_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_busy_timeout=5000"
	}
	if !strings.Contains(dsn, "_foreign_keys") {
		dsn += "&_foreign_keys=1"
	}
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// TestConfig is the quiet configuration used by integration tests.
func TestConfig() *gorm.Config {
	return gormConfig(gormLogger.Default.LogMode(gormLogger.Silent))
}

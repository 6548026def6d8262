// Package testutil provides an in-memory store and fixtures for tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fourneau/internal/db"
)

var databaseSeq atomic.Int64

// OpenDB returns a migrated in-memory sqlite database private to the test.
// The pool is capped at one connection so transactions serialize the way row
// locks do on postgres.
func OpenDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s-%d?mode=memory&cache=shared", name, databaseSeq.Add(1))
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		tb.Fatalf("open sqlite database: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		tb.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() {
		sqlDB.Close()
	})

	if err := db.AutoMigrate(database); err != nil {
		tb.Fatalf("migrate sqlite database: %v", err)
	}
	return database
}

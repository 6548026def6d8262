package db

import (
	"testing"

	"fourneau/internal/config"
	"fourneau/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestInitializeRequiresURL(t *testing.T) {
	t.Parallel()

	db, err := Initialize(config.DatabaseConfig{URL: ""})
	if err == nil {
		t.Fatal("expected error when database URL is empty")
	}
	if db != nil {
		t.Fatal("expected returned db handle to be nil on error")
	}
}

func TestAutoMigrateRejectsNilDatabase(t *testing.T) {
	t.Parallel()

	if err := AutoMigrate(nil); err == nil {
		t.Fatal("expected error when database handle is nil")
	}
}

func TestAutoMigrateWithSQLite(t *testing.T) {
	t.Parallel()

	sqliteDB, err := gorm.Open(sqlite.Open("file:fourneau-db-test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}

	if err := AutoMigrate(sqliteDB); err != nil {
		t.Fatalf("automigrate sqlite database: %v", err)
	}

	for _, model := range Models() {
		if !sqliteDB.Migrator().HasTable(model) {
			t.Fatalf("expected table for %T after migration", model)
		}
	}
	if !sqliteDB.Migrator().HasIndex(&models.Component{}, "idx_components_unique") {
		t.Fatal("expected unique component index after migration")
	}
	if !sqliteDB.Migrator().HasIndex(&models.DailySpecial{}, "idx_daily_specials_tenant_category") {
		t.Fatal("expected daily special category index after migration")
	}
}

func TestRunSQLMigrationsRequiresURL(t *testing.T) {
	t.Parallel()

	if err := RunSQLMigrations("file://../../migrations", ""); err == nil {
		t.Fatal("expected error when database URL is empty")
	}
}

func TestConfigurePropagatesInitializationError(t *testing.T) {
	t.Parallel()

	if _, err := Configure(config.DatabaseConfig{}); err == nil {
		t.Fatal("expected configuration error when initialize fails")
	}
}

func TestMustConfigurePanicsOnError(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when configuration fails")
		}
	}()

	MustConfigure(config.DatabaseConfig{})
}

package database

import (
	"testing"
)

func TestSeedSyncCreatesZonesAndNoopOnSecondRun(t *testing.T) {
	db := newSQLiteDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	report1, err := SeedSync(db)
	if err != nil {
		t.Fatalf("seed sync first run: %v", err)
	}
	if report1.Noop || report1.CreatedZones == 0 {
		t.Fatalf("expected first seed run to create zones: %+v", report1)
	}

	report2, err := SeedSync(db)
	if err != nil {
		t.Fatalf("seed sync second run: %v", err)
	}
	if !report2.Noop || report2.CreatedZones != 0 {
		t.Fatalf("expected noop on second seed run: %+v", report2)
	}
}

func TestSeedSyncFailureWhenDBClosed(t *testing.T) {
	db := newSQLiteDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close sql db: %v", err)
	}

	if _, err := SeedSync(db); err == nil {
		t.Fatal("expected seed error on closed database")
	}
}

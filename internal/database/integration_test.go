package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

const testMigrationsPath = "../../migrations"

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)

	applied, err := db.RunMigrations(testMigrationsPath)
	if err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	if len(applied) == 0 {
		t.Fatal("expected at least one migration to run")
	}

	tables := []string{"assessment_sessions", "questionnaire_answers", "game_results", "risk_snapshots"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	again, err := db.RunMigrations(testMigrationsPath)
	if err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second run applied %v, want nothing", again)
	}
}

func TestRunMigrationsMissingDir(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	if _, err := db.RunMigrations(t.TempDir()); err == nil {
		t.Error("expected error for empty migrations directory")
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	if _, err := db.RunMigrations(testMigrationsPath); err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC()

	err := db.WithTx(func(tx *Tx) error {
		_, err := tx.Exec("INSERT INTO assessment_sessions (id, name, age, avatar, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			"s1", "Ada", 9, "fox", now, now)
		return err
	})
	if err != nil {
		t.Fatalf("committed transaction failed: %v", err)
	}

	errBoom := errors.New("boom")
	err = db.WithTx(func(tx *Tx) error {
		if _, err := tx.Exec("INSERT INTO assessment_sessions (id, name, age, avatar, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			"s2", "Bo", 7, "owl", now, now); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM assessment_sessions").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 session after rollback, got %d", count)
	}
}

func TestExecReturningID(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	if _, err := db.RunMigrations(testMigrationsPath); err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC()
	if _, err := db.Exec("INSERT INTO assessment_sessions (id, name, age, avatar, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		"s1", "Ada", 9, "", now, now); err != nil {
		t.Fatal(err)
	}

	var ids []int64
	for i := 0; i < 2; i++ {
		id, err := db.ExecReturningID(`INSERT INTO risk_snapshots
			(session_id, event, dyslexia, dyscalculia, dysgraphia, adhd, dyspraxia, overall, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, "s1", "created", 0, 0, 0, 0, 0, "Low", now)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	if ids[1] <= ids[0] {
		t.Errorf("ids not increasing: %v", ids)
	}
}

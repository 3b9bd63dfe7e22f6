package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// openMigrated opens a SQLite database in the test's temp dir and applies
// the embedded migrations.
func openMigrated(t *testing.T, name string) *DB {
	t.Helper()

	db, err := Open("sqlite://" + filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	db := openMigrated(t, "test_integration.db")

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	// Test that tables were created by migrations
	for _, table := range []string{"users", "sessions", "otp_codes", "migrations"} {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		if err := db.QueryRowContext(ctx, query, table).Scan(&name); err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running again is a no-op
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 recorded migration, got %d", count)
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	db := openMigrated(t, "test_transactions.db")

	ctx := context.Background()
	now := time.Now().UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	id, err := tx.ExecReturningID(ctx, "INSERT INTO users (email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)",
		"test@example.com", "hashedpass", now, now)
	if err != nil {
		tx.Rollback()
		t.Fatalf("Failed to insert in transaction: %v", err)
	}
	if id == 0 {
		t.Error("Expected a generated id")
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit transaction: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", "test@example.com").Scan(&count); err != nil {
		t.Fatalf("Failed to query after commit: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}

	// Test rollback
	tx2, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin second transaction: %v", err)
	}
	if _, err := tx2.ExecContext(ctx, "INSERT INTO users (email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)",
		"test2@example.com", "hashedpass", now, now); err != nil {
		tx2.Rollback()
		t.Fatalf("Failed to insert in second transaction: %v", err)
	}
	if err := tx2.Rollback(); err != nil {
		t.Fatalf("Failed to rollback transaction: %v", err)
	}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", "test2@example.com").Scan(&count); err != nil {
		t.Fatalf("Failed to query after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users after rollback, got %d", count)
	}
}

func TestWithTx(t *testing.T) {
	db := openMigrated(t, "test_with_tx.db")
	ctx := context.Background()
	now := time.Now().UTC()
	insert := "INSERT INTO users (email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)"

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, insert, "kept@example.com", "h", now, now)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, insert, "dropped@example.com", "h", now, now); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected fn error back, got %v", err)
	}

	for email, want := range map[string]int{"kept@example.com": 1, "dropped@example.com": 0} {
		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&count); err != nil {
			t.Fatalf("Failed to count %s: %v", email, err)
		}
		if count != want {
			t.Errorf("%s: expected %d rows, got %d", email, want, count)
		}
	}
}

func TestUniqueEmailViolation(t *testing.T) {
	db := openMigrated(t, "test_unique.db")

	ctx := context.Background()
	now := time.Now().UTC()
	insert := "INSERT INTO users (email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)"

	if _, err := db.ExecContext(ctx, insert, "dup@example.com", "h", now, now); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	_, err := db.ExecContext(ctx, insert, "dup@example.com", "h", now, now)
	if err == nil {
		t.Fatal("Expected duplicate email insert to fail")
	}
	if !db.Dialect.IsUniqueViolation(err) {
		t.Errorf("Expected unique violation, got %v", err)
	}
}

// TestConcurrentAccess tests concurrent database access
func TestConcurrentAccess(t *testing.T) {
	db := openMigrated(t, "test_concurrent.db")

	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := db.ExecContext(ctx, "INSERT INTO users (email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)",
		"concurrent@example.com", "hashedpass", now, now); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			var hash string
			err := db.QueryRowContext(ctx, "SELECT password_hash FROM users WHERE email = ?", "concurrent@example.com").Scan(&hash)
			if err != nil {
				t.Errorf("Concurrent read failed: %v", err)
			}
			if hash != "hashedpass" {
				t.Errorf("Expected hash 'hashedpass', got '%s'", hash)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

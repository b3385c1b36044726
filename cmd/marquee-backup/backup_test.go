package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/filmbuff/marquee/internal/backup"
	_ "modernc.org/sqlite"
)

// createTestDB creates a user database with a few ratings in it.
func createTestDB(t *testing.T, dbPath string) {
	t.Helper()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(`
		CREATE TABLE ratings (
			user     TEXT NOT NULL,
			movie_id INTEGER NOT NULL,
			value    REAL NOT NULL,
			PRIMARY KEY (user, movie_id)
		)
	`); err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}

	if _, err := db.Exec(`
		INSERT INTO ratings (user, movie_id, value) VALUES
		('default', 1, 8.5),
		('default', 2, 7.0),
		('default', 3, 9.0)
	`); err != nil {
		t.Fatalf("Failed to insert test data: %v", err)
	}
}

func countRatings(t *testing.T, dbPath string) int {
	t.Helper()

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM ratings").Scan(&count); err != nil {
		t.Fatalf("Failed to count ratings: %v", err)
	}
	return count
}

// newTestManager builds a manager over a fresh database in a temp dir and
// returns it with the database path.
func newTestManager(t *testing.T) (*backup.Manager, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "marquee.db")
	createTestDB(t, dbPath)

	manager, err := backup.NewManager(backup.Config{
		DBPath:   dbPath,
		Dir:      filepath.Join(tmpDir, "backups"),
		Interval: time.Hour,
		Retention: backup.RetentionPolicy{
			Hourly:  24,
			Daily:   7,
			Weekly:  4,
			Monthly: 12,
		},
		Verify: true,
	})
	if err != nil {
		t.Fatalf("Failed to create backup manager: %v", err)
	}
	return manager, dbPath
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = oldStdout

	output, _ := io.ReadAll(r)
	return string(output)
}

func TestHandleListEmpty(t *testing.T) {
	manager, _ := newTestManager(t)

	output := captureStdout(t, func() {
		handleList(manager)
	})

	if !strings.Contains(output, "No backups found") {
		t.Errorf("expected empty listing, got: %s", output)
	}
}

func TestHandleOneshotAndList(t *testing.T) {
	manager, _ := newTestManager(t)

	handleOneshot(context.Background(), manager)

	output := captureStdout(t, func() {
		handleList(manager)
	})

	if !strings.Contains(output, "Found 1 backup(s):") {
		t.Errorf("expected one backup listed, got: %s", output)
	}
	if !strings.Contains(output, "marquee-") {
		t.Errorf("expected backup id in listing, got: %s", output)
	}
	if !strings.Contains(output, "SHA256:") {
		t.Errorf("expected checksum in listing, got: %s", output)
	}
}

func TestHandleVerify(t *testing.T) {
	manager, _ := newTestManager(t)

	result, err := manager.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	output := captureStdout(t, func() {
		handleVerify(manager, result.ID)
	})

	if !strings.Contains(output, "verified: hash matches manifest") {
		t.Errorf("expected verification message, got: %s", output)
	}
}

func TestHandleHealth(t *testing.T) {
	manager, _ := newTestManager(t)

	handleOneshot(context.Background(), manager)

	output := captureStdout(t, func() {
		handleHealth(manager)
	})

	if !strings.Contains(output, "Status: healthy") {
		t.Errorf("expected healthy status, got: %s", output)
	}
	if !strings.Contains(output, "Total Backups: 1") {
		t.Errorf("expected one backup counted, got: %s", output)
	}
	if !strings.Contains(output, "Last Backup:") || strings.Contains(output, "Last Backup: Never") {
		t.Errorf("expected a last-backup timestamp, got: %s", output)
	}
}

func TestHandleRestore(t *testing.T) {
	manager, dbPath := newTestManager(t)

	result, err := manager.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Wipe the live database, then restore it from the backup.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if _, err := db.Exec("DELETE FROM ratings"); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to delete ratings: %v", err)
	}
	_ = db.Close()

	if count := countRatings(t, dbPath); count != 0 {
		t.Fatalf("Expected 0 ratings after delete, got %d", count)
	}

	handleRestore(context.Background(), manager, result.ID)

	if count := countRatings(t, dbPath); count != 3 {
		t.Errorf("Expected 3 restored ratings, got %d", count)
	}
}

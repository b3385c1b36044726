package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/filmbuff/marquee/internal/config"
)

const testDataset = `id,title,genres,director,cast,release_year,rating,vote_count,popularity,keywords,overview
1,Alien,Horror|Sci-Fi,Ridley Scott,Sigourney Weaver,1979,8.5,2000,88.5,space|alien,Crew meets something
2,Heat,Crime|Drama,Michael Mann,Al Pacino|Robert De Niro,1995,8.3,1200,60.0,heist,Cops and robbers
`

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// everything it printed.
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

func TestPrintBanner(t *testing.T) {
	output := captureStdout(t, printBanner)

	if !strings.Contains(output, "__  __") {
		t.Errorf("Banner does not contain ASCII art, got: %s", output)
	}
	if !strings.Contains(output, "Movie Recommendations From Your Terminal") {
		t.Errorf("Banner does not contain tagline, got: %s", output)
	}
}

func TestSetupDatasetExistingFile(t *testing.T) {
	dir := t.TempDir()
	datasetPath := filepath.Join(dir, "movies.csv")
	if err := os.WriteFile(datasetPath, []byte(testDataset), 0o644); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Dataset.Path = datasetPath
	cfg.Dataset.URL = ""

	output := captureStdout(t, func() {
		setupDataset(context.Background(), cfg)
	})

	if !strings.Contains(output, "OK: dataset found at") {
		t.Errorf("expected dataset-found message, got: %s", output)
	}
}

func TestSetupDatasetMissingFileNoURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dataset.Path = filepath.Join(t.TempDir(), "missing.csv")
	cfg.Dataset.URL = ""

	output := captureStdout(t, func() {
		setupDataset(context.Background(), cfg)
	})

	if !strings.Contains(output, "WARNING: no dataset at") {
		t.Errorf("expected missing-dataset warning, got: %s", output)
	}
}

func TestSetupDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "marquee.db")

	cfg := config.DefaultConfig()
	cfg.UserData.DBPath = dbPath

	output := captureStdout(t, func() {
		setupDatabase(cfg)
	})

	if !strings.Contains(output, "OK: user database ready at") {
		t.Errorf("expected database-ready message, got: %s", output)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file was not created: %v", err)
	}
}

// buildSetupBinary compiles the marquee-setup binary into a temp dir.
func buildSetupBinary(t *testing.T) string {
	t.Helper()

	tmpBin := filepath.Join(t.TempDir(), "marquee-setup")
	cmd := exec.Command("go", "build", "-o", tmpBin, ".")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Binary build failed:\nError: %v\nOutput: %s", err, output)
	}
	return tmpBin
}

func TestBinaryBuilds(t *testing.T) {
	tmpBin := buildSetupBinary(t)

	info, err := os.Stat(tmpBin)
	if err != nil {
		t.Fatalf("Binary not created at %s: %v", tmpBin, err)
	}
	if (info.Mode() & 0111) == 0 {
		t.Fatalf("Binary is not executable")
	}
}

// TestVerifySubprocess exercises the full -verify path against a real
// installation in a temp dir, covering both READY and NOT READY.
func TestVerifySubprocess(t *testing.T) {
	tmpBin := buildSetupBinary(t)

	dir := t.TempDir()
	datasetPath := filepath.Join(dir, "movies.csv")
	dbPath := filepath.Join(dir, "marquee.db")
	configPath := filepath.Join(dir, "marquee.yaml")

	if err := os.WriteFile(datasetPath, []byte(testDataset), 0o644); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}
	content := fmt.Sprintf("dataset:\n  path: %s\nuserdata:\n  db_path: %s\n", datasetPath, dbPath)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Before setup ran, verify must report NOT READY and exit non-zero.
	cmd := exec.CommandContext(ctx, tmpBin, "-verify", "-config", configPath)
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Errorf("expected non-zero exit before setup, output:\n%s", output)
	}
	if !strings.Contains(string(output), "Status:   NOT READY") {
		t.Errorf("expected NOT READY status, got:\n%s", output)
	}

	// Run setup, then verify again.
	cmd = exec.CommandContext(ctx, tmpBin, "-config", configPath)
	output, err = cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("setup run failed: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(string(output), "Setup complete!") {
		t.Errorf("expected setup completion message, got:\n%s", output)
	}

	cmd = exec.CommandContext(ctx, tmpBin, "-verify", "-config", configPath)
	output, err = cmd.CombinedOutput()
	if err != nil {
		t.Errorf("verify exited non-zero after setup: %v\nOutput: %s", err, output)
	}
	outputStr := string(output)
	if !strings.Contains(outputStr, "Marquee Setup Verification") {
		t.Errorf("Output doesn't contain verification header, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "Status:   READY") {
		t.Errorf("expected READY status, got:\n%s", outputStr)
	}
	if !strings.Contains(outputStr, "2 movies") {
		t.Errorf("expected dataset movie count, got:\n%s", outputStr)
	}
}

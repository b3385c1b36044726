package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDataset = `id,title,genres,director,cast,release_year,rating,vote_count,popularity,keywords,overview
1,Alien,Horror|Sci-Fi,Ridley Scott,Sigourney Weaver|Tom Skerritt,1979,8.5,2000,88.5,space|alien,Crew meets something
2,Aliens,Horror|Sci-Fi,James Cameron,Sigourney Weaver|Michael Biehn,1986,8.4,1800,80.0,space|alien|sequel,They go back
3,Heat,Crime|Drama,Michael Mann,Al Pacino|Robert De Niro,1995,8.3,1200,60.0,heist,Cops and robbers
4,Duplicate,Drama,,,2000,6.0,100,5.0,,
5,Duplicate,Comedy,,,2001,6.5,100,5.0,,
`

// writeFixtures writes a dataset and a config pointing at it, both inside
// a temp dir, and returns the config path.
func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	datasetPath := filepath.Join(dir, "movies.csv")
	if err := os.WriteFile(datasetPath, []byte(testDataset), 0o644); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}

	configPath := filepath.Join(dir, "marquee.yaml")
	content := fmt.Sprintf("dataset:\n  path: %s\nuserdata:\n  db_path: %s\n",
		datasetPath, filepath.Join(dir, "marquee.db"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

// runCommand executes the root command with the given args, capturing
// stdout. Log output goes to stderr and is not captured.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	root := newRootCmd()
	root.SetArgs(args)
	execErr := root.Execute()

	_ = w.Close()
	os.Stdout = oldStdout

	out, _ := io.ReadAll(r)
	return string(out), execErr
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	want := []string{
		"search", "show", "similar", "foryou", "popular", "trending",
		"watchlist", "bookmark", "rate", "review", "prefs", "import",
		"browse", "version",
	}
	have := make(map[string]bool)
	for _, c := range root.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "marquee "+version) {
		t.Errorf("unexpected version output: %s", out)
	}
}

func TestSearchCommand(t *testing.T) {
	cfg := writeFixtures(t)

	out, err := runCommand(t, "--config", cfg, "search", "alien")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Alien") || !strings.Contains(out, "Aliens") {
		t.Errorf("expected both Alien titles, got:\n%s", out)
	}
	if strings.Contains(out, "Heat") {
		t.Errorf("Heat should not match %q, got:\n%s", "alien", out)
	}
}

func TestSearchFilters(t *testing.T) {
	cfg := writeFixtures(t)

	out, err := runCommand(t, "--config", cfg, "search", "--genre", "Crime", "--min-rating", "8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Heat") {
		t.Errorf("expected Heat, got:\n%s", out)
	}
	if strings.Contains(out, "Alien") {
		t.Errorf("genre filter leaked non-crime titles:\n%s", out)
	}
}

func TestSimilarCommand(t *testing.T) {
	cfg := writeFixtures(t)

	out, err := runCommand(t, "--config", cfg, "similar", "--id", "1", "-k", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Aliens") {
		t.Errorf("expected Aliens as nearest neighbour of Alien, got:\n%s", out)
	}
}

func TestSimilarUnknownTitle(t *testing.T) {
	cfg := writeFixtures(t)

	_, err := runCommand(t, "--config", cfg, "similar", "No Such Movie")
	if err == nil {
		t.Fatal("expected error for unknown title")
	}
}

func TestShowAmbiguousTitle(t *testing.T) {
	cfg := writeFixtures(t)

	out, err := runCommand(t, "--config", cfg, "show", "Duplicate")
	if err != nil {
		t.Fatalf("expected candidates instead of an error, got: %v", err)
	}
	if !strings.Contains(out, "matches 2 movies") {
		t.Errorf("expected ambiguity notice, got:\n%s", out)
	}
}

func TestRateShowRoundTrip(t *testing.T) {
	cfg := writeFixtures(t)

	out, err := runCommand(t, "--config", cfg, "rate", "1", "8.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `Rated "Alien" (1): 8.5`) {
		t.Errorf("unexpected rate output: %s", out)
	}

	out, err = runCommand(t, "--config", cfg, "show", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Your rating: 8.5") {
		t.Errorf("expected stored rating in show output, got:\n%s", out)
	}
}

func TestWatchlistFlow(t *testing.T) {
	cfg := writeFixtures(t)

	if _, err := runCommand(t, "--config", cfg, "watchlist", "add", "Heat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := runCommand(t, "--config", cfg, "watchlist", "ls")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Heat") {
		t.Errorf("expected Heat on the watchlist, got:\n%s", out)
	}

	if _, err := runCommand(t, "--config", cfg, "watchlist", "rm", "3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err = runCommand(t, "--config", cfg, "watchlist", "ls")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No movies found") {
		t.Errorf("expected empty watchlist, got:\n%s", out)
	}
}

func TestWatchlistRemoveMissing(t *testing.T) {
	cfg := writeFixtures(t)

	if _, err := runCommand(t, "--config", cfg, "watchlist", "rm", "1"); err == nil {
		t.Fatal("expected error removing a movie that was never added")
	}
}

func TestPrefsRoundTrip(t *testing.T) {
	cfg := writeFixtures(t)

	_, err := runCommand(t, "--config", cfg,
		"prefs", "set", "--genres", "Drama", "--genres", "Crime", "--min-rating", "7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := runCommand(t, "--config", cfg, "prefs", "show")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Drama, Crime") {
		t.Errorf("expected stored genres, got:\n%s", out)
	}
	if !strings.Contains(out, "Min rating: 7.0") {
		t.Errorf("expected stored min rating, got:\n%s", out)
	}
}

func TestReviewLifecycle(t *testing.T) {
	cfg := writeFixtures(t)

	out, err := runCommand(t, "--config", cfg,
		"review", "3", "--text", "Diner scene alone is worth it.", "--rating", "9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "saved for \"Heat\" (3)") {
		t.Errorf("unexpected review output: %s", out)
	}

	out, err = runCommand(t, "--config", cfg, "review", "3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Diner scene alone is worth it.") {
		t.Errorf("expected review text in listing, got:\n%s", out)
	}
}

func TestImportCommand(t *testing.T) {
	cfg := writeFixtures(t)

	exportPath := filepath.Join(filepath.Dir(cfg), "legacy.json")
	export := `{
		"user": "rivka",
		"watchlist": [1, 2],
		"ratings": {"3": 8.0},
		"preferences": {"favorite_genres": ["Crime"]}
	}`
	if err := os.WriteFile(exportPath, []byte(export), 0o644); err != nil {
		t.Fatalf("failed to write export: %v", err)
	}

	out, err := runCommand(t, "--config", cfg, "import", exportPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `Imported user data for "rivka"`) {
		t.Errorf("unexpected import output: %s", out)
	}
	if !strings.Contains(out, "Watchlist:   2") {
		t.Errorf("expected 2 watchlist entries, got:\n%s", out)
	}

	out, err = runCommand(t, "--config", cfg, "--user", "rivka", "watchlist", "ls")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Alien") || !strings.Contains(out, "Aliens") {
		t.Errorf("expected imported watchlist titles, got:\n%s", out)
	}
}

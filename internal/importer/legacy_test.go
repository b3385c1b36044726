package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/filmbuff/marquee/internal/catalog"
	"github.com/filmbuff/marquee/internal/importer"
	"github.com/filmbuff/marquee/internal/userdata/sqlite"
	"github.com/filmbuff/marquee/pkg/types"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]types.Movie{
		{ID: 1, Title: "Alien"},
		{ID: 2, Title: "Aliens"},
		{ID: 3, Title: "Heat"},
	})
}

func writeExport(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write export: %v", err)
	}
	return path
}

// TestImportFile runs a full import of a synthetic legacy export and checks
// both the reported counts and the resulting store state. Ids the catalog
// does not know must be skipped, not imported and not fatal.
func TestImportFile(t *testing.T) {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	path := writeExport(t, `{
		"user": "alice",
		"watchlist": [1, 2, 999],
		"bookmarks": [3],
		"ratings": {"1": 8.5, "999": 5.0, "oops": 3.0},
		"reviews": [
			{"movie_id": 2, "rating": 9.0, "text": "Best sequel ever made.", "created_at": "2009-04-12T10:30:00Z"},
			{"movie_id": 999, "rating": 1.0, "text": "gone", "created_at": "2009-04-12T10:30:00Z"}
		],
		"preferences": {"favorite_genres": ["Sci-Fi"], "min_rating": 6.0}
	}`)

	ctx := context.Background()
	result, err := importer.ImportFile(ctx, store, testCatalog(), path)
	if err != nil {
		t.Fatalf("ImportFile() failed: %v", err)
	}

	if result.User != "alice" {
		t.Errorf("User: got %q, want \"alice\"", result.User)
	}
	if result.Watchlist != 2 {
		t.Errorf("Watchlist count: got %d, want 2", result.Watchlist)
	}
	if result.Bookmarks != 1 {
		t.Errorf("Bookmarks count: got %d, want 1", result.Bookmarks)
	}
	if result.Ratings != 1 {
		t.Errorf("Ratings count: got %d, want 1", result.Ratings)
	}
	if result.Reviews != 1 {
		t.Errorf("Reviews count: got %d, want 1", result.Reviews)
	}
	if !result.Preferences {
		t.Error("Preferences: got false, want true")
	}
	// Unknown ids: 999 in watchlist, ratings, reviews; bad key "oops".
	if result.Skipped != 4 {
		t.Errorf("Skipped: got %d, want 4", result.Skipped)
	}

	list, err := store.Watchlist(ctx, "alice")
	if err != nil {
		t.Fatalf("Watchlist() failed: %v", err)
	}
	if len(list) != 2 || list[0] != 1 || list[1] != 2 {
		t.Errorf("watchlist: got %v, want [1 2]", list)
	}

	rating, err := store.Rating(ctx, "alice", 1)
	if err != nil {
		t.Fatalf("Rating() failed: %v", err)
	}
	if rating != 8.5 {
		t.Errorf("rating: got %v, want 8.5", rating)
	}

	reviews, err := store.ReviewsForMovie(ctx, 2)
	if err != nil {
		t.Fatalf("ReviewsForMovie() failed: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Text != "Best sequel ever made." {
		t.Errorf("reviews: got %v, want the imported review", reviews)
	}

	prefs, err := store.GetPreferences(ctx, "alice")
	if err != nil {
		t.Fatalf("GetPreferences() failed: %v", err)
	}
	if len(prefs.FavoriteGenres) != 1 || prefs.FavoriteGenres[0] != "Sci-Fi" || prefs.MinRating != 6.0 {
		t.Errorf("preferences: got %+v", prefs)
	}
}

// TestImportFileIdempotent imports the same export twice and verifies the
// second run changes nothing: same list lengths, no duplicated reviews.
func TestImportFileIdempotent(t *testing.T) {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	path := writeExport(t, `{
		"user": "alice",
		"watchlist": [1, 3],
		"ratings": {"2": 7.0},
		"reviews": [{"movie_id": 1, "rating": 8.0, "text": "A haunted house in space.", "created_at": "2010-01-01T00:00:00Z"}]
	}`)

	ctx := context.Background()
	cat := testCatalog()
	for run := 0; run < 2; run++ {
		if _, err := importer.ImportFile(ctx, store, cat, path); err != nil {
			t.Fatalf("ImportFile() run %d failed: %v", run+1, err)
		}
	}

	list, err := store.Watchlist(ctx, "alice")
	if err != nil {
		t.Fatalf("Watchlist() failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("watchlist after re-import: got %v, want 2 entries", list)
	}

	reviews, err := store.ReviewsForMovie(ctx, 1)
	if err != nil {
		t.Fatalf("ReviewsForMovie() failed: %v", err)
	}
	if len(reviews) != 1 {
		t.Errorf("reviews after re-import: got %d, want 1", len(reviews))
	}
}

func TestImportFileDefaultsUser(t *testing.T) {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	path := writeExport(t, `{"watchlist": [1]}`)

	result, err := importer.ImportFile(context.Background(), store, testCatalog(), path)
	if err != nil {
		t.Fatalf("ImportFile() failed: %v", err)
	}
	if result.User != types.DefaultUser {
		t.Errorf("User: got %q, want %q", result.User, types.DefaultUser)
	}

	list, err := store.Watchlist(context.Background(), types.DefaultUser)
	if err != nil {
		t.Fatalf("Watchlist() failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("watchlist: got %v, want [1]", list)
	}
}

func TestImportFileBadInput(t *testing.T) {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	if _, err := importer.ImportFile(context.Background(), store, testCatalog(), "/no/such/file.json"); err == nil {
		t.Error("missing file: got nil error")
	}

	path := writeExport(t, `{not json`)
	if _, err := importer.ImportFile(context.Background(), store, testCatalog(), path); err == nil {
		t.Error("malformed JSON: got nil error")
	}
}

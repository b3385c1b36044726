// Package importer loads user data exported by the legacy desktop
// application into a userdata store.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/filmbuff/marquee/internal/catalog"
	"github.com/filmbuff/marquee/internal/userdata"
	"github.com/filmbuff/marquee/pkg/types"
)

// reviewNamespace seeds deterministic review ids so that re-importing the
// same export upserts rows instead of duplicating them.
var reviewNamespace = uuid.MustParse("9a1e3b52-74f0-4f0a-9c2e-5d8f1f6b0c4d")

// Result summarises a completed import.
type Result struct {
	User        string        `json:"user"`
	Watchlist   int           `json:"watchlist"`
	Bookmarks   int           `json:"bookmarks"`
	Ratings     int           `json:"ratings"`
	Reviews     int           `json:"reviews"`
	Preferences bool          `json:"preferences"`
	Skipped     int           `json:"skipped"`
	Duration    time.Duration `json:"duration_ms"`
}

// legacyExport mirrors the JSON document written by the original
// application's profile exporter. Rating keys arrive as strings because
// JSON objects cannot have numeric keys.
type legacyExport struct {
	User        string             `json:"user"`
	Watchlist   []int              `json:"watchlist"`
	Bookmarks   []int              `json:"bookmarks"`
	Ratings     map[string]float64 `json:"ratings"`
	Reviews     []legacyReview     `json:"reviews"`
	Preferences *types.Preferences `json:"preferences"`
}

type legacyReview struct {
	MovieID   int       `json:"movie_id"`
	Rating    float64   `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportFile reads a legacy JSON export and writes it through the store.
// Movie ids unknown to the catalog are skipped with a warning. The import
// is idempotent: running it twice adds nothing the second time.
func ImportFile(ctx context.Context, store userdata.Store, cat *catalog.Catalog, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read export %q: %w", path, err)
	}

	var export legacyExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("cannot parse export %q: %w", path, err)
	}

	user := export.User
	if user == "" {
		user = types.DefaultUser
	}

	start := time.Now()
	result := &Result{User: user}

	knownMovie := func(id int, section string) bool {
		if _, err := cat.ByID(id); err != nil {
			log.Printf("Warning: import: skipping unknown movie %d in %s", id, section)
			result.Skipped++
			return false
		}
		return true
	}

	for _, id := range export.Watchlist {
		if !knownMovie(id, "watchlist") {
			continue
		}
		if err := store.AddToWatchlist(ctx, user, id); err != nil {
			return result, fmt.Errorf("import watchlist: %w", err)
		}
		result.Watchlist++
	}

	for _, id := range export.Bookmarks {
		if !knownMovie(id, "bookmarks") {
			continue
		}
		if err := store.AddBookmark(ctx, user, id); err != nil {
			return result, fmt.Errorf("import bookmarks: %w", err)
		}
		result.Bookmarks++
	}

	for key, value := range export.Ratings {
		id, err := strconv.Atoi(key)
		if err != nil {
			log.Printf("Warning: import: skipping rating with bad movie id %q", key)
			result.Skipped++
			continue
		}
		if !knownMovie(id, "ratings") {
			continue
		}
		if err := store.SetRating(ctx, user, id, value); err != nil {
			log.Printf("Warning: import: skipping rating for movie %d: %v", id, err)
			result.Skipped++
			continue
		}
		result.Ratings++
	}

	for _, rev := range export.Reviews {
		if !knownMovie(rev.MovieID, "reviews") {
			continue
		}
		review := &types.Review{
			ID:        deterministicReviewID(user, rev),
			MovieID:   rev.MovieID,
			User:      user,
			Rating:    rev.Rating,
			Text:      rev.Text,
			CreatedAt: rev.CreatedAt,
		}
		if _, err := store.AddReview(ctx, review); err != nil {
			log.Printf("Warning: import: skipping review of movie %d: %v", rev.MovieID, err)
			result.Skipped++
			continue
		}
		result.Reviews++
	}

	if export.Preferences != nil {
		if err := store.SetPreferences(ctx, user, *export.Preferences); err != nil {
			return result, fmt.Errorf("import preferences: %w", err)
		}
		result.Preferences = true
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	result.Duration = time.Since(start)
	log.Printf("Imported user data for %q: %d watchlist, %d bookmarks, %d ratings, %d reviews (%d skipped)",
		user, result.Watchlist, result.Bookmarks, result.Ratings, result.Reviews, result.Skipped)
	return result, nil
}

// deterministicReviewID derives a stable id from the review's identity so a
// re-import updates the existing row.
func deterministicReviewID(user string, rev legacyReview) string {
	seed := fmt.Sprintf("%s|%d|%s", user, rev.MovieID, rev.Text)
	return uuid.NewSHA1(reviewNamespace, []byte(seed)).String()
}

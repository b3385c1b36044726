// Package userdata provides composable storage interfaces for per-user
// state: watchlists, bookmarks, ratings, reviews, and preferences.
//
// The interfaces are small and focused so backends can implement them
// independently and callers can depend on exactly the surface they need.
package userdata

import (
	"context"
	"errors"

	"github.com/filmbuff/marquee/pkg/types"
)

// ErrInvalidInput indicates that the input parameters are invalid.
var ErrInvalidInput = errors.New("invalid input")

// WatchlistStore manages each user's to-watch list.
type WatchlistStore interface {
	// AddToWatchlist puts a movie on the user's watchlist.
	// Adding a movie that is already listed is a no-op.
	AddToWatchlist(ctx context.Context, user string, movieID int) error

	// RemoveFromWatchlist takes a movie off the user's watchlist.
	// Returns types.ErrNotFound if the movie is not listed.
	RemoveFromWatchlist(ctx context.Context, user string, movieID int) error

	// Watchlist returns the user's watchlist in insertion order.
	Watchlist(ctx context.Context, user string) ([]int, error)

	// InWatchlist reports whether the movie is on the user's watchlist.
	InWatchlist(ctx context.Context, user string, movieID int) (bool, error)
}

// BookmarkStore manages each user's bookmarked movies.
type BookmarkStore interface {
	// AddBookmark bookmarks a movie for the user.
	// Bookmarking an already-bookmarked movie is a no-op.
	AddBookmark(ctx context.Context, user string, movieID int) error

	// RemoveBookmark removes the user's bookmark.
	// Returns types.ErrNotFound if the movie is not bookmarked.
	RemoveBookmark(ctx context.Context, user string, movieID int) error

	// Bookmarks returns the user's bookmarks in insertion order.
	Bookmarks(ctx context.Context, user string) ([]int, error)

	// IsBookmarked reports whether the user bookmarked the movie.
	IsBookmarked(ctx context.Context, user string, movieID int) (bool, error)
}

// RatingStore manages per-user movie ratings on a 0-10 scale.
type RatingStore interface {
	// SetRating records the user's rating for a movie (upsert semantics).
	// Returns ErrInvalidInput when value is outside [0, 10].
	SetRating(ctx context.Context, user string, movieID int, value float64) error

	// Rating returns the user's rating for a movie.
	// Returns types.ErrNotFound if the user has not rated it.
	Rating(ctx context.Context, user string, movieID int) (float64, error)

	// Ratings returns all of the user's ratings keyed by movie id.
	Ratings(ctx context.Context, user string) (map[int]float64, error)

	// DeleteRating removes the user's rating for a movie.
	// Returns types.ErrNotFound if the user has not rated it.
	DeleteRating(ctx context.Context, user string, movieID int) error
}

// ReviewStore manages written movie reviews.
type ReviewStore interface {
	// AddReview stores a review and returns its id. A missing id is
	// assigned, a zero CreatedAt is stamped with the current time.
	AddReview(ctx context.Context, review *types.Review) (string, error)

	// ReviewsForMovie returns all reviews of a movie, newest first.
	ReviewsForMovie(ctx context.Context, movieID int) ([]types.Review, error)

	// ReviewsByUser returns all reviews written by the user, newest first.
	ReviewsByUser(ctx context.Context, user string) ([]types.Review, error)

	// DeleteReview removes a review by id.
	// Returns types.ErrNotFound if no such review exists.
	DeleteReview(ctx context.Context, id string) error
}

// PreferenceStore manages per-user recommendation preferences.
type PreferenceStore interface {
	// SetPreferences stores the user's preferences (upsert semantics).
	SetPreferences(ctx context.Context, user string, prefs types.Preferences) error

	// GetPreferences returns the user's preferences. A user with no stored
	// preferences gets the zero value and no error.
	GetPreferences(ctx context.Context, user string) (types.Preferences, error)
}

// SettingsStore provides string key/value settings, including the schema
// version bookkeeping used by backends and backup tooling.
type SettingsStore interface {
	// SetSetting stores a setting value (upsert semantics).
	SetSetting(ctx context.Context, key, value string) error

	// Setting returns a setting value.
	// Returns types.ErrNotFound if the key is not set.
	Setting(ctx context.Context, key string) (string, error)
}

// Store aggregates every user-data concern behind one handle.
type Store interface {
	WatchlistStore
	BookmarkStore
	RatingStore
	ReviewStore
	PreferenceStore
	SettingsStore

	// Close releases any resources held by the store.
	Close() error
}

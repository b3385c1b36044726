package sqlite

import (
	"context"
	"fmt"

	"github.com/filmbuff/marquee/internal/userdata"
	"github.com/filmbuff/marquee/pkg/types"
)

// AddToWatchlist puts a movie on the user's watchlist. Duplicates are a no-op.
func (s *Store) AddToWatchlist(ctx context.Context, user string, movieID int) error {
	return s.listAdd(ctx, "watchlist", user, movieID)
}

// RemoveFromWatchlist takes a movie off the user's watchlist.
func (s *Store) RemoveFromWatchlist(ctx context.Context, user string, movieID int) error {
	return s.listRemove(ctx, "watchlist", user, movieID)
}

// Watchlist returns the user's watchlist in insertion order.
func (s *Store) Watchlist(ctx context.Context, user string) ([]int, error) {
	return s.listIDs(ctx, "watchlist", user)
}

// InWatchlist reports whether the movie is on the user's watchlist.
func (s *Store) InWatchlist(ctx context.Context, user string, movieID int) (bool, error) {
	return s.listContains(ctx, "watchlist", user, movieID)
}

// AddBookmark bookmarks a movie for the user. Duplicates are a no-op.
func (s *Store) AddBookmark(ctx context.Context, user string, movieID int) error {
	return s.listAdd(ctx, "bookmarks", user, movieID)
}

// RemoveBookmark removes the user's bookmark.
func (s *Store) RemoveBookmark(ctx context.Context, user string, movieID int) error {
	return s.listRemove(ctx, "bookmarks", user, movieID)
}

// Bookmarks returns the user's bookmarks in insertion order.
func (s *Store) Bookmarks(ctx context.Context, user string) ([]int, error) {
	return s.listIDs(ctx, "bookmarks", user)
}

// IsBookmarked reports whether the user bookmarked the movie.
func (s *Store) IsBookmarked(ctx context.Context, user string, movieID int) (bool, error) {
	return s.listContains(ctx, "bookmarks", user, movieID)
}

// Watchlist and bookmarks share the same (user, movie_id) shape; the helpers
// below take the table name as a trusted constant, never caller input.

func (s *Store) listAdd(ctx context.Context, table, user string, movieID int) error {
	if err := validateListKey(user, movieID); err != nil {
		return err
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (user, movie_id) VALUES (?, ?) ON CONFLICT(user, movie_id) DO NOTHING",
		table,
	)
	if _, err := s.db.ExecContext(ctx, query, user, movieID); err != nil {
		return fmt.Errorf("sqlite: add to %s: %w", table, err)
	}
	return nil
}

func (s *Store) listRemove(ctx context.Context, table, user string, movieID int) error {
	if err := validateListKey(user, movieID); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE user = ? AND movie_id = ?", table)
	result, err := s.db.ExecContext(ctx, query, user, movieID)
	if err != nil {
		return fmt.Errorf("sqlite: remove from %s: %w", table, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: remove from %s: %w", table, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: movie %d not in %s for user %q", types.ErrNotFound, movieID, table, user)
	}
	return nil
}

func (s *Store) listIDs(ctx context.Context, table, user string) ([]int, error) {
	query := fmt.Sprintf("SELECT movie_id FROM %s WHERE user = ? ORDER BY rowid", table)
	rows, err := s.db.QueryContext(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list %s: %w", table, err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: list %s scan: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list %s rows: %w", table, err)
	}
	return ids, nil
}

func (s *Store) listContains(ctx context.Context, table, user string, movieID int) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE user = ? AND movie_id = ?", table)
	var n int
	if err := s.db.QueryRowContext(ctx, query, user, movieID).Scan(&n); err != nil {
		return false, fmt.Errorf("sqlite: check %s: %w", table, err)
	}
	return n > 0, nil
}

func validateListKey(user string, movieID int) error {
	if user == "" {
		return fmt.Errorf("%w: user is required", userdata.ErrInvalidInput)
	}
	if movieID <= 0 {
		return fmt.Errorf("%w: movie id must be positive", userdata.ErrInvalidInput)
	}
	return nil
}

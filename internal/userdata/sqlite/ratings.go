package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/filmbuff/marquee/internal/userdata"
	"github.com/filmbuff/marquee/pkg/types"
)

// SetRating records the user's rating for a movie (upsert semantics).
func (s *Store) SetRating(ctx context.Context, user string, movieID int, value float64) error {
	if err := validateListKey(user, movieID); err != nil {
		return err
	}
	if value < 0 || value > 10 {
		return fmt.Errorf("%w: rating %v out of range [0, 10]", userdata.ErrInvalidInput, value)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ratings (user, movie_id, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user, movie_id) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, user, movieID, value, time.Now())
	if err != nil {
		return fmt.Errorf("sqlite: set rating: %w", err)
	}
	return nil
}

// Rating returns the user's rating for a movie.
func (s *Store) Rating(ctx context.Context, user string, movieID int) (float64, error) {
	var value float64
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM ratings WHERE user = ? AND movie_id = ?",
		user, movieID,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: no rating for movie %d by user %q", types.ErrNotFound, movieID, user)
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite: get rating: %w", err)
	}
	return value, nil
}

// Ratings returns all of the user's ratings keyed by movie id.
func (s *Store) Ratings(ctx context.Context, user string) (map[int]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT movie_id, value FROM ratings WHERE user = ?",
		user,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list ratings: %w", err)
	}
	defer rows.Close()

	ratings := make(map[int]float64)
	for rows.Next() {
		var (
			id    int
			value float64
		)
		if err := rows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("sqlite: list ratings scan: %w", err)
		}
		ratings[id] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list ratings rows: %w", err)
	}
	return ratings, nil
}

// DeleteRating removes the user's rating for a movie.
func (s *Store) DeleteRating(ctx context.Context, user string, movieID int) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM ratings WHERE user = ? AND movie_id = ?",
		user, movieID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: delete rating: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete rating: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: no rating for movie %d by user %q", types.ErrNotFound, movieID, user)
	}
	return nil
}

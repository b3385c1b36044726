package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/filmbuff/marquee/internal/userdata"
	"github.com/filmbuff/marquee/pkg/types"
)

// AddReview stores a review, assigning an id and timestamp where missing.
func (s *Store) AddReview(ctx context.Context, review *types.Review) (string, error) {
	if review == nil {
		return "", fmt.Errorf("%w: review is required", userdata.ErrInvalidInput)
	}
	if err := validateListKey(review.User, review.MovieID); err != nil {
		return "", err
	}
	if review.Text == "" {
		return "", fmt.Errorf("%w: review text is required", userdata.ErrInvalidInput)
	}
	if review.Rating < 0 || review.Rating > 10 {
		return "", fmt.Errorf("%w: rating %v out of range [0, 10]", userdata.ErrInvalidInput, review.Rating)
	}

	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, movie_id, user, rating, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			rating = excluded.rating,
			body = excluded.body
	`, review.ID, review.MovieID, review.User, review.Rating, review.Text, review.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("sqlite: add review: %w", err)
	}
	return review.ID, nil
}

// ReviewsForMovie returns all reviews of a movie, newest first.
func (s *Store) ReviewsForMovie(ctx context.Context, movieID int) ([]types.Review, error) {
	return s.queryReviews(ctx,
		"SELECT id, movie_id, user, rating, body, created_at FROM reviews WHERE movie_id = ? ORDER BY created_at DESC, id",
		movieID,
	)
}

// ReviewsByUser returns all reviews written by the user, newest first.
func (s *Store) ReviewsByUser(ctx context.Context, user string) ([]types.Review, error) {
	return s.queryReviews(ctx,
		"SELECT id, movie_id, user, rating, body, created_at FROM reviews WHERE user = ? ORDER BY created_at DESC, id",
		user,
	)
}

// DeleteReview removes a review by id.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: review id is required", userdata.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("sqlite: delete review: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete review: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: review %q", types.ErrNotFound, id)
	}
	return nil
}

func (s *Store) queryReviews(ctx context.Context, query string, args ...any) ([]types.Review, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []types.Review
	for rows.Next() {
		var r types.Review
		if err := rows.Scan(&r.ID, &r.MovieID, &r.User, &r.Rating, &r.Text, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: list reviews scan: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list reviews rows: %w", err)
	}
	return reviews, nil
}

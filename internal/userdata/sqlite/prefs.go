package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/filmbuff/marquee/internal/userdata"
	"github.com/filmbuff/marquee/pkg/types"
)

// SetPreferences stores the user's preferences as a JSON blob (upsert semantics).
func (s *Store) SetPreferences(ctx context.Context, user string, prefs types.Preferences) error {
	if user == "" {
		return fmt.Errorf("%w: user is required", userdata.ErrInvalidInput)
	}

	blob, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO preferences (user, prefs, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user) DO UPDATE SET
			prefs = excluded.prefs,
			updated_at = excluded.updated_at
	`, user, string(blob), time.Now())
	if err != nil {
		return fmt.Errorf("sqlite: set preferences: %w", err)
	}
	return nil
}

// GetPreferences returns the user's preferences, or the zero value when none
// are stored.
func (s *Store) GetPreferences(ctx context.Context, user string) (types.Preferences, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		"SELECT prefs FROM preferences WHERE user = ?",
		user,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return types.Preferences{}, nil
	}
	if err != nil {
		return types.Preferences{}, fmt.Errorf("sqlite: get preferences: %w", err)
	}

	var prefs types.Preferences
	if err := json.Unmarshal([]byte(blob), &prefs); err != nil {
		return types.Preferences{}, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	return prefs, nil
}

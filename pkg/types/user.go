package types

import "time"

// Session names the acting user for a sequence of calls. It replaces any
// notion of process-wide "current user" state: callers construct one and
// pass it explicitly. There is no authentication behind it.
type Session struct {
	User  string      `json:"user"`
	Prefs Preferences `json:"preferences"`
}

// NewSession returns a session for the named user, falling back to
// DefaultUser when the name is blank.
func NewSession(user string) Session {
	if user == "" {
		user = DefaultUser
	}
	return Session{User: user}
}

// DefaultUser is the user name assumed when none is given.
const DefaultUser = "default"

// Preferences holds a user's stored taste profile. All fields are optional;
// recommendation scoring also derives taste from the user's rating history,
// so an empty Preferences is valid.
type Preferences struct {
	FavoriteGenres    []string `json:"favorite_genres,omitempty"`
	FavoriteDirectors []string `json:"favorite_directors,omitempty"`
	FavoriteActors    []string `json:"favorite_actors,omitempty"`
	MinRating         float64  `json:"min_rating,omitempty"` // Hide results rated below this
}

// Review is a user-authored review of a movie, stored alongside an optional
// numeric rating snapshot taken at review time.
type Review struct {
	ID        string    `json:"id"` // UUID assigned by the store
	MovieID   int       `json:"movie_id"`
	User      string    `json:"user"`
	Rating    float64   `json:"rating,omitempty"` // 0-10, 0 when the reviewer left no rating
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

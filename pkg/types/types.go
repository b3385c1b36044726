// Package types defines the core data structures for the Marquee movie
// toolkit. These types represent catalog records, recommendation output,
// search filters, and per-user data shared across packages.
package types

import "strings"

// Movie is a single catalog record. Movies are immutable once loaded;
// the catalog owns them exclusively and derived data (signatures, feature
// vectors) is regenerated whenever the catalog is replaced.
type Movie struct {
	// Core identification fields
	ID    int    `json:"id"`    // Unique, stable dataset identifier
	Title string `json:"title"` // Display title

	// Metadata driving feature extraction
	Genres   []string `json:"genres,omitempty"`   // Genre names
	Director string   `json:"director,omitempty"` // Primary credited director
	Cast     []string `json:"cast,omitempty"`     // Ordered billing; first entries are top-billed
	Keywords []string `json:"keywords,omitempty"` // Plot/theme keywords

	// Release and reception
	ReleaseYear int     `json:"release_year,omitempty"` // Four-digit year, 0 when unknown
	Rating      float64 `json:"rating,omitempty"`       // Average rating, 0-10 scale
	VoteCount   int     `json:"vote_count,omitempty"`   // Number of ratings behind Rating
	Popularity  float64 `json:"popularity,omitempty"`   // Dataset popularity score
	Overview    string  `json:"overview,omitempty"`     // Short synopsis
}

// GenreList returns the genres joined for display.
func (m Movie) GenreList() string {
	return strings.Join(m.Genres, ", ")
}

// Summary projects the movie into its display form with the given
// recommendation score attached.
func (m Movie) Summary(score float64) MovieSummary {
	return MovieSummary{
		MovieID: m.ID,
		Title:   m.Title,
		Genre:   m.GenreList(),
		Year:    m.ReleaseYear,
		Rating:  m.Rating,
		Score:   score,
	}
}

// MovieSummary is the projection returned by recommendation and search
// operations: enough to render a result row without the full record.
type MovieSummary struct {
	MovieID int     `json:"movie_id"`
	Title   string  `json:"title"`
	Genre   string  `json:"genre,omitempty"`
	Year    int     `json:"year,omitempty"`
	Rating  float64 `json:"rating,omitempty"`
	Score   float64 `json:"score"`
}

// SearchFilter narrows catalog searches. Zero-valued fields are ignored;
// all set fields must match (conjunctive).
type SearchFilter struct {
	Query     string   `json:"query,omitempty"`      // Title text, matched by scored prefix/substring
	Genres    []string `json:"genres,omitempty"`     // Any-of genre match, case-insensitive
	YearFrom  int      `json:"year_from,omitempty"`  // Inclusive lower bound on release year
	YearTo    int      `json:"year_to,omitempty"`    // Inclusive upper bound on release year
	MinRating float64  `json:"min_rating,omitempty"` // Minimum average rating
	Director  string   `json:"director,omitempty"`   // Exact director, case-insensitive
	Actor     string   `json:"actor,omitempty"`      // Cast member containment, case-insensitive
}

// Empty reports whether no filter criteria are set.
func (f SearchFilter) Empty() bool {
	return f.Query == "" && len(f.Genres) == 0 && f.YearFrom == 0 && f.YearTo == 0 &&
		f.MinRating == 0 && f.Director == "" && f.Actor == ""
}

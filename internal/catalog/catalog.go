// Package catalog loads the movie dataset and serves lookups, filtered
// search, and popularity rankings over an immutable in-memory snapshot.
//
// A Catalog never changes after New returns. Reloading a dataset means
// building a fresh Catalog and swapping the handle; holders of the old one
// keep a consistent view.
package catalog

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/filmbuff/marquee/pkg/types"
)

// Catalog is an immutable snapshot of the movie dataset.
type Catalog struct {
	movies  []types.Movie
	byID    map[int]int
	byTitle map[string][]int // lowercased title -> indexes into movies
}

// New builds a catalog from loaded movies. Duplicate ids keep the first
// occurrence; later duplicates are skipped with a warning.
func New(movies []types.Movie) *Catalog {
	c := &Catalog{
		movies:  make([]types.Movie, 0, len(movies)),
		byID:    make(map[int]int, len(movies)),
		byTitle: make(map[string][]int, len(movies)),
	}
	for _, m := range movies {
		if _, dup := c.byID[m.ID]; dup {
			log.Printf("Warning: duplicate movie id %d (%q), keeping first occurrence", m.ID, m.Title)
			continue
		}
		i := len(c.movies)
		c.movies = append(c.movies, m)
		c.byID[m.ID] = i
		key := strings.ToLower(m.Title)
		c.byTitle[key] = append(c.byTitle[key], i)
	}
	return c
}

// Load reads the dataset at path and builds a catalog from it.
func Load(path string) (*Catalog, error) {
	movies, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(movies), nil
}

// Len returns the number of movies in the snapshot.
func (c *Catalog) Len() int {
	return len(c.movies)
}

// Movies returns the full snapshot in load order. The slice is shared;
// callers must not modify it.
func (c *Catalog) Movies() []types.Movie {
	return c.movies
}

// ByID returns the movie with the given id.
func (c *Catalog) ByID(id int) (types.Movie, error) {
	i, ok := c.byID[id]
	if !ok {
		return types.Movie{}, fmt.Errorf("catalog: movie %d: %w", id, types.ErrNotFound)
	}
	return c.movies[i], nil
}

// ByTitle resolves a title to a single movie using case-insensitive exact
// matching. Zero matches yield ErrNotFound; more than one yields an
// AmbiguousTitleError carrying every candidate.
func (c *Catalog) ByTitle(title string) (types.Movie, error) {
	indexes := c.byTitle[strings.ToLower(strings.TrimSpace(title))]
	switch len(indexes) {
	case 0:
		return types.Movie{}, fmt.Errorf("catalog: title %q: %w", title, types.ErrNotFound)
	case 1:
		return c.movies[indexes[0]], nil
	}

	candidates := make([]types.MovieSummary, 0, len(indexes))
	for _, i := range indexes {
		candidates = append(candidates, c.movies[i].Summary(0))
	}
	return types.Movie{}, &types.AmbiguousTitleError{Title: title, Candidates: candidates}
}

// Search returns movies matching the filter, best first. With a Query the
// order is title-match quality, then rating, then id; without one it is
// rating, then id. All other filter fields are conjunctive.
func (c *Catalog) Search(filter types.SearchFilter) []types.Movie {
	query := strings.ToLower(strings.TrimSpace(stripYear(filter.Query)))

	type hit struct {
		movie types.Movie
		score int
	}
	var hits []hit
	for _, m := range c.movies {
		score := 0
		if query != "" {
			score = titleScore(strings.ToLower(m.Title), query)
			if score == 0 {
				continue
			}
		}
		if !matchesFilter(m, filter) {
			continue
		}
		hits = append(hits, hit{movie: m, score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if hits[i].movie.Rating != hits[j].movie.Rating {
			return hits[i].movie.Rating > hits[j].movie.Rating
		}
		return hits[i].movie.ID < hits[j].movie.ID
	})

	out := make([]types.Movie, len(hits))
	for i, h := range hits {
		out[i] = h.movie
	}
	return out
}

// titleScore grades how well a title matches the query: exact, prefix,
// word-prefix, substring, or no match.
func titleScore(title, query string) int {
	switch {
	case title == query:
		return 100
	case strings.HasPrefix(title, query):
		return 80
	case strings.Contains(title, " "+query):
		return 60
	case strings.Contains(title, query):
		return 40
	}
	return 0
}

func matchesFilter(m types.Movie, f types.SearchFilter) bool {
	if len(f.Genres) > 0 && !hasAnyGenre(m, f.Genres) {
		return false
	}
	if f.YearFrom != 0 && m.ReleaseYear < f.YearFrom {
		return false
	}
	if f.YearTo != 0 && (m.ReleaseYear > f.YearTo || m.ReleaseYear == 0) {
		return false
	}
	if f.MinRating != 0 && m.Rating < f.MinRating {
		return false
	}
	if f.Director != "" && !strings.EqualFold(strings.TrimSpace(f.Director), m.Director) {
		return false
	}
	if f.Actor != "" && !hasActor(m, f.Actor) {
		return false
	}
	return true
}

func hasAnyGenre(m types.Movie, genres []string) bool {
	for _, want := range genres {
		for _, g := range m.Genres {
			if strings.EqualFold(strings.TrimSpace(want), g) {
				return true
			}
		}
	}
	return false
}

func hasActor(m types.Movie, actor string) bool {
	actor = strings.ToLower(strings.TrimSpace(actor))
	for _, a := range m.Cast {
		if strings.Contains(strings.ToLower(a), actor) {
			return true
		}
	}
	return false
}

// stripYear drops a trailing "(1999)" style year qualifier from a query so
// that titles copied from year-suffixed listings still match.
func stripYear(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ")") {
		if i := strings.LastIndex(s, " ("); i > 0 && len(s)-i == 7 {
			if _, err := strconv.Atoi(s[i+2 : len(s)-1]); err == nil {
				return s[:i]
			}
		}
	}
	return s
}

// Popular returns the n most popular movies by the dataset popularity
// score, ties broken by ascending id. n <= 0 yields an empty slice.
func (c *Catalog) Popular(n int) []types.Movie {
	if n <= 0 {
		return nil
	}
	ranked := make([]types.Movie, len(c.movies))
	copy(ranked, c.movies)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Popularity != ranked[j].Popularity {
			return ranked[i].Popularity > ranked[j].Popularity
		}
		return ranked[i].ID < ranked[j].ID
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Trending returns the n best movies under an IMDB-style weighted rating
// WR = v/(v+m)*R + m/(v+m)*C, where m is the 90th-percentile vote count
// and C the catalog mean rating. The weighting discounts high ratings
// backed by few votes.
func (c *Catalog) Trending(n int) []types.Movie {
	if n <= 0 || len(c.movies) == 0 {
		return nil
	}

	var ratingSum float64
	counts := make([]int, 0, len(c.movies))
	rated := 0
	for _, m := range c.movies {
		if m.VoteCount > 0 {
			ratingSum += m.Rating
			rated++
		}
		counts = append(counts, m.VoteCount)
	}
	meanRating := 0.0
	if rated > 0 {
		meanRating = ratingSum / float64(rated)
	}
	minVotes := percentile(counts, 0.90)

	weighted := func(m types.Movie) float64 {
		v := float64(m.VoteCount)
		if v+minVotes == 0 {
			return 0
		}
		return v/(v+minVotes)*m.Rating + minVotes/(v+minVotes)*meanRating
	}

	type scored struct {
		movie types.Movie
		wr    float64
	}
	ranked := make([]scored, 0, len(c.movies))
	for _, m := range c.movies {
		ranked = append(ranked, scored{movie: m, wr: weighted(m)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].wr != ranked[j].wr {
			return ranked[i].wr > ranked[j].wr
		}
		return ranked[i].movie.ID < ranked[j].movie.ID
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]types.Movie, n)
	for i := range out {
		out[i] = ranked[i].movie
	}
	return out
}

// percentile returns the value at quantile q of the samples (nearest rank).
func percentile(samples []int, q float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]int, len(samples))
	copy(sorted, samples)
	sort.Ints(sorted)
	rank := int(math.Ceil(q*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return float64(sorted[rank])
}

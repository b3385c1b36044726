package recommend

import (
	"sort"

	"github.com/filmbuff/marquee/pkg/types"
)

// likedRatingFloor is the user rating from which a movie counts as liked
// when deriving taste from rating history.
const likedRatingFloor = 7.0

// tasteProfile aggregates the genres, directors, and actors a user
// responds to, merged from stored preferences and highly rated movies.
// Keys are normalized tokens so casing and spacing don't split entries.
type tasteProfile struct {
	genres    map[string]struct{}
	directors map[string]struct{}
	actors    map[string]struct{}
}

func buildProfile(prefs types.Preferences, liked []types.Movie, topCast int) tasteProfile {
	p := tasteProfile{
		genres:    make(map[string]struct{}),
		directors: make(map[string]struct{}),
		actors:    make(map[string]struct{}),
	}
	add := func(set map[string]struct{}, raw string) {
		if t := normalizeToken(raw); t != "" {
			set[t] = struct{}{}
		}
	}

	for _, g := range prefs.FavoriteGenres {
		add(p.genres, g)
	}
	for _, d := range prefs.FavoriteDirectors {
		add(p.directors, d)
	}
	for _, a := range prefs.FavoriteActors {
		add(p.actors, a)
	}

	for _, m := range liked {
		for _, g := range m.Genres {
			add(p.genres, g)
		}
		add(p.directors, m.Director)
		cast := m.Cast
		if len(cast) > topCast {
			cast = cast[:topCast]
		}
		for _, a := range cast {
			add(p.actors, a)
		}
	}
	return p
}

// profileScore grades a movie against a taste profile: 2 per matching
// genre, 3 for a matching director, 1.5 per matching top-billed actor,
// plus the normalized average rating once enough votes back it.
func profileScore(m types.Movie, p tasteProfile, cfg Config) float64 {
	var score float64
	for _, g := range m.Genres {
		if _, ok := p.genres[normalizeToken(g)]; ok {
			score += 2
		}
	}
	if t := normalizeToken(m.Director); t != "" {
		if _, ok := p.directors[t]; ok {
			score += 3
		}
	}
	cast := m.Cast
	if len(cast) > cfg.TopCast {
		cast = cast[:cfg.TopCast]
	}
	for _, a := range cast {
		if _, ok := p.actors[normalizeToken(a)]; ok {
			score += 1.5
		}
	}
	if m.VoteCount >= cfg.MinVoteCount {
		score += m.Rating / 10
	}
	return score
}

// ForUser ranks the catalog against a user's taste, derived from stored
// preferences plus the movies they rated at or above the liked floor.
// Already-rated movies are excluded; when fewer than n movies score above
// zero, the result is padded with popular titles. Results order by score
// descending, ties by ascending id.
func (e *Engine) ForUser(prefs types.Preferences, ratings map[int]float64, n int) ([]types.MovieSummary, error) {
	cat, _, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []types.MovieSummary{}, nil
	}

	var liked []types.Movie
	for id, r := range ratings {
		if r < likedRatingFloor {
			continue
		}
		if m, err := cat.ByID(id); err == nil {
			liked = append(liked, m)
		}
	}
	profile := buildProfile(prefs, liked, e.cfg.TopCast)

	type scored struct {
		movie types.Movie
		score float64
	}
	var candidates []scored
	for _, m := range cat.Movies() {
		if _, rated := ratings[m.ID]; rated {
			continue
		}
		if prefs.MinRating > 0 && m.Rating < prefs.MinRating {
			continue
		}
		if s := profileScore(m, profile, e.cfg); s > 0 {
			candidates = append(candidates, scored{movie: m, score: s})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].movie.ID < candidates[j].movie.ID
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]types.MovieSummary, 0, n)
	taken := make(map[int]struct{}, n)
	for _, c := range candidates {
		out = append(out, c.movie.Summary(c.score))
		taken[c.movie.ID] = struct{}{}
	}

	// Pad with popular titles the user hasn't rated yet.
	if len(out) < n {
		for _, m := range cat.Popular(cat.Len()) {
			if len(out) >= n {
				break
			}
			if _, ok := taken[m.ID]; ok {
				continue
			}
			if _, rated := ratings[m.ID]; rated {
				continue
			}
			if prefs.MinRating > 0 && m.Rating < prefs.MinRating {
				continue
			}
			out = append(out, m.Summary(0))
			taken[m.ID] = struct{}{}
		}
	}
	return out, nil
}

package recommend

import (
	"sort"

	"github.com/filmbuff/marquee/pkg/types"
)

// ForWatchlist recommends movies against the centroid of the watchlist
// members' feature vectors, then greedily re-ranks a candidate pool to
// trade a little relevance for genre diversity. Watchlist members never
// appear in the result; an empty (or fully unindexed) watchlist falls back
// to the popular ranking.
func (e *Engine) ForWatchlist(watchlist []int, n int) ([]types.MovieSummary, error) {
	cat, ix, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []types.MovieSummary{}, nil
	}

	members := make(map[int]struct{}, len(watchlist))
	var memberVectors []Vector
	for _, id := range watchlist {
		members[id] = struct{}{}
		if v, err := ix.Vector(id); err == nil {
			memberVectors = append(memberVectors, v)
		}
	}

	if len(memberVectors) == 0 {
		out := make([]types.MovieSummary, 0, n)
		for _, m := range cat.Popular(n + len(members)) {
			if len(out) >= n {
				break
			}
			if _, onList := members[m.ID]; onList {
				continue
			}
			out = append(out, m.Summary(0))
		}
		return out, nil
	}

	centroid := meanVector(memberVectors)

	candidates := make([]scoredMovie, 0, cat.Len())
	for _, m := range cat.Movies() {
		if _, onList := members[m.ID]; onList {
			continue
		}
		v, err := ix.Vector(m.ID)
		if err != nil {
			continue
		}
		candidates = append(candidates, scoredMovie{movie: m, score: Cosine(centroid, v)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].movie.ID < candidates[j].movie.ID
	})

	// Re-rank within a pool a few times larger than the result so diversity
	// has room to work without dragging in irrelevant titles.
	pool := candidates
	if len(pool) > 3*n {
		pool = pool[:3*n]
	}
	selected := diversify(pool, e.cfg.DiversityLambda, n)

	out := make([]types.MovieSummary, 0, len(selected))
	for _, c := range selected {
		out = append(out, c.movie.Summary(c.score))
	}
	return out, nil
}

type scoredMovie struct {
	movie types.Movie
	score float64
}

// diversify greedily picks n movies from the pool, each step taking the
// candidate maximizing lambda*score - (1-lambda)*maxGenreOverlap against
// the already selected set. The pool must arrive sorted best-first; ties
// keep the earlier (lower id) candidate.
func diversify(pool []scoredMovie, lambda float64, n int) []scoredMovie {
	if n > len(pool) {
		n = len(pool)
	}
	selected := make([]scoredMovie, 0, n)
	used := make([]bool, len(pool))

	for len(selected) < n {
		best := -1
		var bestVal float64
		for i, c := range pool {
			if used[i] {
				continue
			}
			var penalty float64
			for _, s := range selected {
				if o := genreJaccard(c.movie, s.movie); o > penalty {
					penalty = o
				}
			}
			val := lambda*c.score - (1-lambda)*penalty
			if best == -1 || val > bestVal {
				best, bestVal = i, val
			}
		}
		used[best] = true
		selected = append(selected, pool[best])
	}
	return selected
}

// genreJaccard measures genre-set overlap between two movies in [0,1].
func genreJaccard(a, b types.Movie) float64 {
	if len(a.Genres) == 0 || len(b.Genres) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a.Genres))
	for _, g := range a.Genres {
		if t := normalizeToken(g); t != "" {
			set[t] = struct{}{}
		}
	}
	intersection := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b.Genres))
	for _, g := range b.Genres {
		t := normalizeToken(g)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

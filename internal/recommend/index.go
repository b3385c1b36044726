package recommend

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/filmbuff/marquee/pkg/types"
)

// Match is one similarity result: a movie id and its cosine score against
// the query movie.
type Match struct {
	MovieID int     `json:"movie_id"`
	Score   float64 `json:"score"`
}

// Index answers similarity queries over one catalog snapshot. It holds one
// feature vector per movie and is never mutated after BuildIndex; replacing
// the catalog means building a new Index.
type Index struct {
	vocab   *Vocabulary
	vectors []Vector
	ids     []int       // row -> movie id, in catalog order
	rows    map[int]int // movie id -> row
}

// BuildIndex extracts signatures for every movie and fits the vectorizer
// over the whole corpus. The result is deterministic for a given movie
// slice and configuration.
func BuildIndex(movies []types.Movie, cfg Config) *Index {
	extractor := NewExtractor(cfg)

	signatures := make([]string, len(movies))
	for i, m := range movies {
		signatures[i] = extractor.Signature(m)
	}
	vocab, vectors := Fit(signatures)

	ix := &Index{
		vocab:   vocab,
		vectors: vectors,
		ids:     make([]int, len(movies)),
		rows:    make(map[int]int, len(movies)),
	}
	for i, m := range movies {
		ix.ids[i] = m.ID
		ix.rows[m.ID] = i
	}
	return ix
}

// Len returns the number of indexed movies.
func (ix *Index) Len() int {
	return len(ix.ids)
}

// Terms returns the vocabulary size.
func (ix *Index) Terms() int {
	return ix.vocab.Len()
}

// Vector returns the feature vector for a movie id.
func (ix *Index) Vector(movieID int) (Vector, error) {
	row, ok := ix.rows[movieID]
	if !ok {
		return Vector{}, fmt.Errorf("recommend: movie %d not indexed: %w", movieID, types.ErrNotFound)
	}
	return ix.vectors[row], nil
}

// Similarity returns the cosine similarity between two indexed movies.
// The result is symmetric and lies in [0,1]; it is 0 whenever either movie
// has an empty signature.
func (ix *Index) Similarity(a, b int) (float64, error) {
	va, err := ix.Vector(a)
	if err != nil {
		return 0, err
	}
	vb, err := ix.Vector(b)
	if err != nil {
		return 0, err
	}
	return Cosine(va, vb), nil
}

// TopK returns up to k movies most similar to the query movie, excluding
// the query itself, ordered by descending score with ties broken by
// ascending movie id. k <= 0 yields an empty result; an unknown movie id
// fails with ErrNotFound.
func (ix *Index) TopK(movieID, k int) ([]Match, error) {
	queryRow, ok := ix.rows[movieID]
	if !ok {
		return nil, fmt.Errorf("recommend: movie %d not indexed: %w", movieID, types.ErrNotFound)
	}
	if k <= 0 {
		return []Match{}, nil
	}

	query := ix.vectors[queryRow]
	h := make(matchHeap, 0, k+1)
	for row, v := range ix.vectors {
		if row == queryRow {
			continue
		}
		m := Match{MovieID: ix.ids[row], Score: Cosine(query, v)}
		if len(h) < k {
			heap.Push(&h, m)
			continue
		}
		if h.worseThan(m) {
			h[0] = m
			heap.Fix(&h, 0)
		}
	}

	matches := []Match(h)
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].MovieID < matches[j].MovieID
	})
	return matches, nil
}

// matchHeap is a bounded min-heap keeping the current k best matches; the
// root is the weakest match, the first to be displaced.
type matchHeap []Match

func (h matchHeap) Len() int { return len(h) }

// Less orders by "worse first": lower score, then higher movie id, so the
// root loses ties against an equal-scored lower id.
func (h matchHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].MovieID > h[j].MovieID
}

func (h matchHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *matchHeap) Push(x any) {
	*h = append(*h, x.(Match))
}

func (h *matchHeap) Pop() any {
	old := *h
	n := len(old)
	m := old[n-1]
	*h = old[:n-1]
	return m
}

// worseThan reports whether the heap root is a worse match than m, meaning
// m should displace it.
func (h matchHeap) worseThan(m Match) bool {
	if h[0].Score != m.Score {
		return h[0].Score < m.Score
	}
	return h[0].MovieID > m.MovieID
}

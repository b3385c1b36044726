package recommend

import (
	"math"
	"sort"
	"strings"
)

// Vocabulary maps signature terms to vector dimensions. Terms are numbered
// in first-seen corpus order, which makes the mapping deterministic for a
// given corpus.
type Vocabulary struct {
	terms []string
	index map[string]int
}

// Len returns the number of distinct terms.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// Term returns the term at dimension i.
func (v *Vocabulary) Term(i int) string {
	return v.terms[i]
}

// Index returns the dimension of a term, if known.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

func (v *Vocabulary) add(term string) int {
	if i, ok := v.index[term]; ok {
		return i
	}
	i := len(v.terms)
	v.terms = append(v.terms, term)
	v.index[term] = i
	return i
}

// Vector is a sparse term-frequency vector: dimension/weight pairs sorted
// by dimension, with the Euclidean norm precomputed. Vectors are derived
// data and never mutated after Fit.
type Vector struct {
	terms []termWeight
	norm  float64
}

type termWeight struct {
	term   int
	weight float64
}

// Norm returns the Euclidean norm. A zero norm means an empty signature.
func (v Vector) Norm() float64 {
	return v.norm
}

// IsZero reports whether the vector has no terms.
func (v Vector) IsZero() bool {
	return len(v.terms) == 0
}

// Dot computes the dot product of two sparse vectors by merging their
// sorted term lists.
func (v Vector) Dot(other Vector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(v.terms) && j < len(other.terms) {
		a, b := v.terms[i], other.terms[j]
		switch {
		case a.term < b.term:
			i++
		case a.term > b.term:
			j++
		default:
			dot += a.weight * b.weight
			i++
			j++
		}
	}
	return dot
}

// Cosine returns the cosine similarity between two vectors, in [0,1] for
// the non-negative weights produced here. Either vector having zero norm
// yields 0; there is no self-similarity special case.
func Cosine(a, b Vector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	return a.Dot(b) / (a.norm * b.norm)
}

// Fit builds the vocabulary and one term-frequency vector per signature.
// The same corpus always produces the same vocabulary ordering and the
// same vectors. Empty signatures become zero vectors.
func Fit(signatures []string) (*Vocabulary, []Vector) {
	vocab := &Vocabulary{index: make(map[string]int)}
	vectors := make([]Vector, len(signatures))

	for i, sig := range signatures {
		counts := make(map[int]float64)
		for _, term := range strings.Fields(sig) {
			counts[vocab.add(term)]++
		}
		vectors[i] = vectorFromCounts(counts)
	}
	return vocab, vectors
}

func vectorFromCounts(counts map[int]float64) Vector {
	if len(counts) == 0 {
		return Vector{}
	}
	dims := make([]int, 0, len(counts))
	for dim := range counts {
		dims = append(dims, dim)
	}
	sort.Ints(dims)

	terms := make([]termWeight, len(dims))
	var sumSquares float64
	for i, dim := range dims {
		w := counts[dim]
		terms[i] = termWeight{term: dim, weight: w}
		sumSquares += w * w
	}
	return Vector{terms: terms, norm: math.Sqrt(sumSquares)}
}

// meanVector averages a set of vectors, used to build a taste centroid
// from watchlist members. Zero-norm inputs contribute nothing.
func meanVector(vectors []Vector) Vector {
	counts := make(map[int]float64)
	n := 0
	for _, v := range vectors {
		if v.IsZero() {
			continue
		}
		n++
		for _, tw := range v.terms {
			counts[tw.term] += tw.weight
		}
	}
	if n == 0 {
		return Vector{}
	}
	for dim := range counts {
		counts[dim] /= float64(n)
	}
	return vectorFromCounts(counts)
}

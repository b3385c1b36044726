package recommend

import (
	"strings"

	"github.com/filmbuff/marquee/pkg/types"
)

// Extractor derives a movie's signature: the normalized token string that
// feeds vectorization. Extraction is pure and order-stable, so the same
// movie always yields the same signature.
type Extractor struct {
	cfg Config
}

// NewExtractor creates an extractor with the given weighting.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Signature builds the weighted token string for a movie. Each metadata
// kind contributes prefixed tokens repeated by its weight; missing fields
// contribute nothing and never fail.
func (e *Extractor) Signature(m types.Movie) string {
	var tokens []string

	appendWeighted := func(token string, weight int) {
		for i := 0; i < weight; i++ {
			tokens = append(tokens, token)
		}
	}

	for _, g := range m.Genres {
		if t := normalizeToken(g); t != "" {
			appendWeighted("genre_"+t, e.cfg.GenreWeight)
		}
	}
	for _, k := range m.Keywords {
		if t := normalizeToken(k); t != "" {
			appendWeighted("kw_"+t, e.cfg.KeywordWeight)
		}
	}
	cast := m.Cast
	if len(cast) > e.cfg.TopCast {
		cast = cast[:e.cfg.TopCast]
	}
	for _, a := range cast {
		if t := normalizeToken(a); t != "" {
			appendWeighted("actor_"+t, e.cfg.ActorWeight)
		}
	}
	if t := normalizeToken(m.Director); t != "" {
		appendWeighted("director_"+t, e.cfg.DirectorWeight)
	}

	return strings.Join(tokens, " ")
}

// normalizeToken lowercases a raw metadata value and joins its words with
// underscores, so "Ridley Scott" and "ridley  scott" produce one term.
func normalizeToken(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return ""
	}
	return strings.Join(fields, "_")
}

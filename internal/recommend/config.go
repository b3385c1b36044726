package recommend

import "fmt"

// Config tunes feature extraction and ranking. Use DefaultConfig for the
// standard weighting.
type Config struct {
	// Signature weights: how many times each token kind repeats in a
	// movie's signature. Higher weight means more influence on similarity.
	GenreWeight    int
	KeywordWeight  int
	ActorWeight    int
	DirectorWeight int

	// TopCast caps how many cast members (in billing order) contribute.
	TopCast int

	// DiversityLambda balances relevance against genre diversity when
	// re-ranking watchlist recommendations. 1 = pure relevance.
	DiversityLambda float64

	// MinVoteCount gates the rating boost in personalized scoring: a
	// movie's average rating only counts once this many votes back it.
	MinVoteCount int
}

// DefaultConfig returns the standard recommendation configuration.
func DefaultConfig() Config {
	return Config{
		GenreWeight:     3,
		KeywordWeight:   1,
		ActorWeight:     2,
		DirectorWeight:  3,
		TopCast:         3,
		DiversityLambda: 0.7,
		MinVoteCount:    50,
	}
}

// Validate checks configuration values.
func (c Config) Validate() error {
	if c.GenreWeight < 0 || c.KeywordWeight < 0 || c.ActorWeight < 0 || c.DirectorWeight < 0 {
		return fmt.Errorf("signature weights must not be negative")
	}
	if c.TopCast < 0 {
		return fmt.Errorf("top cast count must not be negative, got %d", c.TopCast)
	}
	if c.DiversityLambda < 0 || c.DiversityLambda > 1 {
		return fmt.Errorf("diversity lambda must be within [0,1], got %g", c.DiversityLambda)
	}
	if c.MinVoteCount < 0 {
		return fmt.Errorf("min vote count must not be negative, got %d", c.MinVoteCount)
	}
	return nil
}

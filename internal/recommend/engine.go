// Package recommend implements the similarity pipeline: weighted signature
// extraction, term-frequency vectorization, cosine ranking, and the
// recommendation facade the rest of the toolkit queries.
//
// The pipeline is stateless per call once an index is built. The only
// lifecycle state is "index built" versus "not yet built"; it transitions
// at Start and on explicit catalog reloads.
package recommend

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/filmbuff/marquee/internal/catalog"
	"github.com/filmbuff/marquee/pkg/types"
)

// ErrIndexNotReady is returned for queries before Start or after Shutdown.
var ErrIndexNotReady = errors.New("recommendation index not ready")

// Engine is the recommendation facade. It owns the similarity index for
// the current catalog snapshot and answers title- and id-based queries.
//
// Reload follows a copy-on-rebuild discipline: the new index is built
// completely aside and swapped in under the write lock, so in-flight
// queries keep a consistent snapshot and readers never observe a
// partially built index.
type Engine struct {
	cfg Config

	mu      sync.RWMutex
	started bool
	catalog *catalog.Catalog
	index   *Index
}

// NewEngine creates an engine over the given catalog. The index is not
// built until Start.
func NewEngine(cat *catalog.Catalog, cfg Config) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("recommend: catalog is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("recommend: invalid config: %w", err)
	}
	return &Engine{cfg: cfg, catalog: cat}, nil
}

// Start builds the similarity index. It must be called before any query.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return fmt.Errorf("recommend: engine already started")
	}

	log.Println("Building similarity index...")
	e.index = BuildIndex(e.catalog.Movies(), e.cfg)
	e.started = true
	log.Printf("Similarity index ready: %d movies, %d terms", e.index.Len(), e.index.Terms())

	return nil
}

// Shutdown releases the index. Queries fail with ErrIndexNotReady until a
// new Start.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return fmt.Errorf("recommend: engine not started")
	}
	e.index = nil
	e.started = false
	return nil
}

// Reload swaps in a new catalog snapshot. The replacement index is built
// before the lock is taken; queries racing the reload answer from the old
// snapshot until the swap completes.
func (e *Engine) Reload(cat *catalog.Catalog) error {
	if cat == nil {
		return fmt.Errorf("recommend: catalog is required")
	}

	e.mu.RLock()
	started := e.started
	e.mu.RUnlock()
	if !started {
		return fmt.Errorf("recommend: engine not started: %w", ErrIndexNotReady)
	}

	index := BuildIndex(cat.Movies(), e.cfg)

	e.mu.Lock()
	if !e.started {
		// Shutdown won the race while the replacement was being built.
		e.mu.Unlock()
		return fmt.Errorf("recommend: engine not started: %w", ErrIndexNotReady)
	}
	e.catalog = cat
	e.index = index
	e.mu.Unlock()

	log.Printf("Similarity index reloaded: %d movies, %d terms", index.Len(), index.Terms())
	return nil
}

// Catalog returns the current catalog snapshot.
func (e *Engine) Catalog() *catalog.Catalog {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog
}

// snapshot returns a consistent (catalog, index) pair for one query.
func (e *Engine) snapshot() (*catalog.Catalog, *Index, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.started {
		return nil, nil, ErrIndexNotReady
	}
	return e.catalog, e.index, nil
}

// Recommend resolves a title (case-insensitive exact match) and returns up
// to k movies most similar to it. Zero matches fail with ErrNotFound,
// several exact matches with an AmbiguousTitleError listing the candidates.
func (e *Engine) Recommend(title string, k int) ([]types.MovieSummary, error) {
	cat, ix, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	m, err := cat.ByTitle(title)
	if err != nil {
		return nil, err
	}
	return recommendOn(cat, ix, m.ID, k)
}

// RecommendByID returns up to k movies most similar to the given movie.
func (e *Engine) RecommendByID(movieID, k int) ([]types.MovieSummary, error) {
	cat, ix, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	return recommendOn(cat, ix, movieID, k)
}

// recommendOn ranks and summarizes against a single (catalog, index) pair.
// Both entry points route through here so a query never resolves against
// one snapshot and ranks against another.
func recommendOn(cat *catalog.Catalog, ix *Index, movieID, k int) ([]types.MovieSummary, error) {
	matches, err := ix.TopK(movieID, k)
	if err != nil {
		return nil, err
	}
	return summarize(cat, matches)
}

// summarize maps match ids back to full records for display.
func summarize(cat *catalog.Catalog, matches []Match) ([]types.MovieSummary, error) {
	out := make([]types.MovieSummary, 0, len(matches))
	for _, match := range matches {
		m, err := cat.ByID(match.MovieID)
		if err != nil {
			return nil, fmt.Errorf("recommend: index out of sync with catalog: %w", err)
		}
		out = append(out, m.Summary(match.Score))
	}
	return out, nil
}

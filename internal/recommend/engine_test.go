package recommend

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmbuff/marquee/internal/catalog"
	"github.com/filmbuff/marquee/pkg/types"
)

func startedEngine(t *testing.T, movies []types.Movie) *Engine {
	t.Helper()
	e, err := NewEngine(catalog.New(movies), DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, e.Start())
	return e
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(nil, DefaultConfig())
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.DiversityLambda = 2
	_, err = NewEngine(catalog.New(nil), bad)
	assert.Error(t, err)
}

func TestEngine_LifecycleGuards(t *testing.T) {
	e, err := NewEngine(catalog.New(indexMovies()), DefaultConfig())
	require.NoError(t, err)

	_, err = e.Recommend("A", 3)
	assert.ErrorIs(t, err, ErrIndexNotReady)

	require.NoError(t, e.Start())
	assert.Error(t, e.Start(), "second Start must fail")

	_, err = e.Recommend("A", 3)
	require.NoError(t, err)

	require.NoError(t, e.Shutdown())
	assert.Error(t, e.Shutdown(), "second Shutdown must fail")

	_, err = e.Recommend("A", 3)
	assert.ErrorIs(t, err, ErrIndexNotReady)
}

func TestRecommend_ResolvesTitles(t *testing.T) {
	e := startedEngine(t, indexMovies())

	got, err := e.Recommend("a", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].MovieID, "case-insensitive resolution, then similarity ranking")

	_, err = e.Recommend("Unknown Title", 5)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRecommend_AmbiguousTitle(t *testing.T) {
	e := startedEngine(t, []types.Movie{
		{ID: 1, Title: "Ghost", Genres: []string{"Horror"}},
		{ID: 2, Title: "ghost", Genres: []string{"Romance"}},
		{ID: 3, Title: "Other", Genres: []string{"Horror"}},
	})

	_, err := e.Recommend("GHOST", 2)
	var ambErr *types.AmbiguousTitleError
	require.ErrorAs(t, err, &ambErr)
	assert.Len(t, ambErr.Candidates, 2)
}

func TestRecommend_SummaryProjection(t *testing.T) {
	e := startedEngine(t, []types.Movie{
		{ID: 1, Title: "A", Genres: []string{"Action"}, ReleaseYear: 1999, Rating: 7.5},
		{ID: 2, Title: "B", Genres: []string{"Action", "Crime"}, ReleaseYear: 2001, Rating: 8.1},
	})

	got, err := e.Recommend("A", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, "B", s.Title)
	assert.Equal(t, "Action, Crime", s.Genre)
	assert.Equal(t, 2001, s.Year)
	assert.Equal(t, 8.1, s.Rating)
	assert.Greater(t, s.Score, 0.0)
}

func TestRecommendByID_KEdgeCases(t *testing.T) {
	e := startedEngine(t, indexMovies())

	got, err := e.RecommendByID(1, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.RecommendByID(1, -3)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = e.RecommendByID(999, 3)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestReload_SwapsCatalog(t *testing.T) {
	e := startedEngine(t, indexMovies())

	next := catalog.New([]types.Movie{
		{ID: 10, Title: "New One", Genres: []string{"Western"}},
		{ID: 11, Title: "New Two", Genres: []string{"Western"}},
	})
	require.NoError(t, e.Reload(next))

	_, err := e.Recommend("A", 1)
	assert.ErrorIs(t, err, types.ErrNotFound, "old snapshot is gone")

	got, err := e.Recommend("New One", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 11, got[0].MovieID)
}

func TestReload_RequiresStart(t *testing.T) {
	e, err := NewEngine(catalog.New(indexMovies()), DefaultConfig())
	require.NoError(t, err)
	assert.Error(t, e.Reload(catalog.New(nil)))
}

// TestReload_ConcurrentQueries hammers Recommend while reloads swap the
// index. Every query must answer from a complete snapshot: no errors, no
// partially built index, for a title present in both catalogs.
func TestReload_ConcurrentQueries(t *testing.T) {
	shared := []types.Movie{
		{ID: 1, Title: "Constant", Genres: []string{"Action"}},
		{ID: 2, Title: "Other", Genres: []string{"Action"}},
	}
	e := startedEngine(t, shared)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 1)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := e.Recommend("Constant", 1); err != nil {
					select {
					case errs <- err:
					default:
					}
					return
				}
			}
		}()
	}

	for i := 0; i < 25; i++ {
		movies := append([]types.Movie{}, shared...)
		movies = append(movies, types.Movie{ID: 100 + i, Title: "Filler", Genres: []string{"Drama"}})
		require.NoError(t, e.Reload(catalog.New(movies)))
	}
	close(stop)
	wg.Wait()

	select {
	case err := <-errs:
		t.Fatalf("query failed during reload: %v", err)
	default:
	}
}

// TestReload_TitleKeepsSnapshot covers the harder consistency case: the
// same title exists in both catalogs but under different ids. A query must
// resolve and rank against one snapshot end to end; resolving against one
// catalog and ranking against the other's index would surface as NotFound.
func TestReload_TitleKeepsSnapshot(t *testing.T) {
	makeCatalog := func(offset int) *catalog.Catalog {
		movies := []types.Movie{
			{ID: offset, Title: "Constant", Genres: []string{"Action"}},
		}
		for i := 1; i < 40; i++ {
			movies = append(movies, types.Movie{ID: offset + i, Title: "Filler", Genres: []string{"Action"}})
		}
		return catalog.New(movies)
	}
	first, second := makeCatalog(1), makeCatalog(1000)

	e, err := NewEngine(first, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, e.Start())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 1)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := e.Recommend("Constant", 1); err != nil {
					select {
					case errs <- err:
					default:
					}
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		next := second
		if i%2 == 1 {
			next = first
		}
		require.NoError(t, e.Reload(next))
	}
	close(stop)
	wg.Wait()

	select {
	case err := <-errs:
		t.Fatalf("query failed during reload: %v", err)
	default:
	}
}

// TestShutdown_RacingReload checks that a reload losing the race with
// Shutdown cannot install a fresh index on a stopped engine.
func TestShutdown_RacingReload(t *testing.T) {
	movies := indexMovies()
	next := catalog.New(movies)

	for i := 0; i < 50; i++ {
		e := startedEngine(t, movies)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			// Either outcome is fine; the post-condition below is not.
			_ = e.Reload(next)
		}()
		go func() {
			defer wg.Done()
			_ = e.Shutdown()
		}()
		wg.Wait()

		e.mu.RLock()
		started, index := e.started, e.index
		e.mu.RUnlock()
		if !started && index != nil {
			t.Fatal("stopped engine holds a live index")
		}
	}
}

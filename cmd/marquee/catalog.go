package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/filmbuff/marquee/internal/catalog"
	"github.com/filmbuff/marquee/pkg/types"
)

func newSearchCmd(a *app) *cobra.Command {
	var filter types.SearchFilter
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog by title and filters",
		Example: `  # Title search
  marquee search alien

  # Filtered search, no query
  marquee search --genre Drama --year-from 1990 --year-to 1999 --min-rating 7.5

  # Everything by one director
  marquee search --director "Agnès Varda"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			cat, err := a.openCatalog(cfg)
			if err != nil {
				return err
			}

			filter.Query = strings.Join(args, " ")
			movies := cat.Search(filter)
			if limit > 0 && len(movies) > limit {
				movies = movies[:limit]
			}
			printMovies(os.Stdout, movies)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&filter.Genres, "genre", nil, "Genre to match (repeatable, any-of)")
	cmd.Flags().IntVar(&filter.YearFrom, "year-from", 0, "Earliest release year")
	cmd.Flags().IntVar(&filter.YearTo, "year-to", 0, "Latest release year")
	cmd.Flags().Float64Var(&filter.MinRating, "min-rating", 0, "Minimum average rating (0-10)")
	cmd.Flags().StringVar(&filter.Director, "director", "", "Exact director name")
	cmd.Flags().StringVar(&filter.Actor, "actor", "", "Cast member name")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to print (0 = all)")

	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|title>",
		Short: "Show one movie with your rating, watchlist, and review state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			cat, err := a.openCatalog(cfg)
			if err != nil {
				return err
			}

			m, err := resolveMovie(cat, strings.Join(args, " "))
			if err != nil {
				var ambiguous *types.AmbiguousTitleError
				if errors.As(err, &ambiguous) {
					printAmbiguous(os.Stdout, ambiguous)
					return nil
				}
				return err
			}

			printMovieDetail(os.Stdout, m)

			store, err := a.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			sess := a.session()
			fmt.Printf("\n[%s]\n", sess.User)

			if rating, err := store.Rating(ctx, sess.User, m.ID); err == nil {
				fmt.Printf("Your rating: %.1f\n", rating)
			} else if errors.Is(err, types.ErrNotFound) {
				fmt.Println("Your rating: none")
			} else {
				return err
			}

			onList, err := store.InWatchlist(ctx, sess.User, m.ID)
			if err != nil {
				return err
			}
			marked, err := store.IsBookmarked(ctx, sess.User, m.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Watchlist: %s  Bookmarked: %s\n", yesNo(onList), yesNo(marked))

			reviews, err := store.ReviewsForMovie(ctx, m.ID)
			if err != nil {
				return err
			}
			if len(reviews) > 0 {
				fmt.Printf("\nReviews (%d):\n", len(reviews))
				for _, r := range reviews {
					header := r.User
					if r.Rating > 0 {
						header = fmt.Sprintf("%s (%.1f)", r.User, r.Rating)
					}
					fmt.Printf("  %s, %s: %s\n", header, r.CreatedAt.Format(time.DateOnly), r.Text)
				}
			}
			return nil
		},
	}
}

func newSimilarCmd(a *app) *cobra.Command {
	var movieID, k int

	cmd := &cobra.Command{
		Use:   "similar [title]",
		Short: "Recommend movies similar to one title",
		Example: `  # By title (case-insensitive exact match)
  marquee similar "The Conversation" -k 5

  # By id, when the title is ambiguous
  marquee similar --id 603 -k 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			if movieID <= 0 && title == "" {
				return fmt.Errorf("a title argument or --id is required")
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if k <= 0 {
				k = cfg.Recommend.TopK
			}
			eng, err := a.openEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Shutdown()

			var results []types.MovieSummary
			if movieID > 0 {
				results, err = eng.RecommendByID(movieID, k)
			} else {
				results, err = eng.Recommend(title, k)
			}
			if err != nil {
				var ambiguous *types.AmbiguousTitleError
				if errors.As(err, &ambiguous) {
					printAmbiguous(os.Stdout, ambiguous)
					return nil
				}
				return err
			}

			printSummaries(os.Stdout, results)
			return nil
		},
	}

	cmd.Flags().IntVar(&movieID, "id", 0, "Movie id instead of a title")
	cmd.Flags().IntVarP(&k, "count", "k", 0, "Number of recommendations (default: config top_k)")

	return cmd
}

func newForYouCmd(a *app) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "foryou",
		Short: "Personalized picks from your preferences and rating history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if n <= 0 {
				n = cfg.Recommend.TopK
			}

			store, err := a.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			sess := a.session()
			prefs, err := store.GetPreferences(ctx, sess.User)
			if err != nil {
				return err
			}
			ratings, err := store.Ratings(ctx, sess.User)
			if err != nil {
				return err
			}

			eng, err := a.openEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Shutdown()

			results, err := eng.ForUser(prefs, ratings, n)
			if err != nil {
				return err
			}
			printSummaries(os.Stdout, results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "count", "n", 0, "Number of picks (default: config top_k)")

	return cmd
}

func newPopularCmd(a *app) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "popular",
		Short: "Most popular movies in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if n <= 0 {
				n = cfg.Recommend.TopK
			}
			cat, err := a.openCatalog(cfg)
			if err != nil {
				return err
			}
			printMovies(os.Stdout, cat.Popular(n))
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "count", "n", 0, "Number of rows (default: config top_k)")

	return cmd
}

func newTrendingCmd(a *app) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Recent, well-received movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if n <= 0 {
				n = cfg.Recommend.TopK
			}
			cat, err := a.openCatalog(cfg)
			if err != nil {
				return err
			}
			printMovies(os.Stdout, cat.Trending(n))
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "count", "n", 0, "Number of rows (default: config top_k)")

	return cmd
}

// resolveMovie resolves a numeric id or a title to a catalog record.
func resolveMovie(cat *catalog.Catalog, arg string) (types.Movie, error) {
	if id, err := strconv.Atoi(arg); err == nil {
		return cat.ByID(id)
	}
	return cat.ByTitle(arg)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

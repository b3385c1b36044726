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
	"github.com/filmbuff/marquee/internal/importer"
	"github.com/filmbuff/marquee/internal/userdata"
	"github.com/filmbuff/marquee/pkg/types"
)

// editSession bundles what every user-data command needs: the catalog for
// id/title resolution and the open store. Close releases the store.
type editSession struct {
	cat   *catalog.Catalog
	store userdata.Store
	sess  types.Session
}

func (a *app) openEdit() (*editSession, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	cat, err := a.openCatalog(cfg)
	if err != nil {
		return nil, err
	}
	store, err := a.openStore(cfg)
	if err != nil {
		return nil, err
	}
	return &editSession{cat: cat, store: store, sess: a.session()}, nil
}

func (es *editSession) Close() {
	if err := es.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
	}
}

// resolve maps an id or title argument to a movie, printing candidates on
// an ambiguous title. The bool reports whether a movie was resolved.
func (es *editSession) resolve(arg string) (types.Movie, bool, error) {
	m, err := resolveMovie(es.cat, arg)
	if err != nil {
		var ambiguous *types.AmbiguousTitleError
		if errors.As(err, &ambiguous) {
			printAmbiguous(os.Stdout, ambiguous)
			return types.Movie{}, false, nil
		}
		return types.Movie{}, false, err
	}
	return m, true, nil
}

func newWatchlistCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage your watchlist",
	}
	cmd.AddCommand(
		newWatchlistAddCmd(a),
		newWatchlistRemoveCmd(a),
		newWatchlistListCmd(a),
		newWatchlistRecsCmd(a),
	)
	return cmd
}

func newWatchlistAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id|title>",
		Short: "Add a movie to your watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			es, err := a.openEdit()
			if err != nil {
				return err
			}
			defer es.Close()

			m, ok, err := es.resolve(strings.Join(args, " "))
			if err != nil || !ok {
				return err
			}
			if err := es.store.AddToWatchlist(cmd.Context(), es.sess.User, m.ID); err != nil {
				return err
			}
			fmt.Printf("Added %q (%d) to watchlist\n", m.Title, m.ID)
			return nil
		},
	}
}

func newWatchlistRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id|title>",
		Aliases: []string{"remove"},
		Short:   "Remove a movie from your watchlist",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			es, err := a.openEdit()
			if err != nil {
				return err
			}
			defer es.Close()

			m, ok, err := es.resolve(strings.Join(args, " "))
			if err != nil || !ok {
				return err
			}
			if err := es.store.RemoveFromWatchlist(cmd.Context(), es.sess.User, m.ID); err != nil {
				return err
			}
			fmt.Printf("Removed %q (%d) from watchlist\n", m.Title, m.ID)
			return nil
		},
	}
}

func newWatchlistListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your watchlist",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			es, err := a.openEdit()
			if err != nil {
				return err
			}
			defer es.Close()

			ids, err := es.store.Watchlist(cmd.Context(), es.sess.User)
			if err != nil {
				return err
			}
			printMovies(os.Stdout, moviesForIDs(es.cat, ids))
			return nil
		},
	}
}

func newWatchlistRecsCmd(a *app) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "recs",
		Short: "Recommend movies based on your watchlist",
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

			ids, err := store.Watchlist(cmd.Context(), a.session().User)
			if err != nil {
				return err
			}

			eng, err := a.openEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Shutdown()

			results, err := eng.ForWatchlist(ids, n)
			if err != nil {
				return err
			}
			printSummaries(os.Stdout, results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "count", "n", 0, "Number of recommendations (default: config top_k)")

	return cmd
}

func newBookmarkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmark",
		Short: "Manage your bookmarks",
	}

	add := &cobra.Command{
		Use:   "add <id|title>",
		Short: "Bookmark a movie",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			es, err := a.openEdit()
			if err != nil {
				return err
			}
			defer es.Close()

			m, ok, err := es.resolve(strings.Join(args, " "))
			if err != nil || !ok {
				return err
			}
			if err := es.store.AddBookmark(cmd.Context(), es.sess.User, m.ID); err != nil {
				return err
			}
			fmt.Printf("Bookmarked %q (%d)\n", m.Title, m.ID)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:     "rm <id|title>",
		Aliases: []string{"remove"},
		Short:   "Remove a bookmark",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			es, err := a.openEdit()
			if err != nil {
				return err
			}
			defer es.Close()

			m, ok, err := es.resolve(strings.Join(args, " "))
			if err != nil || !ok {
				return err
			}
			if err := es.store.RemoveBookmark(cmd.Context(), es.sess.User, m.ID); err != nil {
				return err
			}
			fmt.Printf("Removed bookmark for %q (%d)\n", m.Title, m.ID)
			return nil
		},
	}

	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your bookmarks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			es, err := a.openEdit()
			if err != nil {
				return err
			}
			defer es.Close()

			ids, err := es.store.Bookmarks(cmd.Context(), es.sess.User)
			if err != nil {
				return err
			}
			printMovies(os.Stdout, moviesForIDs(es.cat, ids))
			return nil
		},
	}

	cmd.AddCommand(add, rm, ls)
	return cmd
}

func newRateCmd(a *app) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "rate <id|title> <0-10>",
		Short: "Rate a movie, or remove your rating",
		Example: `  marquee rate 603 8.5
  marquee rate "The Matrix" 8.5
  marquee rate 603 --delete`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			es, err := a.openEdit()
			if err != nil {
				return err
			}
			defer es.Close()

			m, ok, err := es.resolve(args[0])
			if err != nil || !ok {
				return err
			}

			if remove {
				if err := es.store.DeleteRating(cmd.Context(), es.sess.User, m.ID); err != nil {
					return err
				}
				fmt.Printf("Removed rating for %q (%d)\n", m.Title, m.ID)
				return nil
			}

			if len(args) < 2 {
				return fmt.Errorf("a rating value is required (0-10)")
			}
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid rating %q: %w", args[1], err)
			}
			if err := es.store.SetRating(cmd.Context(), es.sess.User, m.ID, value); err != nil {
				return err
			}
			fmt.Printf("Rated %q (%d): %.1f\n", m.Title, m.ID, value)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "delete", false, "Remove your rating instead of setting one")

	return cmd
}

func newReviewCmd(a *app) *cobra.Command {
	var text string
	var rating float64
	var deleteID string

	cmd := &cobra.Command{
		Use:   "review [id|title]",
		Short: "Write, list, or delete reviews",
		Example: `  # Write a review (optional rating snapshot)
  marquee review 603 --text "Still holds up." --rating 9

  # List a movie's reviews
  marquee review 603

  # Delete one of your reviews by its id
  marquee review --delete 1f0c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			es, err := a.openEdit()
			if err != nil {
				return err
			}
			defer es.Close()
			ctx := cmd.Context()

			if deleteID != "" {
				if err := es.store.DeleteReview(ctx, deleteID); err != nil {
					return err
				}
				fmt.Printf("Deleted review %s\n", deleteID)
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("a movie id or title is required")
			}
			m, ok, err := es.resolve(strings.Join(args, " "))
			if err != nil || !ok {
				return err
			}

			if text == "" {
				reviews, err := es.store.ReviewsForMovie(ctx, m.ID)
				if err != nil {
					return err
				}
				if len(reviews) == 0 {
					fmt.Printf("No reviews for %q (%d)\n", m.Title, m.ID)
					return nil
				}
				fmt.Printf("Reviews for %q (%d):\n", m.Title, m.ID)
				for _, r := range reviews {
					header := r.User
					if r.Rating > 0 {
						header = fmt.Sprintf("%s (%.1f)", r.User, r.Rating)
					}
					fmt.Printf("  [%s] %s, %s: %s\n", r.ID, header, r.CreatedAt.Format(time.DateOnly), r.Text)
				}
				return nil
			}

			id, err := es.store.AddReview(ctx, &types.Review{
				MovieID: m.ID,
				User:    es.sess.User,
				Rating:  rating,
				Text:    text,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Review %s saved for %q (%d)\n", id, m.Title, m.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Review text (omit to list reviews)")
	cmd.Flags().Float64Var(&rating, "rating", 0, "Rating snapshot to store with the review (0-10)")
	cmd.Flags().StringVar(&deleteID, "delete", "", "Review id to delete")

	return cmd
}

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Manage your taste preferences",
	}

	var prefs types.Preferences
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace your stored preferences",
		Example: `  marquee prefs set --genres Drama --genres Thriller \
    --directors "Sidney Lumet" --min-rating 6.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			store, err := a.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			user := a.session().User
			if err := store.SetPreferences(cmd.Context(), user, prefs); err != nil {
				return err
			}
			fmt.Printf("Preferences saved for %q\n", user)
			return nil
		},
	}
	set.Flags().StringSliceVar(&prefs.FavoriteGenres, "genres", nil, "Favorite genres (repeatable)")
	set.Flags().StringSliceVar(&prefs.FavoriteDirectors, "directors", nil, "Favorite directors (repeatable)")
	set.Flags().StringSliceVar(&prefs.FavoriteActors, "actors", nil, "Favorite actors (repeatable)")
	set.Flags().Float64Var(&prefs.MinRating, "min-rating", 0, "Hide results rated below this (0-10)")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show your stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			store, err := a.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			user := a.session().User
			stored, err := store.GetPreferences(cmd.Context(), user)
			if err != nil {
				return err
			}
			fmt.Printf("Preferences for %q:\n", user)
			fmt.Printf("  Genres:     %s\n", orNone(strings.Join(stored.FavoriteGenres, ", ")))
			fmt.Printf("  Directors:  %s\n", orNone(strings.Join(stored.FavoriteDirectors, ", ")))
			fmt.Printf("  Actors:     %s\n", orNone(strings.Join(stored.FavoriteActors, ", ")))
			if stored.MinRating > 0 {
				fmt.Printf("  Min rating: %.1f\n", stored.MinRating)
			} else {
				fmt.Printf("  Min rating: none\n")
			}
			return nil
		},
	}

	cmd.AddCommand(set, show)
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <legacy.json>",
		Short: "Import user data from a legacy JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			es, err := a.openEdit()
			if err != nil {
				return err
			}
			defer es.Close()

			res, err := importer.ImportFile(cmd.Context(), es.store, es.cat, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Imported user data for %q in %v:\n", res.User, res.Duration.Round(time.Millisecond))
			fmt.Printf("  Watchlist:   %d\n", res.Watchlist)
			fmt.Printf("  Bookmarks:   %d\n", res.Bookmarks)
			fmt.Printf("  Ratings:     %d\n", res.Ratings)
			fmt.Printf("  Reviews:     %d\n", res.Reviews)
			fmt.Printf("  Preferences: %s\n", yesNo(res.Preferences))
			if res.Skipped > 0 {
				fmt.Printf("  Skipped:     %d (see warnings)\n", res.Skipped)
			}
			return nil
		},
	}
}

// moviesForIDs maps stored ids back to catalog records, warning about ids
// the current dataset no longer contains.
func moviesForIDs(cat *catalog.Catalog, ids []int) []types.Movie {
	movies := make([]types.Movie, 0, len(ids))
	for _, id := range ids {
		m, err := cat.ByID(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: movie %d is not in the current catalog\n", id)
			continue
		}
		movies = append(movies, m)
	}
	return movies
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

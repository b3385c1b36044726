package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/filmbuff/marquee/internal/catalog"
	"github.com/filmbuff/marquee/internal/recommend"
	"github.com/filmbuff/marquee/internal/userdata"
	"github.com/filmbuff/marquee/pkg/types"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactive browsing session",
		Long: `Browse starts an interactive prompt over the loaded catalog. While the
session runs, the dataset file is watched: edits or replacements on disk
rebuild the similarity index in the background, so new queries answer from
the updated catalog without restarting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			eng, err := a.openEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Shutdown()

			store, err := a.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if cfg.Dataset.WatchEnabled {
				debounce, err := cfg.WatchDebounce()
				if err != nil {
					return err
				}
				watcher := catalog.NewWatcher(cfg.Dataset.Path, debounce, func() {
					cat, err := catalog.Load(cfg.Dataset.Path)
					if err != nil {
						log.Printf("Warning: dataset reload failed: %v", err)
						return
					}
					if err := eng.Reload(cat); err != nil {
						log.Printf("Warning: index reload failed: %v", err)
					}
				})
				if err := watcher.Start(); err != nil {
					log.Printf("Warning: dataset watching disabled: %v", err)
				} else {
					defer watcher.Stop()
				}
			}

			return runBrowse(cmd.Context(), eng, store, a.session(), cfg.Recommend.TopK)
		},
	}
}

// runBrowse is the interactive read-eval loop. Command errors are printed
// and the loop continues; only input EOF or context cancellation end it.
func runBrowse(ctx context.Context, eng *recommend.Engine, store userdata.Store, sess types.Session, topK int) error {
	fmt.Printf("marquee interactive session, user %q. Type \"help\" for commands.\n", sess.User)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Print("marquee> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		verb, rest := fields[0], strings.Join(fields[1:], " ")

		switch strings.ToLower(verb) {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			printBrowseHelp()
		default:
			if err := runBrowseCommand(ctx, eng, store, sess, topK, strings.ToLower(verb), rest); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		}
	}
}

func runBrowseCommand(ctx context.Context, eng *recommend.Engine, store userdata.Store, sess types.Session, topK int, verb, rest string) error {
	switch verb {
	case "search":
		if rest == "" {
			return fmt.Errorf("usage: search <text>")
		}
		movies := eng.Catalog().Search(types.SearchFilter{Query: rest})
		if len(movies) > topK {
			movies = movies[:topK]
		}
		printMovies(os.Stdout, movies)
		return nil

	case "show":
		if rest == "" {
			return fmt.Errorf("usage: show <id|title>")
		}
		m, err := resolveMovie(eng.Catalog(), rest)
		if err != nil {
			return browseLookupError(err)
		}
		printMovieDetail(os.Stdout, m)
		return nil

	case "similar":
		if rest == "" {
			return fmt.Errorf("usage: similar <id|title>")
		}
		var results []types.MovieSummary
		var err error
		if id, convErr := strconv.Atoi(rest); convErr == nil {
			results, err = eng.RecommendByID(id, topK)
		} else {
			results, err = eng.Recommend(rest, topK)
		}
		if err != nil {
			return browseLookupError(err)
		}
		printSummaries(os.Stdout, results)
		return nil

	case "add":
		if rest == "" {
			return fmt.Errorf("usage: add <id|title>")
		}
		m, err := resolveMovie(eng.Catalog(), rest)
		if err != nil {
			return browseLookupError(err)
		}
		if err := store.AddToWatchlist(ctx, sess.User, m.ID); err != nil {
			return err
		}
		fmt.Printf("Added %q (%d) to watchlist\n", m.Title, m.ID)
		return nil

	case "rate":
		fields := strings.Fields(rest)
		if len(fields) < 2 {
			return fmt.Errorf("usage: rate <id> <0-10>")
		}
		value, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return fmt.Errorf("invalid rating %q", fields[len(fields)-1])
		}
		m, err := resolveMovie(eng.Catalog(), strings.Join(fields[:len(fields)-1], " "))
		if err != nil {
			return browseLookupError(err)
		}
		if err := store.SetRating(ctx, sess.User, m.ID, value); err != nil {
			return err
		}
		fmt.Printf("Rated %q (%d): %.1f\n", m.Title, m.ID, value)
		return nil

	case "recs":
		ids, err := store.Watchlist(ctx, sess.User)
		if err != nil {
			return err
		}
		results, err := eng.ForWatchlist(ids, topK)
		if err != nil {
			return err
		}
		printSummaries(os.Stdout, results)
		return nil

	case "foryou":
		prefs, err := store.GetPreferences(ctx, sess.User)
		if err != nil {
			return err
		}
		ratings, err := store.Ratings(ctx, sess.User)
		if err != nil {
			return err
		}
		results, err := eng.ForUser(prefs, ratings, topK)
		if err != nil {
			return err
		}
		printSummaries(os.Stdout, results)
		return nil
	}

	return fmt.Errorf("unknown command %q (try \"help\")", verb)
}

// browseLookupError keeps ambiguous-title candidates readable inside the
// loop instead of one-lining them through the error path.
func browseLookupError(err error) error {
	var ambiguous *types.AmbiguousTitleError
	if errors.As(err, &ambiguous) {
		printAmbiguous(os.Stdout, ambiguous)
		return nil
	}
	return err
}

func printBrowseHelp() {
	fmt.Print(`Commands:
  search <text>          search the catalog by title
  show <id|title>        show one movie in full
  similar <id|title>     movies similar to one title
  add <id|title>         add a movie to your watchlist
  rate <id|title> <0-10> rate a movie
  recs                   recommendations from your watchlist
  foryou                 personalized picks
  help                   this text
  quit                   leave the session
`)
}

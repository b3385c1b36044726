package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/filmbuff/marquee/pkg/types"
)

// newTable returns a tabwriter configured for aligned CLI output.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// printMovies renders catalog records as a table, one row per movie.
func printMovies(w io.Writer, movies []types.Movie) {
	if len(movies) == 0 {
		fmt.Fprintln(w, "No movies found")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tRATING\tGENRES")
	for _, m := range movies {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			m.ID, m.Title, yearString(m.ReleaseYear), ratingString(m.Rating), m.GenreList())
	}
	tw.Flush()
}

// printSummaries renders recommendation output with the match score.
func printSummaries(w io.Writer, results []types.MovieSummary) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tRATING\tSCORE\tGENRES")
	for _, s := range results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.3f\t%s\n",
			s.MovieID, s.Title, yearString(s.Year), ratingString(s.Rating), s.Score, s.Genre)
	}
	tw.Flush()
}

// printMovieDetail renders one full catalog record.
func printMovieDetail(w io.Writer, m types.Movie) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%d\n", m.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", m.Title)
	if m.ReleaseYear > 0 {
		fmt.Fprintf(tw, "Year:\t%d\n", m.ReleaseYear)
	}
	if len(m.Genres) > 0 {
		fmt.Fprintf(tw, "Genres:\t%s\n", m.GenreList())
	}
	if m.Director != "" {
		fmt.Fprintf(tw, "Director:\t%s\n", m.Director)
	}
	if len(m.Cast) > 0 {
		fmt.Fprintf(tw, "Cast:\t%s\n", strings.Join(m.Cast, ", "))
	}
	if len(m.Keywords) > 0 {
		fmt.Fprintf(tw, "Keywords:\t%s\n", strings.Join(m.Keywords, ", "))
	}
	if m.Rating > 0 {
		fmt.Fprintf(tw, "Rating:\t%.1f (%d votes)\n", m.Rating, m.VoteCount)
	}
	if m.Popularity > 0 {
		fmt.Fprintf(tw, "Popularity:\t%.1f\n", m.Popularity)
	}
	tw.Flush()
	if m.Overview != "" {
		fmt.Fprintf(w, "\n%s\n", m.Overview)
	}
}

// printAmbiguous lists the candidates behind an ambiguous title lookup so
// the user can retry with --id.
func printAmbiguous(w io.Writer, e *types.AmbiguousTitleError) {
	fmt.Fprintf(w, "Title %q matches %d movies; pick one by id:\n\n", e.Title, len(e.Candidates))
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tRATING\tGENRES")
	for _, s := range e.Candidates {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			s.MovieID, s.Title, yearString(s.Year), ratingString(s.Rating), s.Genre)
	}
	tw.Flush()
}

func yearString(year int) string {
	if year == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", year)
}

func ratingString(rating float64) string {
	if rating == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", rating)
}

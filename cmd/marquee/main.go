// Command marquee is the movie catalog CLI: search and browse the dataset,
// ask for similar titles and personalized picks, and manage per-user
// watchlists, bookmarks, ratings, and reviews.
package main

import (
	"context"
	"log"
	"os"

	"github.com/charmbracelet/fang"
)

const version = "0.1.0"

func main() {
	// Result tables go to stdout; everything the log package emits stays
	// on stderr so output remains pipeable.
	log.SetOutput(os.Stderr)
	log.SetPrefix("marquee: ")
	log.SetFlags(log.LstdFlags)

	root := newRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}

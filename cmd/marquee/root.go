package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/filmbuff/marquee/internal/catalog"
	"github.com/filmbuff/marquee/internal/config"
	"github.com/filmbuff/marquee/internal/recommend"
	"github.com/filmbuff/marquee/internal/userdata"
	usqlite "github.com/filmbuff/marquee/internal/userdata/sqlite"
	"github.com/filmbuff/marquee/pkg/types"
)

// app holds the global flag values and wires packages together on demand.
// Commands open only what they need: pure catalog queries never touch the
// user database, and user-data edits never build the similarity index.
type app struct {
	configPath  string
	datasetPath string
	user        string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "marquee",
		Short: "Movie catalog browser with content-based recommendations",
		Long: `Marquee is a movie catalog toolkit. It loads a CSV or Parquet dataset,
builds a content-based similarity index over genres, keywords, cast, and
directors, and keeps per-user watchlists, bookmarks, ratings, and reviews
in a local SQLite database.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default: ./marquee.yaml when present)")
	pf.StringVar(&a.datasetPath, "dataset", "", "Dataset file, .csv or .parquet (overrides config)")
	pf.StringVar(&a.user, "user", "", `Acting user name (default "`+types.DefaultUser+`")`)

	cmd.AddCommand(
		newSearchCmd(a),
		newShowCmd(a),
		newSimilarCmd(a),
		newForYouCmd(a),
		newPopularCmd(a),
		newTrendingCmd(a),
		newWatchlistCmd(a),
		newBookmarkCmd(a),
		newRateCmd(a),
		newReviewCmd(a),
		newPrefsCmd(a),
		newImportCmd(a),
		newBrowseCmd(a),
		newVersionCmd(),
	)

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the marquee version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("marquee %s\n", version)
		},
	}
}

// loadConfig resolves configuration from flags, file, and environment.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigFile(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.datasetPath != "" {
		cfg.Dataset.Path = a.datasetPath
	}
	return cfg, nil
}

// openCatalog loads the dataset into an in-memory catalog.
func (a *app) openCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	return catalog.Load(cfg.Dataset.Path)
}

// openEngine loads the catalog and builds the similarity index.
func (a *app) openEngine(cfg *config.Config) (*recommend.Engine, error) {
	cat, err := a.openCatalog(cfg)
	if err != nil {
		return nil, err
	}
	eng, err := recommend.NewEngine(cat, recommendConfig(cfg))
	if err != nil {
		return nil, err
	}
	if err := eng.Start(); err != nil {
		return nil, err
	}
	return eng, nil
}

// openStore opens the per-user SQLite database, creating its directory on
// first use. Callers must Close it.
func (a *app) openStore(cfg *config.Config) (userdata.Store, error) {
	dbPath := cfg.UserData.DBPath
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %q: %w", dir, err)
		}
	}
	return usqlite.New("file:" + dbPath)
}

// session returns the acting user session from the --user flag.
func (a *app) session() types.Session {
	return types.NewSession(a.user)
}

// recommendConfig maps the file/env configuration onto engine tuning.
func recommendConfig(cfg *config.Config) recommend.Config {
	return recommend.Config{
		GenreWeight:     cfg.Recommend.GenreWeight,
		KeywordWeight:   cfg.Recommend.KeywordWeight,
		ActorWeight:     cfg.Recommend.ActorWeight,
		DirectorWeight:  cfg.Recommend.DirectorWeight,
		TopCast:         cfg.Recommend.TopCast,
		DiversityLambda: cfg.Recommend.DiversityLambda,
		MinVoteCount:    cfg.Recommend.MinVoteCount,
	}
}

// Command marquee-setup prepares a marquee installation: it downloads the
// movie dataset, initializes the user database, and can verify an existing
// installation with -verify.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/filmbuff/marquee/internal/catalog"
	"github.com/filmbuff/marquee/internal/config"
	"github.com/filmbuff/marquee/internal/dataset"
	usqlite "github.com/filmbuff/marquee/internal/userdata/sqlite"
)

var (
	configPath = flag.String("config", "", "Path to config file (optional, uses env vars by default)")
	urlFlag    = flag.String("url", "", "Dataset download URL (overrides config)")
	destFlag   = flag.String("dest", "", "Dataset destination path (overrides config)")
	force      = flag.Bool("force", false, "Re-download even when the dataset already exists")
	initDB     = flag.Bool("init-db", true, "Create and migrate the user database")
	dbFlag     = flag.String("db", "", "User database path (overrides config)")
	verify     = flag.Bool("verify", false, "Verify the installation and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfigFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *urlFlag != "" {
		cfg.Dataset.URL = *urlFlag
	}
	if *destFlag != "" {
		cfg.Dataset.Path = *destFlag
	}
	if *dbFlag != "" {
		cfg.UserData.DBPath = *dbFlag
	}

	if *verify {
		runVerify(cfg)
		return
	}

	printBanner()
	fmt.Println("Welcome to Marquee Setup!")
	fmt.Println()

	// Cancel the download on Ctrl+C instead of leaving a .tmp file behind.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("received shutdown signal")
		cancel()
	}()

	setupDataset(ctx, cfg)

	if *initDB {
		setupDatabase(cfg)
	}

	fmt.Printf(`
Setup complete!

Try it out:
  marquee popular
  marquee search "your favorite movie"
  marquee browse

Verify any time with:
  marquee-setup -verify
`)
}

func printBanner() {
	fmt.Print(`
 __  __
|  \/  | __ _ _ __ __ _ _   _  ___  ___
| |\/| |/ _` + "`" + ` | '__/ _` + "`" + ` | | | |/ _ \/ _ \
| |  | | (_| | | | (_| | |_| |  __/  __/
|_|  |_|\__,_|_|   \__, |\__,_|\___|\___|
                      |_|

Movie Recommendations From Your Terminal
`)
}

// setupDataset downloads the dataset when a URL is configured, otherwise
// checks that the configured file already exists.
func setupDataset(ctx context.Context, cfg *config.Config) {
	if cfg.Dataset.URL == "" {
		if _, err := os.Stat(cfg.Dataset.Path); err != nil {
			fmt.Printf("WARNING: no dataset at %s and no download URL configured.\n", cfg.Dataset.Path)
			fmt.Println("   Provide one with -url or place the file there yourself.")
			return
		}
		fmt.Printf("OK: dataset found at %s\n", cfg.Dataset.Path)
		return
	}

	fmt.Printf("Downloading dataset to %s ...\n", cfg.Dataset.Path)
	dl, err := dataset.New(dataset.Config{
		URL:   cfg.Dataset.URL,
		Dest:  cfg.Dataset.Path,
		Force: *force,
	})
	if err != nil {
		log.Fatalf("Failed to configure download: %v", err)
	}

	n, err := dl.Download(ctx)
	switch {
	case err == nil:
		fmt.Printf("OK: dataset downloaded to %s (%d bytes)\n", cfg.Dataset.Path, n)
	case errors.Is(err, dataset.ErrDownloadSkipped):
		fmt.Printf("OK: dataset already present at %s (use -force to re-download)\n", cfg.Dataset.Path)
	default:
		log.Fatalf("Dataset download failed: %v", err)
	}
}

// setupDatabase opens the user database once so the schema gets created.
func setupDatabase(cfg *config.Config) {
	dbPath := cfg.UserData.DBPath
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create data directory %q: %v", dir, err)
		}
	}

	store, err := usqlite.New("file:" + dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize user database: %v", err)
	}
	if err := store.Close(); err != nil {
		log.Printf("Warning: failed to close user database: %v", err)
	}
	fmt.Printf("OK: user database ready at %s\n", dbPath)
}

// runVerify checks that the dataset loads and the user database carries
// the expected schema, exiting non-zero when either fails.
func runVerify(cfg *config.Config) {
	fmt.Println("Marquee Setup Verification")
	fmt.Println("==========================")
	fmt.Println()

	statusOK := true

	if cat, err := catalog.Load(cfg.Dataset.Path); err == nil {
		fmt.Printf("Dataset:  ✓ %s (%d movies)\n", cfg.Dataset.Path, cat.Len())
	} else {
		fmt.Printf("Dataset:  ✗ %s (%v)\n", cfg.Dataset.Path, err)
		statusOK = false
	}

	// Stat before opening: the driver would otherwise create an empty
	// database as a side effect of verification.
	if _, err := os.Stat(cfg.UserData.DBPath); err != nil {
		fmt.Printf("User DB:  ✗ %s (not initialized, run marquee-setup)\n", cfg.UserData.DBPath)
		statusOK = false
	} else if store, err := usqlite.New("file:" + cfg.UserData.DBPath); err == nil {
		version, verr := store.Setting(context.Background(), "schema_version")
		if cerr := store.Close(); cerr != nil {
			log.Printf("Warning: failed to close user database: %v", cerr)
		}
		if verr == nil {
			fmt.Printf("User DB:  ✓ %s (schema v%s)\n", cfg.UserData.DBPath, version)
		} else {
			fmt.Printf("User DB:  ✗ %s (schema version missing: %v)\n", cfg.UserData.DBPath, verr)
			statusOK = false
		}
	} else {
		fmt.Printf("User DB:  ✗ %s (%v)\n", cfg.UserData.DBPath, err)
		statusOK = false
	}

	fmt.Println()
	if statusOK {
		fmt.Println("Status:   READY")
		os.Exit(0)
	}
	fmt.Println("Status:   NOT READY")
	fmt.Println()
	fmt.Println("Run marquee-setup to install missing components.")
	os.Exit(1)
}

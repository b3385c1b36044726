// Package config provides configuration management for Marquee.
// It starts from built-in defaults, overlays an optional YAML file, and
// finally applies environment variables with the MARQUEE_ prefix, so that
// env vars always win over the file and the file wins over defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is consulted when no explicit config path is given.
const DefaultConfigFile = "marquee.yaml"

// Config holds all configuration settings for the Marquee toolkit.
type Config struct {
	Dataset   DatasetConfig   `yaml:"dataset"`
	Recommend RecommendConfig `yaml:"recommend"`
	UserData  UserDataConfig  `yaml:"userdata"`
	Backup    BackupConfig    `yaml:"backup"`
}

// DatasetConfig describes where the movie dataset lives and how to react
// when it changes on disk.
type DatasetConfig struct {
	Path          string `yaml:"path"`           // Dataset file, .csv or .parquet (default: ./data/movies.csv)
	URL           string `yaml:"url"`            // Download source for first-run setup
	WatchEnabled  bool   `yaml:"watch_enabled"`  // Hot-reload the catalog when the file changes (default: true)
	WatchDebounce string `yaml:"watch_debounce"` // Quiet period before a reload fires (default: 500ms)
}

// RecommendConfig tunes feature extraction and ranking.
type RecommendConfig struct {
	TopK            int     `yaml:"top_k"`            // Default result count (default: 10)
	GenreWeight     int     `yaml:"genre_weight"`     // Signature repetitions per genre (default: 3)
	KeywordWeight   int     `yaml:"keyword_weight"`   // Signature repetitions per keyword (default: 1)
	ActorWeight     int     `yaml:"actor_weight"`     // Signature repetitions per top-billed actor (default: 2)
	DirectorWeight  int     `yaml:"director_weight"`  // Signature repetitions for the director (default: 3)
	TopCast         int     `yaml:"top_cast"`         // How many cast members contribute (default: 3)
	DiversityLambda float64 `yaml:"diversity_lambda"` // Relevance/diversity balance for watchlist recs (default: 0.7)
	MinVoteCount    int     `yaml:"min_vote_count"`   // Votes required before rating boosts personalized scores (default: 50)
}

// UserDataConfig contains the user database location.
type UserDataConfig struct {
	DBPath string `yaml:"db_path"` // SQLite file for watchlist/ratings/reviews (default: ./data/marquee.db)
}

// BackupConfig contains user-database backup configuration.
type BackupConfig struct {
	Enabled          bool   `yaml:"enabled"`           // Enable the periodic backup service (default: false)
	Interval         string `yaml:"interval"`          // Backup interval duration (default: 24h)
	Dir              string `yaml:"dir"`               // Backup directory (default: ./backups)
	Verify           bool   `yaml:"verify"`            // Re-hash backups after creation (default: true)
	RetentionHourly  int    `yaml:"retention_hourly"`  // Hourly backups to keep (default: 24)
	RetentionDaily   int    `yaml:"retention_daily"`   // Daily backups to keep (default: 7)
	RetentionWeekly  int    `yaml:"retention_weekly"`  // Weekly backups to keep (default: 4)
	RetentionMonthly int    `yaml:"retention_monthly"` // Monthly backups to keep (default: 12)
}

// DefaultConfig returns the built-in defaults before any file or
// environment overrides.
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path:          "./data/movies.csv",
			URL:           "",
			WatchEnabled:  true,
			WatchDebounce: "500ms",
		},
		Recommend: RecommendConfig{
			TopK:            10,
			GenreWeight:     3,
			KeywordWeight:   1,
			ActorWeight:     2,
			DirectorWeight:  3,
			TopCast:         3,
			DiversityLambda: 0.7,
			MinVoteCount:    50,
		},
		UserData: UserDataConfig{
			DBPath: "./data/marquee.db",
		},
		Backup: BackupConfig{
			Enabled:          false,
			Interval:         "24h",
			Dir:              "./backups",
			Verify:           true,
			RetentionHourly:  24,
			RetentionDaily:   7,
			RetentionWeekly:  4,
			RetentionMonthly: 12,
		},
	}
}

// LoadConfig loads configuration using the MARQUEE_CONFIG file path when
// set, falling back to ./marquee.yaml when present.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(os.Getenv("MARQUEE_CONFIG"))
}

// LoadConfigFile loads configuration with an explicit file path. An empty
// path means "use the default file if it exists, otherwise skip the file
// layer". The returned config is already validated.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays values from a YAML config file onto cfg. Fields absent
// from the file keep their current values.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays MARQUEE_* environment variables onto cfg. The current
// value acts as the default, so unset variables change nothing.
func applyEnv(cfg *Config) {
	cfg.Dataset.Path = getEnv("MARQUEE_DATASET_PATH", cfg.Dataset.Path)
	cfg.Dataset.URL = getEnv("MARQUEE_DATASET_URL", cfg.Dataset.URL)
	cfg.Dataset.WatchEnabled = getEnvBool("MARQUEE_DATASET_WATCH", cfg.Dataset.WatchEnabled)
	cfg.Dataset.WatchDebounce = getEnv("MARQUEE_DATASET_WATCH_DEBOUNCE", cfg.Dataset.WatchDebounce)

	cfg.Recommend.TopK = getEnvInt("MARQUEE_TOP_K", cfg.Recommend.TopK)
	cfg.Recommend.GenreWeight = getEnvInt("MARQUEE_GENRE_WEIGHT", cfg.Recommend.GenreWeight)
	cfg.Recommend.KeywordWeight = getEnvInt("MARQUEE_KEYWORD_WEIGHT", cfg.Recommend.KeywordWeight)
	cfg.Recommend.ActorWeight = getEnvInt("MARQUEE_ACTOR_WEIGHT", cfg.Recommend.ActorWeight)
	cfg.Recommend.DirectorWeight = getEnvInt("MARQUEE_DIRECTOR_WEIGHT", cfg.Recommend.DirectorWeight)
	cfg.Recommend.TopCast = getEnvInt("MARQUEE_TOP_CAST", cfg.Recommend.TopCast)
	cfg.Recommend.DiversityLambda = getEnvFloat("MARQUEE_DIVERSITY_LAMBDA", cfg.Recommend.DiversityLambda)
	cfg.Recommend.MinVoteCount = getEnvInt("MARQUEE_MIN_VOTE_COUNT", cfg.Recommend.MinVoteCount)

	cfg.UserData.DBPath = getEnv("MARQUEE_DB_PATH", cfg.UserData.DBPath)

	cfg.Backup.Enabled = getEnvBool("MARQUEE_BACKUP_ENABLED", cfg.Backup.Enabled)
	cfg.Backup.Interval = getEnv("MARQUEE_BACKUP_INTERVAL", cfg.Backup.Interval)
	cfg.Backup.Dir = getEnv("MARQUEE_BACKUP_DIR", cfg.Backup.Dir)
	cfg.Backup.Verify = getEnvBool("MARQUEE_BACKUP_VERIFY", cfg.Backup.Verify)
	cfg.Backup.RetentionHourly = getEnvInt("MARQUEE_BACKUP_RETENTION_HOURLY", cfg.Backup.RetentionHourly)
	cfg.Backup.RetentionDaily = getEnvInt("MARQUEE_BACKUP_RETENTION_DAILY", cfg.Backup.RetentionDaily)
	cfg.Backup.RetentionWeekly = getEnvInt("MARQUEE_BACKUP_RETENTION_WEEKLY", cfg.Backup.RetentionWeekly)
	cfg.Backup.RetentionMonthly = getEnvInt("MARQUEE_BACKUP_RETENTION_MONTHLY", cfg.Backup.RetentionMonthly)
}

// Validate rejects configurations the rest of the system cannot honor.
func (c *Config) Validate() error {
	if c.Dataset.Path == "" {
		return fmt.Errorf("config: dataset path must not be empty")
	}
	if _, err := time.ParseDuration(c.Dataset.WatchDebounce); err != nil {
		return fmt.Errorf("config: invalid watch debounce %q: %w", c.Dataset.WatchDebounce, err)
	}
	if c.Recommend.TopK < 1 {
		return fmt.Errorf("config: top_k must be at least 1, got %d", c.Recommend.TopK)
	}
	for name, w := range map[string]int{
		"genre_weight":    c.Recommend.GenreWeight,
		"keyword_weight":  c.Recommend.KeywordWeight,
		"actor_weight":    c.Recommend.ActorWeight,
		"director_weight": c.Recommend.DirectorWeight,
		"top_cast":        c.Recommend.TopCast,
	} {
		if w < 0 {
			return fmt.Errorf("config: %s must not be negative, got %d", name, w)
		}
	}
	if c.Recommend.DiversityLambda < 0 || c.Recommend.DiversityLambda > 1 {
		return fmt.Errorf("config: diversity_lambda must be within [0,1], got %g", c.Recommend.DiversityLambda)
	}
	if c.Recommend.MinVoteCount < 0 {
		return fmt.Errorf("config: min_vote_count must not be negative, got %d", c.Recommend.MinVoteCount)
	}
	if c.UserData.DBPath == "" {
		return fmt.Errorf("config: user database path must not be empty")
	}
	if _, err := time.ParseDuration(c.Backup.Interval); err != nil {
		return fmt.Errorf("config: invalid backup interval %q: %w", c.Backup.Interval, err)
	}
	return nil
}

// WatchDebounce returns the parsed debounce duration. Validate guarantees
// the field parses, so errors here only happen on hand-built configs.
func (c *Config) WatchDebounce() (time.Duration, error) {
	return time.ParseDuration(c.Dataset.WatchDebounce)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as a float,
// it returns the default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false (case-insensitive).
// If the environment variable exists but cannot be parsed as a boolean,
// it returns the default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}

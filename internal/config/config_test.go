package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmbuff/marquee/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	_ = os.Unsetenv("MARQUEE_DATASET_PATH")
	_ = os.Unsetenv("MARQUEE_TOP_K")
	_ = os.Unsetenv("MARQUEE_CONFIG")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "./data/movies.csv", cfg.Dataset.Path)
	assert.Equal(t, 10, cfg.Recommend.TopK)
	assert.Equal(t, 3, cfg.Recommend.GenreWeight)
	assert.Equal(t, 1, cfg.Recommend.KeywordWeight)
	assert.Equal(t, 2, cfg.Recommend.ActorWeight)
	assert.Equal(t, 3, cfg.Recommend.DirectorWeight)
	assert.Equal(t, 3, cfg.Recommend.TopCast)
	assert.InDelta(t, 0.7, cfg.Recommend.DiversityLambda, 1e-9)
	assert.Equal(t, "./data/marquee.db", cfg.UserData.DBPath)
	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, 7, cfg.Backup.RetentionDaily)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("MARQUEE_DATASET_PATH", "/srv/movies.parquet")
	t.Setenv("MARQUEE_TOP_K", "25")
	t.Setenv("MARQUEE_DIVERSITY_LAMBDA", "0.5")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/srv/movies.parquet", cfg.Dataset.Path)
	assert.Equal(t, 25, cfg.Recommend.TopK)
	assert.InDelta(t, 0.5, cfg.Recommend.DiversityLambda, 1e-9)
}

// TestLoadConfigFile_YAMLOverlay verifies the file layer sits between the
// defaults and the environment.
func TestLoadConfigFile_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marquee.yaml")
	content := []byte(`
dataset:
  path: /data/from-file.csv
recommend:
  top_k: 5
  genre_weight: 4
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/from-file.csv", cfg.Dataset.Path)
	assert.Equal(t, 5, cfg.Recommend.TopK)
	assert.Equal(t, 4, cfg.Recommend.GenreWeight)
	// Untouched sections keep their defaults.
	assert.Equal(t, "./data/marquee.db", cfg.UserData.DBPath)
}

func TestLoadConfigFile_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marquee.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recommend:\n  top_k: 5\n"), 0o644))

	t.Setenv("MARQUEE_TOP_K", "42")

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Recommend.TopK)
}

func TestLoadConfigFile_MissingExplicitFile(t *testing.T) {
	_, err := config.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"negative genre weight", func(c *config.Config) { c.Recommend.GenreWeight = -1 }},
		{"zero top_k", func(c *config.Config) { c.Recommend.TopK = 0 }},
		{"lambda above one", func(c *config.Config) { c.Recommend.DiversityLambda = 1.5 }},
		{"empty dataset path", func(c *config.Config) { c.Dataset.Path = "" }},
		{"unparsable debounce", func(c *config.Config) { c.Dataset.WatchDebounce = "soon" }},
		{"unparsable backup interval", func(c *config.Config) { c.Backup.Interval = "daily" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

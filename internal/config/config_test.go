package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks the variables Load binds so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_DRIVER", "DATABASE_URL", "DATABASE_PATH",
		"SERPAPI_KEY", "YOUTUBE_API_KEY", "GNEWS_API_KEY",
		"COUNTRY", "LANGUAGE", "REGION",
		"STORAGE_ENABLED", "S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_REGION",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Harvest.MaxConcurrentRuns)
	assert.Equal(t, 50, cfg.Harvest.MinContentLength)
	assert.Equal(t, 7, cfg.Harvest.SeedKeywords)
	assert.Equal(t, 5, cfg.Harvest.TrendsBatchSize)
	assert.Equal(t, 10*time.Second, cfg.Harvest.EnrichmentTimeout)
	assert.Equal(t, DefaultUserAgent, cfg.Harvest.UserAgent)
	assert.Equal(t, "tfidf", cfg.Keywords.Scorer)
	assert.InDelta(t, 0.3, cfg.Taxonomy.OverlapThreshold, 1e-9)
	assert.Equal(t, "now 7-d", cfg.Trends.Timeframe)
	assert.Equal(t, "US", cfg.Trends.Geo)

	assert.False(t, cfg.Trends.Configured())
	assert.False(t, cfg.YouTube.Configured())
	assert.Equal(t, "", cfg.News.Provider())
	assert.False(t, cfg.Storage.Enabled)
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERPAPI_KEY", "serp")
	t.Setenv("YOUTUBE_API_KEY", "yt")
	t.Setenv("COUNTRY", "GB")
	t.Setenv("HARVEST_MAX_KEYWORDS", "40")

	path := writeConfig(t, `
harvest:
  seed_keywords: 9
  max_keywords: 30
keywords:
  scorer: frequency
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Harvest.SeedKeywords)
	assert.Equal(t, 40, cfg.Harvest.MaxKeywords, "environment wins over the file")
	assert.Equal(t, "frequency", cfg.Keywords.Scorer)
	assert.Equal(t, "serp", cfg.Trends.APIKey)
	assert.Equal(t, "serp", cfg.News.SerpAPIKey)
	assert.Equal(t, "GB", cfg.Trends.Geo)
	assert.True(t, cfg.YouTube.Configured())
	assert.Equal(t, "serpapi", cfg.News.Provider())

	t.Setenv("GNEWS_API_KEY", "gn")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gnews", cfg.News.Provider())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown scorer", "keywords:\n  scorer: bm25\n"},
		{"unknown driver", "database:\n  driver: mysql\n"},
		{"postgres without url", "database:\n  driver: postgres\n"},
		{"threshold out of range", "taxonomy:\n  overlap_threshold: 1.5\n"},
		{"archive without endpoint", "storage:\n  enabled: true\n"},
		{"zero batch size", "harvest:\n  trends_batch_size: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{"sqlite file", DatabaseConfig{Driver: "sqlite", Path: "./data/th.db"}, "./data/th.db?_busy_timeout=5000&_foreign_keys=on"},
		{"sqlite memory", DatabaseConfig{Driver: "sqlite"}, ":memory:?_busy_timeout=5000&_foreign_keys=on"},
		{"sqlite with params", DatabaseConfig{Driver: "sqlite", Path: "th.db?cache=shared"}, "th.db?cache=shared&_busy_timeout=5000&_foreign_keys=on"},
		{"postgres", DatabaseConfig{Driver: "postgres", URL: "postgres://u:p@db/th"}, "postgres://u:p@db/th"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}

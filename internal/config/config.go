package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Harvest  HarvestConfig  `mapstructure:"harvest"`
	Keywords KeywordsConfig `mapstructure:"keywords"`
	Taxonomy TaxonomyConfig `mapstructure:"taxonomy"`
	Trends   TrendsConfig   `mapstructure:"trends"`
	YouTube  YouTubeConfig  `mapstructure:"youtube"`
	News     NewsConfig     `mapstructure:"news"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	URL             string        `mapstructure:"url"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogSQL          bool          `mapstructure:"log_sql"`
}

// DSN returns the connection string for the configured driver.
// For sqlite the busy timeout and foreign key pragmas are appended to the path.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	path := c.Path
	if path == "" {
		path = ":memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_foreign_keys=on"
}

// HarvestConfig tunes the run pipeline.
type HarvestConfig struct {
	MaxConcurrentRuns int           `mapstructure:"max_concurrent_runs"`
	MinContentLength  int           `mapstructure:"min_content_length"`
	MaxContentChars   int           `mapstructure:"max_content_chars"`
	MaxKeywords       int           `mapstructure:"max_keywords"`
	CategoryTerms     int           `mapstructure:"category_terms"`
	SeedKeywords      int           `mapstructure:"seed_keywords"`
	TrendsBatchSize   int           `mapstructure:"trends_batch_size"`
	TrendsParallelism int           `mapstructure:"trends_parallelism"`
	SignalKeywords    int           `mapstructure:"signal_keywords"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	EnrichmentTimeout time.Duration `mapstructure:"enrichment_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
}

type KeywordsConfig struct {
	Scorer            string  `mapstructure:"scorer"`
	MinTextLength     int     `mapstructure:"min_text_length"`
	TFIDFMinScore     float64 `mapstructure:"tfidf_min_score"`
	FrequencyMinScore float64 `mapstructure:"frequency_min_score"`
}

type TaxonomyConfig struct {
	OverlapThreshold float64       `mapstructure:"overlap_threshold"`
	RemoteEnabled    bool          `mapstructure:"remote_enabled"`
	RemoteURL        string        `mapstructure:"remote_url"`
	Language         string        `mapstructure:"language"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the optional file at configPath (or config.yaml
// in ./configs and the working directory), .env and the environment.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/trendharvest.db")
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_sql", false)

	v.SetDefault("harvest.max_concurrent_runs", 4)
	v.SetDefault("harvest.min_content_length", 50)
	v.SetDefault("harvest.max_content_chars", 10000)
	v.SetDefault("harvest.max_keywords", 25)
	v.SetDefault("harvest.category_terms", 10)
	v.SetDefault("harvest.seed_keywords", 7)
	v.SetDefault("harvest.trends_batch_size", 5)
	v.SetDefault("harvest.trends_parallelism", 2)
	v.SetDefault("harvest.signal_keywords", 3)
	v.SetDefault("harvest.fetch_timeout", 10*time.Second)
	v.SetDefault("harvest.enrichment_timeout", 10*time.Second)
	v.SetDefault("harvest.user_agent", DefaultUserAgent)

	v.SetDefault("keywords.scorer", "tfidf")
	v.SetDefault("keywords.min_text_length", 50)
	v.SetDefault("keywords.tfidf_min_score", 0.01)
	v.SetDefault("keywords.frequency_min_score", 0.05)

	v.SetDefault("taxonomy.overlap_threshold", 0.3)
	v.SetDefault("taxonomy.remote_enabled", false)
	v.SetDefault("taxonomy.remote_url", "https://trends.google.com/trends/api/explore/pickers/category")
	v.SetDefault("taxonomy.language", "en-US")
	v.SetDefault("taxonomy.timeout", 5*time.Second)

	v.SetDefault("trends.base_url", "https://serpapi.com/search.json")
	v.SetDefault("trends.geo", "US")
	v.SetDefault("trends.language", "en")
	v.SetDefault("trends.timeframe", "now 7-d")
	v.SetDefault("trends.rising_limit", 10)
	v.SetDefault("trends.requests_per_second", 1.0)

	v.SetDefault("youtube.base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("youtube.region", "US")
	v.SetDefault("youtube.max_results", 15)
	v.SetDefault("youtube.requests_per_second", 5.0)

	v.SetDefault("news.gnews_base_url", "https://gnews.io/api/v4")
	v.SetDefault("news.serpapi_base_url", "https://serpapi.com/search.json")
	v.SetDefault("news.country", "us")
	v.SetDefault("news.language", "en")
	v.SetDefault("news.max_results", 25)
	v.SetDefault("news.requests_per_second", 1.0)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.type", "")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "trendharvest")
	v.SetDefault("storage.prefix", "runs")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// bindEnv maps secrets and the legacy deployment variables onto config keys.
func bindEnv(v *viper.Viper) {
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("trends.api_key", "SERPAPI_KEY")
	v.BindEnv("trends.geo", "COUNTRY")
	v.BindEnv("trends.language", "LANGUAGE")
	v.BindEnv("youtube.api_key", "YOUTUBE_API_KEY")
	v.BindEnv("youtube.region", "REGION")
	v.BindEnv("news.gnews_api_key", "GNEWS_API_KEY")
	v.BindEnv("news.serpapi_key", "SERPAPI_KEY")
	v.BindEnv("storage.enabled", "STORAGE_ENABLED")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	v.BindEnv("storage.bucket", "S3_BUCKET")
	v.BindEnv("storage.region", "S3_REGION")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database: unknown driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("database: url is required for postgres")
	}

	switch c.Keywords.Scorer {
	case "tfidf", "frequency":
	default:
		return fmt.Errorf("keywords: unknown scorer %q", c.Keywords.Scorer)
	}

	h := c.Harvest
	if h.MaxConcurrentRuns <= 0 {
		return fmt.Errorf("harvest: max_concurrent_runs must be positive")
	}
	if h.MaxKeywords <= 0 || h.CategoryTerms <= 0 || h.SeedKeywords <= 0 || h.SignalKeywords <= 0 {
		return fmt.Errorf("harvest: keyword limits must be positive")
	}
	if h.TrendsBatchSize <= 0 || h.TrendsParallelism <= 0 {
		return fmt.Errorf("harvest: trends batch size and parallelism must be positive")
	}
	if h.FetchTimeout <= 0 || h.EnrichmentTimeout <= 0 {
		return fmt.Errorf("harvest: timeouts must be positive")
	}
	if c.Taxonomy.OverlapThreshold < 0 || c.Taxonomy.OverlapThreshold > 1 {
		return fmt.Errorf("taxonomy: overlap_threshold must be within [0, 1]")
	}

	if err := c.Storage.Validate(); err != nil {
		return err
	}
	return nil
}

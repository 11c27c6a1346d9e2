package config

import (
	"fmt"
)

// DefaultUserAgent is sent when fetching pages; some sites refuse non-browser agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// TrendsConfig configures the search-interest source (SerpAPI google_trends engine).
type TrendsConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Geo               string  `mapstructure:"geo"`
	Language          string  `mapstructure:"language"`
	Timeframe         string  `mapstructure:"timeframe"`
	RisingLimit       int     `mapstructure:"rising_limit"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// Configured reports whether credentials are present.
func (c *TrendsConfig) Configured() bool {
	return c.APIKey != ""
}

// YouTubeConfig configures the video source (YouTube Data API v3).
type YouTubeConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Region            string  `mapstructure:"region"`
	MaxResults        int     `mapstructure:"max_results"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

func (c *YouTubeConfig) Configured() bool {
	return c.APIKey != ""
}

// NewsConfig configures the news source. GNews is used when its key is set,
// otherwise SerpAPI's google_news engine.
type NewsConfig struct {
	GNewsAPIKey       string  `mapstructure:"gnews_api_key"`
	GNewsBaseURL      string  `mapstructure:"gnews_base_url"`
	SerpAPIKey        string  `mapstructure:"serpapi_key"`
	SerpAPIBaseURL    string  `mapstructure:"serpapi_base_url"`
	Country           string  `mapstructure:"country"`
	Language          string  `mapstructure:"language"`
	MaxResults        int     `mapstructure:"max_results"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

func (c *NewsConfig) Configured() bool {
	return c.GNewsAPIKey != "" || c.SerpAPIKey != ""
}

// Provider returns "gnews", "serpapi" or "" when no key is configured.
func (c *NewsConfig) Provider() string {
	switch {
	case c.GNewsAPIKey != "":
		return "gnews"
	case c.SerpAPIKey != "":
		return "serpapi"
	default:
		return ""
	}
}

// StorageConfig configures the optional S3-compatible content archive.
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
	Prefix    string `mapstructure:"prefix"`
}

// Validate checks the archive settings when the archive is enabled.
func (c *StorageConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("storage: endpoint is required when enabled")
	}
	if c.Bucket == "" {
		return fmt.Errorf("storage: bucket is required when enabled")
	}
	switch c.Type {
	case "", "s3", "r2", "s3compatible":
	default:
		return fmt.Errorf("storage: unknown type %q", c.Type)
	}
	return nil
}

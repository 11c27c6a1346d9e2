package service

import (
	"github.com/timmy/trendharvest/internal/config"
	"github.com/timmy/trendharvest/internal/logger"
	"github.com/timmy/trendharvest/internal/source/gnews"
	"github.com/timmy/trendharvest/internal/source/serpapi"
	"github.com/timmy/trendharvest/internal/source/youtube"
)

// NewSources builds the enrichment providers that have credentials. Missing
// providers stay nil and their stages are skipped.
func NewSources(cfg *config.Config, log *logger.Logger) Sources {
	timeout := cfg.Harvest.EnrichmentTimeout
	var s Sources

	if cfg.Trends.Configured() {
		s.Trends = serpapi.NewTrends(cfg.Trends, timeout)
	} else {
		log.Warn("SERPAPI_KEY not set, search interest disabled")
	}

	if cfg.YouTube.Configured() {
		s.Videos = youtube.New(cfg.YouTube, timeout)
	} else {
		log.Warn("YOUTUBE_API_KEY not set, video lookup disabled")
	}

	switch cfg.News.Provider() {
	case "gnews":
		s.News = gnews.New(cfg.News, timeout)
	case "serpapi":
		s.News = serpapi.NewNews(cfg.News, timeout)
	default:
		log.Warn("No news API key set, news lookup disabled")
	}

	return s
}

package service

import (
	"context"
	"fmt"

	"github.com/timmy/trendharvest/internal/config"
	"github.com/timmy/trendharvest/internal/extractor"
	"github.com/timmy/trendharvest/internal/keywords"
	"github.com/timmy/trendharvest/internal/logger"
	"github.com/timmy/trendharvest/internal/repository"
	"github.com/timmy/trendharvest/internal/storage"
	"github.com/timmy/trendharvest/internal/taxonomy"
	"gorm.io/gorm"
)

// NewHarvesterFromConfig wires a Harvester over db using cfg. The taxonomy
// is loaded once here; a remote failure falls back to the built-in table.
func NewHarvesterFromConfig(ctx context.Context, cfg *config.Config, db *gorm.DB, log *logger.Logger) (*Harvester, error) {
	kw, err := keywords.New(keywords.Config{
		Scorer:            cfg.Keywords.Scorer,
		MinTextLength:     cfg.Keywords.MinTextLength,
		TFIDFMinScore:     cfg.Keywords.TFIDFMinScore,
		FrequencyMinScore: cfg.Keywords.FrequencyMinScore,
	})
	if err != nil {
		return nil, fmt.Errorf("keyword extractor: %w", err)
	}

	tax := taxonomy.Load(ctx, taxonomy.LoaderConfig{
		Enabled:  cfg.Taxonomy.RemoteEnabled,
		URL:      cfg.Taxonomy.RemoteURL,
		Language: cfg.Taxonomy.Language,
		Timeout:  cfg.Taxonomy.Timeout,
	})
	log.WithFields(logger.Fields{
		"source":     tax.Source(),
		"categories": tax.Len(),
	}).Info("Taxonomy loaded")

	archive, err := storage.NewArchiveFromConfig(ctx, &cfg.Storage)
	if err != nil {
		return nil, err
	}
	if archive != nil {
		log.WithField("bucket", cfg.Storage.Bucket).Info("Content archive enabled")
	}

	fetcher := extractor.NewContentExtractor(extractor.Config{
		UserAgent: cfg.Harvest.UserAgent,
		Timeout:   cfg.Harvest.FetchTimeout,
		MaxChars:  cfg.Harvest.MaxContentChars,
	})

	return NewHarvester(HarvesterDeps{
		Runs:      repository.NewRunRepository(db),
		Artifacts: repository.NewArtifactRepository(db),
		Fetcher:   fetcher,
		Keywords:  kw,
		Resolver:  taxonomy.NewResolver(tax, cfg.Taxonomy.OverlapThreshold),
		Sources:   NewSources(cfg, log),
		Archive:   archive,
		Logger:    log,
	}, cfg.Harvest), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/timmy/trendharvest/internal/config"
	"github.com/timmy/trendharvest/internal/domain"
	"github.com/timmy/trendharvest/internal/extractor"
	"github.com/timmy/trendharvest/internal/keywords"
	"github.com/timmy/trendharvest/internal/logger"
	"github.com/timmy/trendharvest/internal/repository"
	"github.com/timmy/trendharvest/internal/source"
	"github.com/timmy/trendharvest/internal/storage"
	"github.com/timmy/trendharvest/internal/taxonomy"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidURL is returned when a submitted URL has no usable host.
	ErrInvalidURL = errors.New("invalid url")
	// ErrRunNotFinished is returned when results are requested before a run ends.
	ErrRunNotFinished = errors.New("run not finished")
	// ErrShuttingDown is returned by StartRun after Shutdown was called.
	ErrShuttingDown = errors.New("harvester is shutting down")

	errNoContent  = errors.New("could not extract or analyze content")
	errNoKeywords = errors.New("no keywords extracted")
)

// Pipeline stage names used in logs.
const (
	stageContent   = "content"
	stageArchive   = "archive"
	stageKeywords  = "keywords"
	stageClassify  = "classification"
	stageTrends    = "search_interest"
	stageVideos    = "videos"
	stageNews      = "news"
	finalizeBudget = 5 * time.Second
)

// ContentFetcher returns the main text of a page, or "" when it cannot.
type ContentFetcher interface {
	Extract(ctx context.Context, url string) string
}

// Sources groups the optional enrichment providers. A nil source skips its stage.
type Sources struct {
	Trends source.TrendsSource
	Videos source.VideoSource
	News   source.NewsSource
}

// HarvesterDeps are the collaborators of a Harvester.
type HarvesterDeps struct {
	Runs      *repository.RunRepository
	Artifacts *repository.ArtifactRepository
	Fetcher   ContentFetcher
	Keywords  *keywords.Extractor
	Resolver  *taxonomy.Resolver
	Sources   Sources
	Archive   *storage.ContentArchive
	Logger    *logger.Logger
}

// Harvester runs the analysis pipeline for submitted URLs.
type Harvester struct {
	runs      *repository.RunRepository
	artifacts *repository.ArtifactRepository
	fetcher   ContentFetcher
	keywords  *keywords.Extractor
	resolver  *taxonomy.Resolver
	sources   Sources
	archive   *storage.ContentArchive
	logger    *logger.Logger
	cfg       config.HarvestConfig

	sem    chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
	active atomic.Int64

	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewHarvester creates a Harvester. Zero values in cfg fall back to defaults.
func NewHarvester(deps HarvesterDeps, cfg config.HarvestConfig) *Harvester {
	applyHarvestDefaults(&cfg)

	log := deps.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Harvester{
		runs:      deps.Runs,
		artifacts: deps.Artifacts,
		fetcher:   deps.Fetcher,
		keywords:  deps.Keywords,
		resolver:  deps.Resolver,
		sources:   deps.Sources,
		archive:   deps.Archive,
		logger:    log.WithField(logger.FieldComponent, "harvester"),
		cfg:       cfg,
		sem:       make(chan struct{}, cfg.MaxConcurrentRuns),
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

func applyHarvestDefaults(cfg *config.HarvestConfig) {
	if cfg.MaxConcurrentRuns <= 0 {
		cfg.MaxConcurrentRuns = 4
	}
	if cfg.MinContentLength <= 0 {
		cfg.MinContentLength = 50
	}
	if cfg.MaxKeywords <= 0 {
		cfg.MaxKeywords = 25
	}
	if cfg.CategoryTerms <= 0 {
		cfg.CategoryTerms = 10
	}
	if cfg.SeedKeywords <= 0 {
		cfg.SeedKeywords = 7
	}
	if cfg.TrendsBatchSize <= 0 {
		cfg.TrendsBatchSize = 5
	}
	if cfg.TrendsParallelism <= 0 {
		cfg.TrendsParallelism = 1
	}
	if cfg.SignalKeywords <= 0 {
		cfg.SignalKeywords = 3
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.EnrichmentTimeout <= 0 {
		cfg.EnrichmentTimeout = 10 * time.Second
	}
}

// log returns a logger from context if available, otherwise the harvester's own.
func (h *Harvester) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, h.logger)
}

// NormalizeURL prepends https:// when rawURL has no scheme and checks that
// the result is an http(s) URL with a host.
func NormalizeURL(rawURL string) (string, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u.String(), nil
}

// StartRun records a pending run for rawURL and analyses it in the
// background. The run id is returned before analysis starts.
func (h *Harvester) StartRun(ctx context.Context, rawURL string) (uint, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0, ErrShuttingDown
	}
	h.wg.Add(1)
	h.mu.Unlock()

	run, err := h.runs.Create(ctx, target)
	if err != nil {
		h.wg.Done()
		return 0, err
	}

	// The run outlives the request but keeps its log fields.
	runCtx := h.log(ctx).WithField(logger.FieldComponent, "harvester").WithContext(h.baseCtx)

	go func() {
		defer h.wg.Done()

		select {
		case h.sem <- struct{}{}:
		case <-h.baseCtx.Done():
			h.fail(runCtx, run.ID, ErrShuttingDown)
			return
		}
		defer func() { <-h.sem }()

		h.execute(runCtx, run.ID, target)
	}()

	h.log(ctx).WithField(logger.FieldRunID, run.ID).WithField(logger.FieldURL, target).
		Info("Run started")
	return run.ID, nil
}

// RunAnalysis analyses rawURL synchronously and returns the run id. The
// returned error is non-nil only when no run could be recorded; pipeline
// failures are reported through the run status.
func (h *Harvester) RunAnalysis(ctx context.Context, rawURL string) (uint, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return 0, err
	}
	run, err := h.runs.Create(ctx, target)
	if err != nil {
		return 0, err
	}
	h.execute(ctx, run.ID, target)
	return run.ID, nil
}

// execute runs the pipeline and turns any error or panic into a failed run.
func (h *Harvester) execute(ctx context.Context, runID uint, target string) {
	ctx = logger.SetRunID(h.log(ctx).WithContext(ctx), runID)
	h.active.Add(1)
	defer h.active.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			h.fail(ctx, runID, fmt.Errorf("internal error: %v", r))
		}
	}()

	if err := h.pipeline(ctx, runID, target); err != nil {
		h.fail(ctx, runID, err)
	}
}

func (h *Harvester) pipeline(ctx context.Context, runID uint, target string) error {
	start := time.Now()
	running := domain.RunStatusRunning
	if err := h.runs.Update(ctx, runID, repository.RunUpdate{Status: &running}); err != nil {
		return err
	}

	text, contentSource, err := h.content(logger.SetStage(ctx, stageContent), runID, target)
	if err != nil {
		return err
	}

	if h.archive != nil {
		h.archiveContent(logger.SetStage(ctx, stageArchive), runID, text)
	}

	kws, err := h.extractKeywords(logger.SetStage(ctx, stageKeywords), runID, text)
	if err != nil {
		return err
	}

	res, externalID, err := h.classify(logger.SetStage(ctx, stageClassify), runID, kws)
	if err != nil {
		return err
	}

	h.collectTrends(logger.SetStage(ctx, stageTrends), runID, topTerms(kws, h.cfg.SeedKeywords), res.InternalID)

	signalTerms := topTerms(kws, h.cfg.SignalKeywords)
	if h.sources.Videos != nil {
		h.collectVideos(logger.SetStage(ctx, stageVideos), runID, externalID, signalTerms)
	}
	if h.sources.News != nil {
		h.collectNews(logger.SetStage(ctx, stageNews), runID, res.Name, signalTerms)
	}

	completed := domain.RunStatusCompleted
	notes := fmt.Sprintf("analysis completed with %.2f category confidence", res.Confidence)
	if err := h.runs.Update(ctx, runID, repository.RunUpdate{Status: &completed, Notes: &notes}); err != nil {
		return err
	}

	logger.With(logger.Fields{
		"content_source":  contentSource,
		"category":        res.Name,
		"category_method": res.Method,
	}).WithCount(len(kws)).WithStatus(string(completed)).WithDuration(start).Info(ctx, "Run completed")
	return nil
}

// content fetches the page and falls back to a synthesized description when
// the page yields too little text.
func (h *Harvester) content(ctx context.Context, runID uint, target string) (string, domain.ContentSource, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, h.cfg.FetchTimeout)
	text := strings.TrimSpace(h.fetcher.Extract(fetchCtx, target))
	cancel()

	src := domain.ContentSourcePage
	if utf8.RuneCountInString(text) < h.cfg.MinContentLength {
		h.log(ctx).WithField(logger.FieldSize, utf8.RuneCountInString(text)).
			Info("Page content too short, synthesizing from URL")
		text = extractor.Synthesize(target)
		src = domain.ContentSourceSynthesized
	}
	if text == "" {
		return "", "", errNoContent
	}

	if err := h.runs.Update(ctx, runID, repository.RunUpdate{ContentSource: &src}); err != nil {
		return "", "", err
	}
	return text, src, nil
}

func (h *Harvester) archiveContent(ctx context.Context, runID uint, text string) {
	archiveCtx, cancel := context.WithTimeout(ctx, h.cfg.EnrichmentTimeout)
	defer cancel()

	key, err := h.archive.Save(archiveCtx, runID, text)
	if err != nil {
		h.log(ctx).WithError(err).Warn("Content archive failed")
		return
	}
	if err := h.runs.Update(ctx, runID, repository.RunUpdate{ContentArchiveKey: &key}); err != nil {
		h.log(ctx).WithError(err).Warn("Failed to record archive key")
	}
}

func (h *Harvester) extractKeywords(ctx context.Context, runID uint, text string) ([]keywords.Keyword, error) {
	kws := h.keywords.Extract(text, h.cfg.MaxKeywords)
	if len(kws) == 0 {
		return nil, errNoKeywords
	}

	rows := make([]domain.Keyword, len(kws))
	for i, kw := range kws {
		rows[i] = domain.Keyword{Term: kw.Term, Score: kw.Score}
	}
	n, err := h.artifacts.SaveKeywords(ctx, runID, rows)
	if err != nil {
		return nil, err
	}
	logger.With(logger.Fields{"scorer": h.keywords.ScorerName()}).WithCount(int(n)).
		Debug(ctx, "Keywords saved")
	return kws, nil
}

func (h *Harvester) classify(ctx context.Context, runID uint, kws []keywords.Keyword) (taxonomy.Resolution, string, error) {
	res := h.resolver.ResolveTopicCategory(strings.Join(topTerms(kws, h.cfg.CategoryTerms), " "))
	externalID := h.resolver.ResolveExternalCategory(res.Name)

	err := h.runs.Update(ctx, runID, repository.RunUpdate{
		DetectedCategoryName: &res.Name,
		DetectedCategoryID:   &res.InternalID,
		ExternalCategoryID:   &externalID,
		CategoryConfidence:   &res.Confidence,
	})
	if err != nil {
		return taxonomy.Resolution{}, "", err
	}

	h.log(ctx).WithFields(logger.Fields{
		"category":    res.Name,
		"method":      res.Method,
		"confidence":  res.Confidence,
		"external_id": externalID,
	}).Info("Category resolved")
	return res, externalID, nil
}

// collectTrends queries search interest in batches. Batches run with bounded
// parallelism and fail independently.
func (h *Harvester) collectTrends(ctx context.Context, runID uint, terms []string, categoryID int) {
	if h.sources.Trends == nil || len(terms) == 0 {
		return
	}

	ctx = logger.SetSource(ctx, h.sources.Trends.Name())
	var g errgroup.Group
	g.SetLimit(h.cfg.TrendsParallelism)
	for i, batch := range batches(terms, h.cfg.TrendsBatchSize) {
		batchCtx := logger.WithField(ctx, logger.FieldBatch, i)
		g.Go(func() error {
			h.trendsBatch(batchCtx, runID, batch, categoryID)
			return nil
		})
	}
	_ = g.Wait()
}

func (h *Harvester) trendsBatch(ctx context.Context, runID uint, terms []string, categoryID int) {
	log := h.log(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Search interest batch panicked: %v", r)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, h.cfg.EnrichmentTimeout)
	points, err := h.sources.Trends.InterestOverTime(callCtx, terms, categoryID)
	cancel()
	if err != nil {
		log.WithError(err).Warnf("Interest over time failed for %v", terms)
	} else if _, err := h.artifacts.SaveInterestPoints(ctx, runID, points); err != nil {
		log.WithError(err).Warn("Failed to save interest points")
	}

	callCtx, cancel = context.WithTimeout(ctx, h.cfg.EnrichmentTimeout)
	queries, err := h.sources.Trends.RisingQueries(callCtx, terms, categoryID)
	cancel()
	if err != nil {
		log.WithError(err).Warnf("Rising queries failed for %v", terms)
	} else if _, err := h.artifacts.SaveRelatedQueries(ctx, runID, queries); err != nil {
		log.WithError(err).Warn("Failed to save related queries")
	}
}

func (h *Harvester) collectVideos(ctx context.Context, runID uint, categoryID string, terms []string) {
	ctx = logger.SetSource(ctx, h.sources.Videos.Name())
	log := h.log(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Video lookup panicked: %v", r)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, h.cfg.EnrichmentTimeout)
	defer cancel()

	videos, err := h.sources.Videos.Videos(callCtx, categoryID, terms)
	if err != nil {
		log.WithError(err).Warn("Video lookup failed")
		return
	}
	if _, err := h.artifacts.SaveVideos(ctx, runID, videos); err != nil {
		log.WithError(err).Warn("Failed to save videos")
	}
}

func (h *Harvester) collectNews(ctx context.Context, runID uint, category string, terms []string) {
	ctx = logger.SetSource(ctx, h.sources.News.Name())
	log := h.log(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("News lookup panicked: %v", r)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, h.cfg.EnrichmentTimeout)
	defer cancel()

	articles, err := h.sources.News.Articles(callCtx, category, terms)
	if err != nil {
		log.WithError(err).Warn("News lookup failed")
		return
	}
	if _, err := h.artifacts.SaveNews(ctx, runID, articles); err != nil {
		log.WithError(err).Warn("Failed to save news")
	}
}

// fail marks a run failed with cause as its notes. It uses its own deadline
// so a cancelled run context still gets recorded.
func (h *Harvester) fail(ctx context.Context, runID uint, cause error) {
	updateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeBudget)
	defer cancel()

	failed := domain.RunStatusFailed
	notes := cause.Error()
	if err := h.runs.Update(updateCtx, runID, repository.RunUpdate{Status: &failed, Notes: &notes}); err != nil {
		h.log(ctx).WithError(err).Error("Failed to mark run failed")
		return
	}
	h.log(ctx).WithField(logger.FieldStatus, failed).WithError(cause).Warn("Run failed")
}

// RunStatus returns a run's status and notes.
func (h *Harvester) RunStatus(ctx context.Context, runID uint) (domain.RunStatus, string, error) {
	return h.runs.GetStatus(ctx, runID)
}

// RunResults returns everything stored for a finished run.
func (h *Harvester) RunResults(ctx context.Context, runID uint) (*domain.Results, error) {
	res, err := h.runs.Results(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !res.Run.Status.IsTerminal() {
		return nil, ErrRunNotFinished
	}
	return res, nil
}

// Categories lists the built-in taxonomy.
func (h *Harvester) Categories() []domain.Category {
	return taxonomy.StaticCategories()
}

// ActiveRuns is the number of pipelines currently executing.
func (h *Harvester) ActiveRuns() int64 {
	return h.active.Load()
}

// Shutdown stops accepting runs and waits for in-flight ones. When ctx ends
// first, remaining runs are cancelled and ctx's error is returned.
func (h *Harvester) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.cancel()
		return nil
	case <-ctx.Done():
		h.cancel()
		<-done
		return ctx.Err()
	}
}

func topTerms(kws []keywords.Keyword, n int) []string {
	if n > len(kws) {
		n = len(kws)
	}
	terms := make([]string, n)
	for i := 0; i < n; i++ {
		terms[i] = kws[i].Term
	}
	return terms
}

func batches(terms []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(terms); start += size {
		end := start + size
		if end > len(terms) {
			end = len(terms)
		}
		out = append(out, terms[start:end])
	}
	return out
}

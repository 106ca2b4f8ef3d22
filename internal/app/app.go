package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"NewsCurator/internal/annotate"
	"NewsCurator/internal/config"
	"NewsCurator/internal/infrastructure/collector"
	"NewsCurator/internal/infrastructure/llm"
	"NewsCurator/internal/infrastructure/storage"
	"NewsCurator/internal/logging"
	"NewsCurator/internal/ports"
	"NewsCurator/internal/quota"
	"NewsCurator/internal/score"
	"NewsCurator/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	pipeline  *usecase.Pipeline
	moderator *usecase.Moderator
	status    ports.StatusStore
	corpus    ports.CorpusStore
	cache     ports.SummaryCache
	logger    *slog.Logger
}

// New builds a runnable application instance. The summary cache is
// optional; when the database cannot be opened the annotator simply pays
// full price for every call.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	corpusStore := storage.NewCorpusFile(filepath.Join(cfg.Data.Dir, cfg.Data.CorpusFile))
	statusStore := storage.NewStatusFile(filepath.Join(cfg.Data.Dir, cfg.Data.StatusFile))
	blacklist := storage.NewBlacklistFile(filepath.Join(cfg.Data.Dir, cfg.Data.BlacklistFile))

	var cache ports.SummaryCache
	if cfg.Data.CacheDB != "" {
		db, err := storage.OpenSummaryCache(filepath.Join(cfg.Data.Dir, cfg.Data.CacheDB))
		if err != nil {
			baseLogger.Warn("summary cache unavailable", "error", err)
		} else {
			cache = db
		}
	}

	var generator ports.TextGenerator
	if cfg.Gemini.APIKey != "" {
		generator = llm.NewGeminiClient(cfg.Gemini)
	}

	annotator := annotate.New(generator, cache, annotate.Options{
		RequestDelay:  cfg.Gemini.RequestDelay,
		BackoffBase:   cfg.Gemini.BackoffBase,
		MaxAttempts:   cfg.Gemini.MaxAttempts,
		SummaryMinLen: cfg.Curation.SummaryMinLen,
		SummaryMaxLen: cfg.Curation.SummaryMaxLen,
	}, logging.ForComponent(baseLogger, "annotator"))

	collectors := make([]ports.Collector, 0, len(cfg.Feeds))
	for _, feed := range cfg.Feeds {
		collectors = append(collectors, collector.NewRSSCollector(
			feed, cfg.Curation.FeedEntryCap, logging.ForComponent(baseLogger, "collector")))
	}

	deps := usecase.PipelineDeps{
		Collectors:  collectors,
		Annotator:   annotator,
		Scorer:      score.New(cfg.Scoring, cfg.Filters.CoreKeywords),
		CorpusStore: corpusStore,
		StatusStore: statusStore,
		Blacklist:   blacklist,
		PageFetcher: collector.NewPageFetcher(nil),
		Logger:      logging.ForComponent(baseLogger, "pipeline"),
	}

	return &Application{
		cfg:       cfg,
		pipeline:  usecase.NewPipeline(cfg, deps),
		moderator: usecase.NewModerator(cfg, deps),
		status:    statusStore,
		corpus:    corpusStore,
		cache:     cache,
		logger:    baseLogger,
	}
}

// Run performs a single curation run.
func (a *Application) Run(ctx context.Context) error {
	return a.pipeline.Run(ctx)
}

// Blacklist permanently excludes a URL and drops it from the corpus.
func (a *Application) Blacklist(url string) error {
	return a.moderator.Blacklist(url)
}

// ManualPost annotates and stores a manually submitted URL.
func (a *Application) ManualPost(ctx context.Context, url string) error {
	return a.moderator.ManualPost(ctx, url)
}

// Delete removes a single article by id.
func (a *Application) Delete(id string) error {
	return a.moderator.Delete(id)
}

// Purge re-applies exclusion rules and retention to the stored corpus and
// reports how many articles were removed.
func (a *Application) Purge() (int, error) {
	return a.moderator.Purge()
}

// Quota reports the current annotation budget without spending anything.
func (a *Application) Quota() (quota.Status, *quota.Ledger, error) {
	status, err := a.status.Load()
	if err != nil {
		return quota.Status{}, nil, err
	}
	return status, quota.NewLedger(a.cfg.Quota, status, time.Now), nil
}

// Corpus returns the stored article set for inspection.
func (a *Application) Corpus() (int, time.Time, error) {
	corpus, err := a.corpus.Load()
	if err != nil {
		return 0, time.Time{}, err
	}
	updated, _ := time.Parse(time.RFC3339, corpus.LastUpdated)
	return len(corpus.Articles), updated, nil
}

// Close releases the summary cache handle.
func (a *Application) Close() error {
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsCurator/internal/annotate"
	"NewsCurator/internal/balance"
	"NewsCurator/internal/config"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/filter"
	"NewsCurator/internal/infrastructure/collector"
	"NewsCurator/internal/merge"
	"NewsCurator/internal/ports"
	"NewsCurator/internal/quota"
	"NewsCurator/internal/score"
)

// RunContext carries the per-run counters through the pipeline stages.
// Each counter is mutated only by the stage that owns it; annotation call
// counts live in the quota ledger, never here.
type RunContext struct {
	StartedAt       time.Time
	CandidatesSeen  int
	Rejected        map[string]int
	Admitted        int
	Balanced        int
	Annotated       int
	Skipped         int
	NeedsRetry      int
	Retried         int
	ArticlesAdded   int
	CollectorErrors int
}

// NewRunContext initializes the counters.
func NewRunContext(start time.Time) *RunContext {
	return &RunContext{StartedAt: start, Rejected: make(map[string]int)}
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Collectors  []ports.Collector
	Annotator   *annotate.Annotator
	Scorer      *score.Scorer
	CorpusStore ports.CorpusStore
	StatusStore ports.StatusStore
	Blacklist   ports.BlacklistStore
	PageFetcher ports.PageFetcher
	Logger      *slog.Logger
	Now         func() time.Time
}

// Pipeline implements one full curation run: collect, filter, score,
// balance, annotate, merge, persist. Strictly sequential; the annotation
// budget is the binding constraint and serial execution keeps its
// accounting exact.
type Pipeline struct {
	cfg         config.Config
	collectors  []ports.Collector
	annotator   *annotate.Annotator
	scorer      *score.Scorer
	corpusStore ports.CorpusStore
	statusStore ports.StatusStore
	blacklist   ports.BlacklistStore
	pageFetcher ports.PageFetcher
	logger      *slog.Logger
	now         func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(cfg config.Config, deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		cfg:         cfg,
		collectors:  deps.Collectors,
		annotator:   deps.Annotator,
		scorer:      deps.Scorer,
		corpusStore: deps.CorpusStore,
		statusStore: deps.StatusStore,
		blacklist:   deps.Blacklist,
		pageFetcher: deps.PageFetcher,
		logger:      logger,
		now:         now,
	}
}

// Run executes one batch run. Both documents are read once at start and
// written once at the end; persistence failures are fatal for the run.
func (p *Pipeline) Run(ctx context.Context) error {
	run := NewRunContext(p.now())

	corpus, err := p.corpusStore.Load()
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	excluded, err := p.blacklist.Load()
	if err != nil {
		return fmt.Errorf("load blacklist: %w", err)
	}
	status, err := p.statusStore.Load()
	if err != nil {
		return fmt.Errorf("load status: %w", err)
	}

	ledger := quota.NewLedger(p.cfg.Quota, status, p.now)
	p.logger.Info("run started",
		"corpus", len(corpus.Articles),
		"budget_remaining", ledger.Remaining(),
		"period_start", ledger.PeriodStart().Format(time.RFC3339))

	candidates := p.collect(ctx, run)

	chain := filter.NewChain(p.cfg.Filters, p.cfg.Feeds, filter.NewDupIndex(corpus, excluded))
	admitted := p.filterStage(chain, candidates, run)

	ranked := p.rankStage(admitted)
	balanced := p.balanceStage(ranked, ledger.Remaining(), run)

	p.retryStage(ctx, &corpus, ledger, run)
	incoming := p.annotateStage(ctx, balanced, ledger, run)

	merged := merge.Merge(corpus.Articles, incoming, run.StartedAt, merge.Options{
		RetentionDays: p.cfg.Curation.RetentionDays,
		MaxArticles:   p.cfg.Curation.MaxArticles,
	})
	run.ArticlesAdded = len(incoming)

	if err := p.corpusStore.Save(merge.BuildCorpus(merged, run.StartedAt)); err != nil {
		return fmt.Errorf("save corpus: %w", err)
	}

	report := quota.RunReport{
		Timestamp:         run.StartedAt.Format(time.RFC3339),
		ArticlesProcessed: run.CandidatesSeen,
		ArticlesAdded:     run.ArticlesAdded,
		APICalls:          ledger.SpentThisRun(),
		Success:           true,
	}
	if err := p.statusStore.Save(ledger.Snapshot(report)); err != nil {
		return fmt.Errorf("save status: %w", err)
	}

	p.logger.Info("run finished",
		"seen", run.CandidatesSeen,
		"admitted", run.Admitted,
		"balanced", run.Balanced,
		"annotated", run.Annotated,
		"skipped", run.Skipped,
		"needs_retry", run.NeedsRetry,
		"retried", run.Retried,
		"calls_spent", ledger.SpentThisRun(),
		"corpus", len(merged))
	return nil
}

// collect walks the configured sources in order. A failing collector is
// logged and skipped; its candidates simply return on a later run.
func (p *Pipeline) collect(ctx context.Context, run *RunContext) []domain.Candidate {
	var all []domain.Candidate
	seen := make(map[string]struct{})

	for _, c := range p.collectors {
		batch, err := c.Collect(ctx)
		if err != nil {
			run.CollectorErrors++
			p.logger.Warn("collector failed", "collector", c.Name(), "error", err)
			continue
		}
		for _, cand := range batch {
			if _, dup := seen[cand.URL]; dup {
				continue
			}
			seen[cand.URL] = struct{}{}
			all = append(all, cand)
		}
	}
	run.CandidatesSeen = len(all)
	return all
}

func (p *Pipeline) filterStage(chain *filter.Chain, candidates []domain.Candidate, run *RunContext) []domain.Candidate {
	admitted := make([]domain.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		verdict := chain.Admit(cand)
		if !verdict.Accepted {
			run.Rejected[verdict.Rule]++
			p.logger.Debug("candidate rejected", "rule", verdict.Rule, "reason", verdict.Reason, "title", cand.Title)
			continue
		}
		admitted = append(admitted, cand)
	}
	run.Admitted = len(admitted)
	return admitted
}

func (p *Pipeline) rankStage(admitted []domain.Candidate) []balance.Ranked {
	ranked := make([]balance.Ranked, 0, len(admitted))
	for _, cand := range admitted {
		ranked = append(ranked, balance.Ranked{
			Candidate: cand,
			Score:     p.scorer.Score(cand),
			Category:  score.Classify(cand.Title, cand.Summary),
		})
	}
	balance.SortByRank(ranked)
	return ranked
}

func (p *Pipeline) balanceStage(ranked []balance.Ranked, target int, run *RunContext) []balance.Ranked {
	capped := balance.ByDomain(ranked, p.cfg.Curation.MaxPerDomain)
	balanced := balance.ByCategory(capped, target, p.cfg.Curation.MaxCategoryShare)
	run.Balanced = len(balanced)
	return balanced
}

// annotateStage runs the strictly serial annotation loop. The ledger is
// queried before every call; the moment the budget is exhausted the rest
// of the list is left for the next run.
func (p *Pipeline) annotateStage(ctx context.Context, balanced []balance.Ranked, ledger *quota.Ledger, run *RunContext) []domain.Article {
	incoming := make([]domain.Article, 0, len(balanced))

	for _, item := range balanced {
		if !ledger.Reserve(1) {
			p.logger.Info("annotation budget exhausted, deferring remainder",
				"deferred", len(balanced)-len(incoming))
			break
		}

		res := p.annotator.Annotate(ctx, item.Candidate)
		ledger.Spend(res.CallsSpent)

		switch res.State {
		case annotate.StateSkipped:
			run.Skipped++
			continue
		case annotate.StateAnnotated:
			run.Annotated++
			incoming = append(incoming, p.buildArticle(ctx, item, res))
		case annotate.StateNeedsRetry:
			run.NeedsRetry++
			incoming = append(incoming, p.buildArticle(ctx, item, res))
		}
	}
	return incoming
}

// retryStage re-annotates articles persisted with a placeholder on an
// earlier run, bounded by the per-run retry quota.
func (p *Pipeline) retryStage(ctx context.Context, corpus *domain.Corpus, ledger *quota.Ledger, run *RunContext) {
	retried := 0
	for i := range corpus.Articles {
		if retried >= p.cfg.Curation.PerRunRetryQuota {
			break
		}
		art := corpus.Articles[i]
		if !art.AwaitingSummary() {
			continue
		}
		if !ledger.Reserve(1) {
			break
		}

		cand := domain.Candidate{
			Title:  art.Title,
			URL:    art.URL,
			Source: art.Source,
		}
		// The stored summary is a placeholder, so refetch the page to
		// give the model more than the bare title.
		if p.pageFetcher != nil {
			if meta, err := p.pageFetcher.Fetch(ctx, art.URL); err == nil {
				cand.Summary = meta.Description
				if cand.Summary == "" {
					cand.Summary = meta.BodyExcerpt
				}
			}
		}

		res := p.annotator.Annotate(ctx, cand)
		ledger.Spend(res.CallsSpent)
		retried++

		if res.State == annotate.StateAnnotated {
			corpus.Articles[i].Summary = res.Summary
			corpus.Articles[i].Category = res.Category
			corpus.Articles[i].MainKeyword = res.MainKeyword
			corpus.Articles[i].SummaryQuality = domain.QualityValid
			run.Retried++
		}
	}
}

// buildArticle turns an annotation outcome into the persisted shape. A
// needs-retry outcome gets the placeholder text, never raw source text.
func (p *Pipeline) buildArticle(ctx context.Context, item balance.Ranked, res annotate.Result) domain.Article {
	cand := item.Candidate
	id := domain.ArticleID(cand.URL)

	category := res.Category
	if category == "" {
		category = item.Category
	}

	summary := res.Summary
	quality := res.Quality
	if res.State == annotate.StateNeedsRetry {
		summary = domain.PlaceholderSummary
		if quality == "" || quality == domain.QualityValid {
			quality = domain.QualityPlaceholder
		}
	}

	imageURL := cand.ImageURL
	if imageURL == "" && p.pageFetcher != nil {
		if meta, err := p.pageFetcher.Fetch(ctx, cand.URL); err == nil && meta.ImageURL != "" {
			imageURL = meta.ImageURL
		}
	}
	if imageURL == "" {
		imageURL = collector.FallbackImage(id)
	}

	return domain.Article{
		ID:             id,
		Title:          cand.Title,
		Summary:        summary,
		Category:       category,
		Date:           cand.PublishedAt.Format("2006-01-02"),
		URL:            cand.URL,
		ImageURL:       imageURL,
		Source:         cand.Source,
		MainKeyword:    res.MainKeyword,
		Origin:         domain.OriginAutomatic,
		SummaryQuality: quality,
		AddedAt:        p.now().Format(time.RFC3339),
	}
}

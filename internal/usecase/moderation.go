package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsCurator/internal/annotate"
	"NewsCurator/internal/config"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/infrastructure/collector"
	"NewsCurator/internal/jptext"
	"NewsCurator/internal/merge"
	"NewsCurator/internal/ports"
	"NewsCurator/internal/quota"
	"NewsCurator/internal/score"
)

// Moderator implements the human curation operations that sit next to the
// automatic pipeline: permanent exclusion, manual submission, deletion and
// corpus purging.
type Moderator struct {
	cfg         config.Config
	annotator   *annotate.Annotator
	corpusStore ports.CorpusStore
	statusStore ports.StatusStore
	blacklist   ports.BlacklistStore
	pageFetcher ports.PageFetcher
	logger      *slog.Logger
	now         func() time.Time
}

// NewModerator constructs the moderation component from the same adapter
// set the pipeline uses.
func NewModerator(cfg config.Config, deps PipelineDeps) *Moderator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Moderator{
		cfg:         cfg,
		annotator:   deps.Annotator,
		corpusStore: deps.CorpusStore,
		statusStore: deps.StatusStore,
		blacklist:   deps.Blacklist,
		pageFetcher: deps.PageFetcher,
		logger:      logger,
		now:         now,
	}
}

// Blacklist removes the article with the given URL from the corpus and
// records the URL so no future run can re-admit it. Idempotent.
func (m *Moderator) Blacklist(url string) error {
	excluded, err := m.blacklist.Load()
	if err != nil {
		return fmt.Errorf("load blacklist: %w", err)
	}
	corpus, err := m.corpusStore.Load()
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	now := m.now()
	if !excluded.Contains(url) {
		excluded.ExcludedURLs = append(excluded.ExcludedURLs, url)
		excluded.LastUpdated = now.Format(time.RFC3339)
		if err := m.blacklist.Save(excluded); err != nil {
			return fmt.Errorf("save blacklist: %w", err)
		}
	}

	kept := corpus.Articles[:0:0]
	for _, a := range corpus.Articles {
		if a.URL != url {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(corpus.Articles) {
		m.logger.Info("blacklisted url not present in corpus", "url", url)
		return nil
	}
	if err := m.corpusStore.Save(merge.BuildCorpus(kept, now)); err != nil {
		return fmt.Errorf("save corpus: %w", err)
	}
	m.logger.Info("article blacklisted", "url", url)
	return nil
}

// Delete removes a single article by id without blacklisting its URL, so
// a future run may legitimately re-admit the same story.
func (m *Moderator) Delete(id string) error {
	corpus, err := m.corpusStore.Load()
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	kept := corpus.Articles[:0:0]
	for _, a := range corpus.Articles {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(corpus.Articles) {
		return fmt.Errorf("no article with id %q", id)
	}
	if err := m.corpusStore.Save(merge.BuildCorpus(kept, m.now())); err != nil {
		return fmt.Errorf("save corpus: %w", err)
	}
	m.logger.Info("article deleted", "id", id)
	return nil
}

// ManualPost fetches the page behind the URL, annotates it and stores it
// as a manual article. Manual articles share the same annotation budget
// as automatic runs but are exempt from age-based eviction, and they win
// any conflict with an automatic article for the same URL.
func (m *Moderator) ManualPost(ctx context.Context, url string) error {
	corpus, err := m.corpusStore.Load()
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	excluded, err := m.blacklist.Load()
	if err != nil {
		return fmt.Errorf("load blacklist: %w", err)
	}
	if excluded.Contains(url) {
		return fmt.Errorf("url %s is blacklisted", url)
	}
	for _, a := range corpus.Articles {
		if a.URL == url && a.IsManual() {
			return fmt.Errorf("url %s is already stored as a manual article", url)
		}
	}

	status, err := m.statusStore.Load()
	if err != nil {
		return fmt.Errorf("load status: %w", err)
	}
	ledger := quota.NewLedger(m.cfg.Quota, status, m.now)
	if !ledger.Reserve(1) {
		return quota.ErrBudgetExhausted
	}

	meta, err := m.pageFetcher.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("fetch page: %w", err)
	}
	if meta.Title == "" {
		return fmt.Errorf("page %s has no usable title", url)
	}

	now := m.now()
	cand := domain.Candidate{
		Title:       meta.Title,
		Summary:     meta.Description,
		URL:         url,
		Source:      meta.SiteName,
		ImageURL:    meta.ImageURL,
		PublishedAt: now,
	}
	if cand.Summary == "" {
		cand.Summary = meta.BodyExcerpt
	}
	if cand.Source == "" {
		cand.Source = "手動投稿"
	}

	res := m.annotator.Annotate(ctx, cand)
	ledger.Spend(res.CallsSpent)

	id := domain.ArticleID(url)
	article := domain.Article{
		ID:             id,
		Title:          cand.Title,
		Summary:        res.Summary,
		Category:       res.Category,
		Date:           now.Format("2006-01-02"),
		URL:            url,
		ImageURL:       cand.ImageURL,
		Source:         cand.Source,
		MainKeyword:    res.MainKeyword,
		Origin:         domain.OriginManual,
		SummaryQuality: res.Quality,
		AddedAt:        now.Format(time.RFC3339),
	}
	switch res.State {
	case annotate.StateSkipped:
		// The call was still issued; record the spend before refusing,
		// otherwise the next period computation undercounts.
		report := quota.RunReport{
			Timestamp:         now.Format(time.RFC3339),
			ArticlesProcessed: 1,
			APICalls:          ledger.SpentThisRun(),
			IsManual:          true,
		}
		if err := m.statusStore.Save(ledger.Snapshot(report)); err != nil {
			return fmt.Errorf("save status: %w", err)
		}
		return fmt.Errorf("annotation declined page %s as off topic", url)
	case annotate.StateNeedsRetry:
		article.Summary = domain.PlaceholderSummary
		article.Category = score.Classify(cand.Title, cand.Summary)
		if article.SummaryQuality == "" || article.SummaryQuality == domain.QualityValid {
			article.SummaryQuality = domain.QualityPlaceholder
		}
	}
	if article.ImageURL == "" {
		article.ImageURL = collector.FallbackImage(id)
	}

	merged := merge.Merge(corpus.Articles, []domain.Article{article}, now, merge.Options{
		RetentionDays: m.cfg.Curation.RetentionDays,
		MaxArticles:   m.cfg.Curation.MaxArticles,
	})
	if err := m.corpusStore.Save(merge.BuildCorpus(merged, now)); err != nil {
		return fmt.Errorf("save corpus: %w", err)
	}

	report := quota.RunReport{
		Timestamp:         now.Format(time.RFC3339),
		ArticlesProcessed: 1,
		ArticlesAdded:     1,
		APICalls:          ledger.SpentThisRun(),
		Success:           true,
		IsManual:          true,
	}
	if err := m.statusStore.Save(ledger.Snapshot(report)); err != nil {
		return fmt.Errorf("save status: %w", err)
	}
	m.logger.Info("manual article stored", "id", id, "url", url, "state", string(res.State))
	return nil
}

// Purge re-applies the current exclusion rules and the retention window to
// the persisted corpus, so tightening a keyword list retroactively cleans
// already stored articles. Manual articles are never aged out but are
// still subject to exclusion keywords.
func (m *Moderator) Purge() (int, error) {
	corpus, err := m.corpusStore.Load()
	if err != nil {
		return 0, fmt.Errorf("load corpus: %w", err)
	}

	now := m.now()
	cutoff := now.AddDate(0, 0, -m.cfg.Curation.RetentionDays)
	kept := corpus.Articles[:0:0]
	removed := 0
	for _, a := range corpus.Articles {
		if reason, drop := m.purgeReason(a, cutoff); drop {
			removed++
			m.logger.Info("article purged", "id", a.ID, "title", a.Title, "reason", reason)
			continue
		}
		kept = append(kept, a)
	}
	if removed == 0 {
		return 0, nil
	}
	if err := m.corpusStore.Save(merge.BuildCorpus(kept, now)); err != nil {
		return 0, fmt.Errorf("save corpus: %w", err)
	}
	return removed, nil
}

func (m *Moderator) purgeReason(a domain.Article, cutoff time.Time) (string, bool) {
	text := jptext.Fold(a.Title + " " + a.Summary)

	exempt := false
	for _, s := range m.cfg.Filters.ExemptSources {
		if a.Source == s {
			exempt = true
			break
		}
	}

	if kw, hit := jptext.ContainsAny(text, m.cfg.Filters.StrongExclude.Keywords); hit {
		if _, core := jptext.ContainsAny(text, m.cfg.Filters.StrongExclude.Overrides); !core {
			return "excluded keyword: " + kw, true
		}
	}
	if !exempt {
		if _, core := jptext.ContainsAny(text, m.cfg.Filters.CoreKeywords); !core {
			return "no core theme keyword", true
		}
	}
	if !a.IsManual() && a.PublishedAt().Before(cutoff) {
		return "older than retention window", true
	}
	return "", false
}

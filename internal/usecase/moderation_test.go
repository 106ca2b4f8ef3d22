package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"NewsCurator/internal/annotate"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/infrastructure/collector"
	"NewsCurator/internal/quota"
	"NewsCurator/internal/score"
)

func newTestModerator(t *testing.T, env *testEnv) *Moderator {
	t.Helper()

	annotator := annotate.New(env.gen, nil, annotate.Options{
		BackoffBase:   time.Millisecond,
		MaxAttempts:   env.cfg.Gemini.MaxAttempts,
		SummaryMinLen: env.cfg.Curation.SummaryMinLen,
		SummaryMaxLen: env.cfg.Curation.SummaryMaxLen,
	}, nil)

	return NewModerator(env.cfg, PipelineDeps{
		Annotator:   annotator,
		Scorer:      score.New(env.cfg.Scoring, env.cfg.Filters.CoreKeywords),
		CorpusStore: env.corpus,
		StatusStore: env.status,
		Blacklist:   env.excluded,
		PageFetcher: collector.NewPageFetcher(nil),
		Now:         func() time.Time { return runNow },
	})
}

func seededEnv(t *testing.T, articles ...domain.Article) *testEnv {
	t.Helper()
	env := newTestEnv(t, nil, nil)
	env.corpus.corpus = domain.Corpus{Articles: articles, TotalCount: len(articles)}
	return env
}

func storedArticle(url, title string, daysOld int) domain.Article {
	return domain.Article{
		ID:             domain.ArticleID(url),
		Title:          title,
		Summary:        "特別支援教育に関する検証済みの要約が入っています。",
		Category:       "support",
		Date:           runNow.AddDate(0, 0, -daysOld).Format("2006-01-02"),
		URL:            url,
		Source:         "教育新聞",
		Origin:         domain.OriginAutomatic,
		SummaryQuality: domain.QualityValid,
	}
}

func TestBlacklistRemovesAndRecords(t *testing.T) {
	t.Parallel()

	target := storedArticle("https://example.jp/bad", "特別支援教育の問題記事", 1)
	other := storedArticle("https://example.jp/good", "特別支援教育の良い記事", 1)
	env := seededEnv(t, target, other)
	m := newTestModerator(t, env)

	if err := m.Blacklist(target.URL); err != nil {
		t.Fatalf("Blacklist error: %v", err)
	}

	if !env.excluded.list.Contains(target.URL) {
		t.Fatalf("url must be recorded in the blacklist")
	}
	if env.corpus.corpus.ContainsURL(target.URL) {
		t.Fatalf("blacklisted article must leave the corpus")
	}
	if !env.corpus.corpus.ContainsURL(other.URL) {
		t.Fatalf("other articles must survive")
	}

	// Second call is a no-op, not an error.
	if err := m.Blacklist(target.URL); err != nil {
		t.Fatalf("repeat blacklist must be idempotent: %v", err)
	}
	if len(env.excluded.list.ExcludedURLs) != 1 {
		t.Fatalf("url must be recorded once, got %v", env.excluded.list.ExcludedURLs)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	a := storedArticle("https://example.jp/a", "特別支援教育の記事A", 1)
	env := seededEnv(t, a)
	m := newTestModerator(t, env)

	if err := m.Delete(a.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if env.corpus.corpus.ContainsURL(a.URL) {
		t.Fatalf("deleted article must leave the corpus")
	}
	if env.excluded.list.Contains(a.URL) {
		t.Fatalf("delete must not blacklist the url")
	}
	if err := m.Delete("missing-id-000"); err == nil {
		t.Fatalf("unknown id must error")
	}
}

func TestManualPost(t *testing.T) {
	t.Parallel()

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
			<meta property="og:title" content="手動で投稿する特別支援の記事">
			<meta property="og:description" content="説明文">
			<meta property="og:site_name" content="外部サイト">
		</head><body><article><p>本文</p></article></body></html>`))
	}))
	defer page.Close()

	env := newTestEnv(t, nil, nil)
	env.gen.responses = []string{fmt.Sprintf(`{"summary":%q,"category":"support","mainKeyword":"特別支援"}`, goodSummary)}
	m := newTestModerator(t, env)

	if err := m.ManualPost(context.Background(), page.URL); err != nil {
		t.Fatalf("ManualPost error: %v", err)
	}

	articles := env.corpus.corpus.Articles
	if len(articles) != 1 {
		t.Fatalf("expected one stored article, got %d", len(articles))
	}
	got := articles[0]
	if !got.IsManual() {
		t.Fatalf("manual post must be origin manual: %+v", got)
	}
	if got.Title != "手動で投稿する特別支援の記事" || got.Summary != goodSummary {
		t.Fatalf("unexpected article: %+v", got)
	}
	if got.ImageURL == "" {
		t.Fatalf("manual article still needs an image")
	}

	status := env.status.status
	if !status.LastRun.IsManual || status.LastRun.APICalls != 1 {
		t.Fatalf("manual spend must be ledgered as manual: %+v", status.LastRun)
	}
}

func TestManualPostRejectsKnownURL(t *testing.T) {
	t.Parallel()

	existing := storedArticle("https://example.jp/mine", "特別支援教育の手動記事", 1)
	existing.Origin = domain.OriginManual
	env := seededEnv(t, existing)
	m := newTestModerator(t, env)

	if err := m.ManualPost(context.Background(), existing.URL); err == nil {
		t.Fatalf("existing manual url must be rejected")
	}

	env.excluded.list = domain.Blacklist{ExcludedURLs: []string{"https://example.jp/banned"}}
	if err := m.ManualPost(context.Background(), "https://example.jp/banned"); err == nil {
		t.Fatalf("blacklisted url must be rejected")
	}
	if env.gen.calls != 0 {
		t.Fatalf("rejected posts must not spend quota")
	}
}

func TestManualPostRefusedWithoutBudget(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	env.status.status = quota.Status{History: []quota.HistoryEntry{{
		Timestamp: runNow.Add(-time.Hour).Format(time.RFC3339),
		APICalls:  9,
		Success:   true,
	}}}
	m := newTestModerator(t, env)

	err := m.ManualPost(context.Background(), "https://example.jp/manual")
	if !errors.Is(err, quota.ErrBudgetExhausted) {
		t.Fatalf("expected ErrBudgetExhausted, got %v", err)
	}
	if env.gen.calls != 0 {
		t.Fatalf("no provider call may happen without budget")
	}
}

func TestManualPostSkipVerdictStillLedgersSpend(t *testing.T) {
	t.Parallel()

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
			<meta property="og:title" content="教育とは無関係な記事">
			<meta property="og:description" content="説明文">
		</head><body><p>本文</p></body></html>`))
	}))
	defer page.Close()

	env := newTestEnv(t, nil, nil)
	env.gen.responses = []string{"SKIP"}
	m := newTestModerator(t, env)

	if err := m.ManualPost(context.Background(), page.URL); err == nil {
		t.Fatalf("a skip verdict must surface as an error")
	}
	if env.gen.calls != 1 {
		t.Fatalf("expected exactly one provider call, got %d", env.gen.calls)
	}
	if env.status.saves != 1 {
		t.Fatalf("the issued call must be persisted to status, saves=%d", env.status.saves)
	}
	status := env.status.status
	if status.APIUsage.Used != 1 {
		t.Fatalf("period spend must count the declined call: %+v", status.APIUsage)
	}
	if !status.LastRun.IsManual || status.LastRun.APICalls != 1 || status.LastRun.ArticlesAdded != 0 {
		t.Fatalf("unexpected ledger entry: %+v", status.LastRun)
	}
	if env.corpus.saves != 0 {
		t.Fatalf("a declined page must not be stored")
	}
}

func TestPurge(t *testing.T) {
	t.Parallel()

	keep := storedArticle("https://example.jp/keep", "特別支援教育の現役記事", 1)
	offTheme := storedArticle("https://example.jp/off", "プロ野球の移籍情報", 1)
	offTheme.Summary = "昨日の試合結果と移籍の詳細です。"
	aged := storedArticle("https://example.jp/aged", "特別支援教育の古い記事", 10)
	pinned := storedArticle("https://example.jp/pinned", "特別支援教育の手動記事", 30)
	pinned.Origin = domain.OriginManual

	env := seededEnv(t, keep, offTheme, aged, pinned)
	m := newTestModerator(t, env)

	removed, err := m.Purge()
	if err != nil {
		t.Fatalf("Purge error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}

	c := env.corpus.corpus
	if !c.ContainsURL(keep.URL) {
		t.Fatalf("on-theme fresh article must survive")
	}
	if c.ContainsURL(offTheme.URL) {
		t.Fatalf("off-theme article must be purged")
	}
	if c.ContainsURL(aged.URL) {
		t.Fatalf("aged article must be purged")
	}
	if !c.ContainsURL(pinned.URL) {
		t.Fatalf("manual article must never age out")
	}
}

func TestPurgeNoChangesSkipsWrite(t *testing.T) {
	t.Parallel()

	env := seededEnv(t, storedArticle("https://example.jp/keep", "特別支援教育の記事", 1))
	m := newTestModerator(t, env)

	removed, err := m.Purge()
	if err != nil || removed != 0 {
		t.Fatalf("expected clean purge, got %d %v", removed, err)
	}
	if env.corpus.saves != 0 {
		t.Fatalf("clean purge must not rewrite the corpus")
	}
}

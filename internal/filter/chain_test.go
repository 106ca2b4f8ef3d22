package filter

import (
	"testing"

	"NewsCurator/internal/config"
	"NewsCurator/internal/domain"
)

func newTestChain(t *testing.T, corpus domain.Corpus, blacklist domain.Blacklist) *Chain {
	t.Helper()
	cfg := config.Default()
	return NewChain(cfg.Filters, cfg.Feeds, NewDupIndex(corpus, blacklist))
}

func cand(title, url, source string) domain.Candidate {
	return domain.Candidate{Title: title, URL: url, Source: source}
}

func TestAdmitStructural(t *testing.T) {
	t.Parallel()
	c := newTestChain(t, domain.Corpus{}, domain.Blacklist{})

	v := c.Admit(cand("", "https://example.com/a", "教育新聞"))
	if v.Accepted || v.Rule != "structural" {
		t.Fatalf("empty title must fail structural, got %+v", v)
	}
	v = c.Admit(cand("特別支援教育の記事", "", "教育新聞"))
	if v.Accepted || v.Rule != "structural" {
		t.Fatalf("empty url must fail structural, got %+v", v)
	}
}

func TestAdmitExcludedURL(t *testing.T) {
	t.Parallel()
	c := newTestChain(t, domain.Corpus{}, domain.Blacklist{})

	v := c.Admit(cand("特別支援教育の新制度", "https://example.com/premium/article1", "教育新聞"))
	if v.Accepted || v.Rule != "excluded-url" {
		t.Fatalf("paywall path must be rejected, got %+v", v)
	}
}

func TestAdmitPromotional(t *testing.T) {
	t.Parallel()
	c := newTestChain(t, domain.Corpus{}, domain.Blacklist{})

	v := c.Admit(cand("特別支援教材プレゼント企画のお知らせ", "https://example.com/a", "教育新聞"))
	if v.Accepted || v.Rule != "promotional" {
		t.Fatalf("promo keyword must be rejected, got %+v", v)
	}

	v = c.Admit(cand("【PR】特別支援教材の新商品紹介", "https://example.com/ad", "教育新聞"))
	if v.Accepted || v.Rule != "promotional" {
		t.Fatalf("bracketed ad marker must be rejected, got %+v", v)
	}

	// "PR" inside an ordinary Latin word is not an ad marker.
	v = c.Admit(cand("iPad Proを活用した特別支援教育の実践", "https://example.com/ict", "ICT教育ニュース"))
	if !v.Accepted {
		t.Fatalf("product name containing pr must pass, got %+v", v)
	}
}

func TestAdmitThemePriority(t *testing.T) {
	t.Parallel()
	c := newTestChain(t, domain.Corpus{}, domain.Blacklist{})

	// Pure politics: strong exclude fires.
	v := c.Admit(cand("衆議院選挙の結果について", "https://example.com/politics", "教育新聞"))
	if v.Accepted {
		t.Fatalf("pure politics must be rejected, got %+v", v)
	}
	if v.Rule != "strong-exclude" {
		t.Fatalf("expected strong-exclude, got %q", v.Rule)
	}

	// Same exclude keyword but with a core theme: the core theme wins.
	v = c.Admit(cand("衆議院で特別支援教育の予算を議論", "https://example.com/policy", "教育新聞"))
	if !v.Accepted {
		t.Fatalf("core theme must override exclude keyword, got %+v", v)
	}
}

func TestAdmitNicheRule(t *testing.T) {
	t.Parallel()
	c := newTestChain(t, domain.Corpus{}, domain.Blacklist{})

	v := c.Admit(cand("大手学習塾が夏期講習を開始", "https://example.com/juku", "教育新聞"))
	if v.Accepted || v.Rule != "commercial-tutoring" {
		t.Fatalf("tutoring ad must be rejected, got %+v", v)
	}

	v = c.Admit(cand("発達障害の子に向けた学習塾の新しい試み", "https://example.com/juku2", "教育新聞"))
	if !v.Accepted {
		t.Fatalf("tutoring with override keyword must pass, got %+v", v)
	}
}

func TestAdmitCoreTheme(t *testing.T) {
	t.Parallel()
	c := newTestChain(t, domain.Corpus{}, domain.Blacklist{})

	v := c.Admit(cand("小学校で運動会が開かれました", "https://example.com/off", "教育新聞"))
	if v.Accepted || v.Rule != "core-theme" {
		t.Fatalf("off-theme candidate must be rejected, got %+v", v)
	}

	// Exempt sources skip the core requirement.
	v = c.Admit(cand("新しい教育サービスが登場", "https://example.com/resemom", "リセマム"))
	if !v.Accepted {
		t.Fatalf("exempt source must skip core-theme rule, got %+v", v)
	}
}

func TestAdmitSourceStrict(t *testing.T) {
	t.Parallel()
	c := newTestChain(t, domain.Corpus{}, domain.Blacklist{})

	// A general-news feed needs a strict-list keyword even when a core
	// keyword admitted it through the theme rules.
	v := c.Admit(cand("多様な学びを支える新しい取り組み", "https://news.example.jp/1", "NHK NEWS WEB"))
	if v.Accepted || v.Rule != "source-strict" {
		t.Fatalf("general news without strict keyword must be rejected, got %+v", v)
	}

	v = c.Admit(cand("不登校の子どもを支える新しい取り組み", "https://news.example.jp/2", "NHK NEWS WEB"))
	if !v.Accepted {
		t.Fatalf("strict keyword must admit, got %+v", v)
	}
}

func TestAdmitBlacklistAndDuplicate(t *testing.T) {
	t.Parallel()

	corpus := domain.Corpus{Articles: []domain.Article{
		{URL: "https://example.com/known", Title: "既知の特別支援教育の記事"},
	}}
	blacklist := domain.Blacklist{ExcludedURLs: []string{"https://example.com/banned"}}
	c := newTestChain(t, corpus, blacklist)

	v := c.Admit(cand("特別支援教育に関する記事", "https://example.com/banned", "教育新聞"))
	if v.Accepted || v.Rule != "blacklist" {
		t.Fatalf("blacklisted url must be rejected, got %+v", v)
	}

	v = c.Admit(cand("特別支援教育の続報", "https://example.com/known", "教育新聞"))
	if v.Accepted || v.Rule != "duplicate" {
		t.Fatalf("known url must be rejected as duplicate, got %+v", v)
	}

	v = c.Admit(cand("既知の特別支援教育の記事", "https://example.com/other", "教育新聞"))
	if v.Accepted || v.Rule != "duplicate" {
		t.Fatalf("known title must be rejected as duplicate, got %+v", v)
	}
}

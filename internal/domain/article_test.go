package domain

import (
	"testing"
	"time"
)

func TestArticleID(t *testing.T) {
	t.Parallel()

	id := ArticleID("https://example.com/news/1")
	if len(id) != 12 {
		t.Fatalf("expected 12-char id, got %q", id)
	}
	if id != ArticleID("https://example.com/news/1") {
		t.Fatalf("same url must yield same id")
	}
	if id == ArticleID("https://example.com/news/2") {
		t.Fatalf("different urls must yield different ids")
	}
}

func TestPublishedAt(t *testing.T) {
	t.Parallel()

	a := Article{Date: "2026-08-20"}
	want := time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)
	if !a.PublishedAt().Equal(want) {
		t.Fatalf("unexpected date: %v", a.PublishedAt())
	}

	if !(Article{Date: "broken"}).PublishedAt().IsZero() {
		t.Fatalf("malformed date must yield zero time")
	}
	if !(Article{}).PublishedAt().IsZero() {
		t.Fatalf("empty date must yield zero time")
	}
}

func TestAwaitingSummary(t *testing.T) {
	t.Parallel()

	if (Article{SummaryQuality: QualityValid}).AwaitingSummary() {
		t.Fatalf("valid summary must not await retry")
	}
	if (Article{}).AwaitingSummary() {
		t.Fatalf("legacy article without quality must not await retry")
	}
	if !(Article{SummaryQuality: QualityPlaceholder}).AwaitingSummary() {
		t.Fatalf("placeholder must await retry")
	}
	if !(Article{SummaryQuality: QualityTruncated}).AwaitingSummary() {
		t.Fatalf("truncated must await retry")
	}
}

func TestCorpusLookups(t *testing.T) {
	t.Parallel()

	c := Corpus{Articles: []Article{
		{URL: "https://example.com/a", Title: "記事A"},
	}}
	if !c.ContainsURL("https://example.com/a") {
		t.Fatalf("expected url hit")
	}
	if c.ContainsURL("https://example.com/b") {
		t.Fatalf("unexpected url hit")
	}
	if !c.ContainsTitle("記事A") {
		t.Fatalf("expected title hit")
	}
}

func TestBlacklistContains(t *testing.T) {
	t.Parallel()

	b := Blacklist{ExcludedURLs: []string{"https://example.com/x"}}
	if !b.Contains("https://example.com/x") {
		t.Fatalf("expected blacklist hit")
	}
	if b.Contains("https://example.com/y") {
		t.Fatalf("unexpected blacklist hit")
	}
}

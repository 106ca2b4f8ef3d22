package domain

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// Candidate is an unvetted article produced by a collector for the current
// run. Candidates are never persisted; they either survive the curation
// pipeline and become Articles or are discarded when the run ends.
type Candidate struct {
	Title       string
	Summary     string
	URL         string
	Source      string
	ImageURL    string
	PublishedAt time.Time
}

// Origin marks how an article entered the corpus.
type Origin string

const (
	OriginAutomatic Origin = "automatic"
	OriginManual    Origin = "manual"
)

// SummaryQuality records the outcome of summary validation at annotation
// time, so downstream code never re-infers completeness from text shape.
type SummaryQuality string

const (
	QualityValid       SummaryQuality = "valid"
	QualityTooShort    SummaryQuality = "too-short"
	QualityTruncated   SummaryQuality = "truncated"
	QualityPlaceholder SummaryQuality = "placeholder"
)

// PlaceholderSummary is persisted instead of raw source text whenever
// annotation could not produce a publishable summary.
const PlaceholderSummary = "【要約準備中】この記事の要約は現在準備中です。"

// Article is the persisted unit of the corpus.
type Article struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Summary        string         `json:"summary"`
	Category       string         `json:"category"`
	Date           string         `json:"date"`
	URL            string         `json:"url"`
	ImageURL       string         `json:"imageUrl"`
	Source         string         `json:"source"`
	MainKeyword    string         `json:"mainKeyword,omitempty"`
	Origin         Origin         `json:"origin"`
	SummaryQuality SummaryQuality `json:"summaryQuality,omitempty"`
	AddedAt        string         `json:"addedAt,omitempty"`
}

// ArticleID derives the stable identity of an article from its URL alone,
// so the same URL can never yield two distinct stored articles.
func ArticleID(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:12]
}

// IsManual reports whether the article is exempt from age-based eviction.
func (a Article) IsManual() bool {
	return a.Origin == OriginManual
}

// PublishedAt parses the stored YYYY-MM-DD date; zero time when absent or
// malformed, which sorts such articles to the old end.
func (a Article) PublishedAt() time.Time {
	if len(a.Date) < 10 {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", a.Date[:10])
	if err != nil {
		return time.Time{}
	}
	return t
}

// AwaitingSummary reports whether the article still carries a placeholder
// and should be retried by a future run.
func (a Article) AwaitingSummary() bool {
	return a.SummaryQuality != "" && a.SummaryQuality != QualityValid
}

// Corpus is the on-disk document holding the curated article set.
type Corpus struct {
	Articles    []Article `json:"articles"`
	LastUpdated string    `json:"lastUpdated"`
	TotalCount  int       `json:"totalCount"`
	Sources     []string  `json:"sources"`
}

// ContainsURL reports whether any stored article has the given URL.
func (c Corpus) ContainsURL(url string) bool {
	for _, a := range c.Articles {
		if a.URL == url {
			return true
		}
	}
	return false
}

// ContainsTitle reports whether any stored article has the exact title.
func (c Corpus) ContainsTitle(title string) bool {
	for _, a := range c.Articles {
		if a.Title == title {
			return true
		}
	}
	return false
}

// Blacklist is the moderation document of permanently excluded URLs.
type Blacklist struct {
	ExcludedURLs []string `json:"excludedUrls"`
	LastUpdated  string   `json:"lastUpdated"`
}

// Contains reports whether the URL was blacklisted.
func (b Blacklist) Contains(url string) bool {
	for _, u := range b.ExcludedURLs {
		if u == url {
			return true
		}
	}
	return false
}

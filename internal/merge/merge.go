// Package merge combines freshly annotated articles with the persisted
// corpus: dedup, age-based eviction, capacity-based eviction.
package merge

import (
	"sort"
	"time"

	"NewsCurator/internal/domain"
)

// Options bound the merged corpus.
type Options struct {
	RetentionDays int
	MaxArticles   int
}

// Merge returns the updated article list, newest first.
//
// Incoming duplicates (same URL or exact title as a stored article) are
// dropped, with one exception: an incoming manual article replaces an
// existing automatic article with the same URL. Manual always wins on a
// URL conflict; the historical behavior was inconsistent and this is the
// documented policy.
//
// Age eviction removes non-manual articles older than the retention
// window. Capacity eviction truncates from the tail and does not
// special-case manual articles; recency of insertion keeps them near the
// front in practice.
func Merge(existing, incoming []domain.Article, now time.Time, opts Options) []domain.Article {
	cutoff := now.AddDate(0, 0, -opts.RetentionDays)

	// Manual-wins: collect URLs an incoming manual article claims.
	manualClaims := make(map[string]struct{})
	for _, a := range incoming {
		if a.IsManual() {
			manualClaims[a.URL] = struct{}{}
		}
	}

	kept := make([]domain.Article, 0, len(existing))
	urls := make(map[string]struct{}, len(existing))
	titles := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		if _, claimed := manualClaims[a.URL]; claimed && !a.IsManual() {
			continue
		}
		if !a.IsManual() && a.PublishedAt().Before(cutoff) {
			continue
		}
		if _, dup := urls[a.URL]; dup {
			continue
		}
		kept = append(kept, a)
		urls[a.URL] = struct{}{}
		titles[a.Title] = struct{}{}
	}

	fresh := make([]domain.Article, 0, len(incoming))
	for _, a := range incoming {
		if _, dup := urls[a.URL]; dup {
			continue
		}
		if _, dup := titles[a.Title]; dup {
			continue
		}
		fresh = append(fresh, a)
		urls[a.URL] = struct{}{}
		titles[a.Title] = struct{}{}
	}

	merged := append(fresh, kept...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt().After(merged[j].PublishedAt())
	})

	if opts.MaxArticles > 0 && len(merged) > opts.MaxArticles {
		merged = merged[:opts.MaxArticles]
	}
	return merged
}

// BuildCorpus wraps the merged list into the persisted document shape.
func BuildCorpus(articles []domain.Article, now time.Time) domain.Corpus {
	seen := make(map[string]struct{})
	sources := make([]string, 0)
	for _, a := range articles {
		if a.Source == "" {
			continue
		}
		if _, ok := seen[a.Source]; ok {
			continue
		}
		seen[a.Source] = struct{}{}
		sources = append(sources, a.Source)
	}
	return domain.Corpus{
		Articles:    articles,
		LastUpdated: now.Format(time.RFC3339),
		TotalCount:  len(articles),
		Sources:     sources,
	}
}

// Package balance caps over-representation of a single site or topic in
// the per-run admission list. Without these caps one prolific or
// keyword-dense source crowds out the diversity the editorial mandate
// requires.
package balance

import (
	"net/url"
	"sort"
	"strings"

	"NewsCurator/internal/domain"
)

// Ranked pairs a surviving candidate with its ephemeral relevance score
// and provisional category.
type Ranked struct {
	Candidate domain.Candidate
	Score     int
	Category  string
}

// SortByRank orders by score descending, then published date descending.
// Sorting is stable so equal items keep their collection order.
func SortByRank(items []Ranked) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Candidate.PublishedAt.After(items[j].Candidate.PublishedAt)
	})
}

// ByDomain walks the rank-sorted list keeping a per-domain counter; once a
// domain hits maxPerDomain every further candidate from it is dropped for
// this run regardless of score.
func ByDomain(items []Ranked, maxPerDomain int) []Ranked {
	if maxPerDomain <= 0 {
		return items
	}
	counts := make(map[string]int)
	kept := make([]Ranked, 0, len(items))
	for _, it := range items {
		d := Domain(it.Candidate.URL)
		if counts[d] >= maxPerDomain {
			continue
		}
		counts[d]++
		kept = append(kept, it)
	}
	return kept
}

// ByCategory admits items while each category's running count stays under
// maxShare of the target size, deferring over-cap items. When one pass
// admits fewer than target, the deferred list backfills in original order.
func ByCategory(items []Ranked, target int, maxShare float64) []Ranked {
	if target <= 0 || target > len(items) {
		target = len(items)
	}
	limit := int(float64(target) * maxShare)
	if limit < 1 {
		limit = 1
	}

	counts := make(map[string]int)
	admitted := make([]Ranked, 0, target)
	deferred := make([]Ranked, 0)

	for _, it := range items {
		if len(admitted) >= target {
			break
		}
		if counts[it.Category] >= limit {
			deferred = append(deferred, it)
			continue
		}
		counts[it.Category]++
		admitted = append(admitted, it)
	}

	for _, it := range deferred {
		if len(admitted) >= target {
			break
		}
		admitted = append(admitted, it)
	}
	return admitted
}

// Domain extracts the lower-cased host of a URL; the raw string when it
// does not parse, so unparseable URLs still share one bucket.
func Domain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return strings.ToLower(u.Host)
}

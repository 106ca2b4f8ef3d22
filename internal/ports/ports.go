package ports

import (
	"context"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/quota"
)

// Collector pulls fresh candidates from one upstream feed or listing.
type Collector interface {
	Name() string
	Collect(ctx context.Context) ([]domain.Candidate, error)
}

// TextGenerator is the budget-limited external text-generation call. Errors
// are surfaced as typed failures so callers can distinguish rate limiting
// from malformed output.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CorpusStore persists the corpus document atomically, whole-file.
type CorpusStore interface {
	Load() (domain.Corpus, error)
	Save(corpus domain.Corpus) error
}

// StatusStore persists the quota ledger document.
type StatusStore interface {
	Load() (quota.Status, error)
	Save(status quota.Status) error
}

// BlacklistStore persists permanently excluded URLs.
type BlacklistStore interface {
	Load() (domain.Blacklist, error)
	Save(list domain.Blacklist) error
}

// CachedAnnotation is a previously accepted AI result keyed by URL.
type CachedAnnotation struct {
	URL         string
	Summary     string
	Category    string
	MainKeyword string
}

// SummaryCache stores accepted summaries so unchanged content never
// re-spends full-call quota. Only validator-approved summaries are added.
type SummaryCache interface {
	Get(url string) (CachedAnnotation, bool, error)
	Put(entry CachedAnnotation) error
	Close() error
}

// PageMetadata is what a thin page fetch yields for enrichment.
type PageMetadata struct {
	Title       string
	Description string
	ImageURL    string
	SiteName    string
	BodyExcerpt string
}

// PageFetcher resolves a URL into display metadata (OGP image, description).
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (PageMetadata, error)
}

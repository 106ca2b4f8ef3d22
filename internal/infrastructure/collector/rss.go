package collector

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsCurator/internal/config"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

const summaryTruncateLen = 200

// RSSCollector yields candidates from one configured feed. It imposes no
// judgement of its own; filtering happens downstream.
type RSSCollector struct {
	feed     config.FeedConfig
	parser   *gofeed.Parser
	entryCap int
	logger   *slog.Logger
}

var _ ports.Collector = (*RSSCollector)(nil)

// NewRSSCollector wires a feed; entryCap bounds entries taken per fetch.
func NewRSSCollector(feed config.FeedConfig, entryCap int, logger *slog.Logger) *RSSCollector {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 30 * time.Second}
	parser.UserAgent = "NewsCurator/1.0"
	if entryCap <= 0 {
		entryCap = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RSSCollector{feed: feed, parser: parser, entryCap: entryCap, logger: logger}
}

// Name identifies the source in logs and on candidates.
func (c *RSSCollector) Name() string {
	return c.feed.Name
}

// Collect fetches and converts up to entryCap feed items.
func (c *RSSCollector) Collect(ctx context.Context) ([]domain.Candidate, error) {
	feed, err := c.parser.ParseURLWithContext(c.feed.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", c.feed.Name, err)
	}

	items := feed.Items
	if len(items) > c.entryCap {
		items = items[:c.entryCap]
	}

	candidates := make([]domain.Candidate, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		candidates = append(candidates, domain.Candidate{
			Title:       title,
			Summary:     CleanText(summary, summaryTruncateLen),
			URL:         link,
			Source:      c.feed.Name,
			PublishedAt: itemDate(item),
		})
	}

	c.logger.Debug("feed collected", "feed", c.feed.Name, "entries", len(feed.Items), "candidates", len(candidates))
	return candidates, nil
}

func itemDate(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Now()
}

var (
	tagExpr        = regexp.MustCompile(`<[^>]+>`)
	whitespaceExpr = regexp.MustCompile(`\s+`)
)

// CleanText strips markup, collapses whitespace, unescapes entities, and
// bounds the result to maxRunes.
func CleanText(s string, maxRunes int) string {
	s = tagExpr.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespaceExpr.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	runes := []rune(s)
	if maxRunes > 0 && len(runes) > maxRunes {
		return string(runes[:maxRunes])
	}
	return s
}

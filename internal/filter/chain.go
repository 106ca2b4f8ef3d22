package filter

import (
	"fmt"
	"strings"

	"NewsCurator/internal/config"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/jptext"
)

// Verdict is the outcome of running a candidate through the chain.
type Verdict struct {
	Accepted bool
	Rule     string
	Reason   string
}

func accept() Verdict {
	return Verdict{Accepted: true}
}

func reject(rule, reason string) Verdict {
	return Verdict{Rule: rule, Reason: reason}
}

// DupIndex answers identity lookups against the persisted corpus and the
// moderation blacklist, so known articles never reach the annotation stage.
type DupIndex struct {
	urls        map[string]struct{}
	titles      map[string]struct{}
	blacklisted map[string]struct{}
}

// NewDupIndex builds the lookup tables from the loaded documents.
func NewDupIndex(corpus domain.Corpus, blacklist domain.Blacklist) *DupIndex {
	idx := &DupIndex{
		urls:        make(map[string]struct{}, len(corpus.Articles)),
		titles:      make(map[string]struct{}, len(corpus.Articles)),
		blacklisted: make(map[string]struct{}, len(blacklist.ExcludedURLs)),
	}
	for _, a := range corpus.Articles {
		idx.urls[strings.TrimSpace(a.URL)] = struct{}{}
		idx.titles[strings.TrimSpace(a.Title)] = struct{}{}
	}
	for _, u := range blacklist.ExcludedURLs {
		idx.blacklisted[strings.TrimSpace(u)] = struct{}{}
	}
	return idx
}

// HasURL reports whether the URL is already stored.
func (d *DupIndex) HasURL(url string) bool {
	_, ok := d.urls[strings.TrimSpace(url)]
	return ok
}

// HasTitle reports whether the exact title is already stored.
func (d *DupIndex) HasTitle(title string) bool {
	_, ok := d.titles[strings.TrimSpace(title)]
	return ok
}

// Excluded reports whether the URL was blacklisted by moderation.
func (d *DupIndex) Excluded(url string) bool {
	_, ok := d.blacklisted[strings.TrimSpace(url)]
	return ok
}

// Chain evaluates the configured predicate rules in a fixed order and
// short-circuits on the first rejection. Evaluation is pure: no fetching,
// no mutation; missing fields are treated as empty strings.
type Chain struct {
	cfg    config.FilterConfig
	strict map[string][]string
	index  *DupIndex
}

// NewChain wires the versioned rule configuration with per-source strict
// lists and the duplicate index for this run.
func NewChain(cfg config.FilterConfig, feeds []config.FeedConfig, index *DupIndex) *Chain {
	strict := make(map[string][]string)
	for _, f := range feeds {
		if len(f.StrictKeywords) > 0 {
			strict[f.Name] = f.StrictKeywords
		}
	}
	if index == nil {
		index = NewDupIndex(domain.Corpus{}, domain.Blacklist{})
	}
	return &Chain{cfg: cfg, strict: strict, index: index}
}

// Admit decides whether the candidate enters the scoring stage.
func (c *Chain) Admit(cand domain.Candidate) Verdict {
	title := strings.TrimSpace(cand.Title)
	rawURL := strings.TrimSpace(cand.URL)

	// Cheapest, most certain checks first.
	if title == "" || rawURL == "" {
		return reject("structural", "empty title or url")
	}

	urlFolded := jptext.Fold(rawURL)
	for _, pattern := range c.cfg.ExcludedURLPatterns {
		if strings.Contains(urlFolded, jptext.Fold(pattern)) {
			return reject("excluded-url", fmt.Sprintf("url matches %q", pattern))
		}
	}

	text := jptext.Fold(title + " " + cand.Summary)

	if kw, ok := jptext.ContainsAny(text, c.cfg.PromoKeywords); ok {
		return reject("promotional", fmt.Sprintf("promotional keyword %q", kw))
	}

	// Theme-priority rule: a strong-exclude hit is overridden whenever the
	// text also carries a core-theme keyword.
	if kw, ok := jptext.ContainsAny(text, c.cfg.StrongExclude.Keywords); ok {
		if _, core := jptext.ContainsAny(text, c.cfg.StrongExclude.Overrides); !core {
			return reject(c.cfg.StrongExclude.Name, fmt.Sprintf("exclude keyword %q without core theme", kw))
		}
	}

	for _, rule := range c.cfg.NicheRules {
		kw, ok := jptext.ContainsAny(text, rule.Keywords)
		if !ok {
			continue
		}
		if _, override := jptext.ContainsAny(text, rule.Overrides); !override {
			return reject(rule.Name, fmt.Sprintf("niche keyword %q without override", kw))
		}
	}

	if !c.sourceExempt(cand.Source) {
		if _, ok := jptext.ContainsAny(text, c.cfg.CoreKeywords); !ok {
			return reject("core-theme", "no core-theme keyword")
		}
	}

	if strictList, ok := c.strict[cand.Source]; ok {
		if _, match := jptext.ContainsAny(text, strictList); !match {
			return reject("source-strict", fmt.Sprintf("source %q strict list unmatched", cand.Source))
		}
	}

	if c.index.Excluded(rawURL) {
		return reject("blacklist", "url blacklisted by moderation")
	}
	if c.index.HasURL(rawURL) || c.index.HasTitle(title) {
		return reject("duplicate", "already in corpus")
	}

	return accept()
}

func (c *Chain) sourceExempt(source string) bool {
	for _, exempt := range c.cfg.ExemptSources {
		if exempt != "" && strings.Contains(source, exempt) {
			return true
		}
	}
	return false
}

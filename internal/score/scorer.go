package score

import (
	"NewsCurator/internal/config"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/jptext"
)

// Scorer assigns an additive editorial-fit score over three disjoint
// keyword tiers. The score ranks candidates within a single run and is
// never persisted on an article.
type Scorer struct {
	high   []string
	medium []string
	core   []string
	wHigh  int
	wMed   int
	wCore  int
}

// New builds a scorer from the configured tiers; the core tier comes from
// the filter configuration so the lists stay consolidated.
func New(s config.ScoringConfig, coreKeywords []string) *Scorer {
	return &Scorer{
		high:   s.HighPriority,
		medium: s.MediumPriority,
		core:   coreKeywords,
		wHigh:  s.HighWeight,
		wMed:   s.MediumWeight,
		wCore:  s.CoreWeight,
	}
}

// Score sums tier weights over the candidate text. A keyword counted in a
// higher tier is skipped in every lower tier, so nothing is double-counted.
func (s *Scorer) Score(cand domain.Candidate) int {
	text := jptext.Fold(cand.Title + " " + cand.Summary)
	counted := make(map[string]struct{})

	total := 0
	for _, kw := range s.high {
		if matches(text, kw) {
			counted[kw] = struct{}{}
			total += s.wHigh
		}
	}
	for _, kw := range s.medium {
		if _, done := counted[kw]; done {
			continue
		}
		if matches(text, kw) {
			counted[kw] = struct{}{}
			total += s.wMed
		}
	}
	for _, kw := range s.core {
		if _, done := counted[kw]; done {
			continue
		}
		if matches(text, kw) {
			counted[kw] = struct{}{}
			total += s.wCore
		}
	}
	return total
}

func matches(foldedText, keyword string) bool {
	_, ok := jptext.ContainsAny(foldedText, []string{keyword})
	return ok
}

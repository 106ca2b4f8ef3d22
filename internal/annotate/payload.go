package annotate

import (
	"encoding/json"
	"fmt"
	"strings"

	"NewsCurator/internal/domain"
)

// skipToken is the sentinel the model answers when a candidate is
// off-mandate. Matched case-insensitively on the whole trimmed response.
const skipToken = "SKIP"

type payload struct {
	Summary     string `json:"summary"`
	Category    string `json:"category"`
	MainKeyword string `json:"mainKeyword"`
}

func isSkipToken(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), skipToken)
}

// parsePayload accepts the structured answer even when wrapped in
// formatting fences, which the model emits more often than not.
func parsePayload(raw string) (payload, error) {
	body := stripFences(raw)

	var p payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return payload{}, fmt.Errorf("decode annotation payload: %w", err)
	}
	if strings.TrimSpace(p.Summary) == "" {
		return payload{}, fmt.Errorf("annotation payload has no summary")
	}
	return p, nil
}

func stripFences(raw string) string {
	body := strings.TrimSpace(raw)
	if idx := strings.Index(body, "```json"); idx >= 0 {
		body = body[idx+len("```json"):]
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
	} else if idx := strings.Index(body, "```"); idx >= 0 {
		body = body[idx+3:]
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
	}
	return strings.TrimSpace(body)
}

// incompleteEndings mark a summary that was cut off mid-clause or copied
// with a feed ellipsis. Such text must never be published.
var incompleteEndings = []string{"...", "・・・", "…", "[&#8230;]", "[", "-", "ー、", "、"}

// ValidateSummary classifies the returned summary once, at annotation
// time. Anything but QualityValid is persisted as a placeholder.
func ValidateSummary(summary string, minLen, maxLen int) domain.SummaryQuality {
	s := strings.TrimSpace(summary)
	if s == "" || strings.Contains(s, "【要約準備中】") {
		return domain.QualityPlaceholder
	}

	runes := []rune(s)
	if len(runes) < minLen {
		return domain.QualityTooShort
	}
	if len(runes) > maxLen {
		return domain.QualityTruncated
	}
	for _, ending := range incompleteEndings {
		if strings.HasSuffix(s, ending) {
			return domain.QualityTruncated
		}
	}
	return domain.QualityValid
}

// truncateRunes bounds prompt input length to control token cost.
func truncateRunes(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max])
}

package annotate

import (
	"strings"
	"testing"

	"NewsCurator/internal/domain"
)

func TestStripFences(t *testing.T) {
	t.Parallel()

	body := `{"summary":"テスト"}`
	cases := []string{
		body,
		"```json\n" + body + "\n```",
		"```\n" + body + "\n```",
		"前置きの説明\n```json\n" + body + "\n```\n後書き",
	}
	for _, raw := range cases {
		if got := stripFences(raw); got != body {
			t.Fatalf("stripFences(%q) = %q", raw, got)
		}
	}
}

func TestParsePayload(t *testing.T) {
	t.Parallel()

	p, err := parsePayload(`{"summary":"本文","category":"ict","mainKeyword":"ICT"}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if p.Summary != "本文" || p.Category != "ict" || p.MainKeyword != "ICT" {
		t.Fatalf("unexpected payload: %+v", p)
	}

	if _, err := parsePayload("not json"); err == nil {
		t.Fatalf("invalid json must fail")
	}
	if _, err := parsePayload(`{"category":"ict"}`); err == nil {
		t.Fatalf("missing summary must fail")
	}
}

func TestIsSkipToken(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"SKIP", "skip", "  Skip \n"} {
		if !isSkipToken(raw) {
			t.Fatalf("%q must be a skip token", raw)
		}
	}
	if isSkipToken("SKIPPED: reason") {
		t.Fatalf("only the bare token may skip")
	}
}

func TestValidateSummary(t *testing.T) {
	t.Parallel()

	valid := strings.Repeat("あ", 30) + "取り組みが進められています。"

	cases := []struct {
		name    string
		summary string
		want    domain.SummaryQuality
	}{
		{"valid", valid, domain.QualityValid},
		{"empty", "", domain.QualityPlaceholder},
		{"placeholder marker", domain.PlaceholderSummary, domain.QualityPlaceholder},
		{"too short", "短い要約。", domain.QualityTooShort},
		{"too long", strings.Repeat("あ", 201), domain.QualityTruncated},
		{"ascii ellipsis", strings.Repeat("あ", 30) + "...", domain.QualityTruncated},
		{"unicode ellipsis", strings.Repeat("あ", 30) + "…", domain.QualityTruncated},
		{"feed entity", strings.Repeat("あ", 30) + "[&#8230;]", domain.QualityTruncated},
		{"dangling bracket", strings.Repeat("あ", 30) + "[", domain.QualityTruncated},
		{"dangling comma", strings.Repeat("あ", 30) + "、", domain.QualityTruncated},
	}
	for _, tc := range cases {
		if got := ValidateSummary(tc.summary, 20, 200); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	if got := truncateRunes("あいうえお", 3); got != "あいう" {
		t.Fatalf("got %q", got)
	}
	if got := truncateRunes("  abc  ", 10); got != "abc" {
		t.Fatalf("got %q", got)
	}
}

package annotate

import (
	"fmt"
	"strings"

	"NewsCurator/internal/domain"
)

const promptInputLimit = 200

// fullPrompt asks for a rewritten summary, a category from the closed
// enumeration, and one keyword. The prompt contract requires a synthesis,
// never verbatim source text, and allows the skip sentinel for off-mandate
// content.
func fullPrompt(cand domain.Candidate, summaryMaxLen int) string {
	var b strings.Builder
	b.WriteString("あなたは「インクルーシブ教育ナビ」の要約担当です。\n")
	b.WriteString("以下の記事がインクルーシブ教育・特別支援教育の読者に役立つ場合のみ、要約を生成してください。\n")
	b.WriteString("関連しない記事の場合は「" + skipToken + "」とだけ回答してください。\n\n")
	fmt.Fprintf(&b, "【記事タイトル】\n%s\n\n", cand.Title)
	fmt.Fprintf(&b, "【記事概要】\n%s\n\n", truncateRunes(cand.Summary, promptInputLimit))
	fmt.Fprintf(&b, "【配信元】\n%s\n\n", cand.Source)
	b.WriteString("【出力形式】\n以下のJSON形式で出力してください（他の説明文は不要）：\n")
	b.WriteString("```json\n{\n")
	fmt.Fprintf(&b, "  \"summary\": \"80〜%d文字の要約（です・ます調。元記事の文章をそのまま写さず、必ず書き直すこと）\",\n", summaryMaxLen)
	fmt.Fprintf(&b, "  \"category\": \"以下から1つ選択: %s\",\n", categoryChoices())
	b.WriteString("  \"mainKeyword\": \"記事の主要キーワード（書籍検索用、5文字以内）\"\n")
	b.WriteString("}\n```")
	return b.String()
}

// categoryPrompt is the lightweight call used when a validated summary is
// already cached: only the classification is requested.
func categoryPrompt(cand domain.Candidate) string {
	var b strings.Builder
	b.WriteString("以下の記事を最も適切なカテゴリに分類してください。\n\n")
	b.WriteString("カテゴリ選択肢：\n")
	for _, c := range domain.Categories {
		fmt.Fprintf(&b, "- %s: %s\n", c.ID, c.Name)
	}
	fmt.Fprintf(&b, "\n記事タイトル: %s\n", cand.Title)
	fmt.Fprintf(&b, "記事概要: %s\n\n", truncateRunes(cand.Summary, promptInputLimit))
	b.WriteString("カテゴリIDのみで回答してください（例: support）")
	return b.String()
}

func categoryChoices() string {
	ids := make([]string, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		ids = append(ids, c.ID)
	}
	return strings.Join(ids, " / ")
}

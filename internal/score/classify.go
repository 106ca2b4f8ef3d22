package score

import "NewsCurator/internal/jptext"

// Provisional category keywords, used before annotation so the category
// balancer has something to balance on. The annotation client may later
// reclassify the article.
var categoryKeywords = map[string][]string{
	"policy": {
		"文科省", "文部科学省", "法律", "法改正", "ガイドライン", "制度",
		"通知", "告示", "省令", "政策", "答申", "指針", "基準",
	},
	"research": {
		"研究", "調査", "大学", "学会", "論文", "分析", "統計",
		"エビデンス", "実証", "検証", "学術", "博士", "教授",
	},
	"diverse-learning": {
		"不登校", "フリースクール", "オルタナティブ", "通信制高校",
		"ホームスクール", "多様な学び", "学校外", "居場所", "サポート校",
	},
	"ict": {
		"教材", "ツール", "アプリ", "ICT", "タブレット", "デジタル",
		"ソフト", "システム", "支援技術", "アシスティブ", "EdTech",
	},
	"events": {
		"セミナー", "研修", "イベント", "講座", "ワークショップ",
		"シンポジウム", "フォーラム", "開催", "申込",
	},
	"support": {
		"支援", "合理的配慮", "個別", "通級", "学級", "指導",
		"児童", "生徒", "教員",
	},
}

// Order resolves keyword-count ties deterministically; the more specific
// categories win over the catch-all support bucket.
var classifyOrder = []string{"diverse-learning", "policy", "research", "ict", "events", "support"}

// Classify picks the provisional category with the most keyword hits;
// support when nothing matches.
func Classify(title, summary string) string {
	text := jptext.Fold(title + " " + summary)

	best := "support"
	bestHits := 0
	for _, id := range classifyOrder {
		hits := 0
		for _, kw := range categoryKeywords[id] {
			if matches(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = id
			bestHits = hits
		}
	}
	return best
}

package config

import "time"

// Default returns the compiled-in configuration: feed set, quota budget,
// retention bounds, and the versioned keyword rule sets the filter chain
// and scorer evaluate. Everything here can be overridden per section from
// the YAML file.
func Default() Config {
	loc, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Data: DataConfig{
			Dir:           "public/data",
			CorpusFile:    "articles.json",
			StatusFile:    "status.json",
			BlacklistFile: "excluded-urls.json",
			CacheDB:       "summary-cache.db",
		},
		Feeds: []FeedConfig{
			{Name: "文部科学省", URL: "https://www.mext.go.jp/b_menu/houdou/rss.xml"},
			{Name: "教育新聞", URL: "https://www.kyobun.co.jp/feed/"},
			{Name: "リセマム", URL: "https://resemom.jp/rss20/index.rdf"},
			{Name: "ICT教育ニュース", URL: "https://ict-enews.net/feed/"},
			{Name: "EdTechZine", URL: "https://edtechzine.jp/rss/new/20/index.xml"},
			{Name: "朝日新聞 教育", URL: "https://www.asahi.com/rss/asahi/edu.rdf"},
			{
				Name:           "NHK NEWS WEB",
				URL:            "https://www.nhk.or.jp/rss/news/cat6.xml",
				StrictKeywords: strictGeneralNewsKeywords,
			},
			{
				Name:           "Yahoo!ニュース",
				URL:            "https://news.yahoo.co.jp/rss/topics/domestic.xml",
				StrictKeywords: strictGeneralNewsKeywords,
			},
		},
		Quota: QuotaConfig{
			DailyLimit:        20,
			ReservedForOthers: 11, // morning digest 5 + evening digest 6
			ResetHour:         17,
			Timezone:          defaultTimezone,
			location:          loc,
		},
		Gemini: GeneratorConfig{
			Endpoint:       "https://generativelanguage.googleapis.com/v1beta/models",
			Model:          "gemini-2.5-flash",
			RequestDelay:   4 * time.Second,
			BackoffBase:    2 * time.Second,
			MaxAttempts:    3,
			RequestTimeout: 30 * time.Second,
		},
		Curation: CurationConfig{
			MaxArticles:      50,
			RetentionDays:    7,
			MaxPerDomain:     5,
			MaxCategoryShare: 0.5,
			PerRunRetryQuota: 3,
			FeedEntryCap:     20,
			SummaryMinLen:    20,
			SummaryMaxLen:    200,
		},
		Filters: defaultFilters(),
		Scoring: ScoringConfig{
			HighPriority:   highPriorityKeywords,
			MediumPriority: mediumPriorityKeywords,
			HighWeight:     20,
			MediumWeight:   10,
			CoreWeight:     5,
		},
	}
}

func defaultFilters() FilterConfig {
	return FilterConfig{
		Version: 3,
		ExcludedURLPatterns: []string{
			"/paywall/", "/premium/", "/member/", "/login",
			"nikkei.com/article", "/ranking/", "/campaign/",
		},
		// The ad marker is matched only in its bracketed forms; a bare
		// "PR" would hit inside ordinary Latin words such as "iPad Pro".
		PromoKeywords: []string{
			"【PR】", "[PR]", "(PR)", "広告", "プレゼント企画", "キャンペーン",
			"クーポン", "セール", "お得", "割引", "アフィリエイト",
		},
		StrongExclude: KeywordRule{
			Name:      "strong-exclude",
			Keywords:  strongExcludeKeywords,
			Overrides: coreKeywords,
		},
		NicheRules: []KeywordRule{
			{
				Name:      "commercial-tutoring",
				Keywords:  []string{"塾", "予備校", "進学塾", "学習塾", "通信教育講座"},
				Overrides: []string{"特別支援", "発達障害", "不登校", "合理的配慮", "インクルーシブ"},
			},
			{
				Name:      "teacher-technique",
				Keywords:  []string{"板書", "指導案", "授業テクニック", "学級経営術"},
				Overrides: []string{"特別支援", "通級", "インクルーシブ", "合理的配慮"},
			},
			{
				Name:      "generic-tech-tutorial",
				Keywords:  []string{"プログラミング入門", "Scratch入門", "コーディング解説", "Excel講座"},
				Overrides: []string{"支援技術", "アクセシビリティ", "特別支援", "障害"},
			},
			{
				Name:      "small-local-event",
				Keywords:  []string{"バザー", "文化祭", "体育祭", "保護者会のお知らせ"},
				Overrides: []string{"特別支援", "インクルーシブ", "発達障害", "研修"},
			},
		},
		CoreKeywords:  coreKeywords,
		ExemptSources: []string{"リセマム", "EdTechZine", "こどもとIT"},
	}
}

// Core editorial-mandate keywords: any one of these marks a candidate as
// on-theme and overrides a strong-exclude collision.
var coreKeywords = []string{
	"インクルーシブ", "インクルーシブ教育", "特別支援", "特別支援教育",
	"支援学級", "支援学校", "通級", "通級指導",
	"発達障害", "神経多様性", "ニューロダイバーシティ",
	"学習障害", "LD", "ディスレクシア", "読み書き困難",
	"ADHD", "注意欠如", "多動性",
	"自閉症", "自閉スペクトラム", "ASD", "アスペルガー",
	"ギフテッド", "特異な才能", "2e", "高IQ",
	"合理的配慮", "個別支援", "個別の教育支援計画", "IEP",
	"ユニバーサルデザイン", "UDL", "医療的ケア", "療育",
	"不登校", "不登校支援", "フリースクール", "多様な学び", "オルタナティブ教育",
	"障害児", "障がい児", "障害のある子", "障がいのある子",
}

// Off-mandate signals: politics, exam rankings, sports and entertainment,
// general health alerts, finance. Overridable by any core keyword.
var strongExcludeKeywords = []string{
	"首相", "大統領", "会談", "総選挙", "政党", "過半数", "辞任",
	"国会", "与党", "野党", "閣僚", "大臣", "衆議院", "参議院",
	"入試", "高校受験", "大学受験", "中学受験", "入試倍率", "出願状況",
	"解答速報", "合格判定", "偏差値", "共通テスト", "センター試験",
	"志願倍率", "志願状況", "募集人員",
	"インフルエンザ", "警報発令", "感染警報", "コロナ", "ワクチン", "予防接種",
	"株価", "為替", "経済指標", "決算", "事業譲渡",
	"甲子園", "高校野球", "プロ野球", "サッカー", "五輪", "オリンピック",
	"芸能", "アイドル", "ドラマ", "映画", "俳優", "移籍", "MLB", "NPB",
	"ミサイル", "軍事", "ドローン攻撃", "無人機",
}

// Strict list for general-news feeds: such sources must match one of these
// or the candidate is rejected outright.
var strictGeneralNewsKeywords = []string{
	"特別支援", "発達障害", "インクルーシブ", "合理的配慮",
	"自閉症", "ADHD", "学習障害", "知的障害", "医療的ケア",
	"不登校", "フリースクール", "通級", "特別支援学級", "療育",
	"障害児", "障がい", "バリアフリー",
}

// Relevance tiers. High terms are the mandate's center of gravity; medium
// terms are adjacent policy and practice topics.
var highPriorityKeywords = []string{
	"インクルーシブ教育", "特別支援教育", "合理的配慮", "発達障害",
	"不登校支援", "通級指導", "個別の教育支援計画",
}

var mediumPriorityKeywords = []string{
	"特別支援学級", "フリースクール", "学習障害", "自閉スペクトラム",
	"ユニバーサルデザイン", "医療的ケア", "療育", "ギフテッド",
	"支援技術", "アクセシビリティ",
}

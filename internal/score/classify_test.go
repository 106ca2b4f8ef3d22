package score

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		title   string
		summary string
		want    string
	}{
		{"文部科学省が新ガイドラインを通知", "制度改正の概要", "policy"},
		{"不登校の子どもとフリースクールの居場所", "", "diverse-learning"},
		{"発達障害に関する大学の調査研究", "統計分析の結果を論文で公表", "research"},
		{"特別支援向け学習アプリ、タブレット教材を発表", "", "ict"},
		{"インクルーシブ教育セミナー開催、参加申込受付中", "", "events"},
		{"通級指導における個別支援", "", "support"},
		{"まったく関係のない文章", "", "support"},
	}
	for _, tc := range cases {
		if got := Classify(tc.title, tc.summary); got != tc.want {
			t.Fatalf("Classify(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestClassifyTieBreaksDeterministically(t *testing.T) {
	t.Parallel()

	// One hit each for diverse-learning and events; the more specific
	// category listed first wins the tie.
	got := Classify("不登校フォーラム", "")
	if got != "diverse-learning" {
		t.Fatalf("tie must resolve to diverse-learning, got %q", got)
	}
}

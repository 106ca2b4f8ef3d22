package quota

import (
	"fmt"
	"testing"
	"time"

	"NewsCurator/internal/config"
)

func testQuotaConfig(t *testing.T) config.QuotaConfig {
	t.Helper()
	cfg := config.Default().Quota
	if cfg.DailyLimit != 20 || cfg.ReservedForOthers != 11 {
		t.Fatalf("unexpected default budget: %+v", cfg)
	}
	return cfg
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRemainingFreshPeriod(t *testing.T) {
	t.Parallel()
	cfg := testQuotaConfig(t)

	now := time.Date(2026, time.August, 20, 18, 0, 0, 0, cfg.Location())
	l := NewLedger(cfg, Status{}, fixedNow(now))

	if got := l.Remaining(); got != 9 {
		t.Fatalf("fresh period must leave 20-11=9, got %d", got)
	}
	if !l.Reserve(9) {
		t.Fatalf("reserving the full budget must succeed")
	}
	l.Spend(9)
	if l.Remaining() != 0 {
		t.Fatalf("budget must be exhausted after spending 9")
	}
	if l.Reserve(1) {
		t.Fatalf("reserve past the budget must fail")
	}
}

func TestPeriodBoundaryAtResetHour(t *testing.T) {
	t.Parallel()
	cfg := testQuotaConfig(t)

	// 16:59 local belongs to yesterday's period, 17:00 starts a new one.
	before := time.Date(2026, time.August, 20, 16, 59, 0, 0, cfg.Location())
	after := time.Date(2026, time.August, 20, 17, 0, 0, 0, cfg.Location())

	lb := NewLedger(cfg, Status{}, fixedNow(before))
	if got := lb.PeriodStart().Day(); got != 19 {
		t.Fatalf("16:59 must map to the previous day's boundary, got day %d", got)
	}
	la := NewLedger(cfg, Status{}, fixedNow(after))
	if got := la.PeriodStart(); !got.Equal(after) {
		t.Fatalf("17:00 must start a new period, got %v", got)
	}
}

func TestSpendFromHistory(t *testing.T) {
	t.Parallel()
	cfg := testQuotaConfig(t)

	now := time.Date(2026, time.August, 20, 20, 0, 0, 0, cfg.Location())
	inPeriod := time.Date(2026, time.August, 20, 18, 0, 0, 0, cfg.Location())
	lastPeriod := time.Date(2026, time.August, 20, 10, 0, 0, 0, cfg.Location())

	prior := Status{
		History: []HistoryEntry{
			{Timestamp: inPeriod.Format(time.RFC3339), APICalls: 4, Success: true},
			{Timestamp: lastPeriod.Format(time.RFC3339), APICalls: 6, Success: true},
		},
	}
	l := NewLedger(cfg, prior, fixedNow(now))

	// Only the 18:00 entry falls after today's 17:00 reset.
	if got := l.SpentThisPeriod(); got != 4 {
		t.Fatalf("expected 4 spent this period, got %d", got)
	}
	if got := l.Remaining(); got != 5 {
		t.Fatalf("expected 9-4=5 remaining, got %d", got)
	}
}

func TestSpendCountsLastRunOnce(t *testing.T) {
	t.Parallel()
	cfg := testQuotaConfig(t)

	now := time.Date(2026, time.August, 20, 20, 0, 0, 0, cfg.Location())
	ts := time.Date(2026, time.August, 20, 18, 0, 0, 0, cfg.Location()).Format(time.RFC3339)

	prior := Status{
		LastRun: RunReport{Timestamp: ts, APICalls: 3, Success: true},
		History: []HistoryEntry{{Timestamp: ts, APICalls: 3, Success: true}},
	}
	l := NewLedger(cfg, prior, fixedNow(now))
	if got := l.SpentThisPeriod(); got != 3 {
		t.Fatalf("lastRun duplicated in history must count once, got %d", got)
	}

	// A lastRun missing from the history still counts.
	prior.History = nil
	l = NewLedger(cfg, prior, fixedNow(now))
	if got := l.SpentThisPeriod(); got != 3 {
		t.Fatalf("lastRun absent from history must count, got %d", got)
	}
}

func TestNaiveTimestampParsing(t *testing.T) {
	t.Parallel()
	cfg := testQuotaConfig(t)

	now := time.Date(2026, time.August, 20, 20, 0, 0, 0, cfg.Location())
	prior := Status{History: []HistoryEntry{
		{Timestamp: "2026-08-20T18:30:00", APICalls: 2, Success: true},
	}}
	l := NewLedger(cfg, prior, fixedNow(now))
	if got := l.SpentThisPeriod(); got != 2 {
		t.Fatalf("naive local timestamp must be honored, got %d", got)
	}
}

func TestSnapshot(t *testing.T) {
	t.Parallel()
	cfg := testQuotaConfig(t)

	now := time.Date(2026, time.August, 20, 20, 0, 0, 0, cfg.Location())
	l := NewLedger(cfg, Status{}, fixedNow(now))
	l.Spend(4)

	report := RunReport{
		Timestamp:         now.Format(time.RFC3339),
		ArticlesProcessed: 12,
		ArticlesAdded:     3,
		APICalls:          4,
		Success:           true,
	}
	status := l.Snapshot(report)

	if status.APIUsage.Used != 4 || status.APIUsage.Limit != 20 {
		t.Fatalf("unexpected usage: %+v", status.APIUsage)
	}
	if status.APIUsage.Percentage != 20 {
		t.Fatalf("expected 20%%, got %d", status.APIUsage.Percentage)
	}
	if status.LastRun.ArticlesAdded != 3 {
		t.Fatalf("unexpected lastRun: %+v", status.LastRun)
	}
	if len(status.History) != 1 || status.History[0].APICalls != 4 {
		t.Fatalf("unexpected history: %+v", status.History)
	}
}

func TestSnapshotCapsHistory(t *testing.T) {
	t.Parallel()
	cfg := testQuotaConfig(t)

	now := time.Date(2026, time.August, 20, 20, 0, 0, 0, cfg.Location())
	prior := Status{}
	for i := 0; i < 30; i++ {
		prior.History = append(prior.History, HistoryEntry{
			Timestamp: fmt.Sprintf("2026-07-%02dT10:00:00+09:00", i%28+1),
			APICalls:  1,
		})
	}
	l := NewLedger(cfg, prior, fixedNow(now))
	status := l.Snapshot(RunReport{APICalls: 0, Success: true})

	if len(status.History) != historyCap {
		t.Fatalf("history must be capped at %d, got %d", historyCap, len(status.History))
	}
	if status.History[historyCap-1].Timestamp != status.LastRun.Timestamp {
		t.Fatalf("newest entry must be the finished run")
	}
}

// Package quota tracks external annotation calls against a daily budget
// shared with other scheduled jobs. The reset boundary is a fixed daily
// instant (17:00 in the configured zone), not calendar midnight.
package quota

import (
	"errors"
	"time"

	"NewsCurator/internal/config"
)

// ErrBudgetExhausted signals that no further annotation calls may be
// issued this run. It is control flow, not a failure.
var ErrBudgetExhausted = errors.New("annotation budget exhausted")

const historyCap = 24

// APIUsage summarizes spend within the current reset period.
type APIUsage struct {
	Used       int `json:"used"`
	Limit      int `json:"limit"`
	Percentage int `json:"percentage"`
}

// RunReport describes one pipeline or moderation run.
type RunReport struct {
	Timestamp         string `json:"timestamp"`
	ArticlesProcessed int    `json:"articlesProcessed"`
	ArticlesAdded     int    `json:"articlesAdded"`
	APICalls          int    `json:"apiCalls"`
	Success           bool   `json:"success"`
	Error             string `json:"error,omitempty"`
	IsManual          bool   `json:"isManual,omitempty"`
}

// HistoryEntry is the compact per-run audit record.
type HistoryEntry struct {
	Timestamp         string `json:"timestamp"`
	ArticlesProcessed int    `json:"articlesProcessed"`
	APICalls          int    `json:"apiCalls"`
	Success           bool   `json:"success"`
	IsManual          bool   `json:"isManual,omitempty"`
}

// Status is the persisted ledger document.
type Status struct {
	LastUpdated string         `json:"lastUpdated"`
	APIUsage    APIUsage       `json:"apiUsage"`
	LastRun     RunReport      `json:"lastRun"`
	History     []HistoryEntry `json:"history"`
}

// Ledger gates the annotation client. It is the only component that owns
// call counts; pipeline stages query it, never mutate counters of their
// own.
type Ledger struct {
	cfg         config.QuotaConfig
	now         func() time.Time
	spentBefore int
	spentRun    int
	prior       Status
}

// NewLedger computes the spend already recorded for the current reset
// period from the loaded status document. now is injectable for tests;
// nil means wall clock.
func NewLedger(cfg config.QuotaConfig, prior Status, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	l := &Ledger{cfg: cfg, now: now, prior: prior}
	l.spentBefore = l.spentInPeriod(prior)
	return l
}

// PeriodStart returns the most recent reset boundary at or before now.
func (l *Ledger) PeriodStart() time.Time {
	now := l.now().In(l.cfg.Location())
	boundary := time.Date(now.Year(), now.Month(), now.Day(), l.cfg.ResetHour, 0, 0, 0, l.cfg.Location())
	if now.Before(boundary) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return boundary
}

// NextReset returns the upcoming reset boundary.
func (l *Ledger) NextReset() time.Time {
	return l.PeriodStart().AddDate(0, 0, 1)
}

// Remaining reports how many calls this job may still spend:
// dailyBudget − reservedForOthers − alreadySpentThisPeriod.
func (l *Ledger) Remaining() int {
	r := l.cfg.DailyLimit - l.cfg.ReservedForOthers - l.spentBefore - l.spentRun
	if r < 0 {
		return 0
	}
	return r
}

// Reserve reports whether n calls fit in the remaining budget.
func (l *Ledger) Reserve(n int) bool {
	return n <= l.Remaining()
}

// Spend records n calls issued during this run.
func (l *Ledger) Spend(n int) {
	if n > 0 {
		l.spentRun += n
	}
}

// SpentThisRun returns the calls this run has issued so far.
func (l *Ledger) SpentThisRun() int {
	return l.spentRun
}

// SpentThisPeriod returns total spend inside the current reset period,
// this run included.
func (l *Ledger) SpentThisPeriod() int {
	return l.spentBefore + l.spentRun
}

// Snapshot folds the finished run into an updated status document: the
// report becomes lastRun, joins the capped history, and the period usage
// is recomputed.
func (l *Ledger) Snapshot(report RunReport) Status {
	now := l.now().In(l.cfg.Location())
	if report.Timestamp == "" {
		report.Timestamp = now.Format(time.RFC3339)
	}

	history := l.prior.History
	if len(history) >= historyCap {
		history = history[len(history)-historyCap+1:]
	}
	history = append(history, HistoryEntry{
		Timestamp:         report.Timestamp,
		ArticlesProcessed: report.ArticlesProcessed,
		APICalls:          report.APICalls,
		Success:           report.Success,
		IsManual:          report.IsManual,
	})

	used := l.SpentThisPeriod()
	percentage := 0
	if l.cfg.DailyLimit > 0 {
		percentage = used * 100 / l.cfg.DailyLimit
		if percentage > 100 {
			percentage = 100
		}
	}

	return Status{
		LastUpdated: now.Format(time.RFC3339),
		APIUsage:    APIUsage{Used: used, Limit: l.cfg.DailyLimit, Percentage: percentage},
		LastRun:     report,
		History:     history,
	}
}

// spentInPeriod sums apiCalls of history entries timestamped inside the
// current period, adding lastRun when it is absent from the history.
func (l *Ledger) spentInPeriod(status Status) int {
	start := l.PeriodStart()
	end := l.NextReset()

	total := 0
	seen := make(map[string]struct{}, len(status.History))
	for _, entry := range status.History {
		ts, err := parseTimestamp(entry.Timestamp, l.cfg.Location())
		if err != nil {
			continue
		}
		seen[entry.Timestamp] = struct{}{}
		if !ts.Before(start) && ts.Before(end) {
			total += entry.APICalls
		}
	}

	if status.LastRun.Timestamp != "" {
		if _, dup := seen[status.LastRun.Timestamp]; !dup {
			ts, err := parseTimestamp(status.LastRun.Timestamp, l.cfg.Location())
			if err == nil && !ts.Before(start) && ts.Before(end) {
				total += status.LastRun.APICalls
			}
		}
	}
	return total
}

func parseTimestamp(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	// Older documents stored naive local timestamps.
	return time.ParseInLocation("2006-01-02T15:04:05", value, loc)
}

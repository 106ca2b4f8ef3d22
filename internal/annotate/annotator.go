// Package annotate wraps the budget-limited external text-generation call:
// summary + category + keyword, or a skip verdict, with caching, bounded
// retry on rate limits, and output-quality validation.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"NewsCurator/internal/apperr"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

// State is the per-candidate outcome of annotation.
type State string

const (
	StateAnnotated  State = "annotated"
	StateSkipped    State = "skipped"
	StateNeedsRetry State = "needs_retry"
)

// Result carries the annotation outcome. CallsSpent is reported so the
// quota ledger — the sole owner of call counts — can record the spend.
type Result struct {
	State       State
	Summary     string
	Category    string
	MainKeyword string
	Quality     domain.SummaryQuality
	CallsSpent  int
	Err         error
}

// Options tune the client; zero RequestDelay disables the inter-call wait
// (used by tests).
type Options struct {
	RequestDelay  time.Duration
	BackoffBase   time.Duration
	MaxAttempts   int
	SummaryMinLen int
	SummaryMaxLen int
}

// Annotator issues strictly serial annotation calls. Serial execution
// keeps quota accounting exact; the rate ceiling is lower than any useful
// parallelism anyway.
type Annotator struct {
	gen    ports.TextGenerator
	cache  ports.SummaryCache
	opts   Options
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration)
}

// New builds an annotator. cache may be nil (every call is then a full
// call).
func New(gen ports.TextGenerator, cache ports.SummaryCache, opts Options, logger *slog.Logger) *Annotator {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.SummaryMinLen <= 0 {
		opts.SummaryMinLen = 20
	}
	if opts.SummaryMaxLen <= 0 {
		opts.SummaryMaxLen = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Annotator{
		gen:    gen,
		cache:  cache,
		opts:   opts,
		logger: logger,
		sleep:  sleepCtx,
	}
}

// Annotate resolves one candidate. A cached summary downgrades the call to
// a category-only reclassification, which halves the token cost for
// unchanged content.
func (a *Annotator) Annotate(ctx context.Context, cand domain.Candidate) Result {
	if a.gen == nil {
		return Result{State: StateNeedsRetry, Quality: domain.QualityPlaceholder, Err: errors.New("no text generator configured")}
	}

	if a.cache != nil {
		if entry, ok, err := a.cache.Get(cand.URL); err != nil {
			a.logger.Warn("summary cache lookup failed", "url", cand.URL, "error", err)
		} else if ok {
			return a.reclassify(ctx, cand, entry)
		}
	}
	return a.fullAnnotate(ctx, cand)
}

func (a *Annotator) fullAnnotate(ctx context.Context, cand domain.Candidate) Result {
	raw, err := a.generate(ctx, fullPrompt(cand, a.opts.SummaryMaxLen))
	if err != nil {
		return a.failure(cand, err)
	}
	res := Result{CallsSpent: 1}

	if isSkipToken(raw) {
		res.State = StateSkipped
		a.pause(ctx)
		return res
	}

	payload, err := parsePayload(raw)
	if err != nil {
		// Malformed output is a distinct class from an editorial skip and
		// from rate limiting; it is retried on a later run, not now.
		a.logger.Warn("annotation payload unparseable", "url", cand.URL, "error", err)
		res.State = StateNeedsRetry
		res.Quality = domain.QualityPlaceholder
		res.Err = fmt.Errorf("%w: %v", apperr.ErrMalformed, err)
		a.pause(ctx)
		return res
	}

	quality := ValidateSummary(payload.Summary, a.opts.SummaryMinLen, a.opts.SummaryMaxLen)
	category := domain.NormalizeCategory(payload.Category)

	if quality != domain.QualityValid {
		// Never persist a truncated or copied fragment; the candidate gets
		// the placeholder and a retry flag instead.
		a.logger.Warn("summary failed validation", "url", cand.URL, "quality", string(quality))
		res.State = StateNeedsRetry
		res.Quality = quality
		res.Category = category
		res.MainKeyword = payload.MainKeyword
		a.pause(ctx)
		return res
	}

	res.State = StateAnnotated
	res.Summary = payload.Summary
	res.Category = category
	res.MainKeyword = payload.MainKeyword
	res.Quality = domain.QualityValid

	if a.cache != nil {
		if err := a.cache.Put(ports.CachedAnnotation{
			URL:         cand.URL,
			Summary:     payload.Summary,
			Category:    category,
			MainKeyword: payload.MainKeyword,
		}); err != nil {
			a.logger.Warn("summary cache write failed", "url", cand.URL, "error", err)
		}
	}

	a.pause(ctx)
	return res
}

// reclassify asks only for a category, returning the cached summary
// unchanged on success.
func (a *Annotator) reclassify(ctx context.Context, cand domain.Candidate, entry ports.CachedAnnotation) Result {
	raw, err := a.generate(ctx, categoryPrompt(cand))
	if err != nil {
		return a.failure(cand, err)
	}

	res := Result{
		State:       StateAnnotated,
		Summary:     entry.Summary,
		Category:    domain.NormalizeCategory(raw),
		MainKeyword: entry.MainKeyword,
		Quality:     domain.QualityValid,
		CallsSpent:  1,
	}
	a.pause(ctx)
	return res
}

// generate issues one provider call, retrying only rate-limit failures
// with exponential backoff. The retry count is structurally bounded.
func (a *Annotator) generate(ctx context.Context, prompt string) (string, error) {
	bo := backoff.NewExponentialBackOff()
	if a.opts.BackoffBase > 0 {
		bo.InitialInterval = a.opts.BackoffBase
	}
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	var out string
	operation := func() error {
		raw, err := a.gen.Generate(ctx, prompt)
		if err != nil {
			if errors.Is(err, apperr.ErrRateLimited) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = raw
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(a.opts.MaxAttempts-1)), ctx)
	notify := func(err error, wait time.Duration) {
		a.logger.Warn("annotation call rate limited, backing off", "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return "", err
	}
	return out, nil
}

func (a *Annotator) failure(cand domain.Candidate, err error) Result {
	a.logger.Error("annotation call failed", "url", cand.URL, "error", err)
	return Result{
		State:      StateNeedsRetry,
		Quality:    domain.QualityPlaceholder,
		CallsSpent: 1,
		Err:        err,
	}
}

// pause enforces the fixed inter-call delay that keeps the serial loop
// under the provider's requests-per-minute ceiling. Independent of retry
// backoff.
func (a *Annotator) pause(ctx context.Context) {
	if a.opts.RequestDelay > 0 {
		a.sleep(ctx, a.opts.RequestDelay)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

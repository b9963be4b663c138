package runner

import (
	"context"
	"net/http"
	"time"

	"smokegomodule/internal/config"
	"smokegomodule/internal/metrics"
	"smokegomodule/internal/types"
	"smokegomodule/shared/logging"
)

// Progress receives per-account notifications as the run advances
type Progress interface {
	AccountStarted(account types.TestAccount)
	AccountFinished(result types.TestResult)
}

type noopProgress struct{}

func (noopProgress) AccountStarted(types.TestAccount)  {}
func (noopProgress) AccountFinished(types.TestResult) {}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Runner drives the login, probe and logout sequence for each account
type Runner struct {
	target    config.TargetConfig
	run       config.RunConfig
	logger    logging.Logger
	progress  Progress
	sleep     SleepFunc
	transport http.RoundTripper
	metrics   *metrics.Collector
}

// Option customizes a Runner
type Option func(*Runner)

// WithProgress reports per-account progress to p
func WithProgress(p Progress) Option {
	return func(r *Runner) {
		if p != nil {
			r.progress = p
		}
	}
}

// WithSleep replaces the pacing wait
func WithSleep(fn SleepFunc) Option {
	return func(r *Runner) {
		if fn != nil {
			r.sleep = fn
		}
	}
}

// WithTransport sets the HTTP transport shared by every session
func WithTransport(rt http.RoundTripper) Option {
	return func(r *Runner) {
		r.transport = rt
	}
}

// WithMetrics records step latency and account outcomes into c
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) {
		r.metrics = c
	}
}

// NewRunner creates a runner for the target described by cfg
func NewRunner(target config.TargetConfig, run config.RunConfig, logger logging.Logger, opts ...Option) *Runner {
	r := &Runner{
		target:   target,
		run:      run,
		logger:   logger,
		progress: noopProgress{},
		sleep:    Sleep,
		metrics:  metrics.NewCollector(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sleep waits for d, returning early with the context's error when it is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run tests every account in order, pausing for the pacing delay between accounts.
// It always returns exactly one result per account; once ctx is done the remaining
// accounts are recorded as canceled without contacting the target.
func (r *Runner) Run(ctx context.Context, accounts []types.TestAccount) []types.TestResult {
	results := make([]types.TestResult, 0, len(accounts))

	for i, account := range accounts {
		if err := ctx.Err(); err != nil {
			results = append(results, r.canceled(account, err))
			continue
		}

		results = append(results, r.TestLogin(ctx, account))

		if i < len(accounts)-1 {
			if err := r.sleep(ctx, r.run.PacingDelay); err != nil {
				r.logger.Warnw("pacing interrupted", "remaining", len(accounts)-i-1)
			}
		}
	}
	return results
}

func (r *Runner) canceled(account types.TestAccount, err error) types.TestResult {
	r.progress.AccountStarted(account)
	result := types.NewTestResult(account, false, false, "")
	result.ErrorKind = types.ErrorKindCanceled
	result.Error = err.Error()
	r.metrics.RecordResult(result)
	r.progress.AccountFinished(result)
	return result
}

// Metrics returns the collector the runner records into
func (r *Runner) Metrics() *metrics.Collector {
	return r.metrics
}

// Package publish fans a finished run out to optional result sinks. Sink
// failures are logged and never change the run's results.
package publish

import (
	"context"
	"time"

	"smokegomodule/internal/types"
	"smokegomodule/shared/logging"
)

// Publisher delivers a run report to one sink
type Publisher interface {
	Name() string
	Publish(ctx context.Context, report types.Report) error
	Close() error
}

// resultDocument is the shape of a single result in every sink
type resultDocument struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	BaseURL   string    `json:"base_url"`
	types.TestResult
}

func documentsFor(report types.Report) []resultDocument {
	docs := make([]resultDocument, 0, len(report.Results))
	for _, r := range report.Results {
		docs = append(docs, resultDocument{
			RunID:      report.RunID,
			Timestamp:  report.Timestamp,
			BaseURL:    report.BaseURL,
			TestResult: r,
		})
	}
	return docs
}

// Fanout publishes to every configured sink
type Fanout struct {
	publishers []Publisher
	logger     logging.Logger
}

// NewFanout creates a fan-out over publishers
func NewFanout(logger logging.Logger, publishers ...Publisher) *Fanout {
	return &Fanout{publishers: publishers, logger: logger}
}

// Len returns the number of sinks
func (f *Fanout) Len() int {
	return len(f.publishers)
}

// Publish delivers report to each sink in turn and returns how many failed
func (f *Fanout) Publish(ctx context.Context, report types.Report) int {
	failed := 0
	for _, p := range f.publishers {
		start := time.Now()
		if err := p.Publish(ctx, report); err != nil {
			failed++
			f.logger.WithError(err).Errorw("failed to publish results", "publisher", p.Name(), "runId", report.RunID)
			continue
		}
		f.logger.Infow("results published", "publisher", p.Name(), "runId", report.RunID,
			"count", len(report.Results), "elapsed", time.Since(start).String())
	}
	return failed
}

// Close closes every sink, logging failures
func (f *Fanout) Close() {
	for _, p := range f.publishers {
		if err := p.Close(); err != nil {
			f.logger.WithError(err).Warnw("failed to close publisher", "publisher", p.Name())
		}
	}
}

// Package metrics aggregates per-step request latency for a smoke run.
package metrics

import (
	"sync"
	"time"

	"smokegomodule/internal/types"
	"smokegomodule/shared/logging"
)

// Steps of an account's sequence, in the order they run
const (
	StepLoginPage   = "login_page"
	StepCredentials = "credentials"
	StepProbe       = "probe"
	StepSignout     = "signout"
)

var stepOrder = []string{StepLoginPage, StepCredentials, StepProbe, StepSignout}

// StepMetrics holds metrics for one step across all accounts
type StepMetrics struct {
	Step           string        `json:"step"`
	Completed      int64         `json:"completed"`
	Failed         int64         `json:"failed"`
	AverageLatency time.Duration `json:"averageLatency"`
	MinLatency     time.Duration `json:"minLatency"`
	MaxLatency     time.Duration `json:"maxLatency"`
	TotalLatency   time.Duration `json:"totalLatency"`
}

// RunMetrics holds the metrics of a whole run
type RunMetrics struct {
	AccountsTested int64                   `json:"accountsTested"`
	Passed         int64                   `json:"passed"`
	Failed         int64                   `json:"failed"`
	ErrorsByKind   map[string]int64        `json:"errorsByKind"`
	Steps          map[string]*StepMetrics `json:"steps"`
}

// Collector accumulates step and account metrics. Safe for concurrent use.
type Collector struct {
	mu  sync.RWMutex
	run *RunMetrics
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		run: &RunMetrics{
			ErrorsByKind: make(map[string]int64),
			Steps:        make(map[string]*StepMetrics),
		},
	}
}

// RecordStep records one request of step. A request that got a response is
// completed whatever its status code; ok is false only for transport faults.
func (c *Collector) RecordStep(step string, latency time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sm, exists := c.run.Steps[step]
	if !exists {
		sm = &StepMetrics{Step: step}
		c.run.Steps[step] = sm
	}

	if !ok {
		sm.Failed++
		return
	}

	sm.Completed++
	sm.TotalLatency += latency
	sm.AverageLatency = time.Duration(int64(sm.TotalLatency) / sm.Completed)
	if sm.MinLatency == 0 || latency < sm.MinLatency {
		sm.MinLatency = latency
	}
	if latency > sm.MaxLatency {
		sm.MaxLatency = latency
	}
}

// RecordResult counts a finished account
func (c *Collector) RecordResult(result types.TestResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.run.AccountsTested++
	if result.Passed() {
		c.run.Passed++
	} else {
		c.run.Failed++
	}
	if result.ErrorKind != types.ErrorKindNone {
		c.run.ErrorsByKind[string(result.ErrorKind)]++
	}
}

// Snapshot returns a copy of the current metrics
func (c *Collector) Snapshot() *RunMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := *c.run
	out.ErrorsByKind = make(map[string]int64, len(c.run.ErrorsByKind))
	for k, v := range c.run.ErrorsByKind {
		out.ErrorsByKind[k] = v
	}
	out.Steps = make(map[string]*StepMetrics, len(c.run.Steps))
	for k, v := range c.run.Steps {
		stepCopy := *v
		out.Steps[k] = &stepCopy
	}
	return &out
}

// Dump logs the run totals and one entry per step that ran
func (c *Collector) Dump(logger logging.Logger) {
	m := c.Snapshot()

	fields := logging.Fields{
		"accountsTested": m.AccountsTested,
		"passed":         m.Passed,
		"failed":         m.Failed,
	}
	for kind, n := range m.ErrorsByKind {
		fields["errors."+kind] = n
	}
	logger.WithFields(fields).Info("Run metrics summary")

	for _, step := range stepOrder {
		sm, ok := m.Steps[step]
		if !ok {
			continue
		}
		logger.WithFields(logging.Fields{
			"step":           step,
			"completed":      sm.Completed,
			"failed":         sm.Failed,
			"averageLatency": latencyString(sm.AverageLatency),
			"minLatency":     latencyString(sm.MinLatency),
			"maxLatency":     latencyString(sm.MaxLatency),
		}).Info("Step metrics")
	}
}

func latencyString(d time.Duration) string {
	if d <= 0 {
		return "N/A"
	}
	return d.String()
}

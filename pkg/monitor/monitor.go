// Package monitor runs the two monitoring jobs: month-to-date spend against a
// cost threshold, and running-instance CPU against a utilization threshold.
// Each run fetches, evaluates, builds one report and hands it to the notifier.
package monitor

import (
	"context"
	"log/slog"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/metrics"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/usage"
)

// Exit codes reported in Result.
const (
	ExitOK    = 0
	ExitError = 1
)

// DefaultConcurrency bounds parallel utilization lookups when Config leaves it unset.
const DefaultConcurrency = 8

// CostFetcher returns the spend for a billing period.
type CostFetcher interface {
	FetchMonthToDateCost(ctx context.Context, period model.BillingPeriod) (model.CostSample, error)
}

// InventoryFetcher lists compute instances in discovery order.
type InventoryFetcher interface {
	ListInstances(ctx context.Context) ([]model.ResourceInstance, error)
}

// Config holds the thresholds and limits for both jobs.
type Config struct {
	CostThreshold float64
	CPUThreshold  float64
	Concurrency   int
}

// Result is the outcome of one job run. Report is nil when Err is set.
// DeliveryErr never changes ExitCode.
type Result struct {
	Report      *model.AlertReport
	ExitCode    int
	Err         error
	DeliveryErr error
	Notified    bool
	Verdicts    []model.ThresholdVerdict
}

// Monitor runs monitoring jobs against injected collaborators.
type Monitor struct {
	cfg       Config
	cost      CostFetcher
	inventory InventoryFetcher
	source    usage.Source
	notifier  alerts.Notifier
	logger    *slog.Logger
}

// New creates a Monitor. notifier may be nil, in which case reports are
// built but not delivered.
func New(cfg Config, cost CostFetcher, inventory InventoryFetcher, src usage.Source, notifier alerts.Notifier, logger *slog.Logger) *Monitor {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Monitor{
		cfg:       cfg,
		cost:      cost,
		inventory: inventory,
		source:    src,
		notifier:  notifier,
		logger:    logger,
	}
}

// Config returns the effective configuration.
func (m *Monitor) Config() Config { return m.cfg }

func (m *Monitor) abort(job string, err error) Result {
	m.logger.Error("check aborted",
		"job", job,
		"class", metrics.Classification(err),
		"error", err,
	)
	return Result{ExitCode: ExitError, Err: err}
}

func (m *Monitor) deliver(ctx context.Context, res *Result) {
	if m.notifier == nil {
		return
	}
	res.Notified = true
	if err := m.notifier.Send(ctx, res.Report); err != nil {
		res.DeliveryErr = err
	}
}

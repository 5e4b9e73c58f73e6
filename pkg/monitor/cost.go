package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/report"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/threshold"
)

// CheckCost runs the cost job with the configured threshold.
func (m *Monitor) CheckCost(ctx context.Context, now time.Time) Result {
	return m.RunCostCheck(ctx, m.cfg.CostThreshold, now)
}

// RunCostCheck compares month-to-date spend with limit. Only an exceeded
// limit is delivered to the notifier; a within-budget report is returned
// undelivered.
func (m *Monitor) RunCostCheck(ctx context.Context, limit float64, now time.Time) Result {
	period := model.CurrentMonthRange(now)

	sample, err := m.cost.FetchMonthToDateCost(ctx, period)
	if err != nil {
		return m.abort("cost", fmt.Errorf("fetch month-to-date cost: %w", err))
	}

	verdict := threshold.CostVerdict(sample, limit)
	m.logger.Info("cost evaluated",
		"period", period.String(),
		"amount", sample.Amount.StringFixed(2),
		"threshold", limit,
		"exceeded", verdict.Exceeded,
	)

	res := Result{ExitCode: ExitOK, Verdicts: []model.ThresholdVerdict{verdict}}
	if !verdict.Exceeded {
		res.Report = report.BuildCostWithinBudget(sample, limit)
		return res
	}

	res.Report = report.BuildCostAlert(sample, limit, verdict.Overage)
	m.logger.Warn("cost threshold exceeded",
		"amount", sample.Amount.StringFixed(2),
		"threshold", limit,
		"overage", verdict.Overage,
	)
	m.deliver(ctx, &res)
	return res
}

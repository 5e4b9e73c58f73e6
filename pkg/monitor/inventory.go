package monitor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/report"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/threshold"
)

// CheckInventory runs the inventory job with the configured threshold.
func (m *Monitor) CheckInventory(ctx context.Context) Result {
	return m.RunInventoryCheck(ctx, m.cfg.CPUThreshold)
}

// RunInventoryCheck samples CPU for every running instance and reports those
// above limit. The report is always delivered, including no-alert runs.
func (m *Monitor) RunInventoryCheck(ctx context.Context, limit float64) Result {
	instances, err := m.inventory.ListInstances(ctx)
	if err != nil {
		return m.abort("inventory", fmt.Errorf("list instances: %w", err))
	}

	running, skipped := threshold.Running(instances)
	m.logger.Info("inventory listed",
		"total", len(instances),
		"running", len(running),
		"skipped", skipped,
		"source", m.source.Name(),
	)

	samples, err := m.sample(ctx, running)
	if err != nil {
		return m.abort("inventory", err)
	}

	verdicts := make([]model.ThresholdVerdict, len(running))
	for i, inst := range running {
		verdicts[i] = threshold.InstanceVerdict(inst, samples[i], limit)
	}

	summary := model.ReportSummary{
		Total:     len(instances),
		Evaluated: len(running),
		Skipped:   skipped,
		Threshold: limit,
	}
	res := Result{
		ExitCode: ExitOK,
		Report:   report.BuildInventoryAlert(verdicts, summary),
		Verdicts: verdicts,
	}
	if !res.Report.NoAlerts {
		m.logger.Warn("cpu threshold exceeded",
			"instances", res.Report.Summary.Exceeded,
			"threshold", limit,
		)
	}
	m.deliver(ctx, &res)
	return res
}

// sample looks up utilization for each instance with bounded concurrency.
// Results are stored by index so they line up with instances.
func (m *Monitor) sample(ctx context.Context, instances []model.ResourceInstance) ([]model.UtilizationSample, error) {
	samples := make([]model.UtilizationSample, len(instances))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Concurrency)
	for i, inst := range instances {
		g.Go(func() error {
			s, err := m.source.Sample(gctx, inst.ID)
			if err != nil {
				return fmt.Errorf("sample utilization for %s: %w", inst.ID, err)
			}
			samples[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}
